package relay

import "sync"

// sendQueue is the bounded buffer behind QueueWhileDisconnected. When
// full, the oldest entry is discarded to make room, so a long outage
// keeps the most recent requests.
type sendQueue struct {
	mu    sync.Mutex
	max   int
	items [][]byte
}

func newSendQueue(max int) *sendQueue {
	return &sendQueue{max: max}
}

// push appends payload and returns true when an older entry was
// discarded to make room.
func (q *sendQueue) push(payload []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := false
	if len(q.items) >= q.max {
		q.items = q.items[1:]
		dropped = true
	}
	q.items = append(q.items, payload)
	return dropped
}

// drain removes and returns all queued payloads in arrival order.
func (q *sendQueue) drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// requeueFront puts unsent payloads back at the head, ahead of
// anything queued since the drain. Overflow discards from the oldest
// end.
func (q *sendQueue) requeueFront(payloads [][]byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(append([][]byte(nil), payloads...), q.items...)
	if len(q.items) > q.max {
		q.items = q.items[len(q.items)-q.max:]
	}
}

func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
