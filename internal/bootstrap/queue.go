package bootstrap

// queuedRequest is one host line held until the worker is ready.
type queuedRequest struct {
	id   any
	line string
}

// bootQueue holds host requests that arrive while the worker boots.
// Bounded; pushing past the cap discards the oldest entry. Callers
// serialize access (the Proxy mutex covers it).
type bootQueue struct {
	max   int
	items []queuedRequest
}

func newBootQueue(max int) *bootQueue {
	if max < 1 {
		max = DefaultQueueMax
	}
	return &bootQueue{max: max}
}

// push adds r, returning the entry discarded to make room, if any.
func (q *bootQueue) push(r queuedRequest) (queuedRequest, bool) {
	var dropped queuedRequest
	var ok bool
	if len(q.items) >= q.max {
		dropped, ok = q.items[0], true
		q.items = append(q.items[:0], q.items[1:]...)
	}
	q.items = append(q.items, r)
	return dropped, ok
}

// drain empties the queue, returning entries oldest first.
func (q *bootQueue) drain() []queuedRequest {
	items := q.items
	q.items = nil
	return items
}

func (q *bootQueue) len() int {
	return len(q.items)
}
