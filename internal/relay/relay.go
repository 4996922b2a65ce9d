// Package relay runs the bridge's continuous mode: host lines from
// stdin are normalized and forwarded to the Maquette socket, inbound
// socket messages are framed onto stdout, and lost connections are
// reopened behind the scenes without disturbing the stdin stream.
package relay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/maquettehq/mqbridge/internal/socket"
	"github.com/maquettehq/mqbridge/internal/wire"
)

// SendPolicy names what happens to an outbound request that arrives
// while the socket is not open.
type SendPolicy int

const (
	// DropWhileDisconnected discards the request with a stderr
	// notice. The default; callers needing delivery must retry.
	DropWhileDisconnected SendPolicy = iota
	// QueueWhileDisconnected holds requests in a bounded queue,
	// oldest discarded first, and flushes them on reconnect.
	QueueWhileDisconnected
)

func (p SendPolicy) String() string {
	switch p {
	case DropWhileDisconnected:
		return "drop"
	case QueueWhileDisconnected:
		return "queue"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// maxLineBytes bounds one host line. Scene payloads travel through
// chunked tool calls, so a single line stays well under this.
const maxLineBytes = 4 << 20

// Connector hands out open socket connections. *socket.Manager
// satisfies it.
type Connector interface {
	Connect(ctx context.Context) (socket.Conn, error)
	Drop(conn socket.Conn)
	Shutdown()
}

// Relay pumps stdin to the socket and the socket to stdout.
type Relay struct {
	conns  Connector
	in     io.Reader
	out    *wire.Output
	policy SendPolicy
	queue  *sendQueue
	logf   func(format string, args ...any)

	mu      sync.Mutex
	current socket.Conn
}

// New builds a Relay reading host lines from in. queueSize is only
// consulted under QueueWhileDisconnected.
func New(conns Connector, in io.Reader, out *wire.Output, policy SendPolicy, queueSize int) *Relay {
	r := &Relay{
		conns:  conns,
		in:     in,
		out:    out,
		policy: policy,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "mqbridge: "+format+"\n", args...)
		},
	}
	if policy == QueueWhileDisconnected {
		r.queue = newSendQueue(queueSize)
	}
	return r
}

// Run relays until the host closes stdin, stdin reading fails, or ctx
// is cancelled. The socket side reconnects for as long as Run lives.
func (r *Relay) Run(ctx context.Context) error {
	socketsDone := make(chan struct{})
	go func() {
		defer close(socketsDone)
		r.runSockets(ctx)
	}()

	err := r.pumpStdin(ctx)

	r.conns.Shutdown()
	<-socketsDone
	return err
}

// runSockets is the reconnect loop: obtain a connection, pump its
// inbound messages to stdout until it dies, drop it, repeat.
func (r *Relay) runSockets(ctx context.Context) {
	for {
		conn, err := r.conns.Connect(ctx)
		if err != nil {
			// Connect only fails once shutdown is underway.
			return
		}
		r.setCurrent(conn)
		r.flushQueue(conn)
		r.pumpSocket(conn)
		r.clearCurrent(conn)
		r.conns.Drop(conn)
	}
}

func (r *Relay) pumpSocket(conn socket.Conn) {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			r.logf("socket closed: %v", err)
			return
		}
		if err := r.out.WriteFrame(msg); err != nil {
			r.logf("stdout write: %v", err)
			r.conns.Shutdown()
			return
		}
	}
}

func (r *Relay) pumpStdin(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				return nil
			}
			r.handleLine(line)
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *Relay) handleLine(line string) {
	req, rej := wire.Normalize(line)
	if rej != nil {
		if err := r.out.WriteFrame(rej.JSON()); err != nil {
			r.logf("stdout write: %v", err)
		}
		return
	}
	if req == nil {
		return
	}
	r.send(req)
}

func (r *Relay) send(payload []byte) {
	conn := r.currentConn()
	if conn == nil {
		r.sendWhileDisconnected(payload)
		return
	}
	if err := conn.WriteMessage(payload); err != nil {
		r.logf("socket write: %v", err)
		r.clearCurrent(conn)
		r.conns.Drop(conn)
		r.sendWhileDisconnected(payload)
	}
}

func (r *Relay) sendWhileDisconnected(payload []byte) {
	switch r.policy {
	case QueueWhileDisconnected:
		if r.queue.push(payload) {
			r.logf("send queue full, discarded oldest request")
		}
	default:
		r.logf("socket not open, dropping request")
	}
}

func (r *Relay) flushQueue(conn socket.Conn) {
	if r.queue == nil {
		return
	}
	pending := r.queue.drain()
	for i, payload := range pending {
		if err := conn.WriteMessage(payload); err != nil {
			r.logf("socket write during queue flush: %v", err)
			r.queue.requeueFront(pending[i:])
			return
		}
	}
	if len(pending) > 0 {
		r.logf("flushed %d queued requests", len(pending))
	}
}

func (r *Relay) setCurrent(conn socket.Conn) {
	r.mu.Lock()
	r.current = conn
	r.mu.Unlock()
}

func (r *Relay) clearCurrent(conn socket.Conn) {
	r.mu.Lock()
	if r.current == conn {
		r.current = nil
	}
	r.mu.Unlock()
}

func (r *Relay) currentConn() socket.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
