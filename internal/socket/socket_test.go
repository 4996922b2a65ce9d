package socket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/maquettehq/mqbridge/internal/backoff"
	"github.com/maquettehq/mqbridge/internal/clock"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
	inbox  chan []byte
	sent   [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbox: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	msg, ok := <-c.inbox
	if !ok {
		return nil, io.EOF
	}
	return msg, nil
}

func (c *fakeConn) WriteMessage(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbox)
	}
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeDialer follows a script of attempt outcomes; attempts beyond the
// script succeed. Every attempt is signalled on dialed.
type fakeDialer struct {
	mu      sync.Mutex
	script  []bool
	attempt int
	conns   []*fakeConn
	dialed  chan struct{}
}

func newFakeDialer(script ...bool) *fakeDialer {
	return &fakeDialer{script: script, dialed: make(chan struct{}, 32)}
}

func failures(n int) []bool {
	return make([]bool, n)
}

func (d *fakeDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	ok := true
	if d.attempt < len(d.script) {
		ok = d.script[d.attempt]
	}
	d.attempt++
	var conn *fakeConn
	if ok {
		conn = newFakeConn()
		d.conns = append(d.conns, conn)
	}
	d.mu.Unlock()

	d.dialed <- struct{}{}
	if conn == nil {
		return nil, errors.New("connection refused")
	}
	return conn, nil
}

func (d *fakeDialer) attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempt
}

func waitDialed(t *testing.T, d *fakeDialer) {
	t.Helper()
	select {
	case <-d.dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a dial attempt")
	}
}

type connectResult struct {
	conn Conn
	err  error
}

func waitResult(t *testing.T, done <-chan connectResult) connectResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Connect to return")
		return connectResult{}
	}
}

func newTestManager(d Dialer, clk clock.Clock) *Manager {
	m := New("ws://maquette.test/socket", d, backoff.Policy{Floor: time.Second, Ceiling: 30 * time.Second}, clk)
	m.logf = func(string, ...any) {}
	return m
}

func TestConnectRetriesWithDoublingDelays(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	d := newFakeDialer(failures(3)...)
	m := newTestManager(d, clk)

	done := make(chan connectResult, 1)
	go func() {
		conn, err := m.Connect(context.Background())
		done <- connectResult{conn, err}
	}()

	waitDialed(t, d)
	for _, delay := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		clk.BlockUntilWaiters(1)
		if got := m.State(); got != StateDisconnected {
			t.Fatalf("state during backoff = %s, want %s", got, StateDisconnected)
		}
		clk.Advance(delay)
		waitDialed(t, d)
	}

	res := waitResult(t, done)
	if res.err != nil {
		t.Fatalf("Connect returned error: %v", res.err)
	}
	if got := m.State(); got != StateOpen {
		t.Fatalf("state after open = %s, want %s", got, StateOpen)
	}
	if got := d.attempts(); got != 4 {
		t.Fatalf("dial attempts = %d, want 4", got)
	}
}

func TestSuccessfulOpenResetsBackoffDelay(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	d := newFakeDialer(false, true, false, true)
	m := newTestManager(d, clk)

	done := make(chan connectResult, 1)
	go func() {
		conn, err := m.Connect(context.Background())
		done <- connectResult{conn, err}
	}()

	waitDialed(t, d)
	clk.BlockUntilWaiters(1)
	clk.Advance(time.Second)
	waitDialed(t, d)

	res := waitResult(t, done)
	if res.err != nil {
		t.Fatalf("first Connect: %v", res.err)
	}

	m.Drop(res.conn)

	go func() {
		conn, err := m.Connect(context.Background())
		done <- connectResult{conn, err}
	}()

	waitDialed(t, d)
	clk.BlockUntilWaiters(1)
	// The wait after this failure must be the floor again, not the
	// doubled value left over from the first cycle.
	clk.Advance(time.Second)
	waitDialed(t, d)

	res = waitResult(t, done)
	if res.err != nil {
		t.Fatalf("second Connect: %v", res.err)
	}
	if got := d.attempts(); got != 4 {
		t.Fatalf("dial attempts = %d, want 4", got)
	}
}

func TestShutdownDuringBackoffWaitStopsAfterWaitExpires(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	d := newFakeDialer(failures(100)...)
	m := newTestManager(d, clk)

	done := make(chan connectResult, 1)
	go func() {
		conn, err := m.Connect(context.Background())
		done <- connectResult{conn, err}
	}()

	waitDialed(t, d)
	clk.BlockUntilWaiters(1)

	m.Shutdown()
	select {
	case res := <-done:
		t.Fatalf("Connect returned before the backoff wait expired: %+v", res)
	default:
	}

	clk.Advance(time.Second)
	res := waitResult(t, done)
	if !errors.Is(res.err, ErrShuttingDown) {
		t.Fatalf("Connect error = %v, want ErrShuttingDown", res.err)
	}
	if got := d.attempts(); got != 1 {
		t.Fatalf("dial attempts after shutdown = %d, want 1", got)
	}
}

func TestShutdownClosesActiveConnection(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	d := newFakeDialer()
	m := newTestManager(d, clk)

	conn, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := m.State(); got != StateOpen {
		t.Fatalf("state = %s, want %s", got, StateOpen)
	}

	m.Shutdown()
	if !d.conns[0].isClosed() {
		t.Fatal("active connection not closed by Shutdown")
	}
	if got := m.State(); got != StateDisconnected {
		t.Fatalf("state after Shutdown = %s, want %s", got, StateDisconnected)
	}

	if _, err := m.Connect(context.Background()); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("Connect after Shutdown = %v, want ErrShuttingDown", err)
	}
	if got := d.attempts(); got != 1 {
		t.Fatalf("dial attempts = %d, want 1", got)
	}
	_ = conn
}

func TestDropOnlyDiscardsMatchingConnection(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	d := newFakeDialer()
	m := newTestManager(d, clk)

	conn, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	stale := newFakeConn()
	m.Drop(stale)
	if !stale.isClosed() {
		t.Fatal("Drop did not close the passed connection")
	}
	if got := m.State(); got != StateOpen {
		t.Fatalf("state after dropping a stale conn = %s, want %s", got, StateOpen)
	}

	m.Drop(conn)
	if got := m.State(); got != StateDisconnected {
		t.Fatalf("state after dropping the active conn = %s, want %s", got, StateDisconnected)
	}
}

func TestManagerStartsDisconnected(t *testing.T) {
	m := newTestManager(newFakeDialer(), clock.Fake(time.Unix(0, 0)))
	if got := m.State(); got != StateDisconnected {
		t.Fatalf("initial state = %s, want %s", got, StateDisconnected)
	}
}
