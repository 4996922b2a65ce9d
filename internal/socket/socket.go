// Package socket manages the single WebSocket connection to the
// Maquette endpoint: lazy dialing, bounded exponential backoff, and an
// explicit connection state machine.
package socket

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/maquettehq/mqbridge/internal/backoff"
	"github.com/maquettehq/mqbridge/internal/clock"
)

// State of the managed connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrShuttingDown is returned by Connect once Shutdown has been called.
var ErrShuttingDown = errors.New("shutting down")

// Conn is one established socket connection.
type Conn interface {
	// ReadMessage blocks for the next inbound message.
	ReadMessage() ([]byte, error)
	// WriteMessage sends one outbound message. Safe for concurrent use.
	WriteMessage(payload []byte) error
	Close() error
}

// Dialer opens a Conn to the given URL.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// Manager owns at most one connection at a time. Connect dials with
// exponential backoff between failures; only a successful open resets
// the delay.
type Manager struct {
	url    string
	dialer Dialer
	policy backoff.Policy
	clk    clock.Clock
	logf   func(format string, args ...any)

	mu       sync.Mutex
	state    State
	conn     Conn
	delay    time.Duration
	shutdown bool
}

// New creates a Manager for url. The policy must have been validated.
func New(url string, dialer Dialer, policy backoff.Policy, clk clock.Clock) *Manager {
	return &Manager{
		url:    url,
		dialer: dialer,
		policy: policy,
		clk:    clk,
		delay:  policy.Reset(),
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "mqbridge: "+format+"\n", args...)
		},
	}
}

// State reports the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect returns an open connection, dialing and retrying until one
// is established. Each failure is logged and waits the current backoff
// delay before the next attempt. A backoff wait in flight when
// Shutdown is called runs to completion; the loop then observes the
// flag and returns ErrShuttingDown.
func (m *Manager) Connect(ctx context.Context) (Conn, error) {
	for {
		m.mu.Lock()
		if m.shutdown {
			m.mu.Unlock()
			return nil, ErrShuttingDown
		}
		m.state = StateConnecting
		m.mu.Unlock()

		conn, err := m.dialer.DialContext(ctx, m.url)
		if err == nil {
			m.mu.Lock()
			if m.shutdown {
				m.mu.Unlock()
				conn.Close()
				return nil, ErrShuttingDown
			}
			m.conn = conn
			m.state = StateOpen
			m.delay = m.policy.Reset()
			m.mu.Unlock()
			return conn, nil
		}

		m.mu.Lock()
		m.state = StateDisconnected
		wait := m.delay
		m.delay = m.policy.Next(wait)
		m.mu.Unlock()

		m.logf("connect %s: %v (retrying in %s)", m.url, err, wait)
		<-m.clk.After(wait)
	}
}

// Drop discards conn if it is still the active connection and closes
// it. The next Connect dials fresh.
func (m *Manager) Drop(conn Conn) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
		m.state = StateDisconnected
	}
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Shutdown sets the one-way shutdown flag and closes the active
// connection if open. Connect never dials again afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.shutdown = true
	conn := m.conn
	m.conn = nil
	if conn != nil {
		m.state = StateClosing
	}
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
	}
}
