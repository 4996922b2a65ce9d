package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/maquettehq/mqbridge/internal/backoff"
)

// Send policies for outbound requests while the socket is down.
const (
	SendPolicyDrop  = "drop"
	SendPolicyQueue = "queue"
)

// Env is the environment-derived bridge configuration.
type Env struct {
	// SocketURL is the Maquette WebSocket endpoint. The bridge and the
	// probe refuse to start without it.
	SocketURL string `env:"MAQUETTE_WS_URL"`

	// SendPolicy is applied to outbound requests while disconnected.
	SendPolicy string `env:"MQBRIDGE_SEND_POLICY,default=drop"`
	// QueueSize bounds the reconnect queue when SendPolicy is "queue".
	QueueSize int `env:"MQBRIDGE_QUEUE_SIZE,default=25"`

	BackoffFloor   time.Duration `env:"MQBRIDGE_BACKOFF_FLOOR,default=1s"`
	BackoffCeiling time.Duration `env:"MQBRIDGE_BACKOFF_CEILING,default=30s"`
}

// FromEnv decodes and validates the bridge environment.
func FromEnv() (*Env, error) {
	var cfg Env
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the environment invariants with actionable messages.
func (e *Env) Validate() error {
	if e.SocketURL == "" {
		return fmt.Errorf("MAQUETTE_WS_URL is not set; export the Maquette socket URL (e.g. ws://127.0.0.1:8765)")
	}
	switch e.SendPolicy {
	case SendPolicyDrop, SendPolicyQueue:
	default:
		return fmt.Errorf("MQBRIDGE_SEND_POLICY must be %q or %q, got %q", SendPolicyDrop, SendPolicyQueue, e.SendPolicy)
	}
	if e.QueueSize < 1 {
		return fmt.Errorf("MQBRIDGE_QUEUE_SIZE must be >= 1, got %d", e.QueueSize)
	}
	if err := e.Backoff().Validate(); err != nil {
		return fmt.Errorf("MQBRIDGE_BACKOFF_FLOOR/MQBRIDGE_BACKOFF_CEILING: %w", err)
	}
	return nil
}

// Backoff returns the reconnect policy from the env tuning.
func (e *Env) Backoff() backoff.Policy {
	return backoff.Policy{Floor: e.BackoffFloor, Ceiling: e.BackoffCeiling}
}
