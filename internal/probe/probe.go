// Package probe implements the one-shot liveness check behind the
// --ping flag: connect, send a single tools/list request, print the
// first reply, and report the outcome through the exit code.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/maquettehq/mqbridge/internal/socket"
	"github.com/maquettehq/mqbridge/internal/wire"
)

// ErrClosedBeforeResponse reports an endpoint that accepted the
// connection but went away without answering.
var ErrClosedBeforeResponse = errors.New("socket closed before response")

// Connector yields an open socket connection. *socket.Manager
// satisfies it.
type Connector interface {
	Connect(ctx context.Context) (socket.Conn, error)
	Drop(conn socket.Conn)
}

// Run sends one tools/list request and writes the first reply to out,
// newline-terminated. Nothing is written on any failure path.
func Run(ctx context.Context, conns Connector, out io.Writer) error {
	conn, err := conns.Connect(ctx)
	if err != nil {
		return err
	}
	defer conns.Drop(conn)

	if err := conn.WriteMessage(wire.ToolsListRequest()); err != nil {
		return fmt.Errorf("sending probe request: %w", err)
	}

	msg, err := conn.ReadMessage()
	if err != nil {
		if socket.IsClose(err) {
			return ErrClosedBeforeResponse
		}
		return fmt.Errorf("waiting for probe response: %w", err)
	}

	if _, err := out.Write(wire.EnsureTrailingNewline(msg)); err != nil {
		return fmt.Errorf("writing probe response: %w", err)
	}
	return nil
}
