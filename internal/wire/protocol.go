// Package wire defines the line protocol between an MCP host on stdio
// and the Maquette socket: the canonical request envelope, the local
// rejection envelope, and the normalizer that maps host lines onto
// them.
package wire

import "encoding/json"

// Request types understood by the Maquette socket endpoint.
const (
	TypeToolsList = "tools/list"
	TypeToolsCall = "tools/call"
)

// Rejection codes reported for lines the bridge refuses to forward.
const (
	CodeInvalidJSON        = "invalid_json"
	CodeUnsupportedPayload = "unsupported_payload"
	CodeUnsupportedMethod  = "unsupported_method"
)

// Rejection is written to stdout for a line the bridge will not
// forward. It never travels over the socket.
type Rejection struct {
	OK    bool           `json:"ok"` // always false
	Error RejectionError `json:"error"`
}

// RejectionError carries the machine-readable reason for a Rejection.
type RejectionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reject builds a Rejection with the given code and message.
func Reject(code, message string) *Rejection {
	return &Rejection{Error: RejectionError{Code: code, Message: message}}
}

// JSON serializes the Rejection for the output stream.
func (r *Rejection) JSON() []byte {
	out, _ := json.Marshal(r)
	return out
}

// ToolsListRequest returns the canonical tools/list request.
func ToolsListRequest() []byte {
	return []byte(`{"type":"tools/list"}`)
}

// EnsureTrailingNewline terminates one output frame. Payloads already
// ending in a newline pass through unchanged.
func EnsureTrailingNewline(out []byte) []byte {
	if len(out) == 0 || out[len(out)-1] != '\n' {
		return append(out, '\n')
	}
	return out
}
