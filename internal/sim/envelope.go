package sim

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultChunkSize bounds how many objects a single reply carries
// before the caller has to resume with a token.
const DefaultChunkSize = 100

// Envelope is the reply shape for every tool invocation. SceneState is
// always present, even on errors, so the host can re-anchor after a
// failed call. Everything else is optional.
type Envelope struct {
	Status      string         `json:"status"`
	Operation   string         `json:"operation"`
	SceneState  map[string]any `json:"scene_state"`
	Data        map[string]any `json:"data,omitempty"`
	DataDiff    map[string]any `json:"data_diff,omitempty"`
	NextActions []string       `json:"next_actions,omitempty"`
	ResumeToken *ResumeToken   `json:"resume_token,omitempty"`
	Metrics     *Metrics       `json:"metrics,omitempty"`
	Error       *ErrorInfo     `json:"error,omitempty"`
}

// ResumeToken marks where a chunked listing stopped.
type ResumeToken struct {
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type Metrics struct {
	DurationMS int64 `json:"duration_ms"`
}

type ErrorInfo struct {
	Code         string         `json:"code"`
	Message      string         `json:"message"`
	Recoverable  bool           `json:"recoverable"`
	RetryAfterMS int64          `json:"retry_after_ms,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

func nextActions(resume *ResumeToken) []string {
	return []string{fmt.Sprintf(
		"call maquette.scene.snapshot with offset=%d to continue (%d/%d)",
		resume.Offset, resume.Offset, resume.Total)}
}

// chunkToken is the opaque string form of a resume point, handed out as
// data.next_token so stateless callers can page without arithmetic.
type chunkToken struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func encodeChunkToken(offset, limit int) string {
	raw, _ := json.Marshal(chunkToken{Offset: offset, Limit: limit})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeChunkToken(token string) (chunkToken, error) {
	var tok chunkToken
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return tok, fmt.Errorf("decoding chunk token: %w", err)
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return tok, fmt.Errorf("decoding chunk token: %w", err)
	}
	return tok, nil
}
