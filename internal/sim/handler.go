package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maquettehq/mqbridge/internal/catalog"
	"github.com/maquettehq/mqbridge/internal/wire"
)

// Handler maps one socket payload to one reply, mirroring the worker's
// request loop: typed envelopes for tool traffic, bare ok:false errors
// for payloads that never reach a tool.
type Handler struct {
	scene *Scene
}

func NewHandler(scene *Scene) *Handler {
	return &Handler{scene: scene}
}

func (h *Handler) HandleMessage(raw []byte) []byte {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return socketError("invalid_json", "Payload is not valid JSON")
	}
	msg, ok := payload.(map[string]any)
	if !ok {
		return socketError("unsupported_payload", "Payload must be a JSON object")
	}

	started := time.Now()
	var env Envelope
	switch typ, _ := msg["type"].(string); typ {
	case wire.TypeToolsList:
		env = h.listTools()
	case wire.TypeToolsCall:
		name, _ := msg["name"].(string)
		args, _ := msg["arguments"].(map[string]any)
		if args == nil {
			args, _ = msg["args"].(map[string]any)
		}
		env = h.callTool(name, args)
	default:
		return socketError("unsupported_type", fmt.Sprintf("Unsupported message type: %q", typ))
	}
	env.Metrics = &Metrics{DurationMS: time.Since(started).Milliseconds()}

	out, err := json.Marshal(env)
	if err != nil {
		return socketError("internal_error", "Unhandled error while encoding reply")
	}
	return out
}

// socketError is the transport-level failure shape, used when a payload
// cannot be tied to any operation.
func socketError(code, message string) []byte {
	raw, _ := json.Marshal(map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": map[string]any{},
		},
	})
	return raw
}

func (h *Handler) listTools() Envelope {
	state, _, _ := h.scene.StateChunk(0, DefaultChunkSize)
	return Envelope{
		Status:     "success",
		Operation:  wire.TypeToolsList,
		SceneState: state,
		Data:       map[string]any{"tools": catalog.Tools()},
	}
}

func (h *Handler) callTool(name string, args map[string]any) Envelope {
	if args == nil {
		args = map[string]any{}
	}
	switch name {
	case "maquette.health":
		return h.health(args)
	case "maquette.scene.snapshot":
		return h.snapshot(args)
	case "maquette.scene.snapshot_chunk":
		return h.snapshotChunk(args)
	case "maquette.scene.create_object":
		return h.createObject(args)
	case "maquette.scene.move_object":
		return h.moveObject(args)
	case "maquette.object.get":
		return h.getObject(args)
	case "maquette.object.set_transform":
		return h.setTransform(args)
	case "maquette.ops.status":
		return h.opsLookup("maquette.ops.status", args)
	case "maquette.ops.cancel":
		return h.opsLookup("maquette.ops.cancel", args)
	case "maquette.ops.resume":
		return h.opsResume(args)
	}
	op := name
	if op == "" {
		op = wire.TypeToolsCall
	}
	return h.errorEnvelope(op, "unknown_tool", fmt.Sprintf("Unknown tool: %s", name), false)
}

func (h *Handler) errorEnvelope(operation, code, message string, recoverable bool) Envelope {
	state, _, _ := h.scene.StateChunk(0, DefaultChunkSize)
	return Envelope{
		Status:     "error",
		Operation:  operation,
		SceneState: state,
		Error:      &ErrorInfo{Code: code, Message: message, Recoverable: recoverable},
	}
}

func (h *Handler) health(args map[string]any) Envelope {
	offset := toInt(args["offset"], 0)
	limit := toInt(args["limit"], DefaultChunkSize)
	state, resume, _ := h.scene.StateChunk(offset, limit)
	env := Envelope{
		Status:      "ok",
		Operation:   "maquette.health",
		SceneState:  state,
		Data:        map[string]any{"status": "ready", "worker": "headless"},
		ResumeToken: resume,
	}
	if resume != nil {
		env.NextActions = nextActions(resume)
	}
	return env
}

func (h *Handler) snapshot(args map[string]any) Envelope {
	offset := toInt(firstSet(args["offset"], args["resume_offset"]), 0)
	limit := toInt(firstSet(args["limit_objects"], args["limit"]), DefaultChunkSize)
	return h.snapshotAt("maquette.scene.snapshot", offset, limit)
}

func (h *Handler) snapshotChunk(args map[string]any) Envelope {
	const op = "maquette.scene.snapshot_chunk"
	token := toName(args["token"], "")
	if token == "" {
		return h.errorEnvelope(op, "invalid_params", "snapshot_chunk requires token", false)
	}
	tok, err := decodeChunkToken(token)
	if err != nil {
		return h.errorEnvelope(op, "invalid_token", "Chunk token is not valid", false)
	}
	return h.snapshotAt(op, tok.Offset, tok.Limit)
}

// snapshotAt renders one window of the listing. A partial window keeps
// paging state in three redundant forms so any client style works: the
// structured resume_token, an opaque data.next_token, and a plain-text
// next action.
func (h *Handler) snapshotAt(op string, offset, limit int) Envelope {
	if limit <= 0 {
		limit = DefaultChunkSize
	}
	state, resume, total := h.scene.StateChunk(offset, limit)
	env := Envelope{
		Status:     "success",
		Operation:  op,
		SceneState: state,
		Data: map[string]any{
			"objects":       state["objects"],
			"metadata":      state["metadata"],
			"total_objects": total,
			"chunk_size":    limit,
		},
		ResumeToken: resume,
	}
	if resume != nil {
		env.Status = "partial"
		env.Data["next_token"] = encodeChunkToken(resume.Offset, limit)
		env.NextActions = nextActions(resume)
	}
	return env
}

func (h *Handler) createObject(args map[string]any) Envelope {
	const op = "maquette.scene.create_object"
	kind := toName(firstSet(args["type"], args["kind"]), "CUBE")
	name := toName(args["name"], strings.ToLower(kind)+"_auto")
	location := toVector3(args["location"], [3]float64{})

	obj, err := h.scene.Create(kind, name, location)
	if err != nil {
		if errors.Is(err, errUnknownKind) {
			return h.errorEnvelope(op, "invalid_params", err.Error(), false)
		}
		return h.errorEnvelope(op, "internal_error", err.Error(), false)
	}
	state, _, _ := h.scene.StateChunk(0, DefaultChunkSize)
	return Envelope{
		Status:     "success",
		Operation:  op,
		SceneState: state,
		Data:       map[string]any{"object": obj.compact()},
		DataDiff:   map[string]any{"created": []string{obj.Name}},
	}
}

func (h *Handler) moveObject(args map[string]any) Envelope {
	const op = "maquette.scene.move_object"
	name := toName(firstSet(args["name"], args["object"]), "")
	if name == "" {
		return h.errorEnvelope(op, "invalid_params", "move_object requires name", false)
	}

	var absolute *[3]float64
	if args["location"] != nil {
		loc := toVector3(args["location"], [3]float64{})
		absolute = &loc
	}
	delta := toVector3(args["delta"], [3]float64{})

	obj, ok := h.scene.Move(name, absolute, delta)
	if !ok {
		return h.errorEnvelope(op, "not_found", fmt.Sprintf("Object not found: %s", name), false)
	}
	state, _, _ := h.scene.StateChunk(0, DefaultChunkSize)
	return Envelope{
		Status:     "success",
		Operation:  op,
		SceneState: state,
		Data:       map[string]any{"object": obj.compact()},
		DataDiff:   map[string]any{"modified": []string{obj.Name}},
	}
}

func (h *Handler) getObject(args map[string]any) Envelope {
	const op = "maquette.object.get"
	name := toName(firstSet(args["name"], args["object"]), "")
	if name == "" {
		return h.errorEnvelope(op, "invalid_params", "object.get requires name", false)
	}
	obj, ok := h.scene.Get(name)
	if !ok {
		return h.errorEnvelope(op, "not_found", fmt.Sprintf("Object not found: %s", name), false)
	}
	state, _, _ := h.scene.StateChunk(0, DefaultChunkSize)
	return Envelope{
		Status:     "success",
		Operation:  op,
		SceneState: state,
		Data:       map[string]any{"object": obj.full()},
	}
}

func (h *Handler) setTransform(args map[string]any) Envelope {
	const op = "maquette.object.set_transform"
	name := toName(firstSet(args["name"], args["object"]), "")
	if name == "" {
		return h.errorEnvelope(op, "invalid_params", "set_transform requires name", false)
	}

	channel := func(key string) *[3]float64 {
		if args[key] == nil {
			return nil
		}
		vec := toVector3(args[key], [3]float64{})
		return &vec
	}
	obj, ok := h.scene.SetTransform(name, channel("location"), channel("rotation_euler"), channel("scale"))
	if !ok {
		return h.errorEnvelope(op, "not_found", fmt.Sprintf("Object not found: %s", name), false)
	}
	state, _, _ := h.scene.StateChunk(0, DefaultChunkSize)
	return Envelope{
		Status:     "success",
		Operation:  op,
		SceneState: state,
		Data:       map[string]any{"object": obj.full()},
		DataDiff:   map[string]any{"modified": []string{obj.Name}},
	}
}

// opsLookup covers status and cancel. The sim runs every tool inline,
// so no operation is ever still in flight to be found.
func (h *Handler) opsLookup(op string, args map[string]any) Envelope {
	id := toName(args["operation_id"], "")
	return h.errorEnvelope(op, "not_found", fmt.Sprintf("Operation not found: %s", id), false)
}

func (h *Handler) opsResume(args map[string]any) Envelope {
	const op = "maquette.ops.resume"
	limit := toInt(args["limit"], DefaultChunkSize)
	switch tok := args["resume_token"].(type) {
	case map[string]any:
		return h.snapshotAt(op, toInt(tok["offset"], 0), limit)
	case string:
		decoded, err := decodeChunkToken(tok)
		if err != nil {
			return h.errorEnvelope(op, "invalid_token", "Resume token is not valid", false)
		}
		return h.snapshotAt(op, decoded.Offset, decoded.Limit)
	}
	return h.errorEnvelope(op, "invalid_params", "ops.resume requires resume_token", false)
}
