package sim

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeReply(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("reply is not valid JSON: %v\n%s", err, raw)
	}
	return out
}

func toolCall(t *testing.T, h *Handler, name string, args map[string]any) map[string]any {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"type":      "tools/call",
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("marshaling call: %v", err)
	}
	return decodeReply(t, h.HandleMessage(payload))
}

func envelopeError(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	if env["status"] != "error" {
		t.Fatalf("status = %v, want error (envelope %v)", env["status"], env)
	}
	errInfo, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("error missing from envelope %v", env)
	}
	return errInfo
}

func dataObject(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	data, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("data missing from envelope %v", env)
	}
	obj, ok := data["object"].(map[string]any)
	if !ok {
		t.Fatalf("data.object missing from envelope %v", env)
	}
	return obj
}

func TestHandleMessageRejectsInvalidJSON(t *testing.T) {
	h := NewHandler(NewScene())
	reply := decodeReply(t, h.HandleMessage([]byte("{not json")))
	if reply["ok"] != false {
		t.Fatalf("ok = %v, want false", reply["ok"])
	}
	errInfo := reply["error"].(map[string]any)
	if errInfo["code"] != "invalid_json" {
		t.Fatalf("code = %v, want invalid_json", errInfo["code"])
	}
	if errInfo["message"] != "Payload is not valid JSON" {
		t.Fatalf("message = %v", errInfo["message"])
	}
}

func TestHandleMessageRejectsNonObjectPayloads(t *testing.T) {
	h := NewHandler(NewScene())
	for _, payload := range []string{`[1,2,3]`, `"snapshot"`, `42`, `null`} {
		reply := decodeReply(t, h.HandleMessage([]byte(payload)))
		errInfo, ok := reply["error"].(map[string]any)
		if !ok || errInfo["code"] != "unsupported_payload" {
			t.Fatalf("payload %s: reply = %v, want unsupported_payload", payload, reply)
		}
	}
}

func TestHandleMessageRejectsUnknownType(t *testing.T) {
	h := NewHandler(NewScene())
	reply := decodeReply(t, h.HandleMessage([]byte(`{"type":"resources/list"}`)))
	errInfo := reply["error"].(map[string]any)
	if errInfo["code"] != "unsupported_type" {
		t.Fatalf("code = %v, want unsupported_type", errInfo["code"])
	}
}

func TestToolsListCarriesCatalogAndSceneState(t *testing.T) {
	h := NewHandler(NewScene())
	env := decodeReply(t, h.HandleMessage([]byte(`{"type":"tools/list"}`)))
	if env["status"] != "success" || env["operation"] != "tools/list" {
		t.Fatalf("status/operation = %v/%v", env["status"], env["operation"])
	}
	tools := env["data"].(map[string]any)["tools"].([]any)
	if len(tools) != 10 {
		t.Fatalf("len(tools) = %d, want 10", len(tools))
	}
	state := env["scene_state"].(map[string]any)
	meta := state["metadata"].(map[string]any)
	if meta["count"] != float64(3) {
		t.Fatalf("metadata.count = %v, want 3", meta["count"])
	}
	if _, ok := env["metrics"].(map[string]any); !ok {
		t.Fatalf("metrics missing from envelope %v", env)
	}
}

func TestHealthReportsReadyWorker(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.health", nil)
	if env["status"] != "ok" {
		t.Fatalf("status = %v, want ok", env["status"])
	}
	data := env["data"].(map[string]any)
	if data["status"] != "ready" || data["worker"] != "headless" {
		t.Fatalf("data = %v", data)
	}
}

func TestCreateObjectReportsDiffAndState(t *testing.T) {
	h := NewHandler(NewScene())
	env := toolCall(t, h, "maquette.scene.create_object", map[string]any{
		"type": "sphere", "name": "Probe", "location": []any{1.0, 2.0, 3.0},
	})
	obj := dataObject(t, env)
	if obj["name"] != "Probe" || obj["type"] != "MESH" {
		t.Fatalf("object = %v", obj)
	}
	created := env["data_diff"].(map[string]any)["created"].([]any)
	if len(created) != 1 || created[0] != "Probe" {
		t.Fatalf("data_diff.created = %v, want [Probe]", created)
	}
	meta := env["scene_state"].(map[string]any)["metadata"].(map[string]any)
	if meta["count"] != float64(4) {
		t.Fatalf("metadata.count = %v, want 4 after create", meta["count"])
	}
}

func TestCreateObjectAutoRenamesDuplicates(t *testing.T) {
	h := NewHandler(NewScene())
	env := toolCall(t, h, "maquette.scene.create_object", map[string]any{"name": "Cube"})
	if obj := dataObject(t, env); obj["name"] != "Cube.001" {
		t.Fatalf("object.name = %v, want Cube.001", obj["name"])
	}
}

func TestCreateObjectRejectsUnknownType(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.scene.create_object", map[string]any{"type": "torus"})
	errInfo := envelopeError(t, env)
	if errInfo["code"] != "invalid_params" {
		t.Fatalf("code = %v, want invalid_params", errInfo["code"])
	}
}

func TestMoveObjectAbsoluteOverridesDelta(t *testing.T) {
	h := NewHandler(NewScene())
	env := toolCall(t, h, "maquette.scene.move_object", map[string]any{
		"name":     "Cube",
		"location": []any{5.0, 5.0, 5.0},
		"delta":    []any{100.0, 100.0, 100.0},
	})
	obj := dataObject(t, env)
	loc := obj["location"].([]any)
	if loc[0] != float64(5) || loc[1] != float64(5) || loc[2] != float64(5) {
		t.Fatalf("location = %v, want [5 5 5]", loc)
	}
}

func TestMoveObjectMissingTargetIsNotFound(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.scene.move_object", map[string]any{"name": "Ghost"})
	errInfo := envelopeError(t, env)
	if errInfo["code"] != "not_found" {
		t.Fatalf("code = %v, want not_found", errInfo["code"])
	}
	if errInfo["recoverable"] != false {
		t.Fatalf("recoverable = %v, want false", errInfo["recoverable"])
	}
	if msg := errInfo["message"].(string); !strings.Contains(msg, "Ghost") {
		t.Fatalf("message %q does not name the object", msg)
	}
}

func TestObjectGetReturnsFullTransform(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.object.get", map[string]any{"name": "Camera"})
	obj := dataObject(t, env)
	for _, key := range []string{"location", "rotation_euler", "scale"} {
		if _, ok := obj[key].([]any); !ok {
			t.Fatalf("object.%s missing: %v", key, obj)
		}
	}
}

func TestSetTransformUpdatesOnlyProvidedChannels(t *testing.T) {
	h := NewHandler(NewScene())
	env := toolCall(t, h, "maquette.object.set_transform", map[string]any{
		"name":  "Cube",
		"scale": []any{3.0, 3.0, 3.0},
	})
	obj := dataObject(t, env)
	scale := obj["scale"].([]any)
	if scale[0] != float64(3) {
		t.Fatalf("scale = %v, want [3 3 3]", scale)
	}
	loc := obj["location"].([]any)
	if loc[0] != float64(0) {
		t.Fatalf("location = %v, want untouched origin", loc)
	}
}

func TestSnapshotPartialHandsOutResumeState(t *testing.T) {
	h := NewHandler(NewScene())
	env := toolCall(t, h, "maquette.scene.snapshot", map[string]any{"limit_objects": 2.0})
	if env["status"] != "partial" {
		t.Fatalf("status = %v, want partial", env["status"])
	}
	resume := env["resume_token"].(map[string]any)
	if resume["offset"] != float64(2) || resume["total"] != float64(3) {
		t.Fatalf("resume_token = %v, want offset 2 total 3", resume)
	}
	data := env["data"].(map[string]any)
	if tok, _ := data["next_token"].(string); tok == "" {
		t.Fatalf("data.next_token missing: %v", data)
	}
	actions := env["next_actions"].([]any)
	if len(actions) != 1 || !strings.Contains(actions[0].(string), "offset=2") {
		t.Fatalf("next_actions = %v", actions)
	}
}

func TestSnapshotChunkContinuesFromToken(t *testing.T) {
	h := NewHandler(NewScene())
	first := toolCall(t, h, "maquette.scene.snapshot", map[string]any{"limit_objects": 2.0})
	token := first["data"].(map[string]any)["next_token"].(string)

	env := toolCall(t, h, "maquette.scene.snapshot_chunk", map[string]any{"token": token})
	if env["status"] != "success" {
		t.Fatalf("status = %v, want success on final chunk", env["status"])
	}
	objects := env["data"].(map[string]any)["objects"].([]any)
	if len(objects) != 1 {
		t.Fatalf("len(objects) = %d, want 1", len(objects))
	}
	if name := objects[0].(map[string]any)["name"]; name != "Camera" {
		t.Fatalf("object = %v, want Camera", name)
	}
	if _, ok := env["resume_token"]; ok {
		t.Fatalf("resume_token still present on final chunk: %v", env)
	}
}

func TestSnapshotChunkRejectsBadToken(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.scene.snapshot_chunk", map[string]any{"token": "%%%"})
	errInfo := envelopeError(t, env)
	if errInfo["code"] != "invalid_token" {
		t.Fatalf("code = %v, want invalid_token", errInfo["code"])
	}
}

func TestOpsStatusUnknownOperation(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.ops.status", map[string]any{"operation_id": "op-42"})
	errInfo := envelopeError(t, env)
	if errInfo["code"] != "not_found" {
		t.Fatalf("code = %v, want not_found", errInfo["code"])
	}
	if msg := errInfo["message"].(string); msg != "Operation not found: op-42" {
		t.Fatalf("message = %q", msg)
	}
}

func TestOpsResumeAcceptsTokenObject(t *testing.T) {
	h := NewHandler(NewScene())
	env := toolCall(t, h, "maquette.ops.resume", map[string]any{
		"resume_token": map[string]any{"offset": 2.0, "total": 3.0},
	})
	objects := env["data"].(map[string]any)["objects"].([]any)
	if len(objects) != 1 {
		t.Fatalf("len(objects) = %d, want 1 from offset 2", len(objects))
	}
}

func TestUnknownToolReportsUnknownTool(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.scene.explode", nil)
	errInfo := envelopeError(t, env)
	if errInfo["code"] != "unknown_tool" {
		t.Fatalf("code = %v, want unknown_tool", errInfo["code"])
	}
	if env["operation"] != "maquette.scene.explode" {
		t.Fatalf("operation = %v", env["operation"])
	}
}

func TestArgsKeyAcceptedInPlaceOfArguments(t *testing.T) {
	h := NewHandler(NewScene())
	payload := `{"type":"tools/call","name":"maquette.object.get","args":{"name":"Light"}}`
	env := decodeReply(t, h.HandleMessage([]byte(payload)))
	if env["status"] != "success" {
		t.Fatalf("status = %v, want success via args key", env["status"])
	}
	if obj := dataObject(t, env); obj["name"] != "Light" {
		t.Fatalf("object = %v, want Light", obj)
	}
}

func TestErrorEnvelopesStillCarrySceneState(t *testing.T) {
	env := toolCall(t, NewHandler(NewScene()), "maquette.ops.cancel", map[string]any{"operation_id": "op-1"})
	state, ok := env["scene_state"].(map[string]any)
	if !ok {
		t.Fatalf("scene_state missing from error envelope %v", env)
	}
	if meta := state["metadata"].(map[string]any); meta["count"] != float64(3) {
		t.Fatalf("metadata = %v", meta)
	}
}
