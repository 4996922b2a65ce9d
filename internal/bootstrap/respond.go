package bootstrap

import (
	"github.com/maquettehq/mqbridge/internal/catalog"
)

// Identity reported to hosts until the worker takes over.
const (
	serverName      = "mqbridge"
	serverVersion   = "0.1.0"
	protocolVersion = "2024-11-05"
)

// localReply answers the JSON-RPC methods a host sends during startup,
// so initialization completes while the worker is still booting.
// handled reports whether the method is one the boot phase owns; a nil
// reply with handled true means the request is a notification and needs
// no response.
func localReply(req map[string]any) (resp map[string]any, handled bool) {
	method, _ := req["method"].(string)
	id := req["id"]
	switch method {
	case "notifications/initialized":
		return nil, true
	case "initialize":
		return reply(id, map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo":      map[string]any{"name": serverName, "version": serverVersion},
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
				"prompts":   map[string]any{},
			},
		}), true
	case "ping":
		return reply(id, map[string]any{"ok": true}), true
	case "tools/list":
		return reply(id, map[string]any{"tools": catalog.Tools()}), true
	case "resources/list":
		return reply(id, map[string]any{"resources": []any{}}), true
	case "prompts/list":
		return reply(id, map[string]any{"prompts": []any{}}), true
	case "shutdown":
		return reply(id, map[string]any{"ok": true}), true
	case "exit":
		return reply(id, map[string]any{}), true
	}
	return nil, false
}

func reply(id any, result any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": id, "result": result}
}
