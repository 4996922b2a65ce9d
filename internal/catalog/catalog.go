// Package catalog defines the fixed Maquette tool surface advertised to MCP hosts.
package catalog

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tools returns the Maquette tool definitions in display order. The slice and
// its schemas are built fresh on every call, so callers may mutate the result.
func Tools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "maquette.health",
			Description: "Healthcheck returning a scene snapshot summary.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
		{
			Name:        "maquette.scene.snapshot",
			Description: "Snapshot the scene objects with chunking support.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"limit_objects": map[string]any{
						"type":        "integer",
						"description": "Maximum objects to include.",
						"default":     100,
					},
					"offset": map[string]any{
						"type":        "integer",
						"description": "Start offset for chunking.",
						"default":     0,
					},
				},
			},
		},
		{
			Name:        "maquette.scene.snapshot_chunk",
			Description: "Fetch the next chunk using a stateless token.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"token": map[string]any{
						"type":        "string",
						"description": "Chunk token from a previous snapshot.",
					},
				},
			},
		},
		{
			Name:        "maquette.scene.create_object",
			Description: "Create a cube, sphere, camera, or light.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"type": map[string]any{"type": "string", "default": "CUBE"},
					"name": map[string]any{"type": "string", "default": "Object"},
					"location": map[string]any{
						"type":        "array",
						"description": "XYZ coordinates",
						"default":     []float64{0, 0, 0},
					},
					"light_type": map[string]any{"type": "string", "default": "POINT"},
				},
			},
		},
		{
			Name:        "maquette.scene.move_object",
			Description: "Move an existing object by delta or absolute location.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"name":     map[string]any{"type": "string", "description": "Object name to move"},
					"location": map[string]any{"type": "array", "description": "Absolute location"},
					"delta":    map[string]any{"type": "array", "description": "Delta translation"},
				},
			},
		},
		{
			Name:        "maquette.object.get",
			Description: "Inspect an object (type/location/rotation/scale).",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"name": map[string]any{"type": "string", "description": "Object name to inspect"},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        "maquette.object.set_transform",
			Description: "Set an object's location, rotation, or scale.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"name":           map[string]any{"type": "string", "description": "Object name to update"},
					"location":       map[string]any{"type": "array", "description": "Absolute location"},
					"rotation_euler": map[string]any{"type": "array", "description": "Euler rotation in radians"},
					"scale":          map[string]any{"type": "array", "description": "Per-axis scale"},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        "maquette.ops.status",
			Description: "Check status of a long-running operation.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"operation_id": map[string]any{"type": "string", "description": "Operation id"},
				},
			},
		},
		{
			Name:        "maquette.ops.cancel",
			Description: "Request cancellation of a long-running operation.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"operation_id": map[string]any{"type": "string", "description": "Operation id"},
				},
			},
		},
		{
			Name:        "maquette.ops.resume",
			Description: "Resume a partial operation using a resume token.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"resume_token": map[string]any{"type": "string", "description": "Opaque resume token"},
				},
			},
		},
	}
}
