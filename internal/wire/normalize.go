package wire

import (
	"encoding/json"
	"strings"
)

// Class identifies the shape of one input line after a single parse
// and classify step. The set is closed: every line lands in exactly
// one class.
type Class int

const (
	ClassEmpty       Class = iota // blank after trimming
	ClassInvalidJSON              // does not parse as JSON
	ClassNonObject                // parses, but top level is not an object
	ClassTyped                    // object with a non-empty string "type"
	ClassRPCList                  // JSON-RPC tools/list
	ClassRPCCall                  // JSON-RPC tools/call
	ClassRPCOther                 // JSON-RPC with any other method
	ClassUnsupported              // object of no recognized shape
)

// Line is the classified form of one input line.
type Line struct {
	Class  Class
	Object map[string]any // parsed object, nil for the non-object classes
	Method string         // JSON-RPC method, set for the RPC classes
}

// Classify parses one raw input line and places it in exactly one
// Class. It never writes anywhere.
func Classify(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Class: ClassEmpty}
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return Line{Class: ClassInvalidJSON}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return Line{Class: ClassNonObject}
	}

	if t, ok := obj["type"].(string); ok && t != "" {
		return Line{Class: ClassTyped, Object: obj}
	}

	if _, ok := obj["jsonrpc"].(string); ok {
		if method, ok := obj["method"].(string); ok {
			switch method {
			case TypeToolsList:
				return Line{Class: ClassRPCList, Object: obj, Method: method}
			case TypeToolsCall:
				return Line{Class: ClassRPCCall, Object: obj, Method: method}
			default:
				return Line{Class: ClassRPCOther, Object: obj, Method: method}
			}
		}
	}

	return Line{Class: ClassUnsupported, Object: obj}
}

// Normalize maps one input line to at most one outcome: a serialized
// request to forward, or a Rejection to report locally. Both results
// nil means the line produced nothing (blank input).
func Normalize(raw string) ([]byte, *Rejection) {
	line := Classify(raw)
	switch line.Class {
	case ClassEmpty:
		return nil, nil
	case ClassInvalidJSON:
		return nil, Reject(CodeInvalidJSON, "line is not valid JSON")
	case ClassNonObject:
		return nil, Reject(CodeUnsupportedPayload, "payload must be a JSON object")
	case ClassTyped:
		if line.Object["type"] == TypeToolsCall {
			mirrorToolArgs(line.Object)
		}
		return marshalObject(line.Object), nil
	case ClassRPCList:
		return ToolsListRequest(), nil
	case ClassRPCCall:
		req := make(map[string]any)
		if params, ok := line.Object["params"].(map[string]any); ok {
			for k, v := range params {
				req[k] = v
			}
		}
		req["type"] = TypeToolsCall
		mirrorToolArgs(req)
		return marshalObject(req), nil
	case ClassRPCOther:
		return nil, Reject(CodeUnsupportedMethod, "unsupported method: "+line.Method)
	default:
		return nil, Reject(CodeUnsupportedPayload, "payload is not a recognized request")
	}
}

// mirrorToolArgs keeps "arguments" and "args" interchangeable on tool
// calls: whichever key is present is copied to the missing one. When
// both are present they are left alone.
func mirrorToolArgs(obj map[string]any) {
	args, hasArgs := obj["args"]
	arguments, hasArguments := obj["arguments"]
	switch {
	case hasArguments && !hasArgs:
		obj["args"] = arguments
	case hasArgs && !hasArguments:
		obj["arguments"] = args
	}
}

func marshalObject(obj map[string]any) []byte {
	out, _ := json.Marshal(obj)
	return out
}
