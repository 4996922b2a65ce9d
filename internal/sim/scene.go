package sim

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var errUnknownKind = errors.New("unsupported object type")

// Object is one scene entry. Kinds follow the worker's own naming:
// MESH, LIGHT, CAMERA.
type Object struct {
	Name          string
	Type          string
	Location      [3]float64
	RotationEuler [3]float64
	Scale         [3]float64
}

func (o *Object) compact() map[string]any {
	return map[string]any{
		"name":     o.Name,
		"type":     o.Type,
		"location": o.Location[:],
	}
}

func (o *Object) full() map[string]any {
	out := o.compact()
	out["rotation_euler"] = o.RotationEuler[:]
	out["scale"] = o.Scale[:]
	return out
}

// Scene is the in-memory stand-in for a Maquette document. Objects keep
// creation order so chunked listings stay stable across calls.
type Scene struct {
	mu      sync.Mutex
	name    string
	objects []*Object
	index   map[string]*Object
}

// NewScene seeds the default document every fresh worker starts with.
func NewScene() *Scene {
	s := &Scene{name: "Scene", index: make(map[string]*Object)}
	s.insert(&Object{Name: "Cube", Type: "MESH", Scale: [3]float64{1, 1, 1}})
	s.insert(&Object{Name: "Light", Type: "LIGHT", Location: [3]float64{4.1, 1.0, 5.9}, Scale: [3]float64{1, 1, 1}})
	s.insert(&Object{Name: "Camera", Type: "CAMERA", Location: [3]float64{7.4, -6.9, 4.9}, RotationEuler: [3]float64{1.1, 0, 0.8}, Scale: [3]float64{1, 1, 1}})
	return s
}

func (s *Scene) insert(obj *Object) {
	s.objects = append(s.objects, obj)
	s.index[obj.Name] = obj
}

// Create adds an object, renaming with a numeric suffix when the name
// is taken, the way the real worker resolves collisions.
func (s *Scene) Create(kind, name string, location [3]float64) (Object, error) {
	objType, ok := map[string]string{
		"CUBE":   "MESH",
		"SPHERE": "MESH",
		"PLANE":  "MESH",
		"EMPTY":  "EMPTY",
		"LIGHT":  "LIGHT",
		"CAMERA": "CAMERA",
	}[strings.ToUpper(kind)]
	if !ok {
		return Object{}, fmt.Errorf("%w %q", errUnknownKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	final := name
	for n := 1; ; n++ {
		if _, taken := s.index[final]; !taken {
			break
		}
		final = fmt.Sprintf("%s.%03d", name, n)
	}
	obj := &Object{Name: final, Type: objType, Location: location, Scale: [3]float64{1, 1, 1}}
	s.insert(obj)
	return *obj, nil
}

// Move repositions an object. A non-nil absolute wins over delta.
func (s *Scene) Move(name string, absolute *[3]float64, delta [3]float64) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.index[name]
	if !ok {
		return Object{}, false
	}
	if absolute != nil {
		obj.Location = *absolute
	} else {
		for i := range delta {
			obj.Location[i] += delta[i]
		}
	}
	return *obj, true
}

func (s *Scene) Get(name string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.index[name]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// SetTransform overwrites whichever transform channels the caller set.
func (s *Scene) SetTransform(name string, location, rotation, scale *[3]float64) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.index[name]
	if !ok {
		return Object{}, false
	}
	if location != nil {
		obj.Location = *location
	}
	if rotation != nil {
		obj.RotationEuler = *rotation
	}
	if scale != nil {
		obj.Scale = *scale
	}
	return *obj, true
}

// StateChunk renders one window of the compact scene state. The resume
// token is nil once the window reaches the end of the list.
func (s *Scene) StateChunk(offset, limit int) (state map[string]any, resume *ResumeToken, total int) {
	if limit <= 0 {
		limit = DefaultChunkSize
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	total = len(s.objects)
	end := offset + limit
	if end > total {
		end = total
	}
	objects := make([]map[string]any, 0, limit)
	if offset < total {
		for _, obj := range s.objects[offset:end] {
			objects = append(objects, obj.compact())
		}
	}
	if offset+limit < total {
		resume = &ResumeToken{Offset: offset + limit, Total: total}
	}
	state = map[string]any{
		"objects":  objects,
		"metadata": map[string]any{"scene": s.name, "count": total},
	}
	return state, resume, total
}
