package viewer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Command ops understood by the scene tree and the page script.
const (
	OpSetObject    = "set_object"
	OpSetTransform = "set_transform"
	OpSetProperty  = "set_property"
	OpDelete       = "delete"
)

// Object describes one primitive in the scene.
type Object struct {
	Type   string    `json:"type"`
	Size   []float64 `json:"size,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	Length float64   `json:"length,omitempty"`
	Color  string    `json:"color,omitempty"`
}

// Command is one scene mutation, sent to clients as JSON.
type Command struct {
	Op       string    `json:"op"`
	Path     string    `json:"path"`
	Object   *Object   `json:"object,omitempty"`
	Matrix   []float64 `json:"matrix,omitempty"`
	Property string    `json:"property,omitempty"`
	Value    any       `json:"value,omitempty"`
}

func (c Command) encode() ([]byte, error) {
	return json.Marshal(c)
}

type node struct {
	object *Object
	matrix []float64
	props  map[string]any
}

// SceneTree remembers the effective state per path so late-joining clients
// can be brought up to date.
type SceneTree struct {
	mu    sync.Mutex
	nodes map[string]*node
}

func NewSceneTree() *SceneTree {
	return &SceneTree{nodes: make(map[string]*node)}
}

func (s *SceneTree) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Op {
	case OpSetObject:
		if cmd.Object == nil {
			return fmt.Errorf("viewer: set_object on %q without object", cmd.Path)
		}
		s.node(cmd.Path).object = cmd.Object
	case OpSetTransform:
		if len(cmd.Matrix) != 16 {
			return fmt.Errorf("viewer: set_transform on %q with %d matrix elements", cmd.Path, len(cmd.Matrix))
		}
		s.node(cmd.Path).matrix = cmd.Matrix
	case OpSetProperty:
		if cmd.Property == "" {
			return fmt.Errorf("viewer: set_property on %q without property name", cmd.Path)
		}
		s.node(cmd.Path).props[cmd.Property] = cmd.Value
	case OpDelete:
		for path := range s.nodes {
			if path == cmd.Path || strings.HasPrefix(path, cmd.Path+"/") {
				delete(s.nodes, path)
			}
		}
	default:
		return fmt.Errorf("viewer: unknown command op %q", cmd.Op)
	}
	return nil
}

func (s *SceneTree) node(path string) *node {
	n, ok := s.nodes[path]
	if !ok {
		n = &node{props: make(map[string]any)}
		s.nodes[path] = n
	}
	return n
}

// NumNodes reports the number of live paths.
func (s *SceneTree) NumNodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Snapshot replays the current state as a command list, paths in sorted
// order so parents arrive before children.
func (s *SceneTree) Snapshot() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.nodes))
	for path := range s.nodes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []Command
	for _, path := range paths {
		n := s.nodes[path]
		if n.object != nil {
			out = append(out, Command{Op: OpSetObject, Path: path, Object: n.object})
		}
		if n.matrix != nil {
			out = append(out, Command{Op: OpSetTransform, Path: path, Matrix: n.matrix})
		}
		propNames := make([]string, 0, len(n.props))
		for name := range n.props {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)
		for _, name := range propNames {
			out = append(out, Command{Op: OpSetProperty, Path: path, Property: name, Value: n.props[name]})
		}
	}
	return out
}
