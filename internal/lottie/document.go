// Package lottie indexes and recolors token-annotated Lottie animation data.
package lottie

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
)

var (
	// ErrEmptyDocument indicates the animation data decoded to null or a scalar.
	ErrEmptyDocument = errors.New("animation data is empty")
	// ErrInvalidDocument indicates the animation data is not valid JSON.
	ErrInvalidDocument = errors.New("invalid animation data")
)

// NodeID identifies an object node inside a Document. IDs are assigned in
// depth-first pre-order at parse time and stay valid for the document's
// lifetime.
type NodeID int

type objectNode struct {
	fields   map[string]any
	children []NodeID
}

// Document is a parsed animation. Object nodes are kept in an arena so that
// indexes can refer to them by NodeID rather than by pointer. Arrays are
// transparent containers: objects nested in arrays are children of the
// nearest enclosing object.
type Document struct {
	root       any
	nodes      []objectNode
	roots      []NodeID
	generation uint64
}

var generations atomic.Uint64

// Parse decodes animation JSON into a Document.
func Parse(data []byte) (*Document, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromValue(root)
}

// FromValue builds a Document around an already decoded JSON value. The
// document takes ownership of v.
func FromValue(v any) (*Document, error) {
	switch v.(type) {
	case map[string]any, []any:
	default:
		return nil, ErrEmptyDocument
	}

	doc := &Document{
		root:       v,
		generation: generations.Add(1),
	}
	doc.roots = doc.register(v)
	return doc, nil
}

// register assigns ids to every object reachable from v and returns the ids
// of the top-most objects.
func (d *Document) register(v any) []NodeID {
	switch value := v.(type) {
	case map[string]any:
		id := NodeID(len(d.nodes))
		d.nodes = append(d.nodes, objectNode{fields: value})
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var children []NodeID
		for _, key := range keys {
			children = append(children, d.register(value[key])...)
		}
		d.nodes[id].children = children
		return []NodeID{id}
	case []any:
		var ids []NodeID
		for _, child := range value {
			ids = append(ids, d.register(child)...)
		}
		return ids
	default:
		return nil
	}
}

// Generation distinguishes documents from one another. Every parse yields a
// new generation.
func (d *Document) Generation() uint64 {
	return d.generation
}

// Len returns the number of object nodes.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Object returns the fields of an object node. The map is live: writes
// mutate the document.
func (d *Document) Object(id NodeID) (map[string]any, bool) {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil, false
	}
	return d.nodes[id].fields, true
}

// Root returns the decoded top-level value.
func (d *Document) Root() any {
	return d.root
}

// MarshalJSON encodes the current state of the document. The result is an
// independent copy suitable for handing to another goroutine or process.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.root)
}

func (d *Document) walk(visit func(NodeID)) {
	for _, id := range d.roots {
		d.walkNode(id, visit)
	}
}

func (d *Document) walkNode(id NodeID, visit func(NodeID)) {
	for _, child := range d.nodes[id].children {
		d.walkNode(child, visit)
	}
	visit(id)
}
