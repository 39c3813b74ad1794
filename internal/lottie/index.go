package lottie

import (
	"github.com/opencode-ai/illo/internal/tokens"
)

// Field names interpreted by the index builder and recolor step.
const (
	fieldName = "nm"
	fieldType = "ty"

	// GradientFillType is the "ty" value of a gradient fill.
	GradientFillType = "gf"
)

// ElementKind classifies a dynamically colored element.
type ElementKind int

const (
	// FlatShape is a fill or stroke colored by an RGBA array ("c.k") or a
	// hex string ("sc").
	FlatShape ElementKind = iota
	// GradientFill is a "gf" element whose stops are recolored.
	GradientFill
)

func (k ElementKind) String() string {
	switch k {
	case FlatShape:
		return "shape"
	case GradientFill:
		return "gradient"
	default:
		return "unknown"
	}
}

// TokenColor lists the elements of a document painted with one token.
type TokenColor struct {
	Token     tokens.ColorToken
	CSSVar    string
	Shapes    []NodeID
	Gradients []NodeID
}

// Index maps tokens to the elements that use them. An index is bound to the
// document generation it was built from.
type Index struct {
	generation uint64
	order      []tokens.ColorToken
	colors     map[tokens.ColorToken]*TokenColor
}

// BuildIndex walks doc depth-first and collects every object whose "nm" is a
// known token. Children are visited before their parent. Each object is
// recorded at most once; the walk is linear in document size.
func BuildIndex(doc *Document, known tokens.Set) *Index {
	idx := &Index{colors: make(map[tokens.ColorToken]*TokenColor)}
	if doc == nil {
		return idx
	}
	idx.generation = doc.generation

	doc.walk(func(id NodeID) {
		fields := doc.nodes[id].fields
		name, ok := fields[fieldName].(string)
		if !ok || !known.Has(name) {
			return
		}
		color := idx.getOrCreate(tokens.ColorToken(name))
		if ty, _ := fields[fieldType].(string); ty == GradientFillType {
			color.Gradients = append(color.Gradients, id)
			return
		}
		color.Shapes = append(color.Shapes, id)
	})

	return idx
}

func (i *Index) getOrCreate(token tokens.ColorToken) *TokenColor {
	if color, ok := i.colors[token]; ok {
		return color
	}
	color := &TokenColor{
		Token:  token,
		CSSVar: tokens.CSSVariable(token),
	}
	i.colors[token] = color
	i.order = append(i.order, token)
	return color
}

// Len returns the number of distinct tokens found.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.order)
}

// Tokens returns the tokens in the order they were first found.
func (i *Index) Tokens() []tokens.ColorToken {
	if i == nil {
		return nil
	}
	out := make([]tokens.ColorToken, len(i.order))
	copy(out, i.order)
	return out
}

// Get returns the entry for a token.
func (i *Index) Get(token tokens.ColorToken) (*TokenColor, bool) {
	if i == nil {
		return nil, false
	}
	color, ok := i.colors[token]
	return color, ok
}

// Generation returns the generation of the document the index was built from.
func (i *Index) Generation() uint64 {
	if i == nil {
		return 0
	}
	return i.generation
}

// Elements returns the total number of indexed shapes and gradients.
func (i *Index) Elements() (shapes, gradients int) {
	if i == nil {
		return 0, 0
	}
	for _, color := range i.colors {
		shapes += len(color.Shapes)
		gradients += len(color.Gradients)
	}
	return shapes, gradients
}
