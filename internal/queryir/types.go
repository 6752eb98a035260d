package queryir

import "github.com/roach88/memelib/internal/model"

// PageSize is the fixed number of memes per search page.
const PageSize = 30

// Predicate is a filter over memes.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// TagExists matches memes carrying the tag (Namespace, Value).
//
// Lowered to an EXISTS check scoped to the meme's id so several tag terms
// intersect instead of multiplying rows through a join.
type TagExists struct {
	Namespace string
	Value     string
}

func (TagExists) predicateNode() {}

// NamespaceExists matches memes carrying any tag in Namespace.
type NamespaceExists struct {
	Namespace string
}

func (NamespaceExists) predicateNode() {}

// TextContains matches memes whose summary or description contains Text.
type TextContains struct {
	Text string
}

func (TextContains) predicateNode() {}

// Not negates its operand.
type Not struct {
	Operand Predicate
}

func (Not) predicateNode() {}

// And matches when every predicate matches. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Search is a complete search request: a filter, a view mode and a
// zero-based page number.
type Search struct {
	Filter Predicate
	Mode   model.SearchMode
	Page   int
}

// Offset returns the row offset of the requested page.
func (s Search) Offset() int {
	return s.Page * PageSize
}
