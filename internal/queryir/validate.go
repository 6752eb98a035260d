package queryir

import (
	"math"

	"github.com/roach88/memelib/internal/liberr"
)

// MaxPage is the largest page whose row offset fits in an int.
const MaxPage = math.MaxInt / PageSize

// Validate checks a predicate tree built by hand (Parse output is always
// valid). It rejects nil nodes, empty namespaces and empty text terms.
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return liberr.QuerySyntax("nil predicate")
	case TagExists:
		if pred.Namespace == "" {
			return liberr.QuerySyntax("tag predicate with empty namespace")
		}
		if pred.Value == "" {
			return liberr.QuerySyntax("tag predicate %q with empty value", pred.Namespace)
		}
	case NamespaceExists:
		if pred.Namespace == "" {
			return liberr.QuerySyntax("namespace predicate with empty namespace")
		}
	case TextContains:
		if pred.Text == "" {
			return liberr.QuerySyntax("text predicate with empty text")
		}
	case Not:
		return Validate(pred.Operand)
	case And:
		for _, sub := range pred.Predicates {
			if err := Validate(sub); err != nil {
				return err
			}
		}
	default:
		return liberr.QuerySyntax("unsupported predicate type: %T", p)
	}
	return nil
}

// ValidateSearch checks the filter and the paging parameters of s.
func ValidateSearch(s Search) error {
	if s.Page < 0 {
		return liberr.QuerySyntax("page %d: must not be negative", s.Page)
	}
	if s.Page > MaxPage {
		return liberr.QuerySyntax("page %d: must not exceed %d", s.Page, MaxPage)
	}
	if !s.Mode.Valid() {
		return liberr.QuerySyntax("invalid search mode %d", int(s.Mode))
	}
	if s.Filter == nil {
		return nil
	}
	return Validate(s.Filter)
}
