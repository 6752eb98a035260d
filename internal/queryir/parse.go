package queryir

import (
	"strings"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
)

// Parse compiles a search expression into a predicate tree.
//
// The result is always an And (possibly empty). A malformed term fails the
// whole parse with a QUERY_SYNTAX error; no partial tree is returned.
func Parse(expr string) (And, error) {
	terms := strings.Fields(expr)
	preds := make([]Predicate, 0, len(terms))

	for _, term := range terms {
		p, err := parseTerm(term)
		if err != nil {
			return And{}, err
		}
		preds = append(preds, p)
	}

	return And{Predicates: preds}, nil
}

// parseTerm parses a single whitespace-free term.
func parseTerm(term string) (Predicate, error) {
	negated := false
	body := term
	if strings.HasPrefix(body, "-") {
		negated = true
		body = body[1:]
		if body == "" {
			return nil, liberr.QuerySyntax("term %q: nothing to negate", term)
		}
	}

	var p Predicate
	if ns, value, ok := strings.Cut(body, model.TagSeparator); ok {
		ns = model.NormalizeText(ns)
		value = model.NormalizeText(value)
		if ns == "" {
			return nil, liberr.QuerySyntax("term %q: empty tag namespace", term)
		}
		if value == "" {
			p = NamespaceExists{Namespace: ns}
		} else {
			p = TagExists{Namespace: ns, Value: value}
		}
	} else {
		p = TextContains{Text: model.NormalizeText(body)}
	}

	if negated {
		return Not{Operand: p}, nil
	}
	return p, nil
}
