// Package queryir provides the abstract predicate tree for meme search.
//
// A search expression typed by the user is never turned into SQL text
// directly. Parse first builds a predicate tree, and the querysql package
// lowers that tree to parameterized SQL:
//
//	[search expression] → Parse → [Predicate tree] → querysql → [SQL + params]
//
// EXPRESSION GRAMMAR:
//
// The expression is split on whitespace. Terms are combined with AND; there
// is no OR operator.
//
//	namespace:value   meme carries the tag (namespace, value)
//	namespace:        meme carries at least one tag in namespace
//	value             value appears in the summary or the description
//	-term             negation of any of the above
//
// The split between namespace and value happens on the first colon, so
// "source:http://x" is the tag (source, "http://x"). An empty namespace
// (":value") or a bare "-" is a syntax error. All terms are NFC-normalized
// the same way tags are when stored.
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only the
// types in this package implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case TagExists:
//	case NamespaceExists:
//	case TextContains:
//	case Not:
//	case And:
//	}
package queryir
