package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/queryir"
)

// MemeColumns is the column list every meme read selects, in scan order.
// "desc" is a keyword in SQLite and is always quoted.
const MemeColumns = `id, content, extra_data, summary, "desc", thumbnail, fav, trash, create_time, update_time`

// SQLCompiler compiles search requests to parameterized SQL for SQLite.
//
// CRITICAL: every query ends in ORDER BY update_time DESC with id as the
// tiebreaker so paging is stable.
// CRITICAL: all user text is bound as a parameter, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a search request to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(s queryir.Search) (string, []any, error) {
	if err := queryir.ValidateSearch(s); err != nil {
		return "", nil, err
	}

	whereSQL, params, err := c.compilePredicate(s.Filter)
	if err != nil {
		return "", nil, err
	}

	modeSQL, err := modeClause(s.Mode)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM meme WHERE %s AND %s ORDER BY %s LIMIT %d OFFSET %d",
		MemeColumns,
		whereSQL,
		modeSQL,
		stableOrderKey(),
		queryir.PageSize,
		s.Offset())

	return sql, params, nil
}

// CompileCount builds the query counting every match of s across all pages.
func (c *SQLCompiler) CompileCount(s queryir.Search) (string, []any, error) {
	if err := queryir.ValidateSearch(s); err != nil {
		return "", nil, err
	}

	whereSQL, params, err := c.compilePredicate(s.Filter)
	if err != nil {
		return "", nil, err
	}

	modeSQL, err := modeClause(s.Mode)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("SELECT COUNT(*) FROM meme WHERE %s AND %s", whereSQL, modeSQL), params, nil
}

// stableOrderKey returns the ORDER BY clause shared by every meme listing.
func stableOrderKey() string {
	return "update_time DESC, id DESC"
}

// modeClause maps a view mode to its fixed filter. Trash and fav are stored
// as 0/1 integers.
func modeClause(m model.SearchMode) (string, error) {
	switch m {
	case model.ModeNormal:
		return "trash = 0", nil
	case model.ModeOnlyFav:
		return "fav = 1 AND trash = 0", nil
	case model.ModeOnlyTrash:
		return "trash = 1", nil
	default:
		return "", liberr.QuerySyntax("invalid search mode %d", int(m))
	}
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.TagExists:
		return tagExistsSQL("t.namespace = ? AND t.value = ?"), []any{pred.Namespace, pred.Value}, nil
	case queryir.NamespaceExists:
		return tagExistsSQL("t.namespace = ?"), []any{pred.Namespace}, nil
	case queryir.TextContains:
		pattern := "%" + EscapeLike(pred.Text) + "%"
		sql := `(summary LIKE ? ESCAPE '\' OR IFNULL("desc", '') LIKE ? ESCAPE '\')`
		return sql, []any{pattern, pattern}, nil
	case queryir.Not:
		sql, params, err := c.compilePredicate(pred.Operand)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, liberr.QuerySyntax("unsupported predicate type: %T", p)
	}
}

// compileAnd compiles an And predicate to a parenthesized conjunction.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return "(" + strings.Join(sqlParts, " AND ") + ")", allParams, nil
}

// tagExistsSQL scopes a tag condition to the outer meme row.
func tagExistsSQL(cond string) string {
	return "EXISTS (SELECT 1 FROM meme_tag mt JOIN tag t ON t.id = mt.tag_id WHERE mt.meme_id = meme.id AND " + cond + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s for use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
