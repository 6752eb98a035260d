package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/querysql"
)

// GetOrCreateTag returns the id of the tag (namespace, value), inserting it
// on first use. Namespace and value are normalized first.
func (s *Store) GetOrCreateTag(ctx context.Context, namespace, value string) (int64, error) {
	id, err := getOrCreateTag(ctx, s.db, namespace, value)
	if err != nil {
		return 0, liberr.Storage("get or create tag", err)
	}
	return id, nil
}

func getOrCreateTag(ctx context.Context, q execer, namespace, value string) (int64, error) {
	tag := model.NewTag(namespace, value)
	if tag.Namespace == "" || tag.Value == "" {
		return 0, fmt.Errorf("invalid tag %q: empty namespace or value", tag.String())
	}

	id, found, err := tagID(ctx, q, tag)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	res, err := q.ExecContext(ctx,
		"INSERT INTO tag (namespace, value) VALUES (?, ?)",
		tag.Namespace, tag.Value)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// TagID looks up the id of (namespace, value). found is false when the tag
// does not exist.
func (s *Store) TagID(ctx context.Context, namespace, value string) (id int64, found bool, err error) {
	id, found, err = tagID(ctx, s.db, model.NewTag(namespace, value))
	if err != nil {
		return 0, false, liberr.Storage("tag id", err)
	}
	return id, found, nil
}

func tagID(ctx context.Context, q execer, tag model.Tag) (id int64, found bool, err error) {
	err = q.QueryRowContext(ctx,
		"SELECT id FROM tag WHERE namespace = ? AND value = ?",
		tag.Namespace, tag.Value,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// LinkTag attaches a tag to a meme. Linking an existing pair is a no-op.
func (s *Store) LinkTag(ctx context.Context, tagID, memeID int64) error {
	if err := linkTag(ctx, s.db, tagID, memeID); err != nil {
		return liberr.Storage("link tag", err)
	}
	return nil
}

func linkTag(ctx context.Context, q execer, tagID, memeID int64) error {
	_, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO meme_tag (tag_id, meme_id) VALUES (?, ?)",
		tagID, memeID)
	return err
}

// UnlinkTag removes the edge between a tag and a meme. When reclaimOrphan is
// set and the tag has no edges left, the tag row is deleted too. Orphans are
// otherwise kept until SweepOrphanTags runs.
func (s *Store) UnlinkTag(ctx context.Context, tagID, memeID int64, reclaimOrphan bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return liberr.Storage("unlink tag", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM meme_tag WHERE tag_id = ? AND meme_id = ?",
		tagID, memeID,
	); err != nil {
		return liberr.Storage("unlink tag", err)
	}

	if reclaimOrphan {
		var edges int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM meme_tag WHERE tag_id = ?", tagID,
		).Scan(&edges); err != nil {
			return liberr.Storage("unlink tag", err)
		}
		if edges == 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM tag WHERE id = ?", tagID); err != nil {
				return liberr.Storage("unlink tag", err)
			}
			s.logger.Debug("reclaimed orphan tag", slog.Int64("tag_id", tagID))
		}
	}

	if err := tx.Commit(); err != nil {
		return liberr.Storage("unlink tag", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// SweepOrphanTags deletes every tag with no edges and returns how many
// were removed.
func (s *Store) SweepOrphanTags(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tag WHERE NOT EXISTS (SELECT 1 FROM meme_tag WHERE meme_tag.tag_id = tag.id)")
	if err != nil {
		return 0, liberr.Storage("sweep orphan tags", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, liberr.Storage("sweep orphan tags", fmt.Errorf("rows affected: %w", err))
	}
	if n > 0 {
		s.logger.Info("swept orphan tags", slog.Int64("removed", n))
	}
	return n, nil
}

// MemeTags returns every tag attached to a meme, ordered by namespace and
// value.
func (s *Store) MemeTags(ctx context.Context, memeID int64) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.namespace, t.value
		FROM meme_tag mt
		JOIN tag t ON t.id = mt.tag_id
		WHERE mt.meme_id = ?
		ORDER BY t.namespace, t.value
	`, memeID)
	if err != nil {
		return nil, liberr.Storage("meme tags", err)
	}
	return collectTags(rows, "meme tags")
}

// NamespacesWithPrefix returns the distinct namespaces starting with prefix.
func (s *Store) NamespacesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT namespace FROM tag WHERE namespace LIKE ? ESCAPE '\' ORDER BY namespace`,
		prefixPattern(prefix))
	if err != nil {
		return nil, liberr.Storage("namespaces with prefix", err)
	}
	return collectStrings(rows, "namespaces with prefix")
}

// ValuesWithPrefix returns the distinct values in namespace starting with
// prefix.
func (s *Store) ValuesWithPrefix(ctx context.Context, namespace, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT value FROM tag WHERE namespace = ? AND value LIKE ? ESCAPE '\' ORDER BY value`,
		model.NormalizeText(namespace), prefixPattern(prefix))
	if err != nil {
		return nil, liberr.Storage("values with prefix", err)
	}
	return collectStrings(rows, "values with prefix")
}

// ValuesFuzzy returns tags in any namespace whose value starts with keyword.
func (s *Store) ValuesFuzzy(ctx context.Context, keyword string) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, namespace, value FROM tag WHERE value LIKE ? ESCAPE '\' ORDER BY namespace, value`,
		prefixPattern(keyword))
	if err != nil {
		return nil, liberr.Storage("values fuzzy", err)
	}
	return collectTags(rows, "values fuzzy")
}

// CountTags returns the number of tag rows, orphans included.
func (s *Store) CountTags(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM tag").Scan(&n); err != nil {
		return 0, liberr.Storage("count tags", err)
	}
	return n, nil
}

// prefixPattern builds a left-anchored LIKE pattern matching prefix literally.
func prefixPattern(prefix string) string {
	return querysql.EscapeLike(model.NormalizeText(prefix)) + "%"
}

func collectTags(rows *sql.Rows, op string) ([]model.Tag, error) {
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Namespace, &t.Value); err != nil {
			return nil, liberr.Storage(op, err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, liberr.Storage(op, err)
	}
	return tags, nil
}

func collectStrings(rows *sql.Rows, op string) ([]string, error) {
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, liberr.Storage(op, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, liberr.Storage(op, err)
	}
	return values, nil
}
