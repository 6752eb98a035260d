package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/querysql"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateMeme inserts a new meme and returns its id.
// fav and trash start false; both timestamps are set to the clock's now.
func (s *Store) CreateMeme(ctx context.Context, m model.NewMeme) (int64, error) {
	id, err := s.insertMeme(ctx, s.db, m, false, false)
	if err != nil {
		return 0, liberr.Storage("create meme", err)
	}
	return id, nil
}

// RecordMeme inserts a meme together with its tags and flags in one
// transaction. On any error nothing is written.
func (s *Store) RecordMeme(ctx context.Context, m model.NewMeme, tags []model.Tag, fav, trash bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, liberr.Storage("record meme", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	id, err := s.insertMeme(ctx, tx, m, fav, trash)
	if err != nil {
		return 0, liberr.Storage("record meme", err)
	}
	for _, tag := range tags {
		tagID, err := getOrCreateTag(ctx, tx, tag.Namespace, tag.Value)
		if err != nil {
			return 0, liberr.Storage("record meme", fmt.Errorf("tag %s: %w", tag, err))
		}
		if err := linkTag(ctx, tx, tagID, id); err != nil {
			return 0, liberr.Storage("record meme", fmt.Errorf("tag %s: %w", tag, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, liberr.Storage("record meme", fmt.Errorf("commit: %w", err))
	}
	return id, nil
}

func (s *Store) insertMeme(ctx context.Context, q execer, m model.NewMeme, fav, trash bool) (int64, error) {
	if _, err := model.ParseDigest(string(m.Content)); err != nil {
		return 0, err
	}
	if m.Thumbnail != nil {
		if _, err := model.ParseDigest(string(*m.Thumbnail)); err != nil {
			return 0, fmt.Errorf("thumbnail: %w", err)
		}
	}

	now := s.now()
	res, err := q.ExecContext(ctx, `
		INSERT INTO meme (content, extra_data, summary, "desc", thumbnail, fav, trash, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(m.Content),
		nullString(m.ExtraData),
		model.ComposeText(m.Summary),
		nullString(composed(m.Description)),
		nullDigest(m.Thumbnail),
		fav,
		trash,
		now,
		now,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// composed returns the NFC form of an optional text column.
func composed(s *string) *string {
	if s == nil {
		return nil
	}
	c := model.ComposeText(*s)
	return &c
}

// UpdateMeme applies a sparse edit: each non-nil field overwrites its column
// and nil fields are left untouched. An empty update issues no SQL.
// update_time is not changed; call TouchMeme for that.
func (s *Store) UpdateMeme(ctx context.Context, id int64, u model.MemeUpdate) error {
	if u.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	if u.ExtraData != nil {
		sets = append(sets, "extra_data = ?")
		args = append(args, *u.ExtraData)
	}
	if u.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, model.ComposeText(*u.Summary))
	}
	if u.Description != nil {
		sets = append(sets, `"desc" = ?`)
		args = append(args, model.ComposeText(*u.Description))
	}
	if u.Thumbnail != nil {
		if _, err := model.ParseDigest(string(*u.Thumbnail)); err != nil {
			return liberr.Storage("update meme", fmt.Errorf("thumbnail: %w", err))
		}
		sets = append(sets, "thumbnail = ?")
		args = append(args, string(*u.Thumbnail))
	}
	args = append(args, id)

	query := "UPDATE meme SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	return s.execOne(ctx, "update meme", query, args...)
}

// TouchMeme sets update_time to now without changing any other field.
func (s *Store) TouchMeme(ctx context.Context, id int64) error {
	return s.execOne(ctx, "touch meme", "UPDATE meme SET update_time = ? WHERE id = ?", s.now(), id)
}

// SetFavorite overwrites the fav flag.
func (s *Store) SetFavorite(ctx context.Context, id int64, value bool) error {
	return s.execOne(ctx, "set favorite", "UPDATE meme SET fav = ? WHERE id = ?", value, id)
}

// SetTrash overwrites the soft-delete flag. Memes are never physically
// deleted by the store.
func (s *Store) SetTrash(ctx context.Context, id int64, value bool) error {
	return s.execOne(ctx, "set trash", "UPDATE meme SET trash = ? WHERE id = ?", value, id)
}

// GetMeme returns the meme with the given id.
func (s *Store) GetMeme(ctx context.Context, id int64) (model.Meme, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+querysql.MemeColumns+" FROM meme WHERE id = ?", id)

	m, err := scanMeme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meme{}, liberr.NotFound("get meme", fmt.Sprintf("meme %d", id))
	}
	if err != nil {
		return model.Meme{}, liberr.Storage("get meme", err)
	}
	return m, nil
}

// CountMemes returns the number of meme rows, trashed ones included.
func (s *Store) CountMemes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM meme").Scan(&n); err != nil {
		return 0, liberr.Storage("count memes", err)
	}
	return n, nil
}

// ListContentDigests returns every digest referenced by a meme's content or
// thumbnail, sorted and without duplicates.
func (s *Store) ListContentDigests(ctx context.Context) ([]model.Digest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM meme
		UNION
		SELECT thumbnail FROM meme WHERE thumbnail IS NOT NULL
		ORDER BY 1
	`)
	if err != nil {
		return nil, liberr.Storage("list digests", err)
	}
	defer rows.Close()

	var digests []model.Digest
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, liberr.Storage("list digests", err)
		}
		digests = append(digests, model.Digest(d))
	}
	if err := rows.Err(); err != nil {
		return nil, liberr.Storage("list digests", err)
	}
	return digests, nil
}

// execOne runs a single-row UPDATE and reports NOT_FOUND when no row matched.
func (s *Store) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return liberr.Storage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return liberr.Storage(op, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return liberr.NotFound(op, fmt.Sprintf("meme %d", args[len(args)-1]))
	}
	return nil
}

// scanMeme reads one row selected with querysql.MemeColumns.
func scanMeme(row rowScanner) (model.Meme, error) {
	var (
		m          model.Meme
		content    string
		extra      sql.NullString
		desc       sql.NullString
		thumbnail  sql.NullString
		createTime timestamp
		updateTime timestamp
	)

	err := row.Scan(
		&m.ID,
		&content,
		&extra,
		&m.Summary,
		&desc,
		&thumbnail,
		&m.Fav,
		&m.Trash,
		&createTime,
		&updateTime,
	)
	if err != nil {
		return model.Meme{}, err
	}

	m.Content = model.Digest(content)
	if extra.Valid {
		m.ExtraData = &extra.String
	}
	if desc.Valid {
		m.Description = &desc.String
	}
	if thumbnail.Valid {
		d := model.Digest(thumbnail.String)
		m.Thumbnail = &d
	}
	m.CreateTime = time.Time(createTime)
	m.UpdateTime = time.Time(updateTime)
	return m, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullDigest(d *model.Digest) any {
	if d == nil {
		return nil
	}
	return string(*d)
}
