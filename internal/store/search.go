package store

import (
	"context"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/queryir"
)

// Search parses expr, combines it with mode and returns one page of
// matching memes, most recently updated first. Syntax errors are reported
// before any SQL reaches the engine.
func (s *Store) Search(ctx context.Context, expr string, mode model.SearchMode, page int) ([]model.Meme, error) {
	filter, err := queryir.Parse(expr)
	if err != nil {
		return nil, err
	}
	return s.SearchPredicate(ctx, queryir.Search{Filter: filter, Mode: mode, Page: page})
}

// SearchPredicate runs an already built search request.
func (s *Store) SearchPredicate(ctx context.Context, search queryir.Search) ([]model.Meme, error) {
	query, params, err := s.compiler.Compile(search)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, liberr.Storage("search", err)
	}
	defer rows.Close()

	memes := []model.Meme{}
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, liberr.Storage("search", err)
		}
		memes = append(memes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, liberr.Storage("search", err)
	}
	return memes, nil
}

// CountMatches returns the number of memes matching expr in mode across all
// pages.
func (s *Store) CountMatches(ctx context.Context, expr string, mode model.SearchMode) (int64, error) {
	filter, err := queryir.Parse(expr)
	if err != nil {
		return 0, err
	}

	query, params, err := s.compiler.CompileCount(queryir.Search{Filter: filter, Mode: mode})
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, liberr.Storage("count matches", err)
	}
	return n, nil
}
