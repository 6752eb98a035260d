package library

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/memelib/internal/content"
	"github.com/roach88/memelib/internal/manifest"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/queryir"
)

// ImportFailure records an entry that could not be imported.
type ImportFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ImportReport summarizes an import.
type ImportReport struct {
	Added  []int64         `json:"added"`
	Failed []ImportFailure `json:"failed"`
}

// Import adds every entry of m. A failing entry is recorded in the report
// and the remaining entries are still attempted; only context cancellation
// aborts the batch.
func (l *Library) Import(ctx context.Context, m *manifest.Manifest, move bool) (ImportReport, error) {
	report := ImportReport{Added: []int64{}, Failed: []ImportFailure{}}

	for _, entry := range m.Files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		tags, err := entry.ParsedTags()
		if err != nil {
			report.Failed = append(report.Failed, ImportFailure{Path: entry.Path, Error: err.Error()})
			continue
		}

		meme, err := l.AddMeme(ctx, AddRequest{
			Path:        entry.Path,
			Thumbnail:   entry.Thumbnail,
			Summary:     entry.Summary,
			Description: entry.Desc,
			ExtraData:   entry.Extra,
			Tags:        tags,
			Fav:         entry.Fav,
			Trash:       entry.Trash,
			Move:        move,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			l.logger.Warn("import entry failed",
				slog.String("path", entry.Path),
				slog.Any("error", err))
			report.Failed = append(report.Failed, ImportFailure{Path: entry.Path, Error: err.Error()})
			continue
		}
		report.Added = append(report.Added, meme.ID)
	}

	l.logger.Info("import finished",
		slog.Int("added", len(report.Added)),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

// Export builds a manifest of every meme, trashed ones included. Paths point
// at the blobs inside the library.
func (l *Library) Export(ctx context.Context) (*manifest.Manifest, error) {
	out := &manifest.Manifest{Files: []manifest.Entry{}}

	for _, mode := range []model.SearchMode{model.ModeNormal, model.ModeOnlyTrash} {
		for page := 0; ; page++ {
			memes, err := l.store.SearchPredicate(ctx, queryir.Search{Mode: mode, Page: page})
			if err != nil {
				return nil, err
			}
			for _, m := range memes {
				entry, err := l.exportEntry(ctx, m)
				if err != nil {
					return nil, err
				}
				out.Files = append(out.Files, entry)
			}
			if len(memes) < queryir.PageSize {
				break
			}
		}
	}
	return out, nil
}

func (l *Library) exportEntry(ctx context.Context, m model.Meme) (manifest.Entry, error) {
	tags, err := l.store.MemeTags(ctx, m.ID)
	if err != nil {
		return manifest.Entry{}, err
	}

	entry := manifest.Entry{
		Path:    l.content.Path(m.Content),
		Summary: m.Summary,
		Desc:    m.Description,
		Extra:   m.ExtraData,
		Fav:     m.Fav,
		Trash:   m.Trash,
	}
	if m.Thumbnail != nil {
		entry.Thumbnail = l.content.Path(*m.Thumbnail)
	}
	for _, tag := range tags {
		entry.Tags = append(entry.Tags, tag.String())
	}
	return entry, nil
}

// VerifyReport lists blob problems found by Verify.
type VerifyReport struct {
	Checked      int            `json:"checked"`
	Missing      []model.Digest `json:"missing"`
	Corrupt      []model.Digest `json:"corrupt"`
	Unreferenced []model.Digest `json:"unreferenced"`
}

// OK reports whether no referenced blob is missing or corrupt.
func (r VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Corrupt) == 0
}

// Verify checks that every digest referenced by a meme is present and
// hashes to its name, and lists blobs that no meme references.
func (l *Library) Verify(ctx context.Context) (VerifyReport, error) {
	report := VerifyReport{
		Missing:      []model.Digest{},
		Corrupt:      []model.Digest{},
		Unreferenced: []model.Digest{},
	}

	referenced, err := l.store.ListContentDigests(ctx)
	if err != nil {
		return report, err
	}
	seen := make(map[model.Digest]bool, len(referenced))

	for _, d := range referenced {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		seen[d] = true
		report.Checked++

		ok, err := l.content.Exists(d)
		if err != nil {
			return report, err
		}
		if !ok {
			report.Missing = append(report.Missing, d)
			continue
		}
		if err := l.content.Verify(d); err != nil {
			if !errors.Is(err, content.ErrCorrupt) {
				return report, err
			}
			report.Corrupt = append(report.Corrupt, d)
		}
	}

	blobs, err := l.content.List()
	if err != nil {
		return report, err
	}
	for _, d := range blobs {
		if !seen[d] {
			report.Unreferenced = append(report.Unreferenced, d)
		}
	}

	if !report.OK() {
		l.logger.Warn("library verification found problems",
			slog.Int("missing", len(report.Missing)),
			slog.Int("corrupt", len(report.Corrupt)))
	}
	return report, nil
}
