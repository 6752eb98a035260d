// Package library ties the relational store and the blob store together
// into the operations the command line exposes: adding files as memes,
// tagging, importing manifests and checking integrity.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/memelib/internal/config"
	"github.com/roach88/memelib/internal/content"
	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/store"
)

// Library is an opened meme library.
type Library struct {
	store   *store.Store
	content *content.Store
	logger  *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  func() time.Time
}

// WithLogger sets the logger passed to both stores.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the store's time source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Open opens (and migrates) the library described by cfg, creating its
// directories on first use.
func Open(cfg *config.Config, opts ...Option) (*Library, error) {
	o := options{logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		return nil, liberr.Storage("open library", err)
	}

	st, err := store.Open(cfg.Database, store.WithLogger(o.logger), store.WithClock(o.clock))
	if err != nil {
		return nil, err
	}

	cs, err := content.New(cfg.FilesDir, content.WithLogger(o.logger))
	if err != nil {
		st.Close()
		return nil, err
	}

	o.logger.Debug("opened library",
		slog.String("database", cfg.Database),
		slog.String("files", cfg.FilesDir))

	return New(st, cs, o.logger), nil
}

// New wraps already opened stores.
func New(st *store.Store, cs *content.Store, logger *slog.Logger) *Library {
	return &Library{store: st, content: cs, logger: logger}
}

// Close closes the relational store.
func (l *Library) Close() error {
	return l.store.Close()
}

// Store returns the relational store.
func (l *Library) Store() *store.Store {
	return l.store
}

// Content returns the blob store.
func (l *Library) Content() *content.Store {
	return l.content
}

// AddRequest describes a file to add as a new meme.
type AddRequest struct {
	Path        string
	Thumbnail   string // Optional thumbnail file
	Summary     string
	Description *string
	ExtraData   *string
	Tags        []model.Tag
	Fav         bool
	Trash       bool
	Move        bool // Delete source files once copied in
}

// AddMeme copies the file (and thumbnail) into the blob store, records the
// meme and links its tags. The row, its tags and its flags are written
// together, so a failed add leaves no meme behind; copied blobs stay and
// show up as unreferenced in Verify. With Move, sources are removed only
// once the meme is recorded.
func (l *Library) AddMeme(ctx context.Context, req AddRequest) (model.Meme, error) {
	digest, err := l.content.AddFile(ctx, req.Path, false)
	if err != nil {
		return model.Meme{}, err
	}

	newMeme := model.NewMeme{
		Content:     digest,
		ExtraData:   req.ExtraData,
		Summary:     req.Summary,
		Description: req.Description,
	}
	if req.Thumbnail != "" {
		thumb, err := l.content.AddFile(ctx, req.Thumbnail, false)
		if err != nil {
			return model.Meme{}, err
		}
		newMeme.Thumbnail = &thumb
	}

	id, err := l.store.RecordMeme(ctx, newMeme, req.Tags, req.Fav, req.Trash)
	if err != nil {
		return model.Meme{}, err
	}

	l.logger.Info("added meme",
		slog.Int64("id", id),
		slog.String("digest", digest.String()),
		slog.Int("tags", len(req.Tags)))

	if req.Move {
		l.removeSource(req.Path, digest)
		if newMeme.Thumbnail != nil {
			l.removeSource(req.Thumbnail, *newMeme.Thumbnail)
		}
	}

	return l.store.GetMeme(ctx, id)
}

// EditMeme applies a sparse update, optionally replacing the thumbnail with
// a new file, and marks the meme as recently updated.
func (l *Library) EditMeme(ctx context.Context, id int64, update model.MemeUpdate, thumbnailPath string) (model.Meme, error) {
	if _, err := l.store.GetMeme(ctx, id); err != nil {
		return model.Meme{}, err
	}

	if thumbnailPath != "" {
		thumb, err := l.content.AddFile(ctx, thumbnailPath, false)
		if err != nil {
			return model.Meme{}, err
		}
		update.Thumbnail = &thumb
	}

	if err := l.store.UpdateMeme(ctx, id, update); err != nil {
		return model.Meme{}, err
	}
	if err := l.store.TouchMeme(ctx, id); err != nil {
		return model.Meme{}, err
	}
	return l.store.GetMeme(ctx, id)
}

// TagMeme attaches tags to an existing meme.
func (l *Library) TagMeme(ctx context.Context, id int64, tags []model.Tag) error {
	if _, err := l.store.GetMeme(ctx, id); err != nil {
		return err
	}
	return l.linkTags(ctx, id, tags)
}

// UntagMeme detaches tags from a meme. Tags that do not exist are skipped.
// With reclaim set, tags left without any meme are deleted.
func (l *Library) UntagMeme(ctx context.Context, id int64, tags []model.Tag, reclaim bool) error {
	if _, err := l.store.GetMeme(ctx, id); err != nil {
		return err
	}
	for _, tag := range tags {
		tagID, found, err := l.store.TagID(ctx, tag.Namespace, tag.Value)
		if err != nil {
			return err
		}
		if !found {
			l.logger.Debug("skipping unknown tag", slog.String("tag", tag.String()))
			continue
		}
		if err := l.store.UnlinkTag(ctx, tagID, id, reclaim); err != nil {
			return err
		}
	}
	return nil
}

// Detail is a meme with its tags and blob location.
type Detail struct {
	Meme model.Meme  `json:"meme"`
	Tags []model.Tag `json:"tags"`
	Path string      `json:"path"`
}

// Describe returns a meme with its tags.
func (l *Library) Describe(ctx context.Context, id int64) (Detail, error) {
	m, err := l.store.GetMeme(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	tags, err := l.store.MemeTags(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Meme: m, Tags: tags, Path: l.content.Path(m.Content)}, nil
}

// Stats summarizes the library.
type Stats struct {
	Memes         int64 `json:"memes"`
	Tags          int64 `json:"tags"`
	Blobs         int   `json:"blobs"`
	SchemaVersion int   `json:"schema_version"`
}

// Stats counts memes, tags and blobs.
func (l *Library) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error

	if s.Memes, err = l.store.CountMemes(ctx); err != nil {
		return Stats{}, err
	}
	if s.Tags, err = l.store.CountTags(ctx); err != nil {
		return Stats{}, err
	}
	if s.SchemaVersion, err = l.store.SchemaVersion(ctx); err != nil {
		return Stats{}, err
	}
	blobs, err := l.content.List()
	if err != nil {
		return Stats{}, err
	}
	s.Blobs = len(blobs)
	return s, nil
}

// removeSource deletes a moved source. The meme is already recorded, so a
// failure here only leaves the source behind.
func (l *Library) removeSource(path string, d model.Digest) {
	if err := l.content.RemoveSource(path, d); err != nil {
		l.logger.Warn("could not remove source",
			slog.String("path", path),
			slog.Any("error", err))
	}
}

func (l *Library) linkTags(ctx context.Context, id int64, tags []model.Tag) error {
	for _, tag := range tags {
		tagID, err := l.store.GetOrCreateTag(ctx, tag.Namespace, tag.Value)
		if err != nil {
			return fmt.Errorf("tag %s: %w", tag, err)
		}
		if err := l.store.LinkTag(ctx, tagID, id); err != nil {
			return fmt.Errorf("tag %s: %w", tag, err)
		}
	}
	return nil
}
