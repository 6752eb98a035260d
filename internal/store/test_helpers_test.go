package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/testutil"
)

// testOptions returns store options with a deterministic clock and a silent
// logger.
func testOptions() []Option {
	clock := testutil.NewDeterministicClock()
	return []Option{
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	}
}

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, testOptions()...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMeme inserts a meme whose content digest is derived from summary
// and links the given "namespace:value" tags.
func createTestMeme(t *testing.T, s *Store, summary string, tags ...string) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := s.CreateMeme(ctx, model.NewMeme{
		Content: model.DigestBytes([]byte(summary)),
		Summary: summary,
	})
	if err != nil {
		t.Fatalf("CreateMeme(%q) failed: %v", summary, err)
	}

	for _, raw := range tags {
		tag, err := model.ParseTag(raw)
		if err != nil {
			t.Fatalf("ParseTag(%q) failed: %v", raw, err)
		}
		tagID, err := s.GetOrCreateTag(ctx, tag.Namespace, tag.Value)
		if err != nil {
			t.Fatalf("GetOrCreateTag(%q) failed: %v", raw, err)
		}
		if err := s.LinkTag(ctx, tagID, id); err != nil {
			t.Fatalf("LinkTag(%q) failed: %v", raw, err)
		}
	}
	return id
}

// memeIDs extracts ids in result order.
func memeIDs(memes []model.Meme) []int64 {
	ids := make([]int64, 0, len(memes))
	for _, m := range memes {
		ids = append(ids, m.ID)
	}
	return ids
}

func strPtr(s string) *string {
	return &s
}
