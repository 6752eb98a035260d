package library

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memelib/internal/config"
	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/manifest"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/testutil"
)

func createTestLibrary(t *testing.T) *Library {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		LibraryDir: dir,
		Database:   filepath.Join(dir, "db", "memes.db"),
		FilesDir:   filepath.Join(dir, "files"),
	}
	lib, err := Open(cfg,
		WithClock(testutil.NewDeterministicClock().Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	return lib
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func mustTags(t *testing.T, raw ...string) []model.Tag {
	t.Helper()
	tags := make([]model.Tag, 0, len(raw))
	for _, r := range raw {
		tag, err := model.ParseTag(r)
		require.NoError(t, err)
		tags = append(tags, tag)
	}
	return tags
}

func TestOpen_CreatesDirectories(t *testing.T) {
	lib := createTestLibrary(t)

	info, err := os.Stat(lib.Content().Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	stats, err := lib.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{SchemaVersion: 2}, stats)
}

func TestAddMeme(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	src := t.TempDir()

	desc := "not amused"
	meme, err := lib.AddMeme(ctx, AddRequest{
		Path:        writeFile(t, src, "grumpy.png", "grumpy bytes"),
		Thumbnail:   writeFile(t, src, "grumpy.thumb", "thumb bytes"),
		Summary:     "grumpy cat",
		Description: &desc,
		Tags:        mustTags(t, "artist:alice", "mood:grumpy"),
		Fav:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.DigestBytes([]byte("grumpy bytes")), meme.Content)
	require.NotNil(t, meme.Thumbnail)
	assert.Equal(t, model.DigestBytes([]byte("thumb bytes")), *meme.Thumbnail)
	assert.Equal(t, "grumpy cat", meme.Summary)
	assert.Equal(t, &desc, meme.Description)
	assert.True(t, meme.Fav)
	assert.False(t, meme.Trash)

	detail, err := lib.Describe(ctx, meme.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"artist:alice", "mood:grumpy"}, tagStrings(detail.Tags))
	assert.FileExists(t, detail.Path)

	// Sources stay put without Move.
	assert.FileExists(t, filepath.Join(src, "grumpy.png"))
}

func TestAddMeme_Move(t *testing.T) {
	lib := createTestLibrary(t)
	src := t.TempDir()
	path := writeFile(t, src, "a.gif", "gif")

	_, err := lib.AddMeme(context.Background(), AddRequest{Path: path, Summary: "a", Move: true})
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestAddMeme_MissingFile(t *testing.T) {
	lib := createTestLibrary(t)

	_, err := lib.AddMeme(context.Background(), AddRequest{
		Path:    filepath.Join(t.TempDir(), "missing.png"),
		Summary: "nothing",
	})
	require.Error(t, err)
	assert.True(t, liberr.IsAssetIO(err))

	stats, err := lib.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Memes)
}

func TestAddMeme_FailedTagLeavesNothingBehind(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "a.png", "a")

	_, err := lib.AddMeme(ctx, AddRequest{
		Path:    path,
		Summary: "a",
		Tags:    []model.Tag{{Namespace: "artist", Value: "alice"}, {Namespace: "mood"}},
		Fav:     true,
		Move:    true,
	})
	require.Error(t, err)
	assert.True(t, liberr.IsStorage(err))

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Memes)
	assert.Zero(t, stats.Tags, "tags created before the failure are rolled back")
	assert.FileExists(t, path, "source is kept when the add fails")

	// Retrying with valid tags records exactly one meme.
	meme, err := lib.AddMeme(ctx, AddRequest{Path: path, Summary: "a", Tags: mustTags(t, "artist:alice"), Fav: true})
	require.NoError(t, err)
	assert.True(t, meme.Fav)

	stats, err = lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Memes)
	assert.Equal(t, int64(1), stats.Tags)
}

func TestEditMeme(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	src := t.TempDir()

	meme, err := lib.AddMeme(ctx, AddRequest{Path: writeFile(t, src, "a", "a"), Summary: "old"})
	require.NoError(t, err)

	summary := "new"
	edited, err := lib.EditMeme(ctx, meme.ID, model.MemeUpdate{Summary: &summary}, writeFile(t, src, "t", "thumb"))
	require.NoError(t, err)

	assert.Equal(t, "new", edited.Summary)
	require.NotNil(t, edited.Thumbnail)
	assert.Equal(t, model.DigestBytes([]byte("thumb")), *edited.Thumbnail)
	assert.True(t, edited.UpdateTime.After(meme.UpdateTime))
	assert.Equal(t, meme.CreateTime, edited.CreateTime)
}

func TestEditMeme_NotFound(t *testing.T) {
	lib := createTestLibrary(t)
	summary := "x"

	_, err := lib.EditMeme(context.Background(), 99, model.MemeUpdate{Summary: &summary}, "")
	assert.True(t, liberr.IsNotFound(err))
}

func TestTagAndUntag(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()

	meme, err := lib.AddMeme(ctx, AddRequest{Path: writeFile(t, t.TempDir(), "a", "a"), Summary: "a"})
	require.NoError(t, err)

	require.NoError(t, lib.TagMeme(ctx, meme.ID, mustTags(t, "artist:alice", "mood:happy")))
	require.NoError(t, lib.TagMeme(ctx, meme.ID, mustTags(t, "artist:alice")))

	detail, err := lib.Describe(ctx, meme.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"artist:alice", "mood:happy"}, tagStrings(detail.Tags))

	// Unknown tags are skipped.
	require.NoError(t, lib.UntagMeme(ctx, meme.ID, mustTags(t, "mood:happy", "nope:nope"), true))

	detail, err = lib.Describe(ctx, meme.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"artist:alice"}, tagStrings(detail.Tags))

	_, found, err := lib.Store().TagID(ctx, "mood", "happy")
	require.NoError(t, err)
	assert.False(t, found, "orphan tag should be reclaimed")
}

func TestTagMeme_NotFound(t *testing.T) {
	lib := createTestLibrary(t)

	err := lib.TagMeme(context.Background(), 7, mustTags(t, "a:b"))
	assert.True(t, liberr.IsNotFound(err))
}

func TestImportExport(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	src := t.TempDir()

	desc := "desc"
	m := &manifest.Manifest{Files: []manifest.Entry{
		{Path: writeFile(t, src, "one", "one"), Summary: "one", Desc: &desc, Tags: []string{"artist:alice"}, Fav: true},
		{Path: filepath.Join(src, "missing"), Summary: "missing"},
		{Path: writeFile(t, src, "two", "two"), Summary: "two", Trash: true},
		{Path: writeFile(t, src, "bad", "bad"), Summary: "bad tag", Tags: []string{"notatag"}},
	}}

	report, err := lib.Import(ctx, m, false)
	require.NoError(t, err)
	assert.Len(t, report.Added, 2)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, filepath.Join(src, "missing"), report.Failed[0].Path)
	assert.Equal(t, filepath.Join(src, "bad"), report.Failed[1].Path)

	out, err := lib.Export(ctx)
	require.NoError(t, err)
	require.Len(t, out.Files, 2)

	assert.Equal(t, "one", out.Files[0].Summary)
	assert.True(t, out.Files[0].Fav)
	assert.Equal(t, []string{"artist:alice"}, out.Files[0].Tags)
	assert.Equal(t, lib.Content().Path(model.DigestBytes([]byte("one"))), out.Files[0].Path)

	assert.Equal(t, "two", out.Files[1].Summary)
	assert.True(t, out.Files[1].Trash)
}

func TestImport_MoveExportedManifestKeepsBlobs(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	src := t.TempDir()

	for _, name := range []string{"one", "two"} {
		_, err := lib.AddMeme(ctx, AddRequest{
			Path:      writeFile(t, src, name, name),
			Thumbnail: writeFile(t, src, name+".thumb", name+" thumb"),
			Summary:   name,
		})
		require.NoError(t, err)
	}

	out, err := lib.Export(ctx)
	require.NoError(t, err)

	// Every path in the manifest is a blob of this library.
	report, err := lib.Import(ctx, out, true)
	require.NoError(t, err)
	assert.Len(t, report.Added, 2)
	assert.Empty(t, report.Failed)

	for _, entry := range out.Files {
		assert.FileExists(t, entry.Path)
		assert.FileExists(t, entry.Thumbnail)
	}

	verify, err := lib.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, verify.OK(), "missing %v corrupt %v", verify.Missing, verify.Corrupt)
	assert.Equal(t, 4, verify.Checked)
}

func TestImport_Canceled(t *testing.T) {
	lib := createTestLibrary(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &manifest.Manifest{Files: []manifest.Entry{
		{Path: writeFile(t, t.TempDir(), "one", "one"), Summary: "one"},
	}}
	_, err := lib.Import(ctx, m, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport_PagesThroughEverything(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	src := t.TempDir()

	for i := 0; i < 35; i++ {
		name := string(rune('a'+i%26)) + string(rune('0'+i/26))
		_, err := lib.AddMeme(ctx, AddRequest{Path: writeFile(t, src, name, name), Summary: name})
		require.NoError(t, err)
	}

	out, err := lib.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, out.Files, 35)
}

func TestVerify(t *testing.T) {
	lib := createTestLibrary(t)
	ctx := context.Background()
	src := t.TempDir()

	good, err := lib.AddMeme(ctx, AddRequest{Path: writeFile(t, src, "good", "good"), Summary: "good"})
	require.NoError(t, err)
	bad, err := lib.AddMeme(ctx, AddRequest{Path: writeFile(t, src, "bad", "bad"), Summary: "bad"})
	require.NoError(t, err)
	gone, err := lib.AddMeme(ctx, AddRequest{Path: writeFile(t, src, "gone", "gone"), Summary: "gone"})
	require.NoError(t, err)
	stray, err := lib.Content().AddBytes([]byte("stray"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(lib.Content().Path(bad.Content), []byte("tampered"), 0o644))
	require.NoError(t, os.Remove(lib.Content().Path(gone.Content)))

	report, err := lib.Verify(ctx)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, []model.Digest{gone.Content}, report.Missing)
	assert.Equal(t, []model.Digest{bad.Content}, report.Corrupt)
	assert.Equal(t, []model.Digest{stray}, report.Unreferenced)
	assert.NotContains(t, report.Corrupt, good.Content)
}

func tagStrings(tags []model.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tag.String())
	}
	return out
}
