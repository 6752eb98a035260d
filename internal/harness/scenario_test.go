package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/artist_search.yaml")
	require.NoError(t, err)

	assert.Equal(t, "artist_search", scenario.Name)
	require.Len(t, scenario.Memes, 3)
	assert.Equal(t, []string{"artist:alice"}, scenario.Memes[0].Tags)
	require.NotEmpty(t, scenario.Steps)
	assert.Equal(t, ActionSearch, scenario.Steps[0].Action)
	assert.Equal(t, []string{"m3", "m1"}, scenario.Steps[0].Expect.Memes)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "has a typo"
steps:
  - action: sweep
    expects:
      count: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_EmptyMemesListIsDistinctFromAbsent(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: empty
description: "empty expectation"
steps:
  - action: search
    expect:
      memes: []
  - action: search
`))
	require.NoError(t, err)

	require.NotNil(t, scenario.Steps[0].Expect)
	assert.NotNil(t, scenario.Steps[0].Expect.Memes)
	assert.Empty(t, scenario.Steps[0].Expect.Memes)
	assert.Nil(t, scenario.Steps[1].Expect)
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{action: sweep}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps: [{action: sweep}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown action",
			yaml:    "name: n\ndescription: d\nsteps: [{action: explode}]\n",
			wantErr: `unknown action "explode"`,
		},
		{
			name:    "touch without meme",
			yaml:    "name: n\ndescription: d\nsteps: [{action: touch}]\n",
			wantErr: "meme is required for touch",
		},
		{
			name:    "unknown meme key",
			yaml:    "name: n\ndescription: d\nsteps: [{action: fav, meme: nope}]\n",
			wantErr: `unknown meme key "nope"`,
		},
		{
			name:    "bad mode",
			yaml:    "name: n\ndescription: d\nsteps: [{action: search, mode: Everything}]\n",
			wantErr: "invalid search mode",
		},
		{
			name:    "bad fixture tag",
			yaml:    "name: n\ndescription: d\nmemes: [{key: a, summary: s, tags: [notatag]}]\nsteps: [{action: sweep}]\n",
			wantErr: "memes[0]",
		},
		{
			name:    "duplicate key",
			yaml:    "name: n\ndescription: d\nmemes: [{key: a, summary: s}, {key: a, summary: t}]\nsteps: [{action: sweep}]\n",
			wantErr: `duplicate key "a"`,
		},
		{
			name:    "repeat collides",
			yaml:    "name: n\ndescription: d\nmemes: [{key: b01, summary: s}, {key: b, summary: t, repeat: 2}]\nsteps: [{action: sweep}]\n",
			wantErr: `duplicate key "b01"`,
		},
		{
			name:    "tag without tags",
			yaml:    "name: n\ndescription: d\nmemes: [{key: a, summary: s}]\nsteps: [{action: tag, meme: a}]\n",
			wantErr: "tags are required for tag",
		},
		{
			name:    "unknown expected key",
			yaml:    "name: n\ndescription: d\nsteps: [{action: search, expect: {memes: [zz]}}]\n",
			wantErr: `steps[0].expect: unknown meme key "zz"`,
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nsteps: [{action: sweep}]\nassertions: [{type: magic}]\n",
			wantErr: `unknown assertion type "magic"`,
		},
		{
			name:    "tag_exists without exists",
			yaml:    "name: n\ndescription: d\nsteps: [{action: sweep}]\nassertions: [{type: tag_exists, tag: 'a:b'}]\n",
			wantErr: "exists is required",
		},
		{
			name:    "meme_state without fields",
			yaml:    "name: n\ndescription: d\nmemes: [{key: a, summary: s}]\nsteps: [{action: sweep}]\nassertions: [{type: meme_state, meme: a}]\n",
			wantErr: "meme_state needs fav, trash or summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_NotFoundStepMayUseUnknownKey(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: ghost
description: "touching a missing meme"
steps:
  - action: touch
    meme: ghost
    expect:
      error: NOT_FOUND
`))
	assert.NoError(t, err)
}

func TestMemeFixture_Keys(t *testing.T) {
	assert.Equal(t, []string{"a"}, MemeFixture{Key: "a"}.keys())
	assert.Equal(t, []string{"b01", "b02", "b03"}, MemeFixture{Key: "b", Repeat: 3}.keys())
}

func TestScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	paths, err := ScenarioFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)
}
