package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDigest(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	d, err := ParseDigest(valid)
	require.NoError(t, err)
	assert.Equal(t, Digest(valid), d)

	for _, bad := range []string{
		"",
		"abc",
		strings.Repeat("AB", 32),
		strings.Repeat("zz", 32),
		valid + "0",
	} {
		_, err := ParseDigest(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDigestOf_MatchesDigestBytes(t *testing.T) {
	data := []byte("hello meme")

	d, err := DigestOf(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, DigestBytes(data), d)

	// Known SHA-256 of the empty input.
	assert.Equal(t,
		Digest("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"),
		DigestBytes(nil))
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		in      string
		want    Tag
		wantErr bool
	}{
		{in: "artist:alice", want: Tag{Namespace: "artist", Value: "alice"}},
		{in: " artist : alice ", want: Tag{Namespace: "artist", Value: "alice"}},
		{in: "source:http://example.com", want: Tag{Namespace: "source", Value: "http://example.com"}},
		{in: "alice", wantErr: true},
		{in: ":alice", wantErr: true},
		{in: "artist:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTag(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Namespace+":"+tt.want.Value, got.String())
		})
	}
}

func TestNormalizeText_NFC(t *testing.T) {
	decomposed := "cafe\u0301"
	precomposed := "caf\u00e9"

	assert.Equal(t, precomposed, NormalizeText(decomposed))
	assert.Equal(t, NewTag("mood", precomposed), NewTag("mood", decomposed))
}

func TestComposeText_KeepsWhitespace(t *testing.T) {
	assert.Equal(t, " caf\u00e9 \n", ComposeText(" cafe\u0301 \n"))
	assert.Equal(t, "plain", ComposeText("plain"))
}

func TestSearchMode_RoundTrip(t *testing.T) {
	for _, mode := range []SearchMode{ModeNormal, ModeOnlyFav, ModeOnlyTrash} {
		data, err := json.Marshal(mode)
		require.NoError(t, err)

		var got SearchMode
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, mode, got)
	}

	data, err := json.Marshal(ModeOnlyTrash)
	require.NoError(t, err)
	assert.Equal(t, `"OnlyTrash"`, string(data))
}

func TestSearchMode_Invalid(t *testing.T) {
	_, err := ParseSearchMode("Everything")
	assert.Error(t, err)

	var m SearchMode
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &m))
	assert.Error(t, m.Set("normal"))

	_, err = json.Marshal(SearchMode(42))
	assert.Error(t, err)
	assert.False(t, SearchMode(42).Valid())
}

func TestSearchMode_YAML(t *testing.T) {
	var doc struct {
		Mode SearchMode `yaml:"mode"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("mode: OnlyFav\n"), &doc))
	assert.Equal(t, ModeOnlyFav, doc.Mode)
}

func TestMemeUpdate_IsEmpty(t *testing.T) {
	assert.True(t, MemeUpdate{}.IsEmpty())

	s := "new"
	assert.False(t, MemeUpdate{Summary: &s}.IsEmpty())
}
