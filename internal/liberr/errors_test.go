package liberr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op and cause",
			err:  Storage("get meme", errors.New("disk I/O error")),
			want: "get meme: disk I/O error",
		},
		{
			name: "op and message",
			err:  NotFound("get meme", "meme 7"),
			want: "get meme: meme 7 not found",
		},
		{
			name: "message and cause",
			err:  &Error{Kind: KindAssetIO, Op: "add file", Message: "copy", Err: fs.ErrNotExist},
			want: "add file: copy: file does not exist",
		},
		{
			name: "cause only",
			err:  &Error{Kind: KindStorage, Err: errors.New("boom")},
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindsAndCodes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		storage   bool
		assetIO   bool
		notFound  bool
		syntax    bool
		schemaNew bool
	}{
		{name: "storage", err: Storage("op", errors.New("x")), storage: true},
		{name: "asset io", err: AssetIO("op", errors.New("x")), assetIO: true},
		{name: "not found", err: NotFound("op", "meme"), storage: true, notFound: true},
		{name: "query syntax", err: QuerySyntax("bad term %q", "-"), storage: true, syntax: true},
		{name: "schema too new", err: SchemaTooNew(3, 2), storage: true, schemaNew: true},
		{name: "plain error", err: errors.New("x")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.storage, IsStorage(tt.err))
			assert.Equal(t, tt.assetIO, IsAssetIO(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.syntax, IsQuerySyntax(tt.err))
			assert.Equal(t, tt.schemaNew, IsSchemaTooNew(tt.err))
		})
	}
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("show command: %w", NotFound("get meme", "meme 1"))
	assert.True(t, IsNotFound(err))
	assert.True(t, IsStorage(err))
}

func TestUnwrap(t *testing.T) {
	err := AssetIO("add file", fs.ErrNotExist)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]error{"error": NotFound("get meme", "meme 3")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "get meme: meme 3 not found"}`, string(data))
}

func TestKindOfAndCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("cli: %w", NotFound("get meme", "meme 3"))

	assert.Equal(t, KindStorage, KindOf(wrapped))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))

	plain := errors.New("plain")
	assert.Equal(t, Kind(""), KindOf(plain))
	assert.Equal(t, CodeNone, CodeOf(plain))
}
