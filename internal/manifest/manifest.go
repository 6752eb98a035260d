// Package manifest reads and writes YAML import manifests.
//
// A manifest lists files to add to the library with their metadata:
//
//	files:
//	  - path: cats/grumpy.png
//	    summary: grumpy cat
//	    desc: not amused
//	    thumbnail: cats/grumpy.thumb.jpg
//	    tags: [artist:alice, mood:grumpy]
//	    fav: true
//
// Documents are checked against a CUE schema before decoding, so errors
// carry the line of the offending entry. Relative paths are resolved
// against the manifest's directory.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/memelib/internal/model"
)

// Manifest is a batch of files to import.
type Manifest struct {
	Files []Entry `json:"files" yaml:"files"`
}

// Entry describes one file.
type Entry struct {
	Path      string   `json:"path" yaml:"path"`
	Summary   string   `json:"summary" yaml:"summary"`
	Desc      *string  `json:"desc,omitempty" yaml:"desc,omitempty"`
	Extra     *string  `json:"extra,omitempty" yaml:"extra,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Fav       bool     `json:"fav,omitempty" yaml:"fav,omitempty"`
	Trash     bool     `json:"trash,omitempty" yaml:"trash,omitempty"`
}

// ParsedTags parses and normalizes the entry's tags.
func (e Entry) ParsedTags() ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(e.Tags))
	for _, raw := range e.Tags {
		tag, err := model.ParseTag(raw)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// Error is a manifest validation error with source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Parse validates data against the manifest schema and decodes it.
// filename is used only in error positions.
func Parse(filename string, data []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("manifest.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return nil, formatCUEError(err, filename)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	v := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var m Manifest
	if err := v.Decode(&m); err != nil {
		return nil, formatCUEError(err, filename)
	}

	for i, entry := range m.Files {
		if _, err := entry.ParsedTags(); err != nil {
			return nil, &Error{Field: fmt.Sprintf("files[%d].tags", i), Message: err.Error()}
		}
	}
	return &m, nil
}

// Load reads the manifest at path, resolves relative file paths against
// its directory and checks that every referenced file exists.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := Parse(path, data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range m.Files {
		entry := &m.Files[i]
		entry.Path = resolve(base, entry.Path)
		if err := checkFile(entry.Path); err != nil {
			return nil, &Error{Field: fmt.Sprintf("files[%d].path", i), Message: err.Error()}
		}
		if entry.Thumbnail != "" {
			entry.Thumbnail = resolve(base, entry.Thumbnail)
			if err := checkFile(entry.Thumbnail); err != nil {
				return nil, &Error{Field: fmt.Sprintf("files[%d].thumbnail", i), Message: err.Error()}
			}
		}
	}
	return m, nil
}

// Write encodes m as YAML.
func Write(w io.Writer, m *Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return enc.Close()
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

// formatCUEError extracts position info from CUE errors. Positions inside
// the manifest document win over positions inside the schema.
func formatCUEError(err error, filename string) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	field := "manifest"
	if path := firstErr.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}

	positions := errors.Positions(firstErr)
	if len(positions) == 0 {
		return &Error{Field: field, Message: firstErr.Error()}
	}
	pos := positions[0]
	for _, p := range positions {
		if p.Filename() == filename {
			pos = p
			break
		}
	}
	return &Error{
		Field:   field,
		Message: firstErr.Error(),
		Pos:     pos,
	}
}
