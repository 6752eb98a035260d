package model

import "fmt"

// SearchMode is a fixed view filter applied on top of a search expression.
type SearchMode int

const (
	// ModeNormal shows everything that is not trashed.
	ModeNormal SearchMode = iota
	// ModeOnlyFav shows favorites that are not trashed.
	ModeOnlyFav
	// ModeOnlyTrash shows trashed memes only.
	ModeOnlyTrash
)

var modeNames = map[SearchMode]string{
	ModeNormal:    "Normal",
	ModeOnlyFav:   "OnlyFav",
	ModeOnlyTrash: "OnlyTrash",
}

// ParseSearchMode accepts the names "Normal", "OnlyFav" and "OnlyTrash".
func ParseSearchMode(s string) (SearchMode, error) {
	for mode, name := range modeNames {
		if name == s {
			return mode, nil
		}
	}
	return ModeNormal, fmt.Errorf("invalid search mode %q: must be a string OnlyFav, OnlyTrash or Normal", s)
}

// String returns the mode's name.
func (m SearchMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

// Valid reports whether m is one of the defined modes.
func (m SearchMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// MarshalText encodes the mode by name (JSON and YAML use this).
func (m SearchMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid search mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *SearchMode) UnmarshalText(text []byte) error {
	mode, err := ParseSearchMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Set implements pflag.Value so the mode can back a CLI flag directly.
func (m *SearchMode) Set(s string) error {
	return m.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (m *SearchMode) Type() string {
	return "mode"
}
