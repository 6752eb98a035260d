package model

import (
	"fmt"
	"strings"
)

// TagSeparator splits a tag's namespace from its value in "namespace:value".
const TagSeparator = ":"

// Tag is a namespaced label. (Namespace, Value) is unique in the store.
type Tag struct {
	ID        int64  `json:"id,omitempty" yaml:"-"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Value     string `json:"value" yaml:"value"`
}

// NewTag builds a tag with normalized namespace and value.
func NewTag(namespace, value string) Tag {
	return Tag{Namespace: NormalizeText(namespace), Value: NormalizeText(value)}
}

// ParseTag parses "namespace:value". The split happens on the first
// separator, so values may themselves contain colons.
func ParseTag(s string) (Tag, error) {
	ns, value, ok := strings.Cut(s, TagSeparator)
	if !ok {
		return Tag{}, fmt.Errorf("invalid tag %q: want namespace:value", s)
	}
	tag := NewTag(ns, value)
	if tag.Namespace == "" {
		return Tag{}, fmt.Errorf("invalid tag %q: empty namespace", s)
	}
	if tag.Value == "" {
		return Tag{}, fmt.Errorf("invalid tag %q: empty value", s)
	}
	return tag, nil
}

// String renders the tag as "namespace:value".
func (t Tag) String() string {
	return t.Namespace + TagSeparator + t.Value
}
