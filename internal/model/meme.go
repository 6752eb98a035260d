// Package model holds the meme library's domain types.
package model

import "time"

// Meme is the primary asset record.
//
// Content and Thumbnail reference blobs in the content store by digest. The
// relational store does not enforce that the blobs exist.
type Meme struct {
	ID          int64     `json:"id"`
	Content     Digest    `json:"content"`
	ExtraData   *string   `json:"extraData,omitempty"`
	Summary     string    `json:"summary"`
	Description *string   `json:"desc,omitempty"`
	Thumbnail   *Digest   `json:"thumbnail,omitempty"`
	Fav         bool      `json:"fav"`
	Trash       bool      `json:"trash"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
}

// NewMeme carries the fields supplied when a meme is first recorded.
type NewMeme struct {
	Content     Digest
	ExtraData   *string
	Summary     string
	Description *string
	Thumbnail   *Digest
}

// MemeUpdate is a sparse edit. A nil field leaves its column untouched.
type MemeUpdate struct {
	ExtraData   *string
	Summary     *string
	Description *string
	Thumbnail   *Digest
}

// IsEmpty reports whether the update would change nothing.
func (u MemeUpdate) IsEmpty() bool {
	return u.ExtraData == nil && u.Summary == nil && u.Description == nil && u.Thumbnail == nil
}
