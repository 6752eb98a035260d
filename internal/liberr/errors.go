// Package liberr defines the error kinds reported by the meme library.
//
// Every public operation returns either a success value or a *Error. There
// are two top-level kinds:
//
//   - KindStorage: any failure from the relational store (constraint
//     violation, malformed query, I/O on the database file).
//   - KindAssetIO: failure reading, writing or copying blob files.
//
// Codes narrow a kind down to a case callers can act on. NOT_FOUND,
// QUERY_SYNTAX and SCHEMA_TOO_NEW are all storage errors.
package liberr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the top-level error category.
type Kind string

const (
	KindStorage Kind = "STORAGE"
	KindAssetIO Kind = "ASSET_IO"
)

// Code identifies a distinguished sub-case of a Kind.
type Code string

const (
	// CodeNone marks an opaque failure with no further classification.
	CodeNone Code = ""

	// CodeNotFound indicates the requested row does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeQuerySyntax indicates a search expression or page number was
	// rejected before any SQL reached the engine.
	CodeQuerySyntax Code = "QUERY_SYNTAX"

	// CodeSchemaTooNew indicates the store was written by a newer schema
	// version than this build understands.
	CodeSchemaTooNew Code = "SCHEMA_TOO_NEW"
)

// Error is the single error type returned across package boundaries.
type Error struct {
	Kind Kind
	Code Code

	// Op names the failed operation, e.g. "get meme" or "add file".
	Op string

	// Message is an optional human-readable description used when Err is nil.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg = msg + ": " + e.Err.Error()
		} else {
			msg = e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	if msg == "" {
		return e.Op
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as its descriptive message so that callers
// serializing results (the CLI's JSON output) get a plain string.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Error())
}

// Storage wraps a relational-store failure.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// AssetIO wraps a blob file failure.
func AssetIO(op string, err error) *Error {
	return &Error{Kind: KindAssetIO, Op: op, Err: err}
}

// NotFound reports a missing row.
func NotFound(op, what string) *Error {
	return &Error{Kind: KindStorage, Code: CodeNotFound, Op: op, Message: what + " not found"}
}

// QuerySyntax reports a rejected search expression.
func QuerySyntax(format string, args ...any) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    CodeQuerySyntax,
		Op:      "compile search",
		Message: fmt.Sprintf(format, args...),
	}
}

// SchemaTooNew reports a store whose version is ahead of this build.
func SchemaTooNew(stored, current int) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    CodeSchemaTooNew,
		Op:      "migrate",
		Message: fmt.Sprintf("store is at schema version %d, this build supports up to %d", stored, current),
	}
}

// IsStorage returns true if err is (or wraps) a storage error.
func IsStorage(err error) bool {
	return KindOf(err) == KindStorage
}

// IsAssetIO returns true if err is (or wraps) a blob file error.
func IsAssetIO(err error) bool {
	return KindOf(err) == KindAssetIO
}

// IsNotFound returns true if err is (or wraps) a missing-row error.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsQuerySyntax returns true if err is (or wraps) a rejected search expression.
func IsQuerySyntax(err error) bool {
	return CodeOf(err) == CodeQuerySyntax
}

// IsSchemaTooNew returns true if err is (or wraps) a too-new store error.
func IsSchemaTooNew(err error) bool {
	return CodeOf(err) == CodeSchemaTooNew
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeNone
}
