package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/memelib/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Step, event.Action)
			if event.Meme != "" {
				fmt.Fprintf(&buf, " %s", event.Meme)
			}
			if event.Error != "" {
				fmt.Fprintf(&buf, " -> %s", event.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// evaluateAssertions runs every assertion and returns the failure messages.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertMemeState:
			err = h.assertMemeState(ctx, a)
		case AssertMemeTags:
			err = h.assertMemeTags(ctx, a)
		case AssertTagExists:
			err = h.assertTagExists(ctx, a)
		case AssertTraceCount:
			err = assertTraceCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) {
				ae.Trace = result.Trace
			}
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

// assertMemeState checks the flags and summary of one meme (subset match).
func (h *Harness) assertMemeState(ctx context.Context, a Assertion) error {
	m, err := h.store.GetMeme(ctx, h.id(a.Meme))
	if err != nil {
		return &AssertionError{
			Type:     AssertMemeState,
			Expected: fmt.Sprintf("meme %s to exist", a.Meme),
			Actual:   err.Error(),
		}
	}

	if a.Fav != nil && m.Fav != *a.Fav {
		return &AssertionError{
			Type:     AssertMemeState,
			Expected: fmt.Sprintf("meme %s fav = %t", a.Meme, *a.Fav),
			Actual:   fmt.Sprintf("fav = %t", m.Fav),
		}
	}
	if a.Trash != nil && m.Trash != *a.Trash {
		return &AssertionError{
			Type:     AssertMemeState,
			Expected: fmt.Sprintf("meme %s trash = %t", a.Meme, *a.Trash),
			Actual:   fmt.Sprintf("trash = %t", m.Trash),
		}
	}
	if a.Summary != nil && m.Summary != *a.Summary {
		return &AssertionError{
			Type:     AssertMemeState,
			Expected: fmt.Sprintf("meme %s summary = %q", a.Meme, *a.Summary),
			Actual:   fmt.Sprintf("summary = %q", m.Summary),
		}
	}
	return nil
}

// assertMemeTags checks the exact tag set of one meme. Order is ignored.
func (h *Harness) assertMemeTags(ctx context.Context, a Assertion) error {
	tags, err := h.store.MemeTags(ctx, h.id(a.Meme))
	if err != nil {
		return err
	}

	actual := make([]string, 0, len(tags))
	for _, tag := range tags {
		actual = append(actual, tag.String())
	}
	expected := make([]string, 0, len(a.Tags))
	for _, raw := range a.Tags {
		tag, _ := model.ParseTag(raw)
		expected = append(expected, tag.String())
	}
	slices.Sort(actual)
	slices.Sort(expected)

	if !slices.Equal(expected, actual) {
		return &AssertionError{
			Type:     AssertMemeTags,
			Expected: fmt.Sprintf("meme %s tags %v", a.Meme, expected),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// assertTagExists checks whether a tag row exists.
func (h *Harness) assertTagExists(ctx context.Context, a Assertion) error {
	tag, _ := model.ParseTag(a.Tag)
	_, found, err := h.store.TagID(ctx, tag.Namespace, tag.Value)
	if err != nil {
		return err
	}
	if found != *a.Exists {
		return &AssertionError{
			Type:     AssertTagExists,
			Expected: fmt.Sprintf("tag %s exists = %t", tag, *a.Exists),
			Actual:   fmt.Sprintf("exists = %t", found),
		}
	}
	return nil
}

// assertTraceCount checks that the action ran exactly the specified number
// of times.
func assertTraceCount(result *Result, a Assertion) error {
	count := result.CountAction(a.Action)
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("action %s to run %d time(s)", a.Action, a.Count),
			Actual:   fmt.Sprintf("ran %d time(s)", count),
		}
	}
	return nil
}
