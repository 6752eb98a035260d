package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
	"github.com/roach88/memelib/internal/store"
	"github.com/roach88/memelib/internal/testutil"
)

// Harness executes one scenario against its own store.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	ids  map[string]int64 // Fixture key -> meme id
	keys map[int64]string // Meme id -> fixture key
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Step
// failures that do not match an expectation are recorded in the result;
// the returned error is reserved for infrastructure failures (opening the
// store, seeding fixtures).
func Run(scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	st, err := store.Open(":memory:", store.WithClock(clock.Now), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  clock,
		logger: logger,
		ids:    make(map[string]int64),
		keys:   make(map[int64]string),
	}

	ctx := context.Background()

	if err := h.seed(ctx, scenario.Memes); err != nil {
		return nil, fmt.Errorf("failed to seed memes: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	for _, errMsg := range h.evaluateAssertions(ctx, scenario.Assertions, result) {
		result.AddError(errMsg)
	}
	return result, nil
}

// seed creates fixture memes in order, so later fixtures are more recent.
func (h *Harness) seed(ctx context.Context, fixtures []MemeFixture) error {
	for _, f := range fixtures {
		for n, key := range f.keys() {
			summary := f.Summary
			if f.Repeat > 0 {
				summary = fmt.Sprintf("%s %02d", f.Summary, n+1)
			}

			id, err := h.store.CreateMeme(ctx, model.NewMeme{
				Content:     model.DigestBytes([]byte(key)),
				Summary:     summary,
				Description: f.Desc,
			})
			if err != nil {
				return fmt.Errorf("meme %q: %w", key, err)
			}
			h.ids[key] = id
			h.keys[id] = key

			if err := h.linkTags(ctx, id, f.Tags); err != nil {
				return fmt.Errorf("meme %q: %w", key, err)
			}
			if f.Fav {
				if err := h.store.SetFavorite(ctx, id, true); err != nil {
					return fmt.Errorf("meme %q: %w", key, err)
				}
			}
			if f.Trash {
				if err := h.store.SetTrash(ctx, id, true); err != nil {
					return fmt.Errorf("meme %q: %w", key, err)
				}
			}
		}
	}
	return nil
}

// executeStep runs one step, traces it and checks its expectation.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	event := TraceEvent{
		Step:   index,
		Action: step.Action,
		Meme:   step.Meme,
		Query:  step.Query,
		Tags:   step.Tags,
	}

	var (
		memes []string
		count *int64
		err   error
	)

	id := h.id(step.Meme)

	switch step.Action {
	case ActionSearch:
		mode, _ := step.mode()
		event.Mode = mode.String()
		event.Page = step.Page

		var found []model.Meme
		found, err = h.store.Search(ctx, step.Query, mode, step.Page)
		if err == nil {
			memes = h.keysOf(found)
			event.Memes = memes
		}
	case ActionCount:
		mode, _ := step.mode()
		event.Mode = mode.String()

		var n int64
		n, err = h.store.CountMatches(ctx, step.Query, mode)
		if err == nil {
			count = &n
		}
	case ActionTouch:
		err = h.store.TouchMeme(ctx, id)
	case ActionFav, ActionUnfav:
		err = h.store.SetFavorite(ctx, id, step.Action == ActionFav)
	case ActionTrash, ActionRestore:
		err = h.store.SetTrash(ctx, id, step.Action == ActionTrash)
	case ActionTag:
		err = h.linkTags(ctx, id, step.Tags)
	case ActionUntag:
		err = h.unlinkTags(ctx, id, step.Tags, step.Reclaim)
	case ActionEdit:
		summary := step.Summary
		err = h.store.UpdateMeme(ctx, id, model.MemeUpdate{Summary: &summary})
	case ActionSweep:
		var n int64
		n, err = h.store.SweepOrphanTags(ctx)
		if err == nil {
			count = &n
		}
	}

	event.Count = count
	if err != nil {
		event.Error = string(liberr.CodeOf(err))
		if event.Error == "" {
			event.Error = string(liberr.KindOf(err))
		}
	}
	result.AddTrace(event)

	h.logger.Info("scenario step completed",
		slog.Int("step", index),
		slog.String("action", step.Action),
		slog.Any("error", err))

	h.checkExpect(index, step, memes, count, err, result)
}

func (h *Harness) checkExpect(index int, step Step, memes []string, count *int64, err error, result *Result) {
	where := fmt.Sprintf("steps[%d] %s", index, step.Action)
	expect := step.Expect

	if expect == nil || expect.Error == "" {
		if err != nil {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", where, err))
			return
		}
	} else {
		if err == nil {
			result.AddError(fmt.Sprintf("%s: expected error %s, got success", where, expect.Error))
		} else if got := string(liberr.CodeOf(err)); got != expect.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %q (%v)", where, expect.Error, got, err))
		}
		return
	}

	if expect == nil {
		return
	}
	if expect.Memes != nil && !slices.Equal(expect.Memes, memes) {
		result.AddError(fmt.Sprintf("%s: expected memes %v, got %v", where, expect.Memes, memes))
	}
	if expect.Count != nil {
		switch {
		case count == nil:
			result.AddError(fmt.Sprintf("%s: expected count %d, step produced none", where, *expect.Count))
		case *count != *expect.Count:
			result.AddError(fmt.Sprintf("%s: expected count %d, got %d", where, *expect.Count, *count))
		}
	}
}

// id maps a fixture key to its meme id. Unknown keys map to an id that
// no row uses.
func (h *Harness) id(key string) int64 {
	if id, ok := h.ids[key]; ok {
		return id
	}
	return -1
}

func (h *Harness) keysOf(memes []model.Meme) []string {
	keys := make([]string, 0, len(memes))
	for _, m := range memes {
		key, ok := h.keys[m.ID]
		if !ok {
			key = fmt.Sprintf("#%d", m.ID)
		}
		keys = append(keys, key)
	}
	return keys
}

func (h *Harness) linkTags(ctx context.Context, id int64, raw []string) error {
	for _, r := range raw {
		tag, err := model.ParseTag(r)
		if err != nil {
			return err
		}
		tagID, err := h.store.GetOrCreateTag(ctx, tag.Namespace, tag.Value)
		if err != nil {
			return err
		}
		if err := h.store.LinkTag(ctx, tagID, id); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) unlinkTags(ctx context.Context, id int64, raw []string, reclaim bool) error {
	for _, r := range raw {
		tag, err := model.ParseTag(r)
		if err != nil {
			return err
		}
		tagID, found, err := h.store.TagID(ctx, tag.Namespace, tag.Value)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := h.store.UnlinkTag(ctx, tagID, id, reclaim); err != nil {
			return err
		}
	}
	return nil
}
