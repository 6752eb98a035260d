package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
)

// Scenario defines an end-to-end scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Memes are created in order before the first step.
	Memes []MemeFixture `yaml:"memes"`

	// Steps run in order after the fixtures are created.
	Steps []Step `yaml:"steps"`

	// Assertions check final state after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// MemeFixture seeds one meme (or Repeat memes).
type MemeFixture struct {
	Key     string   `yaml:"key"`
	Summary string   `yaml:"summary"`
	Desc    *string  `yaml:"desc,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Fav     bool     `yaml:"fav,omitempty"`
	Trash   bool     `yaml:"trash,omitempty"`
	Repeat  int      `yaml:"repeat,omitempty"`
}

// Step is one action of the scenario flow.
type Step struct {
	Action  string   `yaml:"action"`
	Meme    string   `yaml:"meme,omitempty"`
	Query   string   `yaml:"query,omitempty"`
	Mode    string   `yaml:"mode,omitempty"` // Defaults to Normal
	Page    int      `yaml:"page,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Reclaim bool     `yaml:"reclaim,omitempty"`
	Summary string   `yaml:"summary,omitempty"`

	// Expect is checked after the step runs. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome.
type Expect struct {
	// Memes is the exact ordered list of result keys. Nil skips the check;
	// an empty list requires no results.
	Memes []string `yaml:"memes,omitempty"`

	// Count is the expected match count (count) or removed tags (sweep).
	Count *int64 `yaml:"count,omitempty"`

	// Error is the expected liberr code. The step must fail with it.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "meme_state": Check fav, trash and summary of Meme
	// - "meme_tags": Check the exact tags of Meme
	// - "tag_exists": Check whether Tag exists (Exists)
	// - "trace_count": Check Action ran exactly Count times
	Type string `yaml:"type"`

	Meme    string   `yaml:"meme,omitempty"`
	Fav     *bool    `yaml:"fav,omitempty"`
	Trash   *bool    `yaml:"trash,omitempty"`
	Summary *string  `yaml:"summary,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Tag     string   `yaml:"tag,omitempty"`
	Exists  *bool    `yaml:"exists,omitempty"`
	Action  string   `yaml:"action,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMemeState  = "meme_state"
	AssertMemeTags   = "meme_tags"
	AssertTagExists  = "tag_exists"
	AssertTraceCount = "trace_count"
)

// Step action constants.
const (
	ActionSearch  = "search"
	ActionCount   = "count"
	ActionTouch   = "touch"
	ActionFav     = "fav"
	ActionUnfav   = "unfav"
	ActionTrash   = "trash"
	ActionRestore = "restore"
	ActionTag     = "tag"
	ActionUntag   = "untag"
	ActionEdit    = "edit"
	ActionSweep   = "sweep"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// key reference resolves to a fixture.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	keys := make(map[string]bool)
	for i, m := range s.Memes {
		if m.Key == "" {
			return fmt.Errorf("memes[%d]: key is required", i)
		}
		if m.Repeat < 0 {
			return fmt.Errorf("memes[%d]: repeat must be non-negative", i)
		}
		for _, key := range m.keys() {
			if keys[key] {
				return fmt.Errorf("memes[%d]: duplicate key %q", i, key)
			}
			keys[key] = true
		}
		if err := validateTags(fmt.Sprintf("memes[%d]", i), m.Tags); err != nil {
			return err
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, keys); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, keys); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step, keys map[string]bool) error {
	where := fmt.Sprintf("steps[%d]", index)

	switch step.Action {
	case "":
		return fmt.Errorf("%s: action is required", where)
	case ActionSearch, ActionCount:
		if _, err := step.mode(); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	case ActionTouch, ActionFav, ActionUnfav, ActionTrash, ActionRestore:
		if step.Meme == "" {
			return fmt.Errorf("%s: meme is required for %s", where, step.Action)
		}
	case ActionTag, ActionUntag:
		if step.Meme == "" {
			return fmt.Errorf("%s: meme is required for %s", where, step.Action)
		}
		if len(step.Tags) == 0 {
			return fmt.Errorf("%s: tags are required for %s", where, step.Action)
		}
		if err := validateTags(where, step.Tags); err != nil {
			return err
		}
	case ActionEdit:
		if step.Meme == "" {
			return fmt.Errorf("%s: meme is required for edit", where)
		}
		if step.Summary == "" {
			return fmt.Errorf("%s: summary is required for edit", where)
		}
	case ActionSweep:
	default:
		return fmt.Errorf("%s: unknown action %q", where, step.Action)
	}

	// An unknown key is allowed only when the step expects NOT_FOUND.
	expectsNotFound := step.Expect != nil && step.Expect.Error == string(liberr.CodeNotFound)
	if step.Meme != "" && !keys[step.Meme] && !expectsNotFound {
		return fmt.Errorf("%s: unknown meme key %q", where, step.Meme)
	}

	if step.Expect != nil {
		for _, key := range step.Expect.Memes {
			if !keys[key] {
				return fmt.Errorf("%s.expect: unknown meme key %q", where, key)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, keys map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertMemeState:
		if a.Fav == nil && a.Trash == nil && a.Summary == nil {
			return fmt.Errorf("assertions[%d]: meme_state needs fav, trash or summary", index)
		}
	case AssertMemeTags:
		if err := validateTags(fmt.Sprintf("assertions[%d]", index), a.Tags); err != nil {
			return err
		}
	case AssertTagExists:
		if _, err := model.ParseTag(a.Tag); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Exists == nil {
			return fmt.Errorf("assertions[%d]: exists is required for tag_exists", index)
		}
		return nil
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if !keys[a.Meme] {
		return fmt.Errorf("assertions[%d]: unknown meme key %q", index, a.Meme)
	}
	return nil
}

func validateTags(where string, tags []string) error {
	for _, raw := range tags {
		if _, err := model.ParseTag(raw); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

// keys returns the meme keys this fixture expands to.
func (m MemeFixture) keys() []string {
	if m.Repeat == 0 {
		return []string{m.Key}
	}
	keys := make([]string, m.Repeat)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s%02d", m.Key, i+1)
	}
	return keys
}

func (s Step) mode() (model.SearchMode, error) {
	if s.Mode == "" {
		return model.ModeNormal, nil
	}
	return model.ParseSearchMode(s.Mode)
}
