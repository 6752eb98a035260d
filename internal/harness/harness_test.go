package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return scenario
}

func TestRun_Passes(t *testing.T) {
	scenario := mustParse(t, `
name: basic
description: "newest first"
memes:
  - key: old
    summary: "old cat"
  - key: new
    summary: "new cat"
steps:
  - action: search
    query: cat
    expect:
      memes: [new, old]
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, []string{"new", "old"}, result.Trace[0].Memes)
	assert.Equal(t, "Normal", result.Trace[0].Mode)
}

func TestRun_WrongOrderFails(t *testing.T) {
	scenario := mustParse(t, `
name: wrong
description: "expects oldest first"
memes:
  - key: old
    summary: "old cat"
  - key: new
    summary: "new cat"
steps:
  - action: search
    query: cat
    expect:
      memes: [old, new]
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected memes [old new], got [new old]")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := mustParse(t, `
name: syntax
description: "bad query without expectation"
steps:
  - action: search
    query: ":x"
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "QUERY_SYNTAX", result.Trace[0].Error)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorMissingFails(t *testing.T) {
	scenario := mustParse(t, `
name: noerror
description: "expects a failure that does not happen"
memes:
  - key: m
    summary: "m"
steps:
  - action: touch
    meme: m
    expect:
      error: NOT_FOUND
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error NOT_FOUND, got success")
}

func TestRun_WrongErrorCodeFails(t *testing.T) {
	scenario := mustParse(t, `
name: wrongcode
description: "expects the wrong failure"
steps:
  - action: search
    query: "-"
    expect:
      error: NOT_FOUND
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `expected error NOT_FOUND, got "QUERY_SYNTAX"`)
}

func TestRun_CountMismatchFails(t *testing.T) {
	scenario := mustParse(t, `
name: count
description: "wrong count"
memes:
  - key: m
    summary: "m"
steps:
  - action: count
    expect:
      count: 2
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected count 2, got 1")
}

func TestRun_FixtureFlags(t *testing.T) {
	scenario := mustParse(t, `
name: flags
description: "fixtures can start favorited or trashed"
memes:
  - key: loved
    summary: "loved"
    fav: true
  - key: binned
    summary: "binned"
    trash: true
steps:
  - action: search
    mode: OnlyFav
    expect:
      memes: [loved]
  - action: search
    mode: OnlyTrash
    expect:
      memes: [binned]
assertions:
  - type: meme_state
    meme: binned
    fav: false
    trash: true
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_IsolatedBetweenRuns(t *testing.T) {
	scenario := mustParse(t, `
name: isolated
description: "each run starts empty"
memes:
  - key: m
    summary: "m"
steps:
  - action: count
    expect:
      count: 1
`)

	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	}
}

func TestRunSuite_Testdata(t *testing.T) {
	suite, err := RunSuite("testdata/scenarios")
	require.NoError(t, err)

	assert.Equal(t, 4, suite.TotalScenarios)
	assert.Equal(t, 4, suite.Passed)
	assert.Zero(t, suite.Failed, "failures: %+v", suite.Failures)
}

func TestRunSuite_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(`
name: failing
description: "always fails"
steps:
  - action: count
    expect:
      count: 5
`), 0o644))

	suite, err := RunSuite(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, suite.TotalScenarios)
	assert.Equal(t, 2, suite.Failed)
	require.Len(t, suite.Failures, 2)
	assert.Equal(t, "broken", suite.Failures[0].Scenario)
	assert.Equal(t, "failing", suite.Failures[1].Scenario)
	assert.Contains(t, suite.Failures[1].Error, "expected count 5, got 0")
}

func TestRunSuite_MissingDir(t *testing.T) {
	_, err := RunSuite(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
