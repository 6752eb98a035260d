package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult summarizes running every scenario in a directory.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure describes one failed scenario.
type ScenarioFailure struct {
	Scenario     string `json:"scenario"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// ScenarioFiles returns the .yaml and .yml files in dir, sorted by name.
func ScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario in dir. A scenario that fails to
// load counts as failed; the suite keeps going.
func RunSuite(dir string) (*SuiteResult, error) {
	paths, err := ScenarioFiles(dir)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{TotalScenarios: len(paths)}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(name, path, err.Error())
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.fail(scenario.Name, path, err.Error())
			continue
		}
		if !result.Pass {
			suite.fail(scenario.Name, path, strings.Join(result.Errors, "; "))
			continue
		}
		suite.Passed++
	}
	return suite, nil
}

func (s *SuiteResult) fail(name, path, msg string) {
	s.Failed++
	s.Failures = append(s.Failures, ScenarioFailure{
		Scenario:     name,
		ScenarioPath: path,
		Error:        msg,
	})
}
