package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sigil/internal/interp"
)

// Scenario defines a conformance test scenario: a source program plus
// everything needed to make its execution deterministic.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the program text to execute.
	Source string `yaml:"source"`

	// Limits overrides the default resource limits when set.
	Limits *interp.Limits `yaml:"limits,omitempty"`

	// EventIDs is the fixed ID sequence handed to emit/spawn, replacing
	// UUIDv7 generation so traces are stable.
	EventIDs []string `yaml:"event_ids,omitempty"`

	// Clock pins the start instant and per-read step of the scenario
	// clock. Without it the clock starts at the Unix epoch.
	Clock *ClockSpec `yaml:"clock,omitempty"`

	// Verify also runs the static verifier and records proof statuses
	// in the trace.
	Verify bool `yaml:"verify,omitempty"`

	// WantError marks scenarios whose execution is expected to fail;
	// the error code becomes part of the trace instead of failing the
	// harness.
	WantError bool `yaml:"want_error,omitempty"`
}

// ClockSpec pins the scenario clock. Each call to the clock advances it
// by StepMillis, so timestamps and elapsed figures are reproducible.
type ClockSpec struct {
	Start      time.Time `yaml:"start"`
	StepMillis int       `yaml:"step_ms"`
}

// LoadScenario parses a single scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("load scenario %s: missing name", path)
	}
	if strings.TrimSpace(sc.Source) == "" {
		return nil, fmt.Errorf("load scenario %s: missing source", path)
	}
	return &sc, nil
}

// LoadScenarios loads every *.yaml scenario in a directory, sorted by
// filename for stable test ordering.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
