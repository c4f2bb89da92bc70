package interp

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default execution limits. Conservative enough that a well-formed
// program never hits them, tight enough that a runaway one cannot hurt.
const (
	DefaultMaxIterations    = 1000
	DefaultMaxRecursion     = 50
	DefaultMaxMemoryEntries = 10000
	DefaultMaxExecutionSecs = 30.0
)

// Limits is the explicit resource-bound configuration for one
// interpreter run. The zero value is not useful; start from
// DefaultLimits and override fields, or load a YAML file.
type Limits struct {
	// MaxIterations bounds the global loop iteration counter.
	MaxIterations int `yaml:"max_iterations"`

	// MaxRecursion bounds closure call depth.
	MaxRecursion int `yaml:"max_recursion"`

	// MaxMemoryEntries bounds the Memory store's entry count.
	MaxMemoryEntries int `yaml:"max_memory_entries"`

	// MaxExecutionSeconds bounds wall-clock time. The check is
	// cooperative: a long-running builtin between checks is not
	// interrupted mid-call.
	MaxExecutionSeconds float64 `yaml:"max_execution_seconds"`

	// AllowCoreModification gates core-symbol mutation. Always false in
	// this version and never toggled by any code path; the field is kept
	// for forward compatibility.
	AllowCoreModification bool `yaml:"allow_core_modification"`
}

// DefaultLimits returns the standard bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxIterations:       DefaultMaxIterations,
		MaxRecursion:        DefaultMaxRecursion,
		MaxMemoryEntries:    DefaultMaxMemoryEntries,
		MaxExecutionSeconds: DefaultMaxExecutionSecs,
	}
}

// MaxExecutionTime returns the wall-clock bound as a duration.
func (l Limits) MaxExecutionTime() time.Duration {
	return time.Duration(l.MaxExecutionSeconds * float64(time.Second))
}

// LoadLimits reads a YAML limits file. Omitted fields keep their
// defaults, so a file may override just one bound.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("read limits file: %w", err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return limits, fmt.Errorf("parse limits file %s: %w", path, err)
	}

	if limits.MaxIterations <= 0 || limits.MaxRecursion <= 0 ||
		limits.MaxMemoryEntries <= 0 || limits.MaxExecutionSeconds <= 0 {
		return limits, fmt.Errorf("limits file %s: all bounds must be positive", path)
	}
	return limits, nil
}
