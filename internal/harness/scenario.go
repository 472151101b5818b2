package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mine/internal/item"
)

// Operation names accepted in a step's op field.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
	OpIndex  = "index"
)

// Scenario is one conformance scenario for the item store.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is a single store operation and its expected outcome.
type Step struct {
	Op string `yaml:"op"`

	// Item is the payload for create and update. Omitting it passes nil.
	Item *item.Item `yaml:"item,omitempty"`

	// ID is the identifier for read and delete.
	ID string `yaml:"id,omitempty"`

	// ForceRefresh is passed through to index.
	ForceRefresh bool `yaml:"force_refresh,omitempty"`

	// Expect is the boolean outcome of create, update or delete.
	Expect *bool `yaml:"expect,omitempty"`

	// ExpectItem is the record read should return.
	ExpectItem *item.Item `yaml:"expect_item,omitempty"`

	// ExpectAbsent says read should find nothing.
	ExpectAbsent bool `yaml:"expect_absent,omitempty"`

	// ExpectCount is the number of records index should return.
	ExpectCount *int `yaml:"expect_count,omitempty"`
}

// Assertion checks the trace or the final table contents.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (final_count, trace_count).
	Count int `yaml:"count,omitempty"`

	// IDs are the identifiers that must be present (final_contains).
	IDs []string `yaml:"ids,omitempty"`

	// Op and OK select trace events (trace_count).
	Op string `yaml:"op,omitempty"`
	OK *bool  `yaml:"ok,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalCount    = "final_count"
	AssertFinalContains = "final_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
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

	for i, step := range s.Steps {
		switch step.Op {
		case OpCreate, OpUpdate:
			if step.ExpectItem != nil || step.ExpectAbsent || step.ExpectCount != nil {
				return fmt.Errorf("step %d: %s only supports expect", i, step.Op)
			}
		case OpRead:
			if step.Expect != nil || step.ExpectCount != nil {
				return fmt.Errorf("step %d: read only supports expect_item and expect_absent", i)
			}
			if step.ExpectItem != nil && step.ExpectAbsent {
				return fmt.Errorf("step %d: expect_item and expect_absent are exclusive", i)
			}
		case OpDelete:
			if step.ExpectItem != nil || step.ExpectAbsent || step.ExpectCount != nil {
				return fmt.Errorf("step %d: delete only supports expect", i)
			}
		case OpIndex:
			if step.Expect != nil || step.ExpectItem != nil || step.ExpectAbsent {
				return fmt.Errorf("step %d: index only supports expect_count", i)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertFinalCount, AssertFinalContains:
		case AssertTraceCount:
			if a.Op == "" {
				return fmt.Errorf("assertion %d: trace_count requires op", i)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}

	return nil
}
