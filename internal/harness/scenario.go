package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted run of the chord engine.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Chords lists CUE fixture files, compiled in order into one catalog.
	// Relative paths are resolved against the scenario file's directory.
	Chords []string `yaml:"chords"`

	// IgnoreWindow overrides the engine's ignore window. Zero means the
	// harness default.
	IgnoreWindow uint16 `yaml:"ignore_window,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one or more scan cycles.
type Step struct {
	// Push lists events pushed at the start of the step's first cycle.
	Push []string `yaml:"push,omitempty"`

	// Ticks is the number of cycles in the step. Zero means one.
	Ticks int `yaml:"ticks,omitempty"`

	// Layer switches the active layer from this step on.
	Layer *uint16 `yaml:"layer,omitempty"`

	// NoPoll skips PollAction for every cycle of the step.
	NoPoll bool `yaml:"no_poll,omitempty"`
}

// cycles returns the number of scan cycles the step runs.
func (s Step) cycles() int {
	if s.Ticks <= 0 {
		return 1
	}
	return s.Ticks
}

// Assertion validates the cycles and final engine state.
type Assertion struct {
	// Type selects the check. See the Assert constants.
	Type string `yaml:"type"`

	// Chord is the chord name (delivered, not_delivered).
	Chord string `yaml:"chord,omitempty"`

	// Event is an event in scenario notation (emitted).
	Event string `yaml:"event,omitempty"`

	// Cycle pins the check to one cycle (delivered, emitted). Zero
	// matches any cycle.
	Cycle int64 `yaml:"cycle,omitempty"`

	// AlsoRelease, when set, must match the delivery flag (delivered).
	AlsoRelease *bool `yaml:"also_release,omitempty"`

	// Items is the expected order (trace_order). Each item is
	// "deliver <chord>" or "emit <event>".
	Items []string `yaml:"items,omitempty"`

	// Count is the expected number of active chords (active_chords).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertDelivered    = "delivered"
	AssertNotDelivered = "not_delivered"
	AssertEmitted      = "emitted"
	AssertTraceOrder   = "trace_order"
	AssertActiveChords = "active_chords"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving chord paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Chords {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Chords[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Chords) == 0 {
		return fmt.Errorf("chords list is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, p := range s.Chords {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("chord file not found: %s", p)
		}
	}

	for i, step := range s.Steps {
		if step.Ticks < 0 {
			return fmt.Errorf("steps[%d]: ticks must be non-negative", i)
		}
		for j, ev := range step.Push {
			if _, err := ParseEvent(ev); err != nil {
				return fmt.Errorf("steps[%d].push[%d]: %w", i, j, err)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDelivered, AssertNotDelivered:
		if a.Chord == "" {
			return fmt.Errorf("assertions[%d]: chord is required for %s", index, a.Type)
		}
	case AssertEmitted:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for emitted", index)
		}
		if _, err := ParseEvent(a.Event); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertTraceOrder:
		if len(a.Items) == 0 {
			return fmt.Errorf("assertions[%d]: items list is required for trace_order", index)
		}
		for j, item := range a.Items {
			if _, err := parseTraceItem(item); err != nil {
				return fmt.Errorf("assertions[%d].items[%d]: %w", index, j, err)
			}
		}
	case AssertActiveChords:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for active_chords", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for active_chords", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
