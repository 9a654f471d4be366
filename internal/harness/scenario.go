package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/parttrack/internal/config"
)

// Scenario defines one end-to-end resolver scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy overrides the default tracker write policy.
	Policy *config.TrackerConfig `yaml:"policy,omitempty"`

	// Filter is passed to BuildChains.
	Filter string `yaml:"filter,omitempty"`

	// Steps are applied in order through the tracker service.
	Steps []Step `yaml:"steps"`

	// Expect holds the resolver output to check after all steps.
	Expect Expect `yaml:"expect"`
}

// Step is a single write against the tracker. Exactly one of Connect,
// Disconnect or Prune is set.
type Step struct {
	Connect    *ConnectStep    `yaml:"connect,omitempty"`
	Disconnect *DisconnectStep `yaml:"disconnect,omitempty"`
	Prune      bool            `yaml:"prune,omitempty"`

	// ExpectError is the tracker error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// ConnectStep records PART -> TARGET at the given tick.
type ConnectStep struct {
	Part               string `yaml:"part"`
	Target             string `yaml:"target"`
	Polarization       string `yaml:"polarization,omitempty"`
	TargetPolarization string `yaml:"target_polarization,omitempty"`
	At                 int64  `yaml:"at"`
	TargetAt           *int64 `yaml:"target_at,omitempty"`
}

// DisconnectStep records a disconnection of PART at the given tick.
type DisconnectStep struct {
	Part   string `yaml:"part"`
	Target string `yaml:"target,omitempty"`
	At     int64  `yaml:"at"`
}

// Expect lists the resolver output a scenario checks. A nil field is not
// checked; an empty one must be empty.
type Expect struct {
	Chains     [][]string     `yaml:"chains,omitempty"`
	Roots      []string       `yaml:"roots,omitempty"`
	Loops      [][]string     `yaml:"loops,omitempty"`
	Duplicates map[string]int `yaml:"duplicates,omitempty"`
	Rejected   []string       `yaml:"rejected,omitempty"`
	Pruned     *int           `yaml:"pruned,omitempty"`
}

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

// ParseScenario parses scenario YAML, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
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
		set := 0
		if step.Connect != nil {
			set++
			if step.Connect.Part == "" || step.Connect.Target == "" {
				return fmt.Errorf("steps[%d].connect: part and target are required", i)
			}
		}
		if step.Disconnect != nil {
			set++
			if step.Disconnect.Part == "" {
				return fmt.Errorf("steps[%d].disconnect: part is required", i)
			}
		}
		if step.Prune {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of connect, disconnect or prune is required", i)
		}
	}
	return nil
}
