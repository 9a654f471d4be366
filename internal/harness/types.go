package harness

import "fmt"

// Snapshot is the resolver state captured after a scenario's steps. It is
// what golden files store.
type Snapshot struct {
	Scenario   string         `json:"scenario"`
	Rejected   []string       `json:"rejected"`
	Pruned     int            `json:"pruned"`
	Chains     [][]string     `json:"chains"`
	Roots      []string       `json:"roots"`
	Loops      [][]string     `json:"loops"`
	Duplicates map[string]int `json:"duplicates"`
	LastUpdate string         `json:"last_update"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as declared and every
	// expectation matched.
	Pass bool `json:"pass"`

	Snapshot Snapshot `json:"snapshot"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Pass: true,
		Snapshot: Snapshot{
			Scenario:   name,
			Rejected:   []string{},
			Chains:     [][]string{},
			Roots:      []string{},
			Loops:      [][]string{},
			Duplicates: map[string]int{},
		},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
