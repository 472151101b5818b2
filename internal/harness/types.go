package harness

import "github.com/roach88/mine/internal/item"

// TraceEvent records one executed step and what the store returned.
type TraceEvent struct {
	Step  int        `json:"step"`
	Op    string     `json:"op"`
	ID    string     `json:"id,omitempty"`
	OK    *bool      `json:"ok,omitempty"`
	Item  *item.Item `json:"item,omitempty"`
	Count *int       `json:"count,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the table contents after the last step.
	Final []item.Item `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Final:  []item.Item{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
