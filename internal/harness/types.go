package harness

import (
	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// StepTrace records one painted step.
type StepTrace struct {
	Seq   int          `json:"seq"`
	Edits []level.Edit `json:"edits"`
	Diff  ir.Diff      `json:"diff"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the rules validated, every step matched a full solve and
	// every assertion held.
	Pass bool `json:"pass"`

	// Layer is the name of the solved layer.
	Layer string `json:"layer"`

	// Initial is the full solve of the starting level.
	Initial ir.SolveResult `json:"-"`

	// Steps holds the diff of every painted step, in order.
	Steps []StepTrace `json:"steps"`

	// Final is the result after the last step.
	Final ir.SolveResult `json:"-"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
