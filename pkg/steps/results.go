package steps

import "time"

// Outcome is the execution outcome of a step.
type Outcome int

const (
	Successful Outcome = iota
	Failed
	Pending
	NotPerformed
	Ignorable
	// Skipped marks steps matched but not invoked, as in a dry run.
	Skipped
)

// String returns a human-readable label for the outcome.
func (o Outcome) String() string {
	switch o {
	case Successful:
		return "successful"
	case Failed:
		return "failed"
	case Pending:
		return "pending"
	case NotPerformed:
		return "notPerformed"
	case Ignorable:
		return "ignorable"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result holds the execution result of a single step.
type Result struct {
	// Step is the step text as performed, parameters substituted.
	Step string

	Outcome Outcome

	// Err is set for Failed steps and for NotPerformed steps whose
	// scenario failed earlier.
	Err error

	// Duration is zero for steps that did not run.
	Duration time.Duration

	StartedAt time.Time

	// Candidate is the template of the matched candidate, empty when
	// the step is pending.
	Candidate string

	// Parameters holds the values bound to the step function.
	Parameters []string
}

// Failed reports whether the step failed.
func (r Result) Failed() bool {
	return r.Outcome == Failed
}
