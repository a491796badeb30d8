package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPendingStep   = errors.New("pending step")
	ErrDuplicateStep = errors.New("duplicate step pattern")
	ErrInvalidStep   = errors.New("invalid step definition")
	ErrInvalidHook   = errors.New("invalid hook")
)

// AmbiguousStepError is returned when several candidates match a step with
// the same top score.
type AmbiguousStepError struct {
	Step       string
	Candidates []string
}

func (e *AmbiguousStepError) Error() string {
	return fmt.Sprintf("ambiguous step %q matches: %s", e.Step, strings.Join(e.Candidates, ", "))
}

// StepFailure is the failure of one step. ID tells apart repeated failures
// of the same step text.
type StepFailure struct {
	ID    uuid.UUID
	Step  string
	Cause error
}

func NewStepFailure(step string, cause error) *StepFailure {
	return &StepFailure{ID: uuid.Must(uuid.NewV7()), Step: step, Cause: cause}
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Cause)
}

func (e *StepFailure) Unwrap() error {
	return e.Cause
}

// BeforeOrAfterFailure is the failure of a lifecycle hook.
type BeforeOrAfterFailure struct {
	Stage  Stage
	Scope  Scope
	Method string
	Cause  error
}

func (e *BeforeOrAfterFailure) Error() string {
	return fmt.Sprintf("%s %s hook %s failed: %v", e.Stage, e.Scope, e.Method, e.Cause)
}

func (e *BeforeOrAfterFailure) Unwrap() error {
	return e.Cause
}
