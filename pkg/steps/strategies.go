package steps

import "fmt"

// PendingStepStrategy decides what a pending step does to its scenario.
type PendingStepStrategy int

const (
	// PassingUponPendingStep reports the step pending and carries on.
	PassingUponPendingStep PendingStepStrategy = iota
	// FailingUponPendingStep fails the scenario like a failed step.
	FailingUponPendingStep
)

// Handle returns the failure a pending step raises, nil when it raises
// none.
func (s PendingStepStrategy) Handle(step string) error {
	if s == FailingUponPendingStep {
		return fmt.Errorf("%w: %s", ErrPendingStep, step)
	}
	return nil
}

func (s PendingStepStrategy) String() string {
	if s == FailingUponPendingStep {
		return "failing"
	}
	return "passing"
}

// FailureStrategy decides whether a story failure propagates out of the
// story runner once the story is reported.
type FailureStrategy interface {
	HandleFailure(err error) error
}

// RethrowingFailure propagates the failure.
type RethrowingFailure struct{}

func (RethrowingFailure) HandleFailure(err error) error {
	return err
}

// SilentlySwallowFailure drops the failure after it was reported.
type SilentlySwallowFailure struct{}

func (SilentlySwallowFailure) HandleFailure(error) error {
	return nil
}
