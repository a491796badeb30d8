package steps

import (
	"context"
	"sort"

	"github.com/denizgursoy/behave/pkg/executor"
	"github.com/denizgursoy/behave/pkg/model"
)

type Stage int

const (
	StageBefore Stage = iota
	StageAfter
)

func (s Stage) String() string {
	if s == StageAfter {
		return "AFTER"
	}
	return "BEFORE"
}

// Scope is the granularity a hook runs at.
type Scope int

const (
	ScopeStories Scope = iota
	ScopeStory
	ScopeScenario
	ScopeStep
)

func (s Scope) String() string {
	switch s {
	case ScopeStories:
		return "STORIES"
	case ScopeStory:
		return "STORY"
	case ScopeScenario:
		return "SCENARIO"
	default:
		return "STEP"
	}
}

// ScenarioType tells whole scenario runs from examples row runs.
type ScenarioType int

const (
	NormalScenario ScenarioType = iota
	ExampleScenario
	AnyScenario
)

// Hook is a lifecycle function bound to a stage and a scope.
type Hook struct {
	Stage          Stage
	Scope          Scope
	Order          int
	UponGivenStory bool
	Outcome        model.Outcome
	ScenarioType   ScenarioType
	Source         string

	fn *executor.Function
}

// HookFilter describes the run a hook is looked up for.
type HookFilter struct {
	GivenStory   bool
	Failed       bool
	ScenarioType ScenarioType
}

func (h *Hook) appliesTo(f HookFilter) bool {
	if h.Scope == ScopeStory && h.UponGivenStory != f.GivenStory {
		return false
	}
	if h.Stage == StageAfter && !h.Outcome.Matches(f.Failed) {
		return false
	}
	if h.Scope == ScopeScenario && h.ScenarioType != AnyScenario && h.ScenarioType != f.ScenarioType {
		return false
	}
	return true
}

// Method returns the name of the hook function.
func (h *Hook) Method() string {
	return h.fn.Name()
}

// Run calls the hook. Any failure is a *BeforeOrAfterFailure.
func (h *Hook) Run(ctx context.Context) (context.Context, error) {
	newCtx, err := h.fn.Call(ctx, nil)
	if err != nil {
		return newCtx, &BeforeOrAfterFailure{Stage: h.Stage, Scope: h.Scope, Method: h.Method(), Cause: err}
	}
	return newCtx, nil
}

// sortHooks sorts hooks by Order, keeping registration order for equal
// values.
func sortHooks(hooks []*Hook) {
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Order < hooks[j].Order
	})
}
