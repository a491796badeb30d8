package reporter

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

// Totals counts the events of a run.
type Totals struct {
	Stories             int
	StoriesNotAllowed   int
	StoriesCancelled    int
	GivenStories        int
	Scenarios           int
	ScenariosSuccessful int
	ScenariosFailed     int
	ScenariosPending    int
	ScenariosNotAllowed int
	Examples            int
	Steps               int
	StepsSuccessful     int
	StepsFailed         int
	StepsPending        int
	StepsNotPerformed   int
	StepsIgnorable      int
	StepsSkipped        int
	PendingMethods      int
}

// Map returns the totals keyed by name.
func (t Totals) Map() map[string]int {
	return map[string]int{
		"stories":             t.Stories,
		"storiesNotAllowed":   t.StoriesNotAllowed,
		"storiesCancelled":    t.StoriesCancelled,
		"givenStories":        t.GivenStories,
		"scenarios":           t.Scenarios,
		"scenariosSuccessful": t.ScenariosSuccessful,
		"scenariosFailed":     t.ScenariosFailed,
		"scenariosPending":    t.ScenariosPending,
		"scenariosNotAllowed": t.ScenariosNotAllowed,
		"examples":            t.Examples,
		"steps":               t.Steps,
		"stepsSuccessful":     t.StepsSuccessful,
		"stepsFailed":         t.StepsFailed,
		"stepsPending":        t.StepsPending,
		"stepsNotPerformed":   t.StepsNotPerformed,
		"stepsIgnorable":      t.StepsIgnorable,
		"stepsSkipped":        t.StepsSkipped,
		"pendingMethods":      t.PendingMethods,
	}
}

// Add returns the sum of both totals.
func (t Totals) Add(other Totals) Totals {
	return Totals{
		Stories:             t.Stories + other.Stories,
		StoriesNotAllowed:   t.StoriesNotAllowed + other.StoriesNotAllowed,
		StoriesCancelled:    t.StoriesCancelled + other.StoriesCancelled,
		GivenStories:        t.GivenStories + other.GivenStories,
		Scenarios:           t.Scenarios + other.Scenarios,
		ScenariosSuccessful: t.ScenariosSuccessful + other.ScenariosSuccessful,
		ScenariosFailed:     t.ScenariosFailed + other.ScenariosFailed,
		ScenariosPending:    t.ScenariosPending + other.ScenariosPending,
		ScenariosNotAllowed: t.ScenariosNotAllowed + other.ScenariosNotAllowed,
		Examples:            t.Examples + other.Examples,
		Steps:               t.Steps + other.Steps,
		StepsSuccessful:     t.StepsSuccessful + other.StepsSuccessful,
		StepsFailed:         t.StepsFailed + other.StepsFailed,
		StepsPending:        t.StepsPending + other.StepsPending,
		StepsNotPerformed:   t.StepsNotPerformed + other.StepsNotPerformed,
		StepsIgnorable:      t.StepsIgnorable + other.StepsIgnorable,
		StepsSkipped:        t.StepsSkipped + other.StepsSkipped,
		PendingMethods:      t.PendingMethods + other.PendingMethods,
	}
}

// WriteTo writes the totals as sorted "name=value" lines.
func (t Totals) WriteTo(w io.Writer) (int64, error) {
	m := t.Map()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var written int64
	for _, name := range names {
		n, err := fmt.Fprintf(w, "%s=%d\n", name, m[name])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

type scenarioState struct {
	failed  bool
	pending bool
}

// Statistics counts stories, scenarios and steps. A failing given story
// fails the scenario that runs it.
type Statistics struct {
	mu        sync.Mutex
	totals    Totals
	scenarios []*scenarioState
}

func NewStatistics() *Statistics {
	return &Statistics{}
}

// Totals returns a snapshot of the counts.
func (s *Statistics) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Statistics) WriteTo(w io.Writer) (int64, error) {
	return s.Totals().WriteTo(w)
}

func (s *Statistics) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *Statistics) current() *scenarioState {
	if len(s.scenarios) == 0 {
		return nil
	}
	return s.scenarios[len(s.scenarios)-1]
}

func isPseudoStory(story *model.Story) bool {
	return story.Path == BeforeStoriesPath || story.Path == AfterStoriesPath
}

func (s *Statistics) StoryNotAllowed(*model.Story, string) {
	s.update(func() { s.totals.StoriesNotAllowed++ })
}

func (s *Statistics) BeforeStory(story *model.Story, givenStory bool) {
	s.update(func() {
		switch {
		case givenStory:
			s.totals.GivenStories++
		case !isPseudoStory(story):
			s.totals.Stories++
		}
	})
}

func (s *Statistics) Narrative(model.Narrative) {}

func (s *Statistics) Lifecycle(model.Lifecycle) {}

// StoryCancelled drops the scenarios left open by the cancelled story.
func (s *Statistics) StoryCancelled(*model.Story, time.Duration) {
	s.update(func() {
		s.totals.StoriesCancelled++
		s.scenarios = nil
	})
}

func (s *Statistics) AfterStory(bool) {}

func (s *Statistics) ScenarioNotAllowed(*model.Scenario, string) {
	s.update(func() { s.totals.ScenariosNotAllowed++ })
}

func (s *Statistics) BeforeScenario(*model.Scenario) {
	s.update(func() {
		s.totals.Scenarios++
		s.scenarios = append(s.scenarios, &scenarioState{})
	})
}

func (s *Statistics) GivenStories(model.GivenStories) {}

func (s *Statistics) BeforeExamples([]string, *table.ExamplesTable) {}

func (s *Statistics) Example(map[string]string, int) {
	s.update(func() { s.totals.Examples++ })
}

func (s *Statistics) AfterExamples() {}

func (s *Statistics) AfterScenario() {
	s.update(func() {
		state := s.current()
		if state == nil {
			return
		}
		s.scenarios = s.scenarios[:len(s.scenarios)-1]
		switch {
		case state.failed:
			s.totals.ScenariosFailed++
			if parent := s.current(); parent != nil {
				parent.failed = true
			}
		case state.pending:
			s.totals.ScenariosPending++
		default:
			s.totals.ScenariosSuccessful++
		}
	})
}

func (s *Statistics) BeforeStep(string) {}

func (s *Statistics) Successful(string) {
	s.update(func() {
		s.totals.Steps++
		s.totals.StepsSuccessful++
	})
}

func (s *Statistics) Ignorable(string) {
	s.update(func() {
		s.totals.Steps++
		s.totals.StepsIgnorable++
	})
}

func (s *Statistics) Pending(string) {
	s.update(func() {
		s.totals.Steps++
		s.totals.StepsPending++
		if state := s.current(); state != nil {
			state.pending = true
		}
	})
}

func (s *Statistics) NotPerformed(string) {
	s.update(func() {
		s.totals.Steps++
		s.totals.StepsNotPerformed++
	})
}

func (s *Statistics) Skipped(string) {
	s.update(func() {
		s.totals.Steps++
		s.totals.StepsSkipped++
	})
}

func (s *Statistics) Failed(string, error) {
	s.update(func() {
		s.totals.Steps++
		s.totals.StepsFailed++
		if state := s.current(); state != nil {
			state.failed = true
		}
	})
}

func (s *Statistics) PendingMethods(methods []string) {
	s.update(func() { s.totals.PendingMethods += len(methods) })
}

func (s *Statistics) DryRun() {}
