package runner

// State is a stage of a run. The run level states are observable through
// StoryRunner.State; the story level ones are only logged, since stories
// may run concurrently.
type State int32

const (
	NotStarted State = iota
	RunningBeforeStories
	RunningStories
	RunningAfterStories
	Done

	RunningBeforeStory
	RunningScenario
	RunningBeforeScenario
	RunningSteps
	RunningAfterScenario
	RunningAfterStory
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case RunningBeforeStories:
		return "RunningBeforeStories"
	case RunningStories:
		return "RunningStories"
	case RunningAfterStories:
		return "RunningAfterStories"
	case Done:
		return "Done"
	case RunningBeforeStory:
		return "RunningBeforeStory"
	case RunningScenario:
		return "RunningScenario"
	case RunningBeforeScenario:
		return "RunningBeforeScenario"
	case RunningSteps:
		return "RunningSteps"
	case RunningAfterScenario:
		return "RunningAfterScenario"
	case RunningAfterStory:
		return "RunningAfterStory"
	default:
		return "Unknown"
	}
}
