package embedder

import (
	"log/slog"
	"time"
)

// Monitor follows a run of stories.
type Monitor interface {
	RunningStories(paths []string, threads int)
	RunningStory(path string)
	StoryFinished(path string, duration time.Duration, err error)
	StoryTimedOut(path string, timeout time.Duration)
	StoriesNotRun(paths []string)
	StoriesSkipped()
	RunFailed(err *RunStoriesError)
}

type NullMonitor struct{}

func (NullMonitor) RunningStories([]string, int)               {}
func (NullMonitor) RunningStory(string)                        {}
func (NullMonitor) StoryFinished(string, time.Duration, error) {}
func (NullMonitor) StoryTimedOut(string, time.Duration)        {}
func (NullMonitor) StoriesNotRun([]string)                     {}
func (NullMonitor) StoriesSkipped()                            {}
func (NullMonitor) RunFailed(*RunStoriesError)                 {}

// LoggingMonitor logs the run through slog.
type LoggingMonitor struct {
	logger *slog.Logger
}

func NewLoggingMonitor(logger *slog.Logger) *LoggingMonitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LoggingMonitor{logger: logger.With("component", "embedder")}
}

func (m *LoggingMonitor) RunningStories(paths []string, threads int) {
	m.logger.Info("running stories", "stories", len(paths), "threads", threads)
}

func (m *LoggingMonitor) RunningStory(path string) {
	m.logger.Debug("running story", "story", path)
}

func (m *LoggingMonitor) StoryFinished(path string, duration time.Duration, err error) {
	if err != nil {
		m.logger.Warn("story failed", "story", path, "duration", duration, "error", err)
		return
	}
	m.logger.Debug("story finished", "story", path, "duration", duration)
}

func (m *LoggingMonitor) StoryTimedOut(path string, timeout time.Duration) {
	m.logger.Warn("story timed out", "story", path, "timeout", timeout)
}

func (m *LoggingMonitor) StoriesNotRun(paths []string) {
	m.logger.Warn("stories not run after a failure", "stories", paths)
}

func (m *LoggingMonitor) StoriesSkipped() {
	m.logger.Info("skipping stories")
}

func (m *LoggingMonitor) RunFailed(err *RunStoriesError) {
	m.logger.Error("run failed", "failures", len(err.Failures))
}
