package steps

import (
	"log/slog"
	"reflect"
	"time"
)

// StepMonitor observes matching and performing of steps.
type StepMonitor interface {
	StepMatchesPattern(step string, matches bool, candidate *StepCandidate)
	ConvertedValueOfType(value string, t reflect.Type, converted any)
	Performing(step string, dryRun bool)
	Performed(step string, outcome Outcome, duration time.Duration)
}

// NullStepMonitor ignores everything.
type NullStepMonitor struct{}

func (NullStepMonitor) StepMatchesPattern(string, bool, *StepCandidate) {}
func (NullStepMonitor) ConvertedValueOfType(string, reflect.Type, any)  {}
func (NullStepMonitor) Performing(string, bool)                         {}
func (NullStepMonitor) Performed(string, Outcome, time.Duration)        {}

// LoggingStepMonitor logs at debug level.
type LoggingStepMonitor struct {
	logger *slog.Logger
}

func NewLoggingStepMonitor(logger *slog.Logger) *LoggingStepMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingStepMonitor{logger: logger.With("component", "steps")}
}

func (m *LoggingStepMonitor) StepMatchesPattern(step string, matches bool, candidate *StepCandidate) {
	m.logger.Debug("step match", "step", step, "template", candidate.Template, "type", candidate.Type.String(), "matches", matches)
}

func (m *LoggingStepMonitor) ConvertedValueOfType(value string, t reflect.Type, converted any) {
	m.logger.Debug("converted value", "value", value, "type", t.String(), "converted", converted)
}

func (m *LoggingStepMonitor) Performing(step string, dryRun bool) {
	m.logger.Debug("performing step", "step", step, "dryRun", dryRun)
}

func (m *LoggingStepMonitor) Performed(step string, outcome Outcome, duration time.Duration) {
	m.logger.Debug("performed step", "step", step, "outcome", outcome.String(), "duration", duration)
}
