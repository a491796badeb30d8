package steps

import "sync"

// Factory provides the step sources of a run.
type Factory interface {
	CreateCandidateSteps() []*Steps
}

// InstanceFactory holds ready made step sources.
type InstanceFactory struct {
	mu      sync.Mutex
	sources []*Steps
}

func NewInstanceFactory(sources ...*Steps) *InstanceFactory {
	return &InstanceFactory{sources: sources}
}

func (f *InstanceFactory) Add(sources ...*Steps) *InstanceFactory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, sources...)
	return f
}

func (f *InstanceFactory) CreateCandidateSteps() []*Steps {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Steps(nil), f.sources...)
}
