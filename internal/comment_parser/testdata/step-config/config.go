package step_config

import (
	"github.com/denizgursoy/behave/pkg/configuration"
	emb "github.com/denizgursoy/behave/pkg/embedder"
	"github.com/denizgursoy/behave/pkg/steps"
)

// MyConfiguration fails on pending steps
func MyConfiguration() *configuration.Configuration {
	return configuration.MostUseful(configuration.WithPendingStepStrategy(steps.FailingUponPendingStep))
}

// MyControls runs stories in parallel
func MyControls() emb.Controls {
	return emb.Controls{Threads: 4, Batch: true}
}

// NotControls takes a parameter and is ignored
func NotControls(threads int) emb.Controls {
	return emb.Controls{Threads: threads}
}
