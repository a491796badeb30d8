package app

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/denizgursoy/behave/internal/generator"
	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/loader"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/steps"
)

var stepTypes = map[string]keywords.StepType{
	"Given": keywords.GivenStep,
	"When":  keywords.WhenStep,
	"Then":  keywords.ThenStep,
	"And":   keywords.AndStep,
}

func (a *application) newStubsCmd() *cobra.Command {
	var code, dir string
	var excludes []string
	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "Print step functions for the story steps no step function matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			codeDirs := generator.ParseCodeDirs(code)
			if len(codeDirs) == 0 {
				codeDirs = []string{"."}
			}
			output, err := a.parseCode(cmd.Context(), codeDirs)
			if err != nil {
				return err
			}

			cfg, l, err := a.configuration(dir)
			if err != nil {
				return err
			}
			collector, err := cfg.Collector(declaredSteps(output))
			if err != nil {
				return err
			}

			paths, err := loader.Finder{Excludes: excludes}.FindPaths(l.FileSystem(), ".")
			if err != nil {
				return err
			}
			var stubs []string
			for _, path := range paths {
				text, err := l.LoadStoryAsText(path)
				if err != nil {
					return fmt.Errorf("loading story: %w", err)
				}
				story, err := cfg.StoryParser().ParseStory(text, path)
				if err != nil {
					return fmt.Errorf("parsing story: %w", err)
				}
				for _, step := range storySteps(story) {
					collected := collector.CollectStep(step, nil)
					if stub := collected.PendingMethod(); stub != "" && !slices.Contains(stubs, stub) {
						stubs = append(stubs, stub)
					}
				}
			}

			a.logger.Info("found pending steps", "stories", len(paths), "pending", len(stubs))
			for _, stub := range stubs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", stub)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "directories to search for functions separated by comma")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to find stories in")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "globs of story paths to leave out")
	return cmd
}

// declaredSteps registers the declared templates with functions that are
// never performed; only matching matters.
func declaredSteps(output *generator.Output) *steps.Steps {
	source := steps.New("declared")
	for _, sf := range output.StepFunctions {
		source.Step(stepTypes[sf.StepType], sf.Template, func() {}, steps.Alias(sf.Aliases...))
	}
	return source
}

// storySteps lists the steps of the lifecycle and of every scenario.
func storySteps(story *model.Story) []model.Step {
	var all []model.Step
	for _, ls := range story.Lifecycle.Before {
		all = append(all, ls.Steps...)
	}
	for _, ls := range story.Lifecycle.After {
		all = append(all, ls.Steps...)
	}
	for _, scenario := range story.Scenarios {
		all = append(all, scenario.Steps...)
	}
	return all
}
