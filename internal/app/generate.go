package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denizgursoy/behave/internal/generator"
)

func (a *application) newGenerateCmd() *cobra.Command {
	var code, output, stories string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write " + generator.OutputFile + " running the stories against the step functions found in the code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := generator.StartGenerator(cmd.Context(), a.newCodeParser(a.logger), generator.Options{
				CodeDirs:  generator.ParseCodeDirs(code),
				OutputDir: output,
				StoryRoot: stories,
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "directories to search for functions separated by comma")
	cmd.Flags().StringVarP(&output, "output", "o", "", "directory of the generated file, the working directory by default")
	cmd.Flags().StringVar(&stories, "stories", generator.DefaultStoryRoot, "directory the generated test finds stories in")
	return cmd
}
