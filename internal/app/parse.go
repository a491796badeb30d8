package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *application) newParseCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "parse <story-path>...",
		Short: "Parse stories and print them as YAML documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.configuration(dir)
			if err != nil {
				return err
			}

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			for _, path := range args {
				text, err := cfg.StoryLoader().LoadStoryAsText(path)
				if err != nil {
					return fmt.Errorf("loading story: %w", err)
				}
				story, err := cfg.StoryParser().ParseStory(text, path)
				if err != nil {
					return fmt.Errorf("parsing story: %w", err)
				}
				a.logger.Debug("parsed story", "story", path, "scenarios", len(story.Scenarios))
				if err := encoder.Encode(newStoryDocument(story)); err != nil {
					return fmt.Errorf("encoding output: %w", err)
				}
			}
			return encoder.Close()
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory story paths are relative to")
	return cmd
}
