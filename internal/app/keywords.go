package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/denizgursoy/behave/pkg/keywords"
)

func (a *application) newKeywordsCmd() *cobra.Command {
	var locales bool
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Print the keywords of the story language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if locales {
				for _, tag := range keywords.Locales() {
					fmt.Fprintln(cmd.OutOrStdout(), tag)
				}
				return nil
			}

			kw, err := a.keywords()
			if err != nil {
				return err
			}
			values := make(map[string]string, len(keywords.Required))
			for role, value := range kw.Values() {
				values[string(role)] = value
			}
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(values); err != nil {
				return fmt.Errorf("encoding output: %w", err)
			}
			return encoder.Close()
		},
	}
	cmd.Flags().BoolVar(&locales, "locales", false, "list the languages keywords exist for")
	return cmd
}
