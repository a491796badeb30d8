// Package app implements the behave command line.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/denizgursoy/behave/internal/generator"
	"github.com/denizgursoy/behave/pkg/configuration"
	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/loader"
)

// CodeParserFactory builds the parser of step directives once the logger
// of the run is known.
type CodeParserFactory func(logger *slog.Logger) generator.GoCodeParser

type application struct {
	newCodeParser CodeParserFactory

	logLevel string
	logFile  string
	quiet    bool
	language string
	encoding string

	logger *slog.Logger
	closer io.Closer
}

// StartApplication runs the command line with args, os.Args[1:] in main.
func StartApplication(ctx context.Context, newCodeParser CodeParserFactory, args []string) error {
	root := NewRootCmd(newCodeParser)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd creates the root behave command with all subcommands registered.
func NewRootCmd(newCodeParser CodeParserFactory) *cobra.Command {
	a := &application{newCodeParser: newCodeParser}
	root := &cobra.Command{
		Use:           "behave",
		Short:         "behave - stories of Given, When and Then steps run against Go step functions",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger, a.closer = configuration.NewLogger(configuration.LogOptions{
				Level:  configuration.ParseLevel(a.logLevel),
				File:   a.logFile,
				Quiet:  a.quiet,
				Output: cmd.ErrOrStderr(),
			})
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&a.logFile, "log-file", "", "also write logs to this rotated file")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "do not log to the console")
	flags.StringVarP(&a.language, "language", "l", "", "language of the story keywords, e.g. it")
	flags.StringVar(&a.encoding, "encoding", "", "charset of the story files, UTF-8 by default")

	root.AddCommand(a.newGenerateCmd())
	root.AddCommand(a.newParseCmd())
	root.AddCommand(a.newStubsCmd())
	root.AddCommand(a.newKeywordsCmd())
	return root
}

func (a *application) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *application) keywords() (*keywords.Keywords, error) {
	if a.language == "" {
		return keywords.Default(), nil
	}
	tag, err := language.Parse(a.language)
	if err != nil {
		return nil, fmt.Errorf("language %q: %w", a.language, err)
	}
	return keywords.Localized(tag)
}

// configuration reads stories from dir with the keywords and charset of
// the flags.
func (a *application) configuration(dir string) (*configuration.Configuration, *loader.FS, error) {
	kw, err := a.keywords()
	if err != nil {
		return nil, nil, err
	}
	var opts []loader.Option
	if a.encoding != "" {
		opts = append(opts, loader.WithEncoding(a.encoding))
	}
	l, err := loader.Dir(dir, opts...)
	if err != nil {
		return nil, nil, err
	}
	cfg := configuration.MostUseful(
		configuration.WithKeywords(kw),
		configuration.WithStoryLoader(l),
		configuration.WithLogger(a.logger),
	)
	return cfg, l, nil
}

func (a *application) parseCode(ctx context.Context, dirs []string) (*generator.Output, error) {
	codeParser := a.newCodeParser(a.logger)
	output := &generator.Output{CustomTypes: make(map[string]*generator.CustomType)}
	for _, dir := range dirs {
		parsed, err := codeParser.ParseFunctionCommentsOfGoFilesInDirectoryRecursively(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", dir, err)
		}
		output.Merge(parsed)
	}
	return output, nil
}
