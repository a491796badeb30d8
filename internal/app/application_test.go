package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v3"

	"github.com/denizgursoy/behave/internal/generator"
	"github.com/denizgursoy/behave/pkg/loader"
)

const bankStory = `Meta:
@author mauro

Narrative:
In order to save money
As a customer
I want to withdraw cash

Scenario: withdraw
Given I have 100 in my account
When I withdraw 30
Then my balance is 70

Scenario: withdraw amounts
When I withdraw <amount>
Then my balance is 70
Examples:
|amount|
|10|
|20|
`

func run(t *testing.T, codeParser generator.GoCodeParser, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(func(*slog.Logger) generator.GoCodeParser { return codeParser })
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--quiet"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func storiesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bank"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank", "withdraw.story"), []byte(bankStory), 0o644))
	return dir
}

func bankSteps() *generator.Output {
	return &generator.Output{StepFunctions: []*generator.StepFunctionLocator{
		{
			StepType:        "Given",
			Template:        "I have $amount in my account",
			FunctionLocator: &generator.FunctionLocator{FullPackageName: "example.com/bank", FunctionName: "GivenBalance"},
		},
		{
			StepType:        "Then",
			Template:        "my balance is $amount",
			Aliases:         []string{"the balance is $amount"},
			FunctionLocator: &generator.FunctionLocator{FullPackageName: "example.com/bank", FunctionName: "ThenBalance"},
		},
	}}
}

func TestKeywordsCmd(t *testing.T) {
	t.Run("prints the english keywords by default", func(t *testing.T) {
		out, err := run(t, nil, "keywords")
		require.NoError(t, err)

		var values map[string]string
		require.NoError(t, yaml.Unmarshal([]byte(out), &values))
		require.Equal(t, "Given", values["Given"])
		require.Equal(t, "Scenario:", values["Scenario"])
	})

	t.Run("prints the keywords of a language", func(t *testing.T) {
		out, err := run(t, nil, "keywords", "--language", "it")
		require.NoError(t, err)

		var values map[string]string
		require.NoError(t, yaml.Unmarshal([]byte(out), &values))
		require.Equal(t, "Dato che", values["Given"])
	})

	t.Run("lists the locales", func(t *testing.T) {
		out, err := run(t, nil, "keywords", "--locales")
		require.NoError(t, err)
		require.Contains(t, strings.Fields(out), "it")
		require.Contains(t, strings.Fields(out), "en")
	})

	t.Run("rejects a malformed language", func(t *testing.T) {
		_, err := run(t, nil, "keywords", "--language", "not a language")
		require.ErrorContains(t, err, "language")
	})
}

func TestParseCmd(t *testing.T) {
	t.Run("prints the parsed story", func(t *testing.T) {
		out, err := run(t, nil, "parse", "--dir", storiesDir(t), "bank/withdraw.story")
		require.NoError(t, err)

		var doc storyDocument
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
		require.Equal(t, "bank/withdraw.story", doc.Path)
		require.Equal(t, map[string]string{"author": "mauro"}, doc.Meta)
		require.Equal(t, &narrativeDocument{InOrderTo: "save money", AsA: "customer", IWantTo: "withdraw cash"}, doc.Narrative)
		require.Len(t, doc.Scenarios, 2)
		require.Equal(t, "withdraw", doc.Scenarios[0].Title)
		require.Equal(t, []string{"Given I have 100 in my account", "When I withdraw 30", "Then my balance is 70"}, doc.Scenarios[0].Steps)
		require.Equal(t, []map[string]string{{"amount": "10"}, {"amount": "20"}}, doc.Scenarios[1].Examples)
	})

	t.Run("fails on a missing story", func(t *testing.T) {
		_, err := run(t, nil, "parse", "--dir", t.TempDir(), "missing.story")
		require.ErrorIs(t, err, loader.ErrStoryNotFound)
	})

	t.Run("needs a story path", func(t *testing.T) {
		_, err := run(t, nil, "parse")
		require.Error(t, err)
	})
}

func TestGenerateCmd(t *testing.T) {
	t.Run("should write the runner of the parsed code", func(t *testing.T) {
		controller := gomock.NewController(t)
		mockGoCodeParser := generator.NewMockGoCodeParser(controller)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/features\n"), 0o644))

		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), "/src/bank").
			Return(bankSteps(), nil).
			Times(1)

		out, err := run(t, mockGoCodeParser, "generate", "--code", "/src/bank", "--output", dir, "--stories", "stories")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, generator.OutputFile), strings.TrimSpace(out))

		generated, err := os.ReadFile(filepath.Join(dir, generator.OutputFile))
		require.NoError(t, err)
		require.Contains(t, string(generated), "package features")
		require.Contains(t, string(generated), `Given("I have $amount in my account", bank.GivenBalance)`)
	})
}

func TestStubsCmd(t *testing.T) {
	t.Run("should print stubs of the pending steps once", func(t *testing.T) {
		controller := gomock.NewController(t)
		mockGoCodeParser := generator.NewMockGoCodeParser(controller)

		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), "/src/bank").
			Return(bankSteps(), nil).
			Times(1)

		out, err := run(t, mockGoCodeParser, "stubs", "--code", "/src/bank", "--dir", storiesDir(t))
		require.NoError(t, err)

		require.Contains(t, out, "// @when `I withdraw 30`")
		require.Contains(t, out, "func WhenIWithdraw30(ctx *behave.Context) error")
		require.Contains(t, out, "// @when `I withdraw <amount>`")
		require.NotContains(t, out, "GivenIHave100")
		require.NotContains(t, out, "ThenMyBalance")
		require.Equal(t, 2, strings.Count(out, "func "))
	})

	t.Run("should leave out excluded stories", func(t *testing.T) {
		controller := gomock.NewController(t)
		mockGoCodeParser := generator.NewMockGoCodeParser(controller)

		mockGoCodeParser.
			EXPECT().
			ParseFunctionCommentsOfGoFilesInDirectoryRecursively(gomock.Any(), gomock.Any()).
			Return(bankSteps(), nil)

		out, err := run(t, mockGoCodeParser, "stubs", "--dir", storiesDir(t), "--exclude", "bank/*")
		require.NoError(t, err)
		require.Empty(t, out)
	})
}
