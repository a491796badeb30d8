package comment_parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/behave/internal/generator"
)

const testdataPackage = "github.com/denizgursoy/behave/internal/comment_parser/testdata"

func parse(t *testing.T, dir string) (*generator.Output, error) {
	t.Helper()
	return NewGoSourceFileParser(nil).ParseFunctionCommentsOfGoFilesInDirectoryRecursively(context.Background(), dir)
}

func stepsByFunction(output *generator.Output) map[string]*generator.StepFunctionLocator {
	steps := make(map[string]*generator.StepFunctionLocator)
	for _, step := range output.StepFunctions {
		steps[step.FunctionName] = step
	}
	return steps
}

func writeSource(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/steps\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steps.go"), []byte("package steps\n\n"+source), 0o644))
	return dir
}

func TestGetComments(t *testing.T) {
	dir, err := os.Getwd()
	require.NoError(t, err)
	output, err := parse(t, filepath.Join(dir, "testdata"))
	require.NoError(t, err)

	t.Run("parses step definitions from testdata", func(t *testing.T) {
		steps := stepsByFunction(output)
		require.Len(t, steps, 6)

		balance := steps["GivenBalance"]
		require.Equal(t, "Given", balance.StepType)
		require.Equal(t, "I have $amount in my account", balance.Template)
		require.Equal(t, []string{"my account holds $amount"}, balance.Aliases)
		require.Equal(t, 2, balance.Priority)
		require.Equal(t, []string{"amount"}, balance.Named)
		require.Equal(t, testdataPackage+"/step-bank", balance.FullPackageName)

		require.Equal(t, "When", steps["WhenWithdraw"].StepType)
		require.Equal(t, "my balance is $amount", steps["ThenBalance"].Template)
		require.Equal(t, "And", steps["AndReceipt"].StepType)
		require.Equal(t, "a receipt is printed", steps["AndReceipt"].Template)
		require.Equal(t, "the risk level is $level", steps["GivenLevel"].Template)
	})

	t.Run("skips nested testdata directories", func(t *testing.T) {
		require.NotContains(t, stepsByFunction(output), "Skipped")
	})

	t.Run("parses converters", func(t *testing.T) {
		require.Equal(t, []*generator.FunctionLocator{
			{FullPackageName: testdataPackage + "/step-bank", FunctionName: "ParseMoney"},
		}, output.ConverterFunctions)
	})

	t.Run("parses hooks with their options", func(t *testing.T) {
		hooks := make(map[string]*generator.HookFunctionLocator)
		for _, hook := range output.HookFunctions {
			hooks[hook.Method+" "+hook.FunctionName] = hook
		}
		require.Len(t, hooks, 5)

		require.Equal(t, &generator.HookFunctionLocator{
			Method:          "BeforeStories",
			FunctionLocator: &generator.FunctionLocator{FullPackageName: testdataPackage + "/step-hooks", FunctionName: "OpenBank"},
		}, hooks["BeforeStories OpenBank"])

		dump := hooks["AfterScenario DumpLedger"]
		require.Equal(t, 2, dump.Order)
		require.Equal(t, "failure", dump.Outcome)
		require.Equal(t, "example", dump.ScenarioType)

		seed := hooks["BeforeStory SeedAccounts"]
		require.True(t, seed.UponGivenStory)
		require.Equal(t, -1, seed.Order)

		require.Contains(t, hooks, "BeforeStep LogStep")
		require.Contains(t, hooks, "AfterStep LogStep")
	})

	t.Run("parses configuration and controls functions", func(t *testing.T) {
		require.Equal(t, []*generator.FunctionLocator{
			{FullPackageName: testdataPackage + "/step-config", FunctionName: "MyConfiguration"},
		}, output.ConfigurationFunctions)
		require.Equal(t, []*generator.FunctionLocator{
			{FullPackageName: testdataPackage + "/step-config", FunctionName: "MyControls"},
		}, output.ControlsFunctions)
	})

	t.Run("parses custom types and their constants", func(t *testing.T) {
		currency := output.CustomTypes[testdataPackage+"/step-enum.Currency"]
		require.NotNil(t, currency)
		require.Equal(t, "string", currency.Underlying)
		require.Equal(t, map[string]string{"Euro": "EUR", "Dollar": "USD", "pound": "GBP"}, currency.Values)

		level := output.CustomTypes[testdataPackage+"/step-enum.Level"]
		require.NotNil(t, level)
		require.Equal(t, map[string]string{"Low": "1", "Medium": "2", "High": "4"}, level.Values)

		require.Empty(t, output.CustomTypes[testdataPackage+"/step-enum.Flags"].Values)
		require.Empty(t, output.CustomTypes[testdataPackage+"/step-bank.Money"].Values)
		require.NotContains(t, output.CustomTypes, testdataPackage+"/step-enum.Alias")
	})
}

func TestGetComments_Errors(t *testing.T) {
	t.Run("rejects duplicate steps", func(t *testing.T) {
		dir, err := os.Getwd()
		require.NoError(t, err)

		_, err = parse(t, filepath.Join(dir, "testdata-duplicate"))
		require.ErrorIs(t, err, ErrDuplicateStep)
		require.ErrorContains(t, err, "FirstDuplicateStep and SecondDuplicateStep")
	})

	t.Run("rejects templates without backticks", func(t *testing.T) {
		dir, err := os.Getwd()
		require.NoError(t, err)

		_, err = parse(t, filepath.Join(dir, "testdata-invalid"))
		require.ErrorIs(t, err, ErrInvalidDirective)
		require.ErrorContains(t, err, "invalid.go:4")
	})

	tests := []struct {
		name     string
		source   string
		expected error
	}{
		{
			name:     "priority is not a number",
			source:   "// @given `a step`\n// @priority high\nfunc Step() {}\n",
			expected: ErrInvalidDirective,
		},
		{
			name:     "alias without step",
			source:   "// @alias `a step`\nfunc Step() {}\n",
			expected: ErrInvalidDirective,
		},
		{
			name:     "empty template",
			source:   "// @then ``\nfunc Step() {}\n",
			expected: ErrInvalidDirective,
		},
		{
			name:     "two steps on one function",
			source:   "// @given `a step`\n// @when `another step`\nfunc Step() {}\n",
			expected: ErrConflictingDirective,
		},
		{
			name:     "step and hook on one function",
			source:   "// @given `a step`\n// @beforeScenario\nfunc Step() {}\n",
			expected: ErrConflictingDirective,
		},
		{
			name:     "unknown hook option",
			source:   "// @beforeStory always\nfunc Hook() {}\n",
			expected: ErrInvalidDirective,
		},
		{
			name:     "outcome on a before hook",
			source:   "// @beforeScenario outcome=failure\nfunc Hook() {}\n",
			expected: ErrInvalidDirective,
		},
		{
			name:     "scenario type on a story hook",
			source:   "// @afterStory type=example\nfunc Hook() {}\n",
			expected: ErrInvalidDirective,
		},
		{
			name:     "directive on a method",
			source:   "type Bank struct{}\n\n// @when `I open`\nfunc (b *Bank) Open() {}\n",
			expected: ErrInvalidDirective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, writeSource(t, tt.source))
			require.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("rejects an alias repeating another step", func(t *testing.T) {
		_, err := parse(t, writeSource(t, "// @given `a step`\nfunc First() {}\n\n// @given `another step`\n// @alias `a step`\n// @priority 1\nfunc Second() {}\n"))
		require.ErrorIs(t, err, ErrDuplicateStep)
	})

	t.Run("allows the same template for another step type", func(t *testing.T) {
		output, err := parse(t, writeSource(t, "// @given `a step`\nfunc First() {}\n\n// @then `a step`\nfunc Second() {}\n"))
		require.NoError(t, err)
		require.Len(t, output.StepFunctions, 2)
		require.Equal(t, "example.com/steps", output.StepFunctions[0].FullPackageName)
	})

	t.Run("ignores other directives", func(t *testing.T) {
		output, err := parse(t, writeSource(t, "// @deprecated use Other\n// @when `I step`\nfunc Step() {}\n"))
		require.NoError(t, err)
		require.Len(t, output.StepFunctions, 1)
	})
}

func TestGetTemplate(t *testing.T) {
	template, err := GetTemplate("` I have $n apples `")
	require.NoError(t, err)
	require.Equal(t, "I have $n apples", template)

	_, err = GetTemplate("`unterminated")
	require.Error(t, err)
}
