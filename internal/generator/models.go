package generator

import (
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
)

const (
	behavePath        = "github.com/denizgursoy/behave"
	configurationPath = behavePath + "/pkg/configuration"
	convertPath       = behavePath + "/pkg/convert"
	embedderPath      = behavePath + "/pkg/embedder"
	keywordsPath      = behavePath + "/pkg/keywords"
	modelPath         = behavePath + "/pkg/model"
	reporterPath      = behavePath + "/pkg/reporter"
	stepsPath         = behavePath + "/pkg/steps"

	// OutputFile is the name of the generated test file.
	OutputFile = "behave_test.go"
	// DefaultStoryRoot is where the generated test looks for stories.
	DefaultStoryRoot = "."
)

type (
	FunctionLocator struct {
		FullPackageName string
		FunctionName    string
	}

	// StepFunctionLocator is a function carrying a @given, @when, @then or
	// @and directive.
	StepFunctionLocator struct {
		StepType string // "Given", "When", "Then" or "And"
		Template string
		Aliases  []string
		Priority int
		Named    []string
		*FunctionLocator
	}

	// HookFunctionLocator is a function carrying a lifecycle hook
	// directive such as @beforeScenario.
	HookFunctionLocator struct {
		Method         string // steps.Steps method, e.g. "BeforeScenario"
		Order          int
		UponGivenStory bool
		Outcome        string // "", "success" or "failure"
		ScenarioType   string // "", "example" or "any"
		*FunctionLocator
	}

	// CustomType represents a user-defined type like `type Color string`
	// with its associated constant values
	CustomType struct {
		Name        string            // Type name, e.g., "Color"
		PackagePath string            // Full package path
		Underlying  string            // Underlying primitive type: "string", "int", "float64", etc.
		Values      map[string]string // Constant name -> value, e.g., {"Red": "red", "Blue": "blue"}
	}

	Output struct {
		ConfigurationFunctions []*FunctionLocator // Functions returning *configuration.Configuration
		ControlsFunctions      []*FunctionLocator // Functions returning embedder.Controls
		StepFunctions          []*StepFunctionLocator
		HookFunctions          []*HookFunctionLocator
		ConverterFunctions     []*FunctionLocator     // Functions carrying @converter
		CustomTypes            map[string]*CustomType // "package/path.Type" -> CustomType
		CurrentPackagePath     string                 // Full import path of the package where the test file is generated
		PackageName            string                 // Short package name (e.g., "myapp"); if empty, defaults to "main"
		StoryRoot              string                 // Directory the generated test finds stories in
	}
)

// ValuesList returns a sorted list of all constant values for this custom type
func (ct *CustomType) ValuesList() []string {
	values := make([]string, 0, len(ct.Values))
	for _, v := range ct.Values {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// ConstantNames returns the constant names sorted.
func (ct *CustomType) ConstantNames() []string {
	names := make([]string, 0, len(ct.Values))
	for name := range ct.Values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup maps each constant name and each constant value to the constant
// name. Enum converters match both, case-insensitively.
func (ct *CustomType) Lookup() map[string]string {
	result := make(map[string]string)
	for _, name := range ct.ConstantNames() {
		result[name] = name
	}
	for _, name := range ct.ConstantNames() {
		value := ct.Values[name]
		if _, taken := result[value]; !taken && value != "" {
			result[value] = name
		}
	}
	return result
}

// Merge adds the functions and types found in other.
func (o *Output) Merge(other *Output) {
	o.ConfigurationFunctions = append(o.ConfigurationFunctions, other.ConfigurationFunctions...)
	o.ControlsFunctions = append(o.ControlsFunctions, other.ControlsFunctions...)
	o.StepFunctions = append(o.StepFunctions, other.StepFunctions...)
	o.HookFunctions = append(o.HookFunctions, other.HookFunctions...)
	o.ConverterFunctions = append(o.ConverterFunctions, other.ConverterFunctions...)
	if o.CustomTypes == nil {
		o.CustomTypes = make(map[string]*CustomType)
	}
	for k, v := range other.CustomTypes {
		o.CustomTypes[k] = v
	}
}

// isSamePackage returns true when the function is in the same package as the
// generated test file and therefore should be called without an import qualifier.
func (o *Output) isSamePackage(fullPkg string) bool {
	return o.CurrentPackagePath != "" && fullPkg == o.CurrentPackagePath
}

// qualOrLocal returns a jen.Statement that either qualifies the function call with
// its package path (for external packages) or calls it directly (for same-package).
func (o *Output) qualOrLocal(fullPkg, funcName string) *jen.Statement {
	if o.isSamePackage(fullPkg) {
		return jen.Id(funcName)
	}
	return jen.Qual(fullPkg, funcName)
}

// reachable reports whether the generated file can refer to name.
func (o *Output) reachable(fullPkg, name string) bool {
	return o.isSamePackage(fullPkg) || isExported(name)
}

// enumTypes returns the custom types the generated file can reach, sorted
// by name. Types without constants convert nothing and are left out.
func (o *Output) enumTypes() []*CustomType {
	var types []*CustomType
	for _, ct := range o.CustomTypes {
		if len(ct.Values) == 0 {
			continue
		}
		if !o.reachable(ct.PackagePath, ct.Name) {
			continue
		}
		types = append(types, ct)
	}
	slices.SortFunc(types, func(a, b *CustomType) int {
		return strings.Compare(a.PackagePath+"."+a.Name, b.PackagePath+"."+b.Name)
	})
	return types
}

func (o *Output) Generate(writer io.Writer) error {
	pkgName := o.PackageName
	if pkgName == "" {
		pkgName = "main"
	}
	storyRoot := o.StoryRoot
	if storyRoot == "" {
		storyRoot = DefaultStoryRoot
	}
	mainFile := jen.NewFile(pkgName)
	mainFile.HeaderComment("Code generated by behave generate. DO NOT EDIT.")

	var statements []jen.Code

	// controls := embedder.MergeControls(embedder.DefaultControls(), ...)
	controlsCalls := []jen.Code{jen.Qual(embedderPath, "DefaultControls").Call()}
	for _, cf := range o.ControlsFunctions {
		controlsCalls = append(controlsCalls, o.qualOrLocal(cf.FullPackageName, cf.FunctionName).Call())
	}
	statements = append(statements,
		jen.Id("controls").Op(":=").Qual(embedderPath, "MergeControls").Call(controlsCalls...),
	)

	// The last configuration function wins.
	var cfg jen.Code = jen.Qual(configurationPath, "MostUseful").Call(
		jen.Qual(configurationPath, "WithReporter").Call(
			jen.Qual(reporterPath, "NewTxtOutput").Call(
				jen.Qual("os", "Stdout"),
				jen.Qual(keywordsPath, "Default").Call(),
			),
		),
	)
	if n := len(o.ConfigurationFunctions); n > 0 {
		last := o.ConfigurationFunctions[n-1]
		cfg = o.qualOrLocal(last.FullPackageName, last.FunctionName).Call()
	}

	// source := steps.New(pkgName).AddConverters(...).Given(...)...
	chain := jen.Id("source").Op(":=").Qual(stepsPath, "New").Call(jen.Lit(pkgName))

	for _, ct := range o.enumTypes() {
		lookup := ct.Lookup()
		maps.DeleteFunc(lookup, func(_, constant string) bool {
			return !o.reachable(ct.PackagePath, constant)
		})
		if len(lookup) == 0 {
			continue
		}
		values := jen.Map(jen.String()).Add(o.qualOrLocal(ct.PackagePath, ct.Name)).Values(jen.DictFunc(func(d jen.Dict) {
			for key, constant := range lookup {
				d[jen.Lit(key)] = o.qualOrLocal(ct.PackagePath, constant)
			}
		}))
		chain.Id(".").Line().Id("AddConverters").Call(jen.Qual(convertPath, "NewEnumConverter").Call(values))
	}

	for _, cf := range o.ConverterFunctions {
		chain.Id(".").Line().Id("Converter").Call(o.qualOrLocal(cf.FullPackageName, cf.FunctionName))
	}

	for _, sf := range o.StepFunctions {
		args := []jen.Code{jen.Lit(sf.Template), o.qualOrLocal(sf.FullPackageName, sf.FunctionName)}
		if sf.Priority != 0 {
			args = append(args, jen.Qual(stepsPath, "Priority").Call(jen.Lit(sf.Priority)))
		}
		if len(sf.Named) > 0 {
			names := make([]jen.Code, len(sf.Named))
			for i, name := range sf.Named {
				names[i] = jen.Lit(name)
			}
			args = append(args, jen.Qual(stepsPath, "Named").Call(names...))
		}
		if len(sf.Aliases) > 0 {
			aliases := make([]jen.Code, len(sf.Aliases))
			for i, alias := range sf.Aliases {
				aliases[i] = jen.Lit(alias)
			}
			args = append(args, jen.Qual(stepsPath, "Alias").Call(aliases...))
		}
		chain.Id(".").Line().Id(sf.StepType).Call(args...)
	}

	for _, hf := range o.HookFunctions {
		args := []jen.Code{o.qualOrLocal(hf.FullPackageName, hf.FunctionName)}
		if hf.Order != 0 {
			args = append(args, jen.Qual(stepsPath, "Order").Call(jen.Lit(hf.Order)))
		}
		if hf.UponGivenStory {
			args = append(args, jen.Qual(stepsPath, "UponGivenStory").Call(jen.True()))
		}
		switch hf.Outcome {
		case "success":
			args = append(args, jen.Qual(stepsPath, "UponOutcome").Call(jen.Qual(modelPath, "OutcomeSuccess")))
		case "failure":
			args = append(args, jen.Qual(stepsPath, "UponOutcome").Call(jen.Qual(modelPath, "OutcomeFailure")))
		}
		switch hf.ScenarioType {
		case "example":
			args = append(args, jen.Qual(stepsPath, "ForScenarioType").Call(jen.Qual(stepsPath, "ExampleScenario")))
		case "any":
			args = append(args, jen.Qual(stepsPath, "ForScenarioType").Call(jen.Qual(stepsPath, "AnyScenario")))
		}
		chain.Id(".").Line().Id(hf.Method).Call(args...)
	}
	statements = append(statements, chain)

	// _, err := embedder.New(...).RunStories(t.Context(), root)
	statements = append(statements,
		jen.List(jen.Id("_"), jen.Id("err")).Op(":=").Qual(embedderPath, "New").Custom(
			jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true},
			jen.Qual(embedderPath, "WithConfiguration").Call(cfg),
			jen.Qual(embedderPath, "WithControls").Call(jen.Id("controls")),
			jen.Qual(embedderPath, "WithSteps").Call(jen.Id("source")),
		).Dot("RunStories").Call(
			jen.Id("t").Dot("Context").Call(),
			jen.Lit(storyRoot),
		),
	)

	// Error handling: always use t.Fatal(err)
	statements = append(statements,
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatal").Call(jen.Id("err")),
		),
	)

	// Always generate func TestBehave(t *testing.T) { ... }
	mainFile.Func().Id("TestBehave").Params(
		jen.Id("t").Op("*").Qual("testing", "T"),
	).Block(statements...)

	return mainFile.Render(writer)
}

func isExported(name string) bool {
	return name != "" && strings.ToUpper(name[:1]) == name[:1]
}
