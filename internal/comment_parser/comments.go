package comment_parser

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/denizgursoy/behave/internal/generator"
)

const (
	DirectivePrefix = "@"
	Tick            = "`"
)

var (
	ErrInvalidDirective     = errors.New("invalid directive")
	ErrDuplicateStep        = errors.New("duplicate step")
	ErrConflictingDirective = errors.New("conflicting directives")
)

// stepDirectives maps step directives to steps.Steps registration methods.
var stepDirectives = map[string]string{
	"@given": "Given",
	"@when":  "When",
	"@then":  "Then",
	"@and":   "And",
}

// hookDirectives maps hook directives to steps.Steps hook methods.
var hookDirectives = map[string]string{
	"@beforeStories":  "BeforeStories",
	"@afterStories":   "AfterStories",
	"@beforeStory":    "BeforeStory",
	"@afterStory":     "AfterStory",
	"@beforeScenario": "BeforeScenario",
	"@afterScenario":  "AfterScenario",
	"@beforeStep":     "BeforeStep",
	"@afterStep":      "AfterStep",
}

// supportedPrimitives lists the primitive types that can be used as underlying types for custom types
var supportedPrimitives = map[string]bool{
	"string":  true,
	"int":     true,
	"int8":    true,
	"int16":   true,
	"int32":   true,
	"int64":   true,
	"uint":    true,
	"uint8":   true,
	"uint16":  true,
	"uint32":  true,
	"uint64":  true,
	"float32": true,
	"float64": true,
	"bool":    true,
}

type GoSourceFileParser struct {
	logger *slog.Logger
}

func NewGoSourceFileParser(logger *slog.Logger) *GoSourceFileParser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GoSourceFileParser{logger: logger.With("component", "comment_parser")}
}

// sourceFile is a parsed Go file with the import path of its package.
type sourceFile struct {
	path       string
	importPath string
	node       *ast.File
}

func (g *GoSourceFileParser) ParseFunctionCommentsOfGoFilesInDirectoryRecursively(ctx context.Context, parentDirectory string) (
	*generator.Output, error) {
	fset := token.NewFileSet()
	files, err := parseSourceFiles(ctx, fset, parentDirectory)
	if err != nil {
		return nil, err
	}

	output := &generator.Output{
		StepFunctions: make([]*generator.StepFunctionLocator, 0),
		CustomTypes:   make(map[string]*generator.CustomType),
	}

	// First pass: collect all custom types
	for _, file := range files {
		parseCustomTypes(file.node, file.importPath, output.CustomTypes)
	}

	// Second pass: parse constants for the custom types we found
	for _, file := range files {
		parseConstants(file.node, file.importPath, output.CustomTypes)
	}

	// Third pass: parse functions and their directives
	seen := make(map[string]string)
	for _, file := range files {
		for _, dec := range file.node.Decls {
			decl, ok := dec.(*ast.FuncDecl)
			if !ok {
				continue
			}
			locator := &generator.FunctionLocator{
				FullPackageName: file.importPath,
				FunctionName:    decl.Name.Name,
			}
			if err := g.parseFunction(fset, decl, file.node.Imports, locator, output, seen); err != nil {
				return nil, err
			}
		}
	}

	g.logger.Debug("parsed directory", "dir", parentDirectory, "files", len(files),
		"steps", len(output.StepFunctions), "hooks", len(output.HookFunctions),
		"converters", len(output.ConverterFunctions), "types", len(output.CustomTypes))
	return output, nil
}

func (g *GoSourceFileParser) parseFunction(fset *token.FileSet, decl *ast.FuncDecl, imports []*ast.ImportSpec,
	locator *generator.FunctionLocator, output *generator.Output, seen map[string]string) error {
	if decl.Recv == nil {
		switch {
		case IsConfigurationFunction(decl, imports):
			output.ConfigurationFunctions = append(output.ConfigurationFunctions, locator)
			return nil
		case IsControlsFunction(decl, imports):
			output.ControlsFunctions = append(output.ControlsFunctions, locator)
			return nil
		}
	}

	directives := Directives(fset, decl)
	if len(directives) == 0 {
		return nil
	}
	position := fset.Position(decl.Pos()).String()
	if decl.Recv != nil {
		return fmt.Errorf("%w: %s: method %s cannot carry directives", ErrInvalidDirective, position, decl.Name.Name)
	}

	function, err := collectFunction(directives, locator, position)
	if err != nil {
		return err
	}
	if function.step != nil {
		step := function.step
		for _, template := range append([]string{step.Template}, step.Aliases...) {
			key := step.StepType + " " + template
			if previous, ok := seen[key]; ok {
				return fmt.Errorf("%w: %s `%s` is declared by %s and %s", ErrDuplicateStep,
					strings.ToLower(step.StepType), template, previous, decl.Name.Name)
			}
			seen[key] = decl.Name.Name
		}
		output.StepFunctions = append(output.StepFunctions, step)
	}
	output.HookFunctions = append(output.HookFunctions, function.hooks...)
	if function.converter {
		output.ConverterFunctions = append(output.ConverterFunctions, locator)
	}
	return nil
}

// Directive is one "// @name argument" line of a doc comment.
type Directive struct {
	Name     string
	Argument string
	Position string
}

// Directives returns the directives of the doc comment of a function.
func Directives(fset *token.FileSet, fnDecl *ast.FuncDecl) []Directive {
	if fnDecl.Doc == nil {
		return nil
	}
	var directives []Directive
	for _, comment := range fnDecl.Doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(comment.Text, "//"))
		if !strings.HasPrefix(text, DirectivePrefix) {
			continue
		}
		name, argument, _ := strings.Cut(text, " ")
		_, isStep := stepDirectives[name]
		_, isHook := hookDirectives[name]
		switch {
		case isStep, isHook, name == "@alias", name == "@priority", name == "@named", name == "@converter":
		default:
			// Other tools' directives.
			continue
		}
		directives = append(directives, Directive{
			Name:     name,
			Argument: strings.TrimSpace(argument),
			Position: fset.Position(comment.Pos()).String(),
		})
	}
	return directives
}

type function struct {
	step      *generator.StepFunctionLocator
	hooks     []*generator.HookFunctionLocator
	converter bool
}

func collectFunction(directives []Directive, locator *generator.FunctionLocator, position string) (*function, error) {
	f := &function{}
	var aliases, named []string
	priority := 0
	stepOptions := false

	for _, d := range directives {
		invalid := func(format string, args ...any) error {
			return fmt.Errorf("%w: %s: %s %s", ErrInvalidDirective, d.Position, d.Name, fmt.Sprintf(format, args...))
		}
		if method, ok := stepDirectives[d.Name]; ok {
			if f.step != nil {
				return nil, fmt.Errorf("%w: %s: %s declares more than one step, use @alias", ErrConflictingDirective, position, locator.FunctionName)
			}
			template, err := GetTemplate(d.Argument)
			if err != nil {
				return nil, invalid("%v", err)
			}
			f.step = &generator.StepFunctionLocator{StepType: method, Template: template, FunctionLocator: locator}
			continue
		}
		if method, ok := hookDirectives[d.Name]; ok {
			hook, err := parseHook(method, d.Argument, locator)
			if err != nil {
				return nil, invalid("%v", err)
			}
			f.hooks = append(f.hooks, hook)
			continue
		}
		switch d.Name {
		case "@alias":
			template, err := GetTemplate(d.Argument)
			if err != nil {
				return nil, invalid("%v", err)
			}
			aliases = append(aliases, template)
		case "@priority":
			n, err := strconv.Atoi(d.Argument)
			if err != nil {
				return nil, invalid("needs a number, got %q", d.Argument)
			}
			priority = n
		case "@named":
			for _, name := range strings.Split(d.Argument, ",") {
				named = append(named, strings.TrimSpace(name))
			}
		case "@converter":
			f.converter = true
			continue
		}
		stepOptions = true
	}

	if stepOptions && f.step == nil {
		return nil, fmt.Errorf("%w: %s: @alias, @priority and @named need a step directive", ErrInvalidDirective, position)
	}
	if conflicts := btoi(f.step != nil) + btoi(len(f.hooks) > 0) + btoi(f.converter); conflicts > 1 {
		return nil, fmt.Errorf("%w: %s: %s is declared as more than one of step, hook and converter",
			ErrConflictingDirective, position, locator.FunctionName)
	}
	if f.step != nil {
		f.step.Aliases = aliases
		f.step.Priority = priority
		f.step.Named = named
	}
	return f, nil
}

// GetTemplate reads a template quoted with backticks.
func GetTemplate(argument string) (string, error) {
	if len(argument) < 2 || !strings.HasPrefix(argument, Tick) || !strings.HasSuffix(argument, Tick) {
		return "", fmt.Errorf("needs a template between backticks, got %q", argument)
	}
	template := strings.TrimSpace(argument[1 : len(argument)-1])
	if template == "" {
		return "", errors.New("has an empty template")
	}
	return template, nil
}

// parseHook reads the hook options: order=N, outcome=success|failure|any,
// givenStory and type=normal|example|any.
func parseHook(method, argument string, locator *generator.FunctionLocator) (*generator.HookFunctionLocator, error) {
	hook := &generator.HookFunctionLocator{Method: method, FunctionLocator: locator}
	for _, option := range strings.Fields(argument) {
		key, value, _ := strings.Cut(option, "=")
		switch key {
		case "order":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("order needs a number, got %q", value)
			}
			hook.Order = n
		case "outcome":
			switch strings.ToLower(value) {
			case "any":
				hook.Outcome = ""
			case "success", "failure":
				hook.Outcome = strings.ToLower(value)
			default:
				return nil, fmt.Errorf("outcome is any, success or failure, got %q", value)
			}
		case "givenStory":
			hook.UponGivenStory = true
		case "type":
			switch strings.ToLower(value) {
			case "normal":
				hook.ScenarioType = ""
			case "example", "any":
				hook.ScenarioType = strings.ToLower(value)
			default:
				return nil, fmt.Errorf("type is normal, example or any, got %q", value)
			}
		default:
			return nil, fmt.Errorf("unknown option %q", option)
		}
	}
	if hook.Outcome != "" && !strings.HasPrefix(method, "After") {
		return nil, errors.New("outcome applies to after hooks only")
	}
	if hook.ScenarioType != "" && !strings.HasSuffix(method, "Scenario") {
		return nil, errors.New("type applies to scenario hooks only")
	}
	return hook, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseSourceFiles parses the non-test Go files under root. Nested testdata,
// vendor, hidden and underscore directories are skipped like the go tool does.
func parseSourceFiles(ctx context.Context, fset *token.FileSet, root string) ([]sourceFile, error) {
	var files []sourceFile
	importPaths := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != root && (name == "testdata" || name == "vendor" ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			return nil
		}

		dir := filepath.Dir(path)
		importPath, ok := importPaths[dir]
		if !ok {
			importPath, err = generator.DetectImportPath(dir)
			if err != nil {
				return err
			}
			importPaths[dir] = importPath
		}
		node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{path: path, importPath: importPath, node: node})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func typeKey(packagePath, typeName string) string {
	return packagePath + "." + typeName
}

// parseCustomTypes finds type declarations like `type Color string` in a file
func parseCustomTypes(file *ast.File, packagePath string, customTypes map[string]*generator.CustomType) {
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok || typeSpec.Assign.IsValid() || typeSpec.TypeParams != nil {
				continue
			}

			// Check if the underlying type is a supported primitive
			ident, ok := typeSpec.Type.(*ast.Ident)
			if !ok {
				continue
			}

			if supportedPrimitives[ident.Name] {
				typeName := typeSpec.Name.Name
				customTypes[typeKey(packagePath, typeName)] = &generator.CustomType{
					Name:        typeName,
					PackagePath: packagePath,
					Underlying:  ident.Name,
					Values:      make(map[string]string),
				}
			}
		}
	}
}

// parseConstants finds constant declarations and associates them with custom types
func parseConstants(file *ast.File, packagePath string, customTypes map[string]*generator.CustomType) {
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.CONST {
			continue
		}

		var currentType string // Track the type for iota-style const blocks
		var lastExpr ast.Expr  // Track last expression for implicit values

		for iotaValue, spec := range genDecl.Specs {
			valueSpec, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}

			// A spec with values starts over: its type is its own, or none.
			if len(valueSpec.Values) > 0 {
				currentType = ""
				lastExpr = nil
			}
			if ident, ok := valueSpec.Type.(*ast.Ident); ok {
				currentType = ident.Name
			}

			ct, ok := customTypes[typeKey(packagePath, currentType)]

			for i, name := range valueSpec.Names {
				var expr ast.Expr
				if i < len(valueSpec.Values) {
					expr = valueSpec.Values[i]
				} else {
					expr = lastExpr // Use previous expression (iota continuation)
				}
				if i == len(valueSpec.Names)-1 && len(valueSpec.Values) > 0 {
					lastExpr = valueSpec.Values[len(valueSpec.Values)-1]
				}
				if !ok || name.Name == "_" {
					continue
				}

				var constValue string
				if expr != nil {
					constValue = evaluateConstExpr(expr, int64(iotaValue), ct.Underlying)
				}
				if constValue != "" {
					ct.Values[name.Name] = constValue
				}
			}
		}
	}
}

// evaluateConstExpr evaluates a constant expression and returns its string value
func evaluateConstExpr(expr ast.Expr, iotaValue int64, underlying string) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.STRING {
			if value, err := strconv.Unquote(e.Value); err == nil {
				return value
			}
			return ""
		}
		return e.Value

	case *ast.Ident:
		switch e.Name {
		case "iota":
			return strconv.FormatInt(iotaValue, 10)
		case "true", "false":
			return e.Name
		}
		return ""

	case *ast.BinaryExpr:
		// Handle expressions like iota + 1
		left := evaluateConstExpr(e.X, iotaValue, underlying)
		right := evaluateConstExpr(e.Y, iotaValue, underlying)
		if left == "" || right == "" || !isIntType(underlying) {
			return ""
		}
		leftVal, err1 := strconv.ParseInt(left, 10, 64)
		rightVal, err2 := strconv.ParseInt(right, 10, 64)
		if err1 != nil || err2 != nil {
			return ""
		}
		switch e.Op {
		case token.ADD:
			return strconv.FormatInt(leftVal+rightVal, 10)
		case token.SUB:
			return strconv.FormatInt(leftVal-rightVal, 10)
		case token.MUL:
			return strconv.FormatInt(leftVal*rightVal, 10)
		case token.QUO:
			if rightVal != 0 {
				return strconv.FormatInt(leftVal/rightVal, 10)
			}
		case token.SHL:
			return strconv.FormatInt(leftVal<<rightVal, 10)
		}
		return ""

	case *ast.UnaryExpr:
		// Handle negative numbers
		if e.Op == token.SUB {
			if val := evaluateConstExpr(e.X, iotaValue, underlying); val != "" {
				return "-" + val
			}
		}
		return ""

	case *ast.ParenExpr:
		return evaluateConstExpr(e.X, iotaValue, underlying)

	default:
		return ""
	}
}

// isIntType returns true if the type is an integer type
func isIntType(typeName string) bool {
	switch typeName {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return true
	}
	return false
}

// IsConfigurationFunction reports whether fnDecl takes nothing and returns
// a *configuration.Configuration.
func IsConfigurationFunction(fnDecl *ast.FuncDecl, imports []*ast.ImportSpec) bool {
	return returnsOnly(fnDecl, imports, "*configuration.Configuration")
}

// IsControlsFunction reports whether fnDecl takes nothing and returns
// embedder.Controls.
func IsControlsFunction(fnDecl *ast.FuncDecl, imports []*ast.ImportSpec) bool {
	return returnsOnly(fnDecl, imports, "embedder.Controls")
}

func returnsOnly(fnDecl *ast.FuncDecl, imports []*ast.ImportSpec, typeName string) bool {
	if fnDecl.Type.Params != nil && len(fnDecl.Type.Params.List) > 0 {
		return false
	}
	if fnDecl.Type.Results == nil {
		return false
	}
	returnedTypes := fnDecl.Type.Results.List
	if len(returnedTypes) != 1 || len(returnedTypes[0].Names) > 1 {
		return false
	}
	return analyzeExpr(returnedTypes[0].Type, imports) == typeName
}

// analyzeExpr renders a type expression, naming imported packages by the
// last element of their path when imported under an alias.
func analyzeExpr(expr ast.Expr, imports []*ast.ImportSpec) string {
	switch expr := expr.(type) {
	case *ast.Ident:
		return expr.Name
	case *ast.SelectorExpr:
		return fmt.Sprintf("%s.%s", packageOf(analyzeExpr(expr.X, imports), imports), expr.Sel.Name)
	case *ast.StarExpr:
		return "*" + analyzeExpr(expr.X, imports)
	case *ast.ParenExpr:
		return "(" + analyzeExpr(expr.X, imports) + ")"
	case *ast.ArrayType:
		return "[]" + analyzeExpr(expr.Elt, imports)
	case *ast.MapType:
		return "map[" + analyzeExpr(expr.Key, imports) + "]" + analyzeExpr(expr.Value, imports)
	default:
		return "unknown"
	}
}

func packageOf(name string, imports []*ast.ImportSpec) string {
	idx := slices.IndexFunc(imports, func(spec *ast.ImportSpec) bool {
		return spec.Name != nil && spec.Name.Name == name
	})
	if idx < 0 {
		return name
	}
	path, err := strconv.Unquote(imports[idx].Path.Value)
	if err != nil {
		return name
	}
	return filepath.Base(path)
}
