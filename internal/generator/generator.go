package generator

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

const (
	Separator = ","
)

// Options of a generation run.
type Options struct {
	// CodeDirs are searched recursively for directives. The working
	// directory when empty.
	CodeDirs []string
	// OutputDir receives the generated file. The working directory when
	// empty.
	OutputDir string
	// StoryRoot is where the generated test finds its stories.
	StoryRoot string
	Logger    *slog.Logger
}

// ParseCodeDirs splits a comma separated list of directories.
func ParseCodeDirs(text string) []string {
	var dirs []string
	for _, dir := range strings.Split(text, Separator) {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// StartGenerator parses the directives of every code directory and writes
// one test file running them. It returns the path of that file.
func StartGenerator(ctx context.Context, codeParser GoCodeParser, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		directory, err := os.Getwd()
		if err != nil {
			return "", err
		}
		outputDir = directory
	}
	funcSources := opts.CodeDirs
	if len(funcSources) == 0 {
		funcSources = []string{outputDir}
	}

	output := &Output{CustomTypes: make(map[string]*CustomType), StoryRoot: opts.StoryRoot}
	for _, source := range funcSources {
		recursively, err := codeParser.ParseFunctionCommentsOfGoFilesInDirectoryRecursively(ctx, source)
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", source, err)
		}
		logger.Debug("parsed step functions", "dir", source,
			"steps", len(recursively.StepFunctions), "hooks", len(recursively.HookFunctions))
		output.Merge(recursively)
	}

	// Detect package name and full import path of the output directory
	pkgName, pkgPath, detectErr := detectPackage(outputDir)
	if detectErr != nil {
		logger.Warn("could not detect package", "dir", outputDir, "error", detectErr)
	}
	output.PackageName = pkgName
	output.CurrentPackagePath = pkgPath

	path := filepath.Join(outputDir, OutputFile)
	create, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer create.Close()
	if err := output.Generate(create); err != nil {
		return "", err
	}
	logger.Info("generated runner", "file", path, "steps", len(output.StepFunctions))

	return path, nil
}

// detectPackage detects the Go package name from Go files in dir and the
// full import path by combining the module path from go.mod with the
// relative directory.
func detectPackage(dir string) (pkgName string, pkgPath string, err error) {
	// 1. Detect package name from Go files in dir
	pkgName, err = detectPackageName(dir)
	if err != nil {
		return "", "", err
	}

	// 2. Detect full import path from go.mod
	pkgPath, err = DetectImportPath(dir)
	if err != nil {
		return pkgName, "", err
	}

	return pkgName, pkgPath, nil
}

// detectPackageName detects the Go package name for the given directory.
// It first tries to read the package clause from existing Go files.
// If no Go files exist, it falls back to deriving the name from the directory
// path (or the module path for the module root).
func detectPackageName(dir string) (string, error) {
	fset := token.NewFileSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		// Skip test files, the generated one included
		if strings.HasSuffix(name, "_test.go") {
			continue
		}

		filePath := filepath.Join(dir, name)
		f, parseErr := parser.ParseFile(fset, filePath, nil, parser.PackageClauseOnly)
		if parseErr != nil {
			continue
		}
		if f.Name != nil && f.Name.Name != "" {
			return f.Name.Name, nil
		}
	}

	// No Go files found â€” derive package name from directory or module path.
	return packageNameFromDir(dir)
}

// packageNameFromDir derives a valid Go package name from the directory path.
// At the module root it uses the last segment of the module path from go.mod.
// Otherwise it uses the directory name, sanitising characters that are invalid
// in Go identifiers (hyphens, dots, etc.).
func packageNameFromDir(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	// Try to use the module path when we're at the module root.
	goModPath := filepath.Join(absDir, "go.mod")
	if data, readErr := os.ReadFile(goModPath); readErr == nil {
		modFile, parseErr := modfile.Parse(goModPath, data, nil)
		if parseErr == nil && modFile.Module != nil {
			base := filepath.Base(modFile.Module.Mod.Path)
			if name := sanitizePackageName(base); name != "" {
				return name, nil
			}
		}
	}

	// Fall back to the directory name.
	base := filepath.Base(absDir)
	if name := sanitizePackageName(base); name != "" {
		return name, nil
	}

	return "", fmt.Errorf("cannot derive package name from directory %s", dir)
}

// sanitizePackageName turns a raw name (directory segment or module path
// segment) into a valid Go package name. Invalid characters such as hyphens
// and dots are replaced with underscores, and leading digits are prefixed
// with an underscore.
func sanitizePackageName(raw string) string {
	if raw == "" || raw == "." || raw == "/" {
		return ""
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			// Go package names are conventionally lowercase.
			b.WriteRune(r - 'A' + 'a')
		case r == '-' || r == '.':
			if i == 0 {
				continue // drop leading separator
			}
			b.WriteRune('_')
		default:
			// Drop other characters.
		}
	}

	name := b.String()
	if name == "" {
		return ""
	}
	// A package name must not start with a digit.
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// DetectImportPath walks up from dir looking for go.mod, then computes the
// full import path as module_path + relative_directory.
func DetectImportPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	// Walk up looking for go.mod
	current := absDir
	for {
		goModPath := filepath.Join(current, "go.mod")
		data, readErr := os.ReadFile(goModPath)
		if readErr == nil {
			modFile, parseErr := modfile.Parse(goModPath, data, nil)
			if parseErr != nil {
				return "", fmt.Errorf("cannot parse go.mod: %w", parseErr)
			}

			modulePath := modFile.Module.Mod.Path
			rel, relErr := filepath.Rel(current, absDir)
			if relErr != nil {
				return "", relErr
			}

			if rel == "." {
				return modulePath, nil
			}
			return modulePath + "/" + filepath.ToSlash(rel), nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		current = parent
	}
}
