//go:generate mockgen -source=interfaces.go -destination=interface_mock.go -package=generator
package generator

import "context"

type (
	// GoCodeParser finds the step, hook, converter and controls functions
	// of a directory tree.
	GoCodeParser interface {
		ParseFunctionCommentsOfGoFilesInDirectoryRecursively(context.Context, string) (*Output, error)
	}
)
