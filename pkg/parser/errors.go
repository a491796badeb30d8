package parser

import (
	"errors"
	"fmt"
)

// ErrStoryParse matches every ParseError.
var ErrStoryParse = errors.New("story parse failed")

// ParseError reports the story and section that could not be parsed.
type ParseError struct {
	Path    string
	Section string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse story %s [%s]: %v", e.Path, e.Section, e.Cause)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrStoryParse, e.Cause}
}

func parseError(path, section string, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Section: section, Cause: fmt.Errorf(format, args...)}
}
