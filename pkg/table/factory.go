package table

import (
	"fmt"
	"strings"
)

// TextLoader loads a resource by path.
type TextLoader interface {
	LoadStoryAsText(path string) (string, error)
}

// Factory creates tables with shared options. Text that is a single line
// ending in ".table" is loaded through the loader, when one is set.
type Factory struct {
	opts   []Option
	loader TextLoader
}

// NewFactory returns a factory that applies opts to every table.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// WithLoader returns a copy of the factory that resolves table resources.
func (f *Factory) WithLoader(loader TextLoader) *Factory {
	return &Factory{opts: f.opts, loader: loader}
}

// WithOptions returns a copy of the factory with extra options appended.
func (f *Factory) WithOptions(opts ...Option) *Factory {
	return &Factory{opts: append(append([]Option(nil), f.opts...), opts...), loader: f.loader}
}

// Create parses text, or the resource it names, into a table.
func (f *Factory) Create(text string) (*ExamplesTable, error) {
	trimmed := strings.TrimSpace(text)
	if f.loader != nil && isResource(trimmed) {
		loaded, err := f.loader.LoadStoryAsText(trimmed)
		if err != nil {
			return nil, fmt.Errorf("load table %s: %w", trimmed, err)
		}
		text = loaded
	}
	return Parse(text, f.opts...)
}

func isResource(text string) bool {
	return text != "" && !strings.ContainsAny(text, "\n|") && strings.HasSuffix(text, ".table")
}
