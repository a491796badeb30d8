//go:generate mockgen -source=loader.go -destination=loader_mock.go -package=loader
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	ErrStoryNotFound        = errors.New("story not found")
	ErrInvalidStoryResource = errors.New("invalid story resource")
)

type (
	StoryLoader interface {
		LoadStoryAsText(storyPath string) (string, error)
	}

	// FS loads stories from a file system. Text is decoded from the
	// configured charset, UTF-8 by default.
	FS struct {
		fsys     fs.FS
		encoding encoding.Encoding
		charset  string
	}

	Option func(*FS) error
)

// WithEncoding decodes stories from an IANA charset such as "ISO-8859-1".
func WithEncoding(charset string) Option {
	return func(l *FS) error {
		enc, err := ianaindex.IANA.Encoding(charset)
		if err != nil {
			return fmt.Errorf("story encoding %s: %w", charset, err)
		}
		if enc == nil {
			return fmt.Errorf("story encoding %s is not supported", charset)
		}
		l.encoding, l.charset = enc, charset
		return nil
	}
}

func NewFS(fsys fs.FS, opts ...Option) (*FS, error) {
	l := &FS{fsys: fsys, charset: "UTF-8"}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Dir loads stories relative to a directory of the host file system.
func Dir(root string, opts ...Option) (*FS, error) {
	return NewFS(os.DirFS(root), opts...)
}

// FileSystem returns the file system stories are loaded from.
func (l *FS) FileSystem() fs.FS {
	return l.fsys
}

func (l *FS) LoadStoryAsText(storyPath string) (string, error) {
	name := path.Clean(strings.TrimPrefix(storyPath, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("%w: %s", ErrInvalidStoryResource, storyPath)
	}

	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrStoryNotFound, storyPath)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidStoryResource, storyPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidStoryResource, storyPath)
	}

	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidStoryResource, storyPath, err)
	}
	if l.encoding != nil {
		if data, err = l.encoding.NewDecoder().Bytes(data); err != nil {
			return "", fmt.Errorf("%w: %s is not %s: %v", ErrInvalidStoryResource, storyPath, l.charset, err)
		}
	}
	return string(bytes.TrimPrefix(data, []byte("\uFEFF"))), nil
}
