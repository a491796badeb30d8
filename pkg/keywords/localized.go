package keywords

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	properties "github.com/dmotylev/goproperties"
	"golang.org/x/text/language"
)

const bundlePrefix = "keywords_"

//go:embed i18n/*.properties
var bundles embed.FS

var (
	// ErrLocalizedKeywordNotFound is returned when a bundle lacks a required key.
	ErrLocalizedKeywordNotFound = errors.New("localized keyword not found")

	// ErrBundleNotFound is returned when no bundle matches the requested locale.
	ErrBundleNotFound = errors.New("keyword bundle not found")
)

// Localized loads the built-in bundle that best matches tag.
func Localized(tag language.Tag) (*Keywords, error) {
	return LocalizedFrom(bundles, "i18n", tag)
}

// LocalizedFrom loads keywords from bundles named keywords_<lang>.properties
// found in dir of fsys. The bundle is chosen with a language matcher, so
// "it-CH" resolves to keywords_it.properties.
func LocalizedFrom(fsys fs.FS, dir string, tag language.Tag) (*Keywords, error) {
	available, files, err := availableBundles(fsys, dir)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("%w: no bundles in %s", ErrBundleNotFound, dir)
	}

	_, index, confidence := language.NewMatcher(available).Match(tag)
	if confidence == language.No {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, tag)
	}

	bundle := files[index]
	f, err := fsys.Open(bundle)
	if err != nil {
		return nil, fmt.Errorf("open keyword bundle %s: %w", bundle, err)
	}
	defer f.Close()

	props := properties.Properties{}
	if err := props.Load(f); err != nil {
		return nil, fmt.Errorf("read keyword bundle %s: %w", bundle, err)
	}

	values := make(map[Role]string, len(Required))
	for _, role := range Required {
		v, ok := props[string(role)]
		if !ok || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: %s in bundle %s", ErrLocalizedKeywordNotFound, role, path.Base(bundle))
		}
		values[role] = strings.TrimSpace(v)
	}
	return New(values)
}

// Locales lists the locales of the built-in bundles.
func Locales() []language.Tag {
	tags, _, _ := availableBundles(bundles, "i18n")
	return tags
}

// availableBundles lists bundle files with English first so that it is the
// matcher's fallback.
func availableBundles(fsys fs.FS, dir string) ([]language.Tag, []string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBundleNotFound, err)
	}

	var tags []language.Tag
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, bundlePrefix) || path.Ext(name) != ".properties" {
			continue
		}
		code := strings.TrimSuffix(strings.TrimPrefix(name, bundlePrefix), ".properties")
		tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
		if err != nil {
			continue
		}
		file := path.Join(dir, name)
		if tag == language.English {
			tags = append([]language.Tag{tag}, tags...)
			files = append([]string{file}, files...)
			continue
		}
		tags = append(tags, tag)
		files = append(files, file)
	}
	return tags, files, nil
}
