package model

import (
	"strconv"
	"strings"

	"github.com/denizgursoy/behave/pkg/table"
)

type (
	// GivenStories lists the stories to run before a story or scenario.
	GivenStories struct {
		Stories []GivenStory
	}

	// GivenStory is one entry, written "path" or "path#{anchor}". A numeric
	// anchor selects an examples row whose values become parameters; an
	// anchor "name:value" keeps only scenarios with that meta property.
	GivenStory struct {
		Path       string
		Anchor     string
		Parameters map[string]string
	}
)

// ParseGivenStories reads a comma separated list of given story paths.
func ParseGivenStories(text string) GivenStories {
	var stories []GivenStory
	for _, entry := range strings.Split(text, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		stories = append(stories, ParseGivenStory(entry))
	}
	return GivenStories{Stories: stories}
}

// ParseGivenStory reads one entry.
func ParseGivenStory(entry string) GivenStory {
	entry = strings.TrimSpace(entry)
	p, anchor, found := strings.Cut(entry, "#")
	if !found {
		return GivenStory{Path: entry}
	}
	anchor = strings.TrimSpace(anchor)
	anchor = strings.TrimSuffix(strings.TrimPrefix(anchor, "{"), "}")
	return GivenStory{Path: strings.TrimSpace(p), Anchor: strings.TrimSpace(anchor)}
}

// IsEmpty reports whether there are no given stories.
func (g GivenStories) IsEmpty() bool {
	return len(g.Stories) == 0
}

// Paths returns the path of every given story.
func (g GivenStories) Paths() []string {
	paths := make([]string, len(g.Stories))
	for i, s := range g.Stories {
		paths[i] = s.Path
	}
	return paths
}

// RequireParameters reports whether an entry selects an examples row.
func (g GivenStories) RequireParameters() bool {
	for _, s := range g.Stories {
		if _, ok := s.AnchorRow(); ok {
			return true
		}
	}
	return false
}

// WithExamples returns a copy in which every row-anchored entry carries the
// values of the selected row. Entries pointing past the last row keep no
// parameters.
func (g GivenStories) WithExamples(examples *table.ExamplesTable) GivenStories {
	stories := make([]GivenStory, len(g.Stories))
	for i, s := range g.Stories {
		if row, ok := s.AnchorRow(); ok && examples != nil && row < examples.RowCount() {
			s.Parameters = examples.Row(row)
		}
		stories[i] = s
	}
	return GivenStories{Stories: stories}
}

// String writes the entries in their declared form.
func (g GivenStories) String() string {
	entries := make([]string, len(g.Stories))
	for i, s := range g.Stories {
		entries[i] = s.String()
	}
	return strings.Join(entries, ",")
}

// AnchorRow returns the examples row selected by a numeric anchor.
func (s GivenStory) AnchorRow() (int, bool) {
	if s.Anchor == "" {
		return 0, false
	}
	row, err := strconv.Atoi(s.Anchor)
	if err != nil || row < 0 {
		return 0, false
	}
	return row, true
}

// AnchorMeta returns the meta property a "name:value" anchor requires.
func (s GivenStory) AnchorMeta() (name, value string, ok bool) {
	name, value, ok = strings.Cut(s.Anchor, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), true
}

// String writes the entry in its declared form.
func (s GivenStory) String() string {
	if s.Anchor == "" {
		return s.Path
	}
	return s.Path + "#{" + s.Anchor + "}"
}
