package parser

import (
	"path"
	"strings"

	"github.com/denizgursoy/behave/pkg/model"
)

// Composite picks a parser by the extension of the story path.
type Composite struct {
	fallback    StoryParser
	byExtension map[string]StoryParser
}

// NewComposite returns a parser that uses fallback for unregistered
// extensions.
func NewComposite(fallback StoryParser) *Composite {
	return &Composite{fallback: fallback, byExtension: map[string]StoryParser{}}
}

// Register uses p for paths ending in ext, e.g. ".feature".
func (c *Composite) Register(ext string, p StoryParser) *Composite {
	c.byExtension[strings.ToLower(ext)] = p
	return c
}

func (c *Composite) ParseStory(text, storyPath string) (*model.Story, error) {
	if p, ok := c.byExtension[strings.ToLower(path.Ext(storyPath))]; ok {
		return p.ParseStory(text, storyPath)
	}
	return c.fallback.ParseStory(text, storyPath)
}
