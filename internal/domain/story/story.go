// Package story loads the bilingual story catalog that feeds sequencing games.
package story

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/okian/terimu/internal/domain/sequencing"
)

// Sentinel errors for catalog lookups and parsing.
var (
	ErrStoryNotFound = errors.New("story not found")
	ErrInvalidStory  = errors.New("invalid story")
)

// Message keys shown after a completion check.
const (
	MessageIncomplete = "incomplete"
	MessageIncorrect  = "incorrect"
	MessageSuccess    = "success"
)

// Event is one card of a story, listed in the correct order.
type Event struct {
	ID    int    `yaml:"id"`
	Image string `yaml:"img"`
	Text  Text   `yaml:"text"`
}

// Story is a sequencing game definition.
type Story struct {
	ID       string          `yaml:"id"`
	Title    Text            `yaml:"title"`
	Cover    string          `yaml:"cover"`
	Prompt   Text            `yaml:"prompt"`
	Messages map[string]Text `yaml:"messages"`
	Events   []Event         `yaml:"events"`
}

// Items returns the story's cards in correct order, localized to tag.
func (s Story) Items(tag language.Tag) []sequencing.Item {
	items := make([]sequencing.Item, len(s.Events))
	for i, ev := range s.Events {
		items[i] = sequencing.Item{
			ID:    sequencing.ItemID(ev.ID),
			Text:  ev.Text.In(tag),
			Image: ev.Image,
		}
	}
	return items
}

// Message returns the localized text for a check outcome, or "".
func (s Story) Message(key string, tag language.Tag) string {
	return s.Messages[key].In(tag)
}

func (s Story) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidStory)
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("%w: %s has no events", ErrInvalidStory, s.ID)
	}
	seen := make(map[int]struct{}, len(s.Events))
	for _, ev := range s.Events {
		if _, dup := seen[ev.ID]; dup {
			return fmt.Errorf("%w: %s repeats event %d", ErrInvalidStory, s.ID, ev.ID)
		}
		seen[ev.ID] = struct{}{}
		if len(ev.Text) == 0 {
			return fmt.Errorf("%w: %s event %d has no text", ErrInvalidStory, s.ID, ev.ID)
		}
	}
	return nil
}

// Parse decodes and validates one YAML story definition.
func Parse(data []byte) (Story, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Story{}, fmt.Errorf("%w: empty definition", ErrInvalidStory)
	}
	var s Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Story{}, fmt.Errorf("%w: decode: %v", ErrInvalidStory, err)
	}
	if err := s.validate(); err != nil {
		return Story{}, err
	}
	return s, nil
}

//go:embed stories/*.yaml
var embeddedStories embed.FS

// Catalog is an immutable set of stories keyed by id.
type Catalog struct {
	stories map[string]Story
	order   []string
}

// LoadEmbedded loads the stories compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return LoadFS(embeddedStories, "stories/*.yaml")
}

// LoadFS loads every story matching pattern in fsys.
func LoadFS(fsys fs.FS, pattern string) (*Catalog, error) {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob stories: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %s", ErrInvalidStory, pattern)
	}
	slices.Sort(paths)

	stories := make([]Story, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		stories = append(stories, s)
	}
	return NewCatalog(stories...)
}

// NewCatalog builds a catalog from already parsed stories.
func NewCatalog(stories ...Story) (*Catalog, error) {
	c := &Catalog{stories: make(map[string]Story, len(stories))}
	for _, s := range stories {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.stories[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate story %s", ErrInvalidStory, s.ID)
		}
		c.stories[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	return c, nil
}

// Story returns the story with the given id.
func (c *Catalog) Story(id string) (Story, error) {
	s, ok := c.stories[id]
	if !ok {
		return Story{}, fmt.Errorf("%w: %s", ErrStoryNotFound, id)
	}
	return s, nil
}

// Stories returns every story in load order.
func (c *Catalog) Stories() []Story {
	out := make([]Story, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.stories[id])
	}
	return out
}

// Items returns the correct-order cards for a story in the given language.
func (c *Catalog) Items(id string, tag language.Tag) ([]sequencing.Item, error) {
	s, err := c.Story(id)
	if err != nil {
		return nil, err
	}
	return s.Items(tag), nil
}
