package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default_catalog.toml
var defaultCatalogTOML string

// Criterion is one fixed dimension of evaluation, scored 1..5.
type Criterion struct {
	Name string `toml:"name"`
	Hint string `toml:"hint"`
}

// Theme groups an ordered set of video assets under a topic name.
type Theme struct {
	Name   string   `toml:"name"`
	Videos []string `toml:"videos"`
}

type fileLayout struct {
	Themes       []Theme           `toml:"themes"`
	Criteria     []Criterion       `toml:"criteria"`
	DisplayNames map[string]string `toml:"display_names"`
}

// Catalog holds the static survey material: themes with their video assets,
// the shared criteria list, and optional human-readable asset names.
type Catalog struct {
	themes       []Theme
	themeIndex   map[string]int
	criteria     []Criterion
	displayNames map[string]string
}

// Load reads a catalog from a TOML file. An empty path returns the embedded
// default catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(data)
}

// Default returns the embedded catalog shipped with the repository.
func Default() *Catalog {
	cat, err := parse([]byte(defaultCatalogTOML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog invalid: %v", err))
	}
	return cat
}

func parse(data []byte) (*Catalog, error) {
	var layout fileLayout
	if err := toml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return build(layout)
}

func build(layout fileLayout) (*Catalog, error) {
	if len(layout.Themes) == 0 {
		return nil, errors.New("catalog: no themes defined")
	}
	if len(layout.Criteria) == 0 {
		return nil, errors.New("catalog: no criteria defined")
	}

	themeIndex := make(map[string]int, len(layout.Themes))
	seenVideos := make(map[string]string)
	for i, theme := range layout.Themes {
		name := strings.TrimSpace(theme.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: theme %d has no name", i)
		}
		if _, ok := themeIndex[name]; ok {
			return nil, fmt.Errorf("catalog: duplicate theme %q", name)
		}
		if len(theme.Videos) == 0 {
			return nil, fmt.Errorf("catalog: theme %q has no videos", name)
		}
		for _, video := range theme.Videos {
			if strings.TrimSpace(video) == "" {
				return nil, fmt.Errorf("catalog: theme %q contains an empty video id", name)
			}
			if owner, ok := seenVideos[video]; ok {
				return nil, fmt.Errorf("catalog: video %q appears in both %q and %q", video, owner, name)
			}
			seenVideos[video] = name
		}
		themeIndex[name] = i
	}

	for i, criterion := range layout.Criteria {
		if strings.TrimSpace(criterion.Name) == "" {
			return nil, fmt.Errorf("catalog: criterion %d has no name", i)
		}
	}

	displayNames := layout.DisplayNames
	if displayNames == nil {
		displayNames = map[string]string{}
	}

	return &Catalog{
		themes:       layout.Themes,
		themeIndex:   themeIndex,
		criteria:     layout.Criteria,
		displayNames: displayNames,
	}, nil
}

// ThemeNames returns theme names in catalog order.
func (c *Catalog) ThemeNames() []string {
	names := make([]string, len(c.themes))
	for i, theme := range c.themes {
		names[i] = theme.Name
	}
	return names
}

// Theme looks up a theme by name.
func (c *Catalog) Theme(name string) (Theme, bool) {
	idx, ok := c.themeIndex[name]
	if !ok {
		return Theme{}, false
	}
	return c.themes[idx], true
}

// Criteria returns the shared criteria list, identical for every theme.
func (c *Catalog) Criteria() []Criterion {
	cp := make([]Criterion, len(c.criteria))
	copy(cp, c.criteria)
	return cp
}

// CriteriaCount returns the number of criteria each video is rated on.
func (c *Catalog) CriteriaCount() int {
	return len(c.criteria)
}

// DisplayName resolves the human-readable name for a video asset. Assets
// without an entry in the lookup table fall back to their raw identifier.
func (c *Catalog) DisplayName(videoID string) string {
	if name, ok := c.displayNames[videoID]; ok {
		return name
	}
	return videoID
}

// Unfinished filters the catalog's themes down to those the user has not
// completed, preserving catalog order.
func (c *Catalog) Unfinished(completed []string) []string {
	done := make(map[string]struct{}, len(completed))
	for _, theme := range completed {
		done[theme] = struct{}{}
	}
	var unfinished []string
	for _, theme := range c.themes {
		if _, ok := done[theme.Name]; !ok {
			unfinished = append(unfinished, theme.Name)
		}
	}
	return unfinished
}
