package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

var ErrInvalid = errors.New("invalid catalog")

type MainGroup struct {
	ID        string `yaml:"id" json:"id"`
	Label     string `yaml:"label" json:"label"`
	LabelJa   string `yaml:"label_ja" json:"labelJa"`
	Order     int    `yaml:"order" json:"order"`
	Thumbnail bool   `yaml:"thumbnail" json:"thumbnail,omitempty"`
}

type Option struct {
	ID              string            `yaml:"id" json:"id"`
	Label           string            `yaml:"label" json:"label"`
	Prompt          string            `yaml:"prompt" json:"prompt"`
	PromptLocalized string            `yaml:"prompt_ja" json:"promptJa,omitempty"`
	Description     string            `yaml:"description" json:"description,omitempty"`
	ModelOverrides  map[string]string `yaml:"model_overrides" json:"modelOverrides,omitempty"`
}

// Category is one selectable sub-category. SortOrder drives UI ordering;
// PromptOrder drives fragment ordering in the rendered prompt.
type Category struct {
	ID          string   `yaml:"id" json:"id"`
	MainGroup   string   `yaml:"main_group" json:"mainGroup"`
	Label       string   `yaml:"label" json:"label"`
	LabelJa     string   `yaml:"label_ja" json:"labelJa"`
	SortOrder   int      `yaml:"order" json:"order"`
	PromptOrder int      `yaml:"prompt_order" json:"promptOrder"`
	Options     []Option `yaml:"options" json:"options"`
}

type document struct {
	MainGroups []MainGroup `yaml:"main_groups"`
	Roles      RoleSpec    `yaml:"roles"`
	Categories []Category  `yaml:"categories"`
}

type Catalog struct {
	groups     []MainGroup
	categories []Category
	byID       map[string]int
	options    map[string]map[string]int
	roles      Roles
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	c := &Catalog{
		groups:     doc.MainGroups,
		categories: doc.Categories,
		byID:       make(map[string]int, len(doc.Categories)),
		options:    make(map[string]map[string]int, len(doc.Categories)),
	}

	groups := make(map[string]struct{}, len(doc.MainGroups))
	for _, g := range doc.MainGroups {
		groups[g.ID] = struct{}{}
	}

	for i, cat := range doc.Categories {
		id := strings.TrimSpace(cat.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: category #%d has no id", ErrInvalid, i)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalid, id)
		}
		if _, ok := groups[cat.MainGroup]; !ok {
			return nil, fmt.Errorf("%w: category %q references unknown main group %q", ErrInvalid, id, cat.MainGroup)
		}
		c.byID[id] = i

		opts := make(map[string]int, len(cat.Options))
		for j, opt := range cat.Options {
			if opt.ID == "" {
				return nil, fmt.Errorf("%w: category %q option #%d has no id", ErrInvalid, id, j)
			}
			if _, dup := opts[opt.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate option %q in %q", ErrInvalid, opt.ID, id)
			}
			opts[opt.ID] = j
		}
		c.options[id] = opts
	}

	roles, err := newRoles(doc.Roles)
	if err != nil {
		return nil, err
	}
	for _, id := range roles.categoryIDs() {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("%w: role references unknown category %q", ErrInvalid, id)
		}
	}
	if p := roles.PersonPresenceCategory(); p != "" {
		if _, ok := c.options[p][roles.NoPersonOption()]; !ok {
			return nil, fmt.Errorf("%w: no-person option %q missing from %q", ErrInvalid, roles.NoPersonOption(), p)
		}
	}
	c.roles = roles

	return c, nil
}

func (c *Catalog) Category(id string) (Category, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Option(categoryID, optionID string) (Option, bool) {
	i, ok := c.byID[categoryID]
	if !ok {
		return Option{}, false
	}
	j, ok := c.options[categoryID][optionID]
	if !ok {
		return Option{}, false
	}
	return c.categories[i].Options[j], true
}

func (c *Catalog) Roles() Roles {
	return c.roles
}

func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// MainGroups returns groups ordered by Order. When thumbnailOnly is set
// only thumbnail groups are returned, otherwise only the regular ones.
func (c *Catalog) MainGroups(thumbnailOnly bool) []MainGroup {
	out := make([]MainGroup, 0, len(c.groups))
	for _, g := range c.groups {
		if g.Thumbnail == thumbnailOnly {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (c *Catalog) MainGroup(id string) (MainGroup, bool) {
	for _, g := range c.groups {
		if g.ID == id {
			return g, true
		}
	}
	return MainGroup{}, false
}

func (c *Catalog) CategoriesByMain(groupID string) []Category {
	var out []Category
	for _, cat := range c.categories {
		if cat.MainGroup == groupID {
			out = append(out, cat)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}
