package gacha

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"arive-prompt-bot/internal/prompt"
)

var ErrUnknownMode = errors.New("unknown gacha mode")

type Mode string

const (
	Person     Mode = "person"
	Background Mode = "background"
	Texture    Mode = "texture"
)

// Profile describes how one mode draws: every required category gets one
// option, then OptionalCount categories are picked from Optional.
type Profile struct {
	Mode          Mode     `json:"mode"`
	Label         string   `json:"label"`
	Icon          string   `json:"icon"`
	Required      []string `json:"required"`
	Optional      []string `json:"optional"`
	OptionalCount int      `json:"optionalCount"`
}

var profiles = []Profile{
	{
		Mode:          Person,
		Label:         "人物",
		Icon:          "👤",
		Required:      []string{"gender-count", "age", "clothing-genre"},
		Optional:      []string{"hairstyle", "hair-color", "clothing-color", "pose", "gaze", "body-type", "accessory"},
		OptionalCount: 3,
	},
	{
		Mode:     Background,
		Label:    "背景素材",
		Icon:     "🌄",
		Required: []string{"bg-type"},
		Optional: []string{
			"bg-color", "bg-indoor", "bg-indoor-style", "bg-outdoor-urban", "bg-building",
			"bg-nature", "bg-water", "bg-sky", "bg-weather", "bg-time",
			"bg-lighting", "bg-atmosphere", "bg-season",
		},
		OptionalCount: 4,
	},
	{
		Mode:  Texture,
		Label: "テクスチャ",
		Icon:  "🎨",
		Optional: []string{
			"texture-material", "texture-material-soft", "texture-material-metal", "texture-material-other",
			"texture-nature", "texture-pattern", "texture-pattern-geo", "texture-pattern-decorative",
			"texture-pattern-japanese", "texture-effect", "texture-surface", "texture-light",
			"texture-abstract",
		},
		OptionalCount: 3,
	},
}

func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

func LookupProfile(mode Mode) (Profile, error) {
	for _, p := range profiles {
		if p.Mode == mode {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

type Request struct {
	Mode Mode
	// Current is the selection locked categories are copied from.
	Current  prompt.Selection
	Locked   []string
	Excluded Exclusions
}

// Draw picks a random selection for the mode. Every locked category is
// copied from Current, whether or not the profile draws it, and locked
// categories do not count toward OptionalCount. Excluded options are never
// drawn; optional categories with no drawable option are left out of the
// pool before OptionalCount are picked.
func Draw(c prompt.Catalog, rng *rand.Rand, req Request) (prompt.Selection, error) {
	p, err := LookupProfile(req.Mode)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand()
	}

	out := prompt.Selection{}
	locked := make(map[string]bool, len(req.Locked))
	for _, id := range req.Locked {
		locked[id] = true
		out = prompt.SetCategoryOptions(out, id, req.Current[id])
	}

	for _, categoryID := range p.Required {
		if locked[categoryID] {
			continue
		}
		if opt, ok := pickOption(c, rng, categoryID, req.Excluded); ok {
			out = prompt.SetCategoryOptions(out, categoryID, []string{opt})
		}
	}

	pool := make([]string, 0, len(p.Optional))
	for _, categoryID := range p.Optional {
		if locked[categoryID] || !hasCandidate(c, categoryID, req.Excluded) {
			continue
		}
		pool = append(pool, categoryID)
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for _, categoryID := range pool[:min(p.OptionalCount, len(pool))] {
		if opt, ok := pickOption(c, rng, categoryID, req.Excluded); ok {
			out = prompt.SetCategoryOptions(out, categoryID, []string{opt})
		}
	}
	return out, nil
}

func pickOption(c prompt.Catalog, rng *rand.Rand, categoryID string, excluded Exclusions) (string, bool) {
	cat, ok := c.Category(categoryID)
	if !ok {
		return "", false
	}
	candidates := make([]string, 0, len(cat.Options))
	for _, opt := range cat.Options {
		if excluded.Has(categoryID, opt.ID) {
			continue
		}
		candidates = append(candidates, opt.ID)
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rng.IntN(len(candidates))], true
}

func hasCandidate(c prompt.Catalog, categoryID string, excluded Exclusions) bool {
	cat, ok := c.Category(categoryID)
	if !ok {
		return false
	}
	for _, opt := range cat.Options {
		if !excluded.Has(categoryID, opt.ID) {
			return true
		}
	}
	return false
}

// NewRand returns a PCG source seeded from the runtime's random state.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
