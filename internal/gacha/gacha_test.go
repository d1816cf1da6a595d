package gacha

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/prompt"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestDrawShape(t *testing.T) {
	c := catalog.Default()

	for _, p := range Profiles() {
		t.Run(string(p.Mode), func(t *testing.T) {
			for seed := uint64(0); seed < 50; seed++ {
				sel, err := Draw(c, seeded(seed), Request{Mode: p.Mode})
				require.NoError(t, err)

				for _, id := range p.Required {
					require.Len(t, sel[id], 1, "required %s", id)
				}

				optional := 0
				for categoryID, ids := range sel {
					require.Len(t, ids, 1)
					_, ok := c.Option(categoryID, ids[0])
					require.True(t, ok, "%s:%s", categoryID, ids[0])
					if contains(p.Optional, categoryID) {
						optional++
					}
				}
				assert.Equal(t, p.OptionalCount, optional)
			}
		})
	}
}

func TestDrawIsReproducible(t *testing.T) {
	c := catalog.Default()
	a, err := Draw(c, seeded(42), Request{Mode: Background})
	require.NoError(t, err)
	b, err := Draw(c, seeded(42), Request{Mode: Background})
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed, different draw (-a +b):\n%s", diff)
	}
}

func TestDrawUnknownMode(t *testing.T) {
	_, err := Draw(catalog.Default(), seeded(1), Request{Mode: "vehicle"})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestDrawHonorsExclusions(t *testing.T) {
	c := catalog.Default()

	ex := Exclusions{}
	cat, ok := c.Category("gender-count")
	require.True(t, ok)
	for _, opt := range cat.Options[1:] {
		ex = ex.Toggle("gender-count", opt.ID)
	}
	ex = ex.Toggle("age", "age-child")

	for seed := uint64(0); seed < 100; seed++ {
		sel, err := Draw(c, seeded(seed), Request{Mode: Person, Excluded: ex})
		require.NoError(t, err)
		assert.Equal(t, []string{cat.Options[0].ID}, sel["gender-count"])
		assert.False(t, ex.Has("age", sel["age"][0]))
	}
}

func TestDrawSkipsFullyExcludedCategory(t *testing.T) {
	c := catalog.Default()
	ex := Exclusions{}
	cat, _ := c.Category("bg-type")
	for _, opt := range cat.Options {
		ex = ex.Toggle("bg-type", opt.ID)
	}

	sel, err := Draw(c, seeded(3), Request{Mode: Background, Excluded: ex})
	require.NoError(t, err)
	_, present := sel["bg-type"]
	assert.False(t, present)
}

func TestDrawFillsOptionalCountAroundExcludedCategories(t *testing.T) {
	c := catalog.Default()
	p, err := LookupProfile(Texture)
	require.NoError(t, err)

	drawable := p.Optional[:p.OptionalCount]
	ex := Exclusions{}
	for _, categoryID := range p.Optional[p.OptionalCount:] {
		cat, ok := c.Category(categoryID)
		require.True(t, ok, categoryID)
		for _, opt := range cat.Options {
			ex = ex.Toggle(categoryID, opt.ID)
		}
	}

	for seed := uint64(0); seed < 50; seed++ {
		sel, err := Draw(c, seeded(seed), Request{Mode: Texture, Excluded: ex})
		require.NoError(t, err)
		assert.ElementsMatch(t, drawable, sel.Keys(), "seed %d", seed)
	}
}

func TestDrawKeepsLockedCategoriesOutsideProfile(t *testing.T) {
	current := prompt.Selection{"hairstyle": {"hair-bob"}, "bg-type": {"bg-type-solid"}}

	sel, err := Draw(catalog.Default(), seeded(9), Request{
		Mode:    Background,
		Current: current,
		Locked:  []string{"hairstyle"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hair-bob"}, sel["hairstyle"])
	assert.Len(t, sel["bg-type"], 1)
}

func TestDrawKeepsLockedCategories(t *testing.T) {
	c := catalog.Default()
	current := prompt.Selection{
		"age":       {"age-elderly"},
		"hairstyle": {"hair-bob", "hair-curly"},
		"pose":      {"pose-peace"},
	}
	locked := []string{"age", "hairstyle", "gaze"}

	for seed := uint64(0); seed < 30; seed++ {
		sel, err := Draw(c, seeded(seed), Request{Mode: Person, Current: current, Locked: locked})
		require.NoError(t, err)

		assert.Equal(t, []string{"age-elderly"}, sel["age"])
		assert.Equal(t, []string{"hair-bob", "hair-curly"}, sel["hairstyle"])
		_, gaze := sel["gaze"]
		assert.False(t, gaze, "locked but empty category stays empty")

		drawn := 0
		for categoryID := range sel {
			if contains(Profiles()[0].Optional, categoryID) && categoryID != "hairstyle" {
				drawn++
			}
		}
		assert.Equal(t, 3, drawn)
	}
}

func TestExclusions(t *testing.T) {
	var ex Exclusions
	ex = ex.Toggle("pose", "pose-peace")
	ex = ex.Toggle("pose", "pose-walking")
	ex = ex.Toggle("age", "age-child")

	assert.True(t, ex.Has("pose", "pose-peace"))
	assert.Equal(t, 3, ex.Count())
	assert.Equal(t, []string{"age:age-child", "pose:pose-peace", "pose:pose-walking"}, ex.Keys())

	ex = ex.Toggle("age", "age-child")
	_, present := ex["age"]
	assert.False(t, present)

	ex.ClearCategory("pose")
	assert.Zero(t, ex.Count())

	ex = ex.Toggle("gaze", "gaze-up")
	ex.Clear()
	assert.Empty(t, ex.Keys())
}

func TestParseKeys(t *testing.T) {
	ex := ParseKeys([]string{"pose:pose-peace", "bad", ":x", "pose:pose-peace", "age:age-teen"})
	assert.Equal(t, Exclusions{"pose": {"pose-peace"}, "age": {"age-teen"}}, ex)
	assert.Equal(t, ex, ParseKeys(ex.Keys()))
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
