package prompt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arive-prompt-bot/internal/catalog"
)

const testCatalogYAML = `
main_groups:
  - {id: main, label: Main, order: 1}
  - {id: thumb, label: Thumb, order: 0, thumbnail: true}
roles:
  aspect_ratio: ar
  negative: [neg]
  person_presence: presence
  no_person_option: nobody
  suppressed_when_no_person: [expression]
categories:
  - id: subject
    main_group: main
    prompt_order: 1
    options:
      - {id: woman, prompt: a woman, prompt_ja: 女性}
  - id: face
    main_group: main
    prompt_order: 2
    options:
      - {id: smile, prompt: smiling}
  - id: style
    main_group: main
    prompt_order: 2
    options:
      - id: photo
        prompt: photorealistic
        prompt_ja: 写真風
        model_overrides: {midjourney: "photorealistic, 35mm"}
  - id: ar
    main_group: main
    options:
      - {id: wide, prompt: "16:9"}
      - {id: square, prompt: "1:1"}
  - id: neg
    main_group: main
    options:
      - {id: blurry, prompt: blurry, prompt_ja: ぼやけ}
      - {id: lowq, prompt: low quality}
  - id: presence
    main_group: thumb
    prompt_order: 5
    options:
      - {id: nobody, prompt: no people}
      - {id: one, prompt: one person}
  - id: expression
    main_group: thumb
    prompt_order: 6
    options:
      - {id: surprised, prompt: surprised face}
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)
	return c
}

func texts(fragments []Fragment) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, f.Text)
	}
	return out
}

func TestResolveOrdersByPromptOrder(t *testing.T) {
	c := testCatalog(t)
	sel := Selection{
		"style":   {"photo"},
		"face":    {"smile"},
		"subject": {"woman"},
	}

	fragments, negatives := Resolve(c, sel, ResolveOptions{Model: Firefly})
	assert.Empty(t, negatives)
	// face and style share prompt order 2 and come out in id order.
	assert.Equal(t, []string{"a woman", "smiling", "photorealistic"}, texts(fragments))
}

func TestResolveIsDeterministic(t *testing.T) {
	c := testCatalog(t)
	sel := Selection{
		"style":   {"photo"},
		"face":    {"smile"},
		"subject": {"woman"},
		"neg":     {"blurry", "lowq"},
	}
	opts := ResolveOptions{Model: Midjourney, ShowNegative: true}

	wantFragments, wantNegatives := Resolve(c, sel, opts)
	for i := 0; i < 20; i++ {
		gotFragments, gotNegatives := Resolve(c, sel.Clone(), opts)
		if diff := cmp.Diff(wantFragments, gotFragments); diff != "" {
			t.Fatalf("fragments differ (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(wantNegatives, gotNegatives); diff != "" {
			t.Fatalf("negatives differ (-want +got):\n%s", diff)
		}
	}
}

func TestResolveTextPrecedence(t *testing.T) {
	c := testCatalog(t)
	sel := Selection{"style": {"photo"}}

	tests := []struct {
		name  string
		model ModelID
		lang  Language
		want  string
	}{
		{name: "default", model: Firefly, lang: LanguageEN, want: "photorealistic"},
		{name: "override", model: Midjourney, lang: LanguageEN, want: "photorealistic, 35mm"},
		{name: "localized beats override", model: Midjourney, lang: LanguageJA, want: "写真風"},
		{name: "localized", model: Nanobanana, lang: LanguageJA, want: "写真風"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments, _ := Resolve(c, sel, ResolveOptions{Model: tt.model, Language: tt.lang})
			assert.Equal(t, []string{tt.want}, texts(fragments))
		})
	}
}

func TestResolveEmptyOverrideReplacesDefault(t *testing.T) {
	c, err := catalog.Parse([]byte(`
main_groups:
  - {id: main, label: Main, order: 1}
categories:
  - id: finish
    main_group: main
    options:
      - {id: matte, prompt: matte finish, model_overrides: {firefly: ""}}
`))
	require.NoError(t, err)
	sel := Selection{"finish": {"matte"}}

	fragments, _ := Resolve(c, sel, ResolveOptions{Model: Firefly})
	assert.Equal(t, []string{""}, texts(fragments))

	fragments, _ = Resolve(c, sel, ResolveOptions{Model: Midjourney})
	assert.Equal(t, []string{"matte finish"}, texts(fragments))
}

func TestResolveNegativeGating(t *testing.T) {
	c := testCatalog(t)
	sel := Selection{"subject": {"woman"}, "neg": {"blurry", "lowq"}}

	fragments, negatives := Resolve(c, sel, ResolveOptions{Model: Nanobanana})
	assert.Equal(t, []string{"a woman"}, texts(fragments))
	assert.Empty(t, negatives)

	fragments, negatives = Resolve(c, sel, ResolveOptions{Model: Nanobanana, ShowNegative: true, Language: LanguageJA})
	assert.Equal(t, []string{"女性"}, texts(fragments))
	assert.Equal(t, []string{"ぼやけ", "low quality"}, negatives)
}

func TestResolveNoPersonSuppression(t *testing.T) {
	c := testCatalog(t)

	withPerson := Selection{"presence": {"one"}, "expression": {"surprised"}}
	fragments, _ := Resolve(c, withPerson, ResolveOptions{})
	assert.Equal(t, []string{"one person", "surprised face"}, texts(fragments))

	noPerson := Selection{"presence": {"nobody"}, "expression": {"surprised"}}
	fragments, _ = Resolve(c, noPerson, ResolveOptions{})
	assert.Equal(t, []string{"no people"}, texts(fragments))
}

func TestResolveSkipsAspectRatioAndUnknownIDs(t *testing.T) {
	c := testCatalog(t)

	clean := Selection{"subject": {"woman"}, "ar": {"wide"}}
	noisy := Selection{
		"subject": {"woman", "ghost"},
		"ar":      {"wide"},
		"missing": {"anything"},
	}

	wantFragments, wantNegatives := Resolve(c, clean, ResolveOptions{ShowNegative: true})
	gotFragments, gotNegatives := Resolve(c, noisy, ResolveOptions{ShowNegative: true})
	assert.Equal(t, []string{"a woman"}, texts(gotFragments))
	assert.Equal(t, wantFragments, gotFragments)
	assert.Equal(t, wantNegatives, gotNegatives)
}

func TestExtractAspectRatio(t *testing.T) {
	c := testCatalog(t)

	ar, ok := ExtractAspectRatio(c, Selection{"ar": {"square", "wide"}})
	assert.True(t, ok)
	assert.Equal(t, "1:1", ar)

	_, ok = ExtractAspectRatio(c, Selection{"subject": {"woman"}})
	assert.False(t, ok)

	_, ok = ExtractAspectRatio(c, Selection{"ar": {"unknown"}})
	assert.False(t, ok)
}

func TestFormatKeywordParametricAspectOnly(t *testing.T) {
	res := Format(FormatInput{Model: Midjourney, AspectRatio: "16:9"})
	assert.Equal(t, "--ar 16:9", res.FullPrompt)
	assert.Equal(t, "--ar 16:9", res.Parameters)
	assert.Empty(t, res.Main)
}

func TestFormatKeywordParametric(t *testing.T) {
	res := Format(FormatInput{
		Model:       Midjourney,
		Fragments:   []Fragment{{Text: "a woman"}, {Text: "smiling"}},
		Negatives:   []string{"blurry", "text"},
		AspectRatio: "16:9",
	})
	assert.Equal(t, Result{
		Main:       "a woman, smiling",
		Negative:   "--no blurry, text",
		Parameters: "--ar 16:9",
		FullPrompt: "a woman, smiling --ar 16:9 --no blurry, text",
	}, res)
}

func TestFormatPlainJoinsFreeText(t *testing.T) {
	res := Format(FormatInput{
		Model:     Firefly,
		Fragments: []Fragment{{Text: "a woman", PromptOrder: 1}, {Text: "smiling", PromptOrder: 2}},
		FreeText:  "  holding a cup ",
	})
	assert.Equal(t, "a woman, smiling, holding a cup", res.FullPrompt)
	assert.Equal(t, res.Main, res.FullPrompt)
}

func TestFormatStructuredVersioned(t *testing.T) {
	res := Format(FormatInput{
		Model:       Nijijourney,
		Fragments:   []Fragment{{Text: "anime girl"}},
		Negatives:   []string{"blurry"},
		AspectRatio: "9:16",
	})
	assert.Equal(t, "--v 7 --ar 9:16", res.Parameters)
	assert.Equal(t, "blurry", res.Negative)
	assert.Equal(t, "is_anime_or_oriental_aesthetic_style: true\nanime girl --v 7 --ar 9:16 --no blurry", res.FullPrompt)

	res = Format(FormatInput{Model: Nijijourney, Fragments: []Fragment{{Text: "anime girl"}}})
	assert.Equal(t, "is_anime_or_oriental_aesthetic_style: true\nanime girl --v 7", res.FullPrompt)
}

func TestFormatBilingual(t *testing.T) {
	res := Format(FormatInput{
		Model:     Nanobanana,
		Language:  LanguageJA,
		Fragments: []Fragment{{Text: "a woman"}},
		Negatives: []string{"blurry", "low quality"},
	})
	assert.Equal(t, "ポジティブ: a woman\n\nネガティブ: blurry, low quality", res.FullPrompt)

	res = Format(FormatInput{
		Model:       Nanobanana,
		Language:    LanguageEN,
		Fragments:   []Fragment{{Text: "a woman"}},
		Negatives:   []string{"blurry"},
		AspectRatio: "16:9",
	})
	assert.Equal(t, "Positive: a woman --ar 16:9\n\nNegative: blurry", res.FullPrompt)

	res = Format(FormatInput{
		Model:         NanobananaThumb,
		Fragments:     []Fragment{{Text: "gaming video thumbnail"}},
		ThumbnailText: "「GO」を中央に配置",
	})
	assert.Equal(t, "「GO」を中央に配置, gaming video thumbnail", res.FullPrompt)
}

func TestFormatUnknownModelFallsBackToNatural(t *testing.T) {
	res := Format(FormatInput{
		Model:       ModelID("unreleased"),
		Fragments:   []Fragment{{Text: "a cat"}},
		Negatives:   []string{"blurry"},
		AspectRatio: "1:1",
	})
	assert.Equal(t, Result{Main: "a cat", FullPrompt: "a cat"}, res)
}

func TestComposeThumbnailText(t *testing.T) {
	cfg := DefaultThumbnailText()
	cfg.Lines[0] = TextLine{Text: "SALE", Vertical: Top, Horizontal: Right}
	assert.Equal(t, "「SALE」を上右に配置、大きく太い文字、白い縁取り付き、視認性の高いテキスト", ComposeThumbnailText(cfg))

	cfg.LineCount = 3
	cfg.Lines[1] = TextLine{Text: "  50% OFF ", Vertical: Bottom, Horizontal: HCenter}
	cfg.Lines[2] = TextLine{Text: "today", Vertical: VCenter, Horizontal: Left}
	got := ComposeThumbnailText(cfg)
	assert.True(t, strings.HasPrefix(got, "「SALE」を上右に、「50% OFF」を下に、「today」を左に配置、"), got)
}

func TestComposeThumbnailTextEdges(t *testing.T) {
	cfg := DefaultThumbnailText()
	assert.Empty(t, ComposeThumbnailText(cfg))

	cfg.Lines[1].Text = "hidden"
	assert.Empty(t, ComposeThumbnailText(cfg), "inactive lines are ignored")

	cfg.LineCount = 99
	assert.Contains(t, ComposeThumbnailText(cfg), "「hidden」を中央に")

	cfg.LineCount = -1
	assert.Empty(t, ComposeThumbnailText(cfg))

	assert.Equal(t, "中央", positionLabel("", ""))
	assert.Equal(t, "下左", positionLabel(Bottom, Left))
}

func TestGenerateSentinel(t *testing.T) {
	c := testCatalog(t)

	_, ok := Generate(c, Request{Model: Midjourney})
	assert.False(t, ok)

	_, ok = Generate(c, Request{Model: Midjourney, Selection: Selection{"ar": {"wide"}}, FreeText: "   "})
	assert.False(t, ok, "aspect ratio alone is not a prompt")

	thumb := DefaultThumbnailText()
	_, ok = Generate(c, Request{Model: NanobananaThumb, ThumbnailText: &thumb})
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	c := testCatalog(t)

	res, ok := Generate(c, Request{
		Model:        Midjourney,
		Selection:    Selection{"subject": {"woman"}, "ar": {"wide"}, "neg": {"blurry"}},
		ShowNegative: true,
		FreeText:     "at night",
	})
	require.True(t, ok)
	assert.Equal(t, "a woman, at night --ar 16:9 --no blurry", res.FullPrompt)

	res, ok = Generate(c, Request{Model: Firefly, FreeText: "just text"})
	require.True(t, ok)
	assert.Equal(t, "just text", res.FullPrompt)
}

func TestGenerateThumbnailTextOnlyForThumbnailModel(t *testing.T) {
	c := testCatalog(t)
	thumb := DefaultThumbnailText()
	thumb.Lines[0].Text = "NEW"

	res, ok := Generate(c, Request{Model: NanobananaThumb, ThumbnailText: &thumb})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(res.FullPrompt, "「NEW」を中央に配置、"))

	_, ok = Generate(c, Request{Model: Nanobanana, ThumbnailText: &thumb})
	assert.False(t, ok)
}

func TestGenerateWithDefaultCatalog(t *testing.T) {
	res, ok := Generate(catalog.Default(), Request{
		Model:     Midjourney,
		Selection: Selection{"gender-count": {"woman-1"}, "art-style": {"style-photo"}, "aspect-ratio": {"ar-16-9"}},
	})
	require.True(t, ok)
	assert.Equal(t, "a woman, photorealistic, shot on 35mm film --ar 16:9", res.FullPrompt)
}
