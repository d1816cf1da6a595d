package prompt

type ModelID string

const (
	Midjourney      ModelID = "midjourney"
	Nijijourney     ModelID = "nijijourney"
	Gemini          ModelID = "gemini"
	DALLE           ModelID = "dalle"
	Nanobanana      ModelID = "nanobanana"
	NanobananaThumb ModelID = "nanobanana-thumb"
	Firefly         ModelID = "firefly"
)

// Variant is the rendering family used by the formatter.
type Variant int

const (
	VariantNatural Variant = iota
	VariantKeywordParametric
	VariantStructuredVersioned
	VariantPlainKeyword
	VariantBilingualParametric
)

type Features struct {
	AspectRatio      bool `json:"aspectRatio"`
	NegativePrompt   bool `json:"negativePrompt"`
	VersionParameter bool `json:"versionParameter"`
	JapaneseOutput   bool `json:"japaneseOutput"`
	ThumbnailText    bool `json:"thumbnailText"`
}

type Model struct {
	ID          ModelID  `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Group       string   `json:"group"`
	Variant     Variant  `json:"-"`
	Features    Features `json:"features"`
}

type ModelGroup struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Models      []ModelID `json:"models"`
}

var models = []Model{
	{
		ID: Midjourney, Name: "Midjourney", DisplayName: "Midjourney", Group: "general",
		Variant:  VariantKeywordParametric,
		Features: Features{AspectRatio: true, NegativePrompt: true},
	},
	{
		ID: Nijijourney, Name: "nijijourney", DisplayName: "nijijourney", Group: "general",
		Variant:  VariantStructuredVersioned,
		Features: Features{AspectRatio: true, NegativePrompt: true, VersionParameter: true},
	},
	{
		ID: Gemini, Name: "Gemini Imagen", DisplayName: "Gemini Imagen", Group: "general",
		Variant:  VariantNatural,
		Features: Features{AspectRatio: true},
	},
	{
		ID: DALLE, Name: "ChatGPT DALL-E", DisplayName: "DALL-E", Group: "general",
		Variant:  VariantNatural,
		Features: Features{AspectRatio: true},
	},
	{
		ID: Nanobanana, Name: "Nanobanana Pro", DisplayName: "Nanobanana Pro (画像)", Group: "nanobanana",
		Variant:  VariantBilingualParametric,
		Features: Features{AspectRatio: true, NegativePrompt: true, JapaneseOutput: true},
	},
	{
		ID: NanobananaThumb, Name: "Nanobanana Pro", DisplayName: "Nanobanana Pro (サムネイル)", Group: "nanobanana",
		Variant:  VariantBilingualParametric,
		Features: Features{AspectRatio: true, NegativePrompt: true, JapaneseOutput: true, ThumbnailText: true},
	},
	{
		ID: Firefly, Name: "Adobe Firefly", DisplayName: "Adobe Firefly", Group: "other",
		Variant:  VariantPlainKeyword,
		Features: Features{AspectRatio: true},
	},
}

var modelGroups = []ModelGroup{
	{ID: "general", Label: "一般画像生成", Description: "Midjourney、DALL-E など", Models: []ModelID{Midjourney, Nijijourney, Gemini, DALLE}},
	{ID: "nanobanana", Label: "Nanobanana Pro", Description: "サムネイル特化・日本語対応", Models: []ModelID{Nanobanana, NanobananaThumb}},
	{ID: "other", Label: "その他", Description: "Adobe Firefly", Models: []ModelID{Firefly}},
}

func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

func ModelGroups() []ModelGroup {
	out := make([]ModelGroup, len(modelGroups))
	copy(out, modelGroups)
	return out
}

func LookupModel(id ModelID) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// VariantOf falls back to the natural-language variant for unknown ids.
func VariantOf(id ModelID) Variant {
	if m, ok := LookupModel(id); ok {
		return m.Variant
	}
	return VariantNatural
}

// ThumbnailOnly reports whether the model browses only thumbnail groups.
func ThumbnailOnly(id ModelID) bool {
	m, ok := LookupModel(id)
	return ok && m.Features.ThumbnailText
}

type Language string

const (
	LanguageEN Language = "en"
	LanguageJA Language = "ja"
)

// ParseLanguage maps anything but "ja" to the default language.
func ParseLanguage(s string) Language {
	if Language(s) == LanguageJA {
		return LanguageJA
	}
	return LanguageEN
}

func (l Language) Localized() bool {
	return l == LanguageJA
}
