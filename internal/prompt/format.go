package prompt

import "strings"

// Result is the rendered prompt. FullPrompt is the only field ready to paste
// into a model; the others are the reusable sub-parts.
type Result struct {
	Main       string `json:"main"`
	Negative   string `json:"negative,omitempty"`
	Parameters string `json:"parameters,omitempty"`
	FullPrompt string `json:"fullPrompt"`
}

type FormatInput struct {
	Model         ModelID
	Fragments     []Fragment
	Negatives     []string
	AspectRatio   string
	FreeText      string
	Language      Language
	ThumbnailText string
}

const (
	nijiPrefix  = "is_anime_or_oriental_aesthetic_style: true"
	nijiVersion = "--v 7"
)

type formatter func(main string, in FormatInput) Result

var formatters = map[Variant]formatter{
	VariantKeywordParametric:   formatKeywordParametric,
	VariantStructuredVersioned: formatStructuredVersioned,
	VariantPlainKeyword:        formatPlain,
	VariantNatural:             formatPlain,
	VariantBilingualParametric: formatBilingual,
}

// Format merges the free text into the joined fragments and renders the
// result with the model's variant.
func Format(in FormatInput) Result {
	texts := make([]string, 0, len(in.Fragments)+1)
	for _, f := range in.Fragments {
		texts = append(texts, f.Text)
	}
	if free := strings.TrimSpace(in.FreeText); free != "" {
		texts = append(texts, free)
	}
	main := strings.Join(texts, ", ")

	f, ok := formatters[VariantOf(in.Model)]
	if !ok {
		f = formatPlain
	}
	return f(main, in)
}

func formatKeywordParametric(main string, in FormatInput) Result {
	params := aspectParam(in.AspectRatio)
	full := joinNonEmpty(" ", main, params)

	res := Result{Main: main, Parameters: params}
	if len(in.Negatives) > 0 {
		res.Negative = "--no " + strings.Join(in.Negatives, ", ")
		full = joinNonEmpty(" ", full, res.Negative)
	}
	res.FullPrompt = full
	return res
}

func formatStructuredVersioned(main string, in FormatInput) Result {
	params := joinNonEmpty(" ", nijiVersion, aspectParam(in.AspectRatio))
	full := nijiPrefix + "\n" + joinNonEmpty(" ", main, params)

	res := Result{Main: main, Parameters: params}
	if len(in.Negatives) > 0 {
		res.Negative = strings.Join(in.Negatives, ", ")
		full += " --no " + res.Negative
	}
	res.FullPrompt = full
	return res
}

func formatPlain(main string, _ FormatInput) Result {
	return Result{Main: main, FullPrompt: main}
}

func formatBilingual(main string, in FormatInput) Result {
	if thumb := strings.TrimSpace(in.ThumbnailText); thumb != "" {
		main = joinNonEmpty(", ", thumb, main)
	}
	params := aspectParam(in.AspectRatio)
	body := joinNonEmpty(" ", main, params)

	res := Result{Main: main, Parameters: params}
	if len(in.Negatives) == 0 {
		res.FullPrompt = body
		return res
	}

	positive, negative := "Positive", "Negative"
	if in.Language.Localized() {
		positive, negative = "ポジティブ", "ネガティブ"
	}
	res.Negative = strings.Join(in.Negatives, ", ")
	res.FullPrompt = positive + ": " + body + "\n\n" + negative + ": " + res.Negative
	return res
}

func aspectParam(ar string) string {
	ar = strings.TrimSpace(ar)
	if ar == "" {
		return ""
	}
	return "--ar " + ar
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
