package prompt

import "strings"

type Request struct {
	Model         ModelID
	Selection     Selection
	Language      Language
	FreeText      string
	ShowNegative  bool
	ThumbnailText *ThumbnailText
}

// Generate runs resolve, thumbnail composition and formatting. ok is false
// when there is nothing to show: no fragments, no free text and no
// thumbnail text.
func Generate(c Catalog, req Request) (res Result, ok bool) {
	fragments, negatives := Resolve(c, req.Selection, ResolveOptions{
		Model:        req.Model,
		Language:     req.Language,
		ShowNegative: req.ShowNegative,
	})

	freeText := strings.TrimSpace(req.FreeText)

	var thumb string
	if m, known := LookupModel(req.Model); known && m.Features.ThumbnailText && req.ThumbnailText != nil {
		thumb = ComposeThumbnailText(*req.ThumbnailText)
	}

	if len(fragments) == 0 && freeText == "" && thumb == "" {
		return Result{}, false
	}

	aspectRatio, _ := ExtractAspectRatio(c, req.Selection)

	return Format(FormatInput{
		Model:         req.Model,
		Fragments:     fragments,
		Negatives:     negatives,
		AspectRatio:   aspectRatio,
		FreeText:      freeText,
		Language:      req.Language,
		ThumbnailText: thumb,
	}), true
}
