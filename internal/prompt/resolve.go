package prompt

import (
	"sort"

	"arive-prompt-bot/internal/catalog"
)

// Catalog is the read-only lookup the resolver needs. *catalog.Catalog
// satisfies it.
type Catalog interface {
	Category(id string) (catalog.Category, bool)
	Option(categoryID, optionID string) (catalog.Option, bool)
	Roles() catalog.Roles
}

type Fragment struct {
	CategoryID  string
	PromptOrder int
	Text        string
}

type ResolveOptions struct {
	Model        ModelID
	Language     Language
	ShowNegative bool
}

// Resolve turns a selection into prompt fragments ordered by PromptOrder and
// the list of negative fragments. Unknown categories and options are
// skipped. Categories are visited in lexical id order so fragments sharing a
// PromptOrder come out in a stable order.
func Resolve(c Catalog, sel Selection, opts ResolveOptions) ([]Fragment, []string) {
	roles := c.Roles()
	noPerson := roles.PersonPresenceCategory() != "" &&
		sel.Has(roles.PersonPresenceCategory(), roles.NoPersonOption())

	var (
		fragments []Fragment
		negatives []string
	)

	for _, categoryID := range sel.Keys() {
		role := roles.Of(categoryID)
		if noPerson && role == catalog.RoleSuppressedWhenNoPerson {
			continue
		}

		category, ok := c.Category(categoryID)
		if !ok {
			continue
		}

		switch role {
		case catalog.RoleNegative:
			if !opts.ShowNegative {
				continue
			}
			for _, optionID := range sel[categoryID] {
				opt, ok := c.Option(categoryID, optionID)
				if !ok {
					continue
				}
				negatives = append(negatives, localizedText(opt, opts.Language))
			}
			continue
		case catalog.RoleAspectRatio:
			continue
		}

		for _, optionID := range sel[categoryID] {
			opt, ok := c.Option(categoryID, optionID)
			if !ok {
				continue
			}
			fragments = append(fragments, Fragment{
				CategoryID:  categoryID,
				PromptOrder: category.PromptOrder,
				Text:        optionText(opt, opts.Model, opts.Language),
			})
		}
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].PromptOrder < fragments[j].PromptOrder
	})
	return fragments, negatives
}

// optionText applies localized > per-model override > default. Localized text
// wins over an override when the output language is localized. An override
// that is present but empty still replaces the default.
func optionText(opt catalog.Option, model ModelID, lang Language) string {
	if lang.Localized() && opt.PromptLocalized != "" {
		return opt.PromptLocalized
	}
	if override, ok := opt.ModelOverrides[string(model)]; ok {
		return override
	}
	return opt.Prompt
}

func localizedText(opt catalog.Option, lang Language) string {
	if lang.Localized() && opt.PromptLocalized != "" {
		return opt.PromptLocalized
	}
	return opt.Prompt
}

// ExtractAspectRatio returns the default prompt text of the first selected
// aspect-ratio option.
func ExtractAspectRatio(c Catalog, sel Selection) (string, bool) {
	categoryID := c.Roles().AspectRatioCategory()
	if categoryID == "" {
		return "", false
	}
	ids := sel[categoryID]
	if len(ids) == 0 {
		return "", false
	}
	opt, ok := c.Option(categoryID, ids[0])
	if !ok || opt.Prompt == "" {
		return "", false
	}
	return opt.Prompt, true
}
