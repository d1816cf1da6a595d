package state

import (
	"arive-prompt-bot/internal/prompt"
)

// Action is one state transition. Reduce applies it to a copy of the state.
type Action interface {
	apply(c prompt.Catalog, st *State)
}

type (
	SetModel           struct{ Model prompt.ModelID }
	ToggleOption       struct{ Category, Option string }
	SetCategoryOptions struct {
		Category string
		Options  []string
	}
	ResetCategory      struct{ Category string }
	ResetAll           struct{}
	SetLanguage        struct{ Language prompt.Language }
	SetFreeText        struct{ Text string }
	SetShowNegative    struct{ Show bool }
	ToggleLanguage     struct{}
	ToggleNegative     struct{}
	SetThumbnailText   struct{ Config prompt.ThumbnailText }
	SetThumbnailLine   struct {
		Index int
		Line  prompt.TextLine
	}
	SetImageCount      struct{ Count int }
	SetActiveMainGroup struct{ Group string }
	ToggleExpanded     struct{ Category string }
	LoadPreset         struct{ Snapshot Snapshot }
	MergeOptions       struct{ Selection prompt.Selection }
	ApplyGacha         struct{ Selection prompt.Selection }
	ToggleLock         struct{ Category string }
	Normalize          struct{}
)

// Reduce applies the actions in order and recomputes the prompt once.
// The input state is not modified.
func Reduce(c prompt.Catalog, st State, actions ...Action) State {
	next := st.clone()
	if next.Selection == nil {
		next.Selection = prompt.Selection{}
	}
	for _, a := range actions {
		if a == nil {
			continue
		}
		a.apply(c, &next)
	}
	recompute(c, &next)
	return next
}

func recompute(c prompt.Catalog, st *State) {
	res, ok := prompt.Generate(c, st.Request())
	if !ok {
		st.Result = nil
		return
	}
	st.Result = &res
}

func (a SetModel) apply(c prompt.Catalog, st *State) {
	st.Model = a.Model
	st.Selection = keepCommon(c, st.Selection)
	normalizeGroup(st)
}

func (a ToggleOption) apply(_ prompt.Catalog, st *State) {
	st.Selection = prompt.Toggle(st.Selection, a.Category, a.Option)
}

func (a SetCategoryOptions) apply(_ prompt.Catalog, st *State) {
	st.Selection = prompt.SetCategoryOptions(st.Selection, a.Category, a.Options)
}

func (a ResetCategory) apply(_ prompt.Catalog, st *State) {
	st.Selection = prompt.SetCategoryOptions(st.Selection, a.Category, nil)
}

func (ResetAll) apply(c prompt.Catalog, st *State) {
	st.Selection = keepCommon(c, st.Selection)
	st.FreeText = ""
}

func (a SetLanguage) apply(_ prompt.Catalog, st *State) {
	st.Language = prompt.ParseLanguage(string(a.Language))
}

func (a SetFreeText) apply(_ prompt.Catalog, st *State) {
	st.FreeText = a.Text
}

func (a SetShowNegative) apply(_ prompt.Catalog, st *State) {
	st.ShowNegative = a.Show
}

// ToggleLanguage flips between English and Japanese against the current
// value, so concurrent taps on one chat never collapse into the same result.
func (ToggleLanguage) apply(_ prompt.Catalog, st *State) {
	if st.Language == prompt.LanguageJA {
		st.Language = prompt.LanguageEN
		return
	}
	st.Language = prompt.LanguageJA
}

func (ToggleNegative) apply(_ prompt.Catalog, st *State) {
	st.ShowNegative = !st.ShowNegative
}

func (a SetThumbnailText) apply(_ prompt.Catalog, st *State) {
	st.ThumbnailText = a.Config
}

// SetThumbnailLine replaces line Index (0-based) and grows LineCount to
// cover it. Out-of-range indexes are ignored.
func (a SetThumbnailLine) apply(_ prompt.Catalog, st *State) {
	if a.Index < 0 || a.Index >= prompt.MaxThumbnailLines {
		return
	}
	st.ThumbnailText.Lines[a.Index] = a.Line
	if st.ThumbnailText.LineCount < a.Index+1 {
		st.ThumbnailText.LineCount = a.Index + 1
	}
}

func (a SetImageCount) apply(_ prompt.Catalog, st *State) {
	st.ImageCount = max(a.Count, 1)
}

func (a SetActiveMainGroup) apply(_ prompt.Catalog, st *State) {
	st.ActiveMainGroup = a.Group
	normalizeGroup(st)
}

func (a ToggleExpanded) apply(_ prompt.Catalog, st *State) {
	st.Expanded = toggleString(st.Expanded, a.Category)
}

func (a LoadPreset) apply(_ prompt.Catalog, st *State) {
	p := a.Snapshot
	st.Model = p.Model
	st.Selection = p.Selection.Clone()
	st.Language = prompt.ParseLanguage(string(p.Language))
	st.FreeText = p.FreeText
	st.ShowNegative = p.ShowNegative
	st.ThumbnailText = p.ThumbnailText
	normalizeGroup(st)
}

func (a MergeOptions) apply(_ prompt.Catalog, st *State) {
	st.Selection = prompt.Merge(st.Selection, a.Selection)
}

// ApplyGacha keeps the common group and overlays a fresh draw.
func (a ApplyGacha) apply(c prompt.Catalog, st *State) {
	st.Selection = prompt.Merge(keepCommon(c, st.Selection), a.Selection)
}

func (a ToggleLock) apply(_ prompt.Catalog, st *State) {
	st.Chat.Locked = sortedToggle(st.Chat.Locked, a.Category)
}

func (Normalize) apply(_ prompt.Catalog, st *State) {
	if st.ImageCount < 1 {
		st.ImageCount = 1
	}
	st.Language = prompt.ParseLanguage(string(st.Language))
	if st.ThumbnailText.LineCount == 0 {
		st.ThumbnailText.LineCount = 1
	}
	normalizeGroup(st)
}

func keepCommon(c prompt.Catalog, sel prompt.Selection) prompt.Selection {
	out := prompt.Selection{}
	for _, categoryID := range sel.Keys() {
		cat, ok := c.Category(categoryID)
		if !ok || cat.MainGroup != CommonGroup {
			continue
		}
		out = prompt.SetCategoryOptions(out, categoryID, sel[categoryID])
	}
	return out
}

// normalizeGroup pins thumbnail-only models to the thumbnail group and keeps
// every other model off it.
func normalizeGroup(st *State) {
	thumbOnly := prompt.ThumbnailOnly(st.Model)
	switch {
	case thumbOnly && st.ActiveMainGroup != ThumbnailGroup:
		st.ActiveMainGroup = ThumbnailGroup
	case !thumbOnly && (st.ActiveMainGroup == ThumbnailGroup || st.ActiveMainGroup == ""):
		st.ActiveMainGroup = PersonGroup
	}
}
