package state

import (
	"sort"
	"time"

	"arive-prompt-bot/internal/prompt"
)

const (
	CommonGroup    = "common"
	ThumbnailGroup = "thumbnail"
	PersonGroup    = "person"
)

// Snapshot is the part of a State that favorites and history persist.
type Snapshot struct {
	Model         prompt.ModelID       `json:"model"`
	Selection     prompt.Selection     `json:"selection"`
	Language      prompt.Language      `json:"language"`
	FreeText      string               `json:"freeText"`
	ShowNegative  bool                 `json:"showNegative"`
	ThumbnailText prompt.ThumbnailText `json:"thumbnailText"`
}

// Chat holds per-conversation UI bookkeeping that never affects the prompt.
type Chat struct {
	MessageID int
	// Awaiting names the free-form input the next text message fills:
	// "free", "text1".."text3", "fav" or "".
	Awaiting string
	// Menu is the open keyboard page; Category is set while Menu is
	// "category".
	Menu      string
	Category  string
	GachaMode string
	Locked    []string
}

type State struct {
	Model           prompt.ModelID       `json:"model"`
	Selection       prompt.Selection     `json:"selection"`
	Language        prompt.Language      `json:"language"`
	FreeText        string               `json:"freeText"`
	ShowNegative    bool                 `json:"showNegative"`
	ThumbnailText   prompt.ThumbnailText `json:"thumbnailText"`
	ImageCount      int                  `json:"imageCount"`
	ActiveMainGroup string               `json:"activeMainGroup"`
	Expanded        []string             `json:"expanded"`

	// Result is nil when there is nothing to show.
	Result *prompt.Result `json:"result"`

	Chat      Chat      `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func New(model prompt.ModelID, lang prompt.Language) State {
	st := State{
		Model:           model,
		Selection:       prompt.Selection{},
		Language:        lang,
		ThumbnailText:   prompt.DefaultThumbnailText(),
		ImageCount:      1,
		ActiveMainGroup: PersonGroup,
	}
	normalizeGroup(&st)
	return st
}

func (s State) Snapshot() Snapshot {
	return Snapshot{
		Model:         s.Model,
		Selection:     s.Selection.Clone(),
		Language:      s.Language,
		FreeText:      s.FreeText,
		ShowNegative:  s.ShowNegative,
		ThumbnailText: s.ThumbnailText,
	}
}

func (s State) Request() prompt.Request {
	thumb := s.ThumbnailText
	return prompt.Request{
		Model:         s.Model,
		Selection:     s.Selection,
		Language:      s.Language,
		FreeText:      s.FreeText,
		ShowNegative:  s.ShowNegative,
		ThumbnailText: &thumb,
	}
}

func (s State) IsExpanded(categoryID string) bool {
	for _, id := range s.Expanded {
		if id == categoryID {
			return true
		}
	}
	return false
}

func (s State) IsLocked(categoryID string) bool {
	for _, id := range s.Chat.Locked {
		if id == categoryID {
			return true
		}
	}
	return false
}

// CountSelected counts every selected option id.
func CountSelected(sel prompt.Selection) int {
	return sel.Count()
}

func (s State) clone() State {
	out := s
	out.Selection = s.Selection.Clone()
	out.Expanded = append([]string(nil), s.Expanded...)
	out.Chat.Locked = append([]string(nil), s.Chat.Locked...)
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	return out
}

func toggleString(list []string, v string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, x := range list {
		if x == v {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

func sortedToggle(list []string, v string) []string {
	out := toggleString(list, v)
	sort.Strings(out)
	return out
}
