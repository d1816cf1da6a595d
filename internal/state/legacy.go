package state

import (
	"encoding/json"

	"arive-prompt-bot/internal/prompt"
)

// DecodeThumbnailText accepts both the current shape and the older one where
// lines were plain strings. Older lines are placed center/center. Anything
// unreadable yields the default config.
func DecodeThumbnailText(raw json.RawMessage) prompt.ThumbnailText {
	if len(raw) == 0 || string(raw) == "null" {
		return prompt.DefaultThumbnailText()
	}

	var probe struct {
		Lines     []json.RawMessage `json:"lines"`
		LineCount int               `json:"lineCount"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.Lines == nil {
		return prompt.DefaultThumbnailText()
	}

	cfg := prompt.DefaultThumbnailText()
	if probe.LineCount > 0 {
		cfg.LineCount = probe.LineCount
	}

	for i, line := range probe.Lines {
		if i >= prompt.MaxThumbnailLines {
			break
		}
		var text string
		if err := json.Unmarshal(line, &text); err == nil {
			cfg.Lines[i].Text = text
			continue
		}
		var tl prompt.TextLine
		if err := json.Unmarshal(line, &tl); err != nil {
			return prompt.DefaultThumbnailText()
		}
		if tl.Vertical == "" {
			tl.Vertical = prompt.VCenter
		}
		if tl.Horizontal == "" {
			tl.Horizontal = prompt.HCenter
		}
		cfg.Lines[i] = tl
	}
	return cfg
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var aux struct {
		plain
		ThumbnailText json.RawMessage `json:"thumbnailText"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Snapshot(aux.plain)
	s.ThumbnailText = DecodeThumbnailText(aux.ThumbnailText)
	s.Selection = s.Selection.Clone()
	return nil
}

func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	var aux struct {
		plain
		ThumbnailText json.RawMessage `json:"thumbnailText"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = State(aux.plain)
	s.ThumbnailText = DecodeThumbnailText(aux.ThumbnailText)
	s.Selection = s.Selection.Clone()
	return nil
}
