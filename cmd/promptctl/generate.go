package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
)

var errNoPrompt = errors.New("nothing selected: no prompt to render")

// selectionFlags are shared by generate and gacha.
type selectionFlags struct {
	model    string
	lang     string
	free     string
	negative bool
	selects  []string
	texts    []string
	file     string
	asJSON   bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", string(prompt.Midjourney), "Target model id")
	cmd.Flags().StringVarP(&f.lang, "lang", "l", string(prompt.LanguageEN), "Prompt language (en|ja)")
	cmd.Flags().StringVarP(&f.free, "free", "f", "", "Free text appended to the prompt")
	cmd.Flags().BoolVarP(&f.negative, "negative", "n", false, "Include negative prompt options")
	cmd.Flags().StringArrayVarP(&f.selects, "select", "s", nil, "Selection as category=option[,option...] (repeatable)")
	cmd.Flags().StringArrayVarP(&f.texts, "text", "t", nil, "Thumbnail text line as TEXT[@vertical-horizontal] (repeatable, max 3)")
	cmd.Flags().StringVar(&f.file, "state", "", "Read a saved state JSON file ('-' for stdin)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON instead of the prompt text")
}

// build returns the state described by the flags. Flags given explicitly
// override values read from --state.
func (f *selectionFlags) build(a *app, cmd *cobra.Command) (state.State, error) {
	st := state.New(prompt.Midjourney, prompt.LanguageEN)
	if f.file != "" {
		loaded, err := readState(cmd.InOrStdin(), f.file)
		if err != nil {
			return state.State{}, err
		}
		st = loaded
	}

	var actions []state.Action
	changed := cmd.Flags().Changed
	if f.file == "" || changed("model") {
		id := prompt.ModelID(fold(f.model))
		if _, ok := prompt.LookupModel(id); !ok {
			return state.State{}, fmt.Errorf("unknown model %q", f.model)
		}
		st.Model = id
	}
	if f.file == "" || changed("lang") {
		actions = append(actions, state.SetLanguage{Language: prompt.ParseLanguage(fold(f.lang))})
	}
	if changed("free") {
		actions = append(actions, state.SetFreeText{Text: f.free})
	}
	if changed("negative") {
		actions = append(actions, state.SetShowNegative{Show: f.negative})
	}
	for _, raw := range f.selects {
		categoryID, optionIDs, err := parseSelect(raw)
		if err != nil {
			return state.State{}, err
		}
		for _, id := range optionIDs {
			if _, ok := a.catalog.Option(categoryID, id); !ok {
				a.logger.Warn("unknown option is ignored", "category", categoryID, "option", id)
			}
		}
		actions = append(actions, state.SetCategoryOptions{Category: categoryID, Options: optionIDs})
	}
	if len(f.texts) > prompt.MaxThumbnailLines {
		return state.State{}, fmt.Errorf("at most %d --text lines", prompt.MaxThumbnailLines)
	}
	for i, raw := range f.texts {
		line, err := parseText(raw)
		if err != nil {
			return state.State{}, err
		}
		actions = append(actions, state.SetThumbnailLine{Index: i, Line: line})
	}

	actions = append([]state.Action{state.Normalize{}}, actions...)
	return state.Reduce(a.catalog, st, actions...), nil
}

func generateCmd(a *app) *cobra.Command {
	var f selectionFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the prompt for a selection",
		Example: "  promptctl generate -m midjourney -s gender-count=woman-1 -s aspect-ratio=ar-16-9\n" +
			"  promptctl generate -m nanobanana-thumb -t '今だけ@top-left' -l ja",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := f.build(a, cmd)
			if err != nil {
				return err
			}
			if f.asJSON {
				return writeJSON(cmd.OutOrStdout(), st.Result)
			}
			if st.Result == nil {
				return errNoPrompt
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), st.Result.FullPrompt)
			return err
		},
	}
	f.register(cmd)
	return cmd
}

func parseSelect(raw string) (string, []string, error) {
	categoryID, list, ok := strings.Cut(raw, "=")
	categoryID = fold(categoryID)
	if !ok || categoryID == "" {
		return "", nil, fmt.Errorf("invalid --select %q: want category=option[,option...]", raw)
	}
	var optionIDs []string
	for _, id := range strings.Split(list, ",") {
		if id = fold(id); id != "" {
			optionIDs = append(optionIDs, id)
		}
	}
	return categoryID, optionIDs, nil
}

// parseText reads "TEXT", "TEXT@top" or "TEXT@bottom-right".
func parseText(raw string) (prompt.TextLine, error) {
	line := prompt.TextLine{Text: raw, Vertical: prompt.VCenter, Horizontal: prompt.HCenter}
	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return line, nil
	}
	line.Text = raw[:at]
	for _, tok := range strings.Split(fold(raw[at+1:]), "-") {
		switch tok {
		case "top":
			line.Vertical = prompt.Top
		case "bottom":
			line.Vertical = prompt.Bottom
		case "left":
			line.Horizontal = prompt.Left
		case "right":
			line.Horizontal = prompt.Right
		case "center", "":
		default:
			return prompt.TextLine{}, fmt.Errorf("invalid text position %q", raw[at+1:])
		}
	}
	return line, nil
}

func readState(stdin io.Reader, path string) (state.State, error) {
	var r io.Reader = stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return state.State{}, err
		}
		defer file.Close()
		r = file
	}
	var st state.State
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return state.State{}, fmt.Errorf("read state: %w", err)
	}
	if _, ok := prompt.LookupModel(st.Model); !ok {
		st.Model = prompt.Midjourney
	}
	return st, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
