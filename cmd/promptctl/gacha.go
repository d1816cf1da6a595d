package main

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"arive-prompt-bot/internal/gacha"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
)

type gachaOutput struct {
	Mode      gacha.Mode       `json:"mode"`
	Selection prompt.Selection `json:"selection"`
	Result    *prompt.Result   `json:"result"`
}

func gachaCmd(a *app) *cobra.Command {
	var (
		f        selectionFlags
		mode     string
		seed     uint64
		locked   []string
		excluded []string
	)
	cmd := &cobra.Command{
		Use:     "gacha",
		Short:   "Draw a random selection",
		Example: "  promptctl gacha --mode background --seed 7 --exclude bg-weather:weather-rain",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := f.build(a, cmd)
			if err != nil {
				return err
			}
			if prompt.ThumbnailOnly(st.Model) {
				return fmt.Errorf("gacha is not available for %s", st.Model)
			}

			rng := gacha.NewRand()
			if seed != 0 {
				rng = rand.New(rand.NewPCG(seed, seed))
			}
			for i := range locked {
				locked[i] = fold(locked[i])
			}
			for i := range excluded {
				excluded[i] = fold(excluded[i])
			}

			m := gacha.Mode(fold(mode))
			sel, err := gacha.Draw(a.catalog, rng, gacha.Request{
				Mode:     m,
				Current:  st.Selection,
				Locked:   locked,
				Excluded: gacha.ParseKeys(excluded),
			})
			if err != nil {
				return err
			}
			st = state.Reduce(a.catalog, st, state.ApplyGacha{Selection: sel})
			a.logger.Debug("gacha drawn", "mode", m, "categories", len(sel))

			out := cmd.OutOrStdout()
			if f.asJSON {
				return writeJSON(out, gachaOutput{Mode: m, Selection: st.Selection, Result: st.Result})
			}
			for _, categoryID := range st.Selection.Keys() {
				fmt.Fprintf(out, "%s=%s\n", categoryID, strings.Join(st.Selection[categoryID], ","))
			}
			if st.Result != nil {
				fmt.Fprintf(out, "\n%s\n", st.Result.FullPrompt)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", string(gacha.Person), "Gacha mode (person|background|texture)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed; 0 draws a fresh one")
	cmd.Flags().StringArrayVar(&locked, "lock", nil, "Category kept from --select (repeatable)")
	cmd.Flags().StringArrayVar(&excluded, "exclude", nil, "Option never drawn, as category:option (repeatable)")
	return cmd
}
