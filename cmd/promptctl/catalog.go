package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arive-prompt-bot/internal/prompt"
)

func catalogCmd(a *app) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "catalog [category]",
		Short: "List categories, or the options of one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 1 {
				cat, ok := a.catalog.Category(fold(args[0]))
				if !ok {
					return fmt.Errorf("unknown category %q", args[0])
				}
				fmt.Fprintf(tw, "ID\tLABEL\tPROMPT\n")
				for _, opt := range cat.Options {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", opt.ID, opt.Label, opt.Prompt)
				}
				return nil
			}

			id := prompt.ModelID(fold(model))
			if _, ok := prompt.LookupModel(id); !ok {
				return fmt.Errorf("unknown model %q", model)
			}
			for _, group := range a.catalog.MainGroups(prompt.ThumbnailOnly(id)) {
				fmt.Fprintf(tw, "[%s] %s\t\t\n", group.ID, group.Label)
				for _, cat := range a.catalog.CategoriesByMain(group.ID) {
					fmt.Fprintf(tw, "  %s\t%s\t%d options\n", cat.ID, cat.Label, len(cat.Options))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", string(prompt.Midjourney), "Model whose groups are listed")
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			fmt.Fprintf(tw, "ID\tNAME\tGROUP\tFEATURES\n")
			for _, m := range prompt.Models() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.DisplayName, m.Group, featureList(m.Features))
			}
			return nil
		},
	}
}

func featureList(f prompt.Features) string {
	var out []string
	if f.AspectRatio {
		out = append(out, "ar")
	}
	if f.NegativePrompt {
		out = append(out, "negative")
	}
	if f.VersionParameter {
		out = append(out, "version")
	}
	if f.JapaneseOutput {
		out = append(out, "ja")
	}
	if f.ThumbnailText {
		out = append(out, "text")
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}
