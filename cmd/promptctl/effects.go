package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arive-prompt-bot/internal/effects"
)

func effectsCmd() *cobra.Command {
	var kind, category string
	cmd := &cobra.Command{
		Use:   "effects",
		Short: "List thumbnail effects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := effects.ParseKind(kind)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			fmt.Fprintf(tw, "ID\tCATEGORY\tTITLE\n")
			for _, e := range effects.Default().Filter(k, effects.Category(fold(category))) {
				fmt.Fprintf(tw, "%s\t%s\t%s / %s\n", e.ID, effects.Classify(k, e), e.TitleEn, e.TitleJa)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(effects.EyeCandy), "Effect kind (eyecandy|finishing)")
	cmd.Flags().StringVarP(&category, "category", "c", string(effects.CategoryAll), "Only effects of this category")
	cmd.AddCommand(effectPromptCmd())
	return cmd
}

func effectPromptCmd() *cobra.Command {
	var kind, partial string
	cmd := &cobra.Command{
		Use:   "prompt <id>",
		Short: "Print the prompt for one effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := effects.ParseKind(kind)
			if err != nil {
				return err
			}
			e, err := effects.Default().Lookup(k, fold(args[0]))
			if err != nil {
				return err
			}
			scope := effects.ScopeAll
			if partial != "" {
				scope = effects.ScopePartial
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), effects.BuildPrompt(e, scope, partial))
			return err
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(effects.EyeCandy), "Effect kind (eyecandy|finishing)")
	cmd.Flags().StringVar(&partial, "partial", "", "Apply the effect only to this text")
	return cmd
}
