package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arive-prompt-bot/internal/effects"
	"arive-prompt-bot/internal/storage"
)

type favoritesFlags struct {
	owner string
	kind  string
}

func (f *favoritesFlags) ownerKey() string {
	return "cli:" + fold(f.owner)
}

// effectKind returns ok=false for prompt favorites.
func (f *favoritesFlags) effectKind() (effects.Kind, bool, error) {
	k := fold(f.kind)
	if k == "" || k == string(storage.KindPrompt) {
		return "", false, nil
	}
	kind, err := effects.ParseKind(k)
	return kind, true, err
}

func favoritesCmd(a *app) *cobra.Command {
	f := &favoritesFlags{}
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved prompt and effect favorites",
	}
	cmd.PersistentFlags().StringVar(&f.owner, "owner", "default", "Favorites owner")
	cmd.PersistentFlags().StringVarP(&f.kind, "kind", "k", string(storage.KindPrompt), "Favorite kind (prompt|eyecandy|finishing)")

	cmd.AddCommand(
		favoritesListCmd(a, f),
		favoritesAddCmd(a, f),
		favoritesAddEffectCmd(a, f),
		favoritesRenameCmd(a, f),
		favoritesRemoveCmd(a, f),
	)
	return cmd
}

func favoritesListCmd(a *app, f *favoritesFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorites of one kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, isEffect, err := f.effectKind()
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if isEffect {
				favs, err := db.ListEffectFavorites(cmd.Context(), f.ownerKey(), kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "ID\tNAME\tEFFECT\tSCOPE\tTEXT\n")
				for _, fav := range favs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", fav.ID, fav.Name, fav.Effect.EffectID, fav.Effect.Scope, fav.Effect.PartialText)
				}
				return nil
			}

			favs, err := db.ListFavorites(cmd.Context(), f.ownerKey())
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "ID\tNAME\tMODEL\tOPTIONS\n")
			for _, fav := range favs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", fav.ID, fav.Name, fav.Snapshot.Model, fav.Snapshot.Selection.Count())
			}
			return nil
		},
	}
}

func favoritesAddCmd(a *app, f *favoritesFlags) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save the selection given by the flags as a prompt favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sel.build(a, cmd)
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			fav, err := db.AddFavorite(cmd.Context(), f.ownerKey(), args[0], st.Snapshot())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fav.ID)
			return err
		},
	}
	sel.register(cmd)
	return cmd
}

func favoritesAddEffectCmd(a *app, f *favoritesFlags) *cobra.Command {
	var partial string
	cmd := &cobra.Command{
		Use:     "add-effect <name> <effect-id>",
		Short:   "Save an effect setup as a favorite",
		Example: "  promptctl favorites add-effect sale gold-emboss --kind eyecandy --partial SALE",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, isEffect, err := f.effectKind()
			if err != nil {
				return err
			}
			if !isEffect {
				return fmt.Errorf("add-effect needs --kind eyecandy or --kind finishing")
			}
			e, err := effects.Default().Lookup(kind, fold(args[1]))
			if err != nil {
				return err
			}
			use := storage.EffectUse{EffectID: e.ID, Title: e.TitleJa, Scope: effects.ScopeAll}
			if partial != "" {
				use.Scope = effects.ScopePartial
				use.PartialText = partial
			}

			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			fav, err := db.AddEffectFavorite(cmd.Context(), f.ownerKey(), kind, args[0], use)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fav.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&partial, "partial", "", "Apply the effect only to this text")
	return cmd
}

func favoritesRenameCmd(a *app, f *favoritesFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, isEffect, err := f.effectKind()
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if isEffect {
				return db.RenameEffectFavorite(cmd.Context(), f.ownerKey(), args[0], args[1])
			}
			return db.RenameFavorite(cmd.Context(), f.ownerKey(), args[0], args[1])
		},
	}
}

func favoritesRemoveCmd(a *app, f *favoritesFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a favorite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, isEffect, err := f.effectKind()
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if isEffect {
				return db.RemoveEffectFavorite(cmd.Context(), f.ownerKey(), args[0])
			}
			return db.RemoveFavorite(cmd.Context(), f.ownerKey(), args[0])
		},
	}
}
