package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/width"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/config"
	"arive-prompt-bot/internal/logging"
	"arive-prompt-bot/internal/storage"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	catalogFile string
	verbose     bool

	cfg     config.Config
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "promptctl",
		Short:         "Build image-generation prompts from the option catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.catalogFile, "catalog", "", "YAML catalog file (default: CATALOG_FILE or the embedded catalog)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging on stderr")

	root.AddCommand(
		generateCmd(a),
		gachaCmd(a),
		catalogCmd(a),
		modelsCmd(),
		effectsCmd(),
		favoritesCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger, _ = logging.New(logging.Options{Level: level, Output: cmd.ErrOrStderr()})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.catalogFile != "" {
		cfg.CatalogFile = a.catalogFile
	}
	a.cfg = cfg
	a.catalog, err = cfg.Catalog()
	if err != nil {
		return err
	}
	a.logger.Debug("catalog loaded", "file", cfg.CatalogFile, "categories", len(a.catalog.Categories()))
	return nil
}

func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	return storage.Open(ctx, storage.Options{Path: a.cfg.DBPath, Logger: a.logger})
}

// fold normalizes identifiers typed with a Japanese IME.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(s)))
}
