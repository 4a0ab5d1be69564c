package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/electrocyb/backend/config"
	"github.com/electrocyb/backend/internal/app"
	httpDelivery "github.com/electrocyb/backend/internal/delivery/http"
	"github.com/electrocyb/backend/internal/infrastructure/memory"
	"github.com/electrocyb/backend/internal/observability"
	"github.com/electrocyb/backend/internal/presenter"
	"github.com/electrocyb/backend/internal/usecase"
)

type rootOptions struct {
	verbose bool
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "advicectl",
		Short:         "Ask the electrocyb product advisor and manage its catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine decisions to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")

	root.AddCommand(newAskCmd(opts), newSeedCmd(opts))
	return root
}

func (o *rootOptions) logger(errOut io.Writer) zerolog.Logger {
	if !o.verbose {
		return zerolog.Nop()
	}
	return observability.NewLogger(observability.LogConfig{Level: "debug", Format: "console", Output: errOut})
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		catalogFile string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Answer a customer message with catalog products",
		Example: `  advicectl ask "busco un foco led barato hasta 30 soles" --catalog seed/catalog.yaml
  advicectl ask "quiero ver todo tu catálogo" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if catalogFile != "" {
				cfg.Catalog.Source = config.CatalogMemory
				cfg.Catalog.SeedFile = catalogFile
			}
			if opts.verbose {
				cfg.Advice.Debug = true
			}

			logger := opts.logger(cmd.ErrOrStderr())
			catalog, closeCatalog, err := app.OpenCatalog(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer closeCatalog()

			advice := usecase.NewAdviceService(catalog, nil, app.AdviceServiceConfig(cfg.Advice), nil, logger)
			result, err := advice.FindProductsForMessage(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			reply := presenter.Render(result)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(httpDelivery.AdviceResponse{SearchResult: result, Reply: reply})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return err
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog snapshot to use instead of the configured store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured result as JSON")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML catalog snapshot into the configured store",
		Long: `Seed creates every product of a YAML snapshot in the configured catalog store.
For PostgreSQL the schema is applied first. Stores assign fresh ids, so ids in the
file only order the import.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			products, err := memory.LoadSeedFile(file)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Catalog.Source == config.CatalogMemory {
				return fmt.Errorf("catalog source 'memory' is read from the seed file directly; nothing to seed")
			}
			cfg.Database.ApplySchema = true

			logger := opts.logger(cmd.ErrOrStderr())
			catalog, closeCatalog, err := app.OpenCatalog(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer closeCatalog()

			for i := range products {
				p := products[i]
				p.ID = 0
				if err := catalog.Create(ctx, &p); err != nil {
					return fmt.Errorf("create %q: %w", p.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created [%d] %s\n", p.ID, p.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products into %s catalog\n", len(products), cfg.Catalog.Source)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog snapshot (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
