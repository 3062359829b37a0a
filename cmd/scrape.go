package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/scrape"
)

var (
	scrapeSources  []string
	scrapeEndpoint bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Collect raw manifest leads for a query from the scrape sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		var (
			leads []model.RawLead
			err   error
		)
		if scrapeEndpoint && cfg.Scrape.EndpointURL != "" {
			leads, err = scrape.NewEndpointClient(cfg.Scrape.EndpointURL, nil).Leads(ctx, args[0])
			if err != nil {
				return err
			}
		} else {
			if len(scrapeSources) > 0 {
				cfg.Scrape.Sources = scrapeSources
			}
			agg, err := newAggregator(cfg)
			if err != nil {
				return err
			}
			leads, _ = agg.Leads(ctx, args[0])
		}

		zap.L().Info("scrape complete", zap.String("query", args[0]), zap.Int("leads", len(leads)))
		return printJSON(cmd.OutOrStdout(), leads)
	},
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeSources, "sources", nil, "sources to query (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeEndpoint, "endpoint", false, "query the configured remote /scrape endpoint instead")
	rootCmd.AddCommand(scrapeCmd)
}
