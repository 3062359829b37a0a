package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/export"
	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/session"
)

var (
	searchFilters model.SearchFilters
	searchFormat  string
	searchOut     string
	searchSimilar bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for US importers and their competitors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if len(args) == 1 {
			searchFilters.Query = args[0]
		}
		format, err := export.ParseFormat(searchFormat)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		done, err := env.Controller.Submit(ctx, searchFilters)
		if errors.Is(err, intel.ErrValidation) {
			return eris.New(session.MessageValidation)
		}
		if err != nil {
			return err
		}

		select {
		case <-done:
		case <-ctx.Done():
			env.Controller.Cancel()
			<-done
		}

		snap := env.Controller.Snapshot()
		switch snap.Status {
		case session.Cancelled:
			return eris.New(session.MessageCancelled)
		case session.Failed:
			return eris.New(snap.Message)
		}
		if snap.Message != "" {
			zap.L().Warn(snap.Message)
		}

		results := snap.Results
		if searchSimilar {
			results = snap.Similar
		}
		zap.L().Info("search complete",
			zap.Int("results", len(snap.Results)),
			zap.Int("similar", len(snap.Similar)),
		)

		w, closeOut, err := openOutput(searchOut)
		if err != nil {
			return err
		}
		defer closeOut() //nolint:errcheck
		return export.WriteSummaries(w, format, results)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFilters.Query, "query", "", "company name or keyword")
	f.StringVar(&searchFilters.City, "city", "", "city filter")
	f.StringVar(&searchFilters.State, "state", "", "state filter")
	f.StringVar(&searchFilters.Industry, "industry", "", "industry filter")
	f.StringVar(&searchFormat, "format", "json", "output format: json, yaml, csv, xlsx")
	f.StringVarP(&searchOut, "out", "o", "", "output file (default stdout)")
	f.BoolVar(&searchSimilar, "similar", false, "write the competitor set instead of the primary results")
	rootCmd.AddCommand(searchCmd)
}
