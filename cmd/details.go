package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/export"
	"github.com/sells-group/importer-intel/internal/model"
)

var (
	detailsFormat      string
	detailsOut         string
	detailsRefresh     bool
	detailsLocation    string
	detailsCommodities string
)

var detailsCmd = &cobra.Command{
	Use:   "details <importer name>",
	Short: "Resolve the detailed shipment profile of an importer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name := args[0]
		format, err := export.ParseFormat(detailsFormat)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "search")
		if err != nil {
			return err
		}
		defer env.Close()

		var result *model.DetailedImporterResult
		if !detailsRefresh {
			result, err = env.Store.GetCachedProfile(ctx, name)
			if err != nil {
				zap.L().Warn("profile cache read failed", zap.Error(err))
			}
		}

		if result == nil {
			var summary *model.ImporterSummary
			if detailsLocation != "" || detailsCommodities != "" {
				summary = &model.ImporterSummary{
					ImporterName:       name,
					Location:           detailsLocation,
					PrimaryCommodities: detailsCommodities,
				}
			}
			result, err = env.Details.FetchDetails(ctx, name, summary)
			if err != nil {
				return err
			}
			ttl := time.Duration(cfg.Cache.ProfileTTLHours) * time.Hour
			if ttl > 0 {
				if err := env.Store.SetCachedProfile(ctx, name, result, ttl); err != nil {
					zap.L().Warn("profile cache write failed", zap.Error(err))
				}
			}
		} else {
			zap.L().Info("using cached profile", zap.String("importer", name))
		}

		w, closeOut, err := openOutput(detailsOut)
		if err != nil {
			return err
		}
		defer closeOut() //nolint:errcheck
		return export.WriteProfile(w, format, *result)
	},
}

func init() {
	f := detailsCmd.Flags()
	f.StringVar(&detailsFormat, "format", "json", "output format: json, yaml, csv, xlsx")
	f.StringVarP(&detailsOut, "out", "o", "", "output file (default stdout)")
	f.BoolVar(&detailsRefresh, "refresh", false, "bypass the profile cache")
	f.StringVar(&detailsLocation, "location", "", "known location, added as prompt context")
	f.StringVar(&detailsCommodities, "commodities", "", "known commodities, added as prompt context")
	rootCmd.AddCommand(detailsCmd)
}
