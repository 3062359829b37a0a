package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/importer-intel/internal/session"
	"github.com/sells-group/importer-intel/internal/store"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage company alert subscriptions and notifications",
}

// openAlerts opens the store and a controller for the alert state only.
func openAlerts(ctx context.Context) (*session.Controller, store.Store, error) {
	if err := cfg.Validate("alerts"); err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open store")
	}
	ctrl, err := session.NewController(ctx, nil, nil, st)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return ctrl, st, nil
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alert subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, st, err := openAlerts(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		return printJSON(cmd.OutOrStdout(), ctrl.Subscriptions())
	},
}

var alertsSubscribeCmd = &cobra.Command{
	Use:   "subscribe <company> <email>",
	Short: "Subscribe an email to alerts about a company",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, st, err := openAlerts(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if ctrl.IsSubscribed(args[0]) {
			fmt.Fprintf(cmd.ErrOrStderr(), "note: %s already has a subscription\n", args[0])
		}
		sub, err := ctrl.Subscribe(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sub)
	},
}

var alertsNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, st, err := openAlerts(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		return printJSON(cmd.OutOrStdout(), ctrl.Notifications())
	},
}

var alertsDismissCmd = &cobra.Command{
	Use:   "dismiss <notification id>",
	Short: "Delete one notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, st, err := openAlerts(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		removed, err := ctrl.DeleteNotification(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			return eris.Errorf("notification %s not found", args[0])
		}
		return nil
	},
}

var alertsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, st, err := openAlerts(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		return ctrl.ClearNotifications(cmd.Context())
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune-cache",
	Short: "Delete expired cached importer profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("alerts"); err != nil {
			return err
		}
		st, err := store.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpiredProfiles(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired profiles\n", n)
		return nil
	},
}

func init() {
	alertsCmd.AddCommand(alertsListCmd, alertsSubscribeCmd, alertsNotificationsCmd, alertsDismissCmd, alertsClearCmd)
	rootCmd.AddCommand(alertsCmd, cachePruneCmd)
}
