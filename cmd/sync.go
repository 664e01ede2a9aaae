package cmd

import (
	"fmt"
	"os"

	"planner/feature/calsync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// syncCmd pushes every series to Google Calendar once.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push every series to the configured Google calendar once",
	Long: `Inserts or updates one recurring event per series, truncates or removes the
events of dissolved series and skips series whose rule has no RRULE form.
Run 'planner sync auth' first to cache an OAuth token.`,
	RunE: runSync,
}

// syncAuthCmd obtains and caches the OAuth token used by sync.
var syncAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize calendar access and cache the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		oauthCfg, err := calsync.OAuthConfig(rt.cfg.Sync.CredentialsPath)
		if err != nil {
			return err
		}

		fmt.Printf("Open this URL, grant access and paste the code:\n\n%s\n\ncode: ", calsync.AuthURL(oauthCfg))
		file := calsync.TokenFile{Path: rt.cfg.Sync.TokenPath}
		if _, err := calsync.Exchange(cmd.Context(), oauthCfg, file, os.Stdin); err != nil {
			return err
		}
		rt.logger.Info("Token cached", zap.String("path", file.Path))
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncAuthCmd)
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	feature, _, err := rt.openPlanner(ctx)
	if err != nil {
		return err
	}
	google, err := rt.googleCalendar(ctx)
	if err != nil {
		return err
	}
	opts, err := rt.calendarOptions(feature.Service())
	if err != nil {
		return err
	}
	opts.Calendar = google

	report, err := calsync.NewFeature(opts, rt.logger).Syncer().Sync(ctx)
	if err != nil {
		return fmt.Errorf("calendar sync failed: %w", err)
	}
	if err := yaml.NewEncoder(os.Stdout).Encode(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d series failed to sync", report.Failed)
	}
	return nil
}
