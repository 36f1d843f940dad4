package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stockwatch/internal/monitor"
)

// addRunCommand adds the background monitoring command.
func addRunCommand(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the background monitors",
		Long: `Starts the three monitoring loops and blocks until interrupted:

  threshold  checks watched symbols against their price bounds
  calendar   sends market open/close heads-up alerts
  volume     flags unusual trading volume during market hours`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sched := monitor.NewScheduler(ctx, app.Logger)

			threshold := monitor.NewThresholdMonitor(app.Store, app.Quotes, app.Notifier, app.Config.Monitor, app.Logger)
			calendar := monitor.NewCalendarMonitor(app.Calendar, app.Store, app.Notifier, app.Logger)
			volume := monitor.NewVolumeMonitor(app.Store, app.Quotes, app.Notifier, app.Calendar, app.Config.Monitor, app.Logger)

			if err := sched.Add(threshold, app.Config.Monitor.ThresholdInterval); err != nil {
				return err
			}
			if err := sched.Add(calendar, app.Config.Monitor.CalendarInterval); err != nil {
				return err
			}
			if err := sched.Add(volume, app.Config.Monitor.VolumeInterval); err != nil {
				return err
			}

			sched.Start()
			output.Info("Monitors running. Press Ctrl+C to stop.")
			app.Logger.Info().
				Dur("threshold_interval", app.Config.Monitor.ThresholdInterval).
				Dur("calendar_interval", app.Config.Monitor.CalendarInterval).
				Dur("volume_interval", app.Config.Monitor.VolumeInterval).
				Msg("monitoring started")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			output.Println()
			output.Info("Shutting down...")
			cancel()
			sched.Stop()
			app.Logger.Info().Msg("monitoring stopped")
			return nil
		},
	})
}
