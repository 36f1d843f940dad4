package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
	"stockwatch/internal/monitor"
)

// addWatchCommands adds watch management and price commands.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage price watches",
	}

	cmd.AddCommand(newWatchSetCmd(app))
	cmd.AddCommand(newWatchListCmd(app))
	cmd.AddCommand(newWatchRemoveCmd(app))

	return cmd
}

func newWatchSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set SYMBOL LOWER UPPER",
		Short: "Create or update a price watch",
		Example: `  stockwatch watch set AAPL 150 180
  stockwatch watch set TSLA 200.50 280`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			symbol := strings.ToUpper(args[0])
			lower, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return apperrors.NewValidationError("lower", args[1], "not a number")
			}
			upper, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return apperrors.NewValidationError("upper", args[2], "not a number")
			}
			if lower > upper {
				return fmt.Errorf("%w: lower bound %.2f exceeds upper bound %.2f",
					apperrors.ErrInvalidWatch, lower, upper)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			w := models.Watch{
				Symbol:    symbol,
				Lower:     lower,
				Upper:     upper,
				CreatedAt: time.Now(),
			}
			if err := app.Store.SaveWatch(ctx, userID(cmd), w); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(w)
			}
			output.Success("✓ Watching %s: alert below $%.2f or above $%.2f", symbol, lower, upper)
			return nil
		},
	}
}

func newWatchListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active watches",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			watches, err := app.Store.UserWatches(ctx, userID(cmd))
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(watches)
			}
			if len(watches) == 0 {
				output.Info("No active watches. Add one with 'stockwatch watch set'.")
				return nil
			}

			table := NewTable(output, "Symbol", "Lower", "Upper", "Last Low Alert", "Last High Alert")
			for _, w := range watches {
				table.AddRow(
					w.Symbol,
					fmt.Sprintf("$%.2f", w.Lower),
					fmt.Sprintf("$%.2f", w.Upper),
					formatAlertTime(w.LastAlertLow),
					formatAlertTime(w.LastAlertHigh),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newWatchRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove SYMBOL",
		Short: "Remove a watch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			symbol := strings.ToUpper(args[0])

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := app.Store.DeleteWatch(ctx, userID(cmd), symbol); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"removed": symbol})
			}
			output.Success("✓ Removed watch on %s", symbol)
			return nil
		},
	}
}

func newPriceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "price",
		Short: "Check watched symbols against their thresholds now",
		Long: `Fetches a fresh quote for every watched symbol and reports current
prices and any threshold breaches. Does not affect alert cooldowns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			tm := monitor.NewThresholdMonitor(app.Store, app.Quotes, app.Notifier, app.Config.Monitor, app.Logger)
			statuses, err := tm.EvaluateOnce(ctx, userID(cmd))
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(statuses)
			}
			if len(statuses) == 0 {
				output.Info("No active watches.")
				return nil
			}

			for _, st := range statuses {
				if st.Err != nil {
					output.Warning("%s: quote unavailable (%v)", st.Watch.Symbol, st.Err)
					continue
				}
				line := fmt.Sprintf("%s  $%.2f  (band $%.2f - $%.2f)",
					st.Watch.Symbol, st.Quote.Price, st.Watch.Lower, st.Watch.Upper)
				switch {
				case len(st.Breaches) == 0:
					output.Println(line)
				case st.Breaches[0].Kind == models.BreachLower:
					output.Error("%s  ← below lower bound", line)
				default:
					output.Success("%s  ← above upper bound", line)
				}
			}
			return nil
		},
	}
}

func formatAlertTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
