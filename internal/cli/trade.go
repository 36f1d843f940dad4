package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/logging"
	"stockwatch/internal/models"
	"stockwatch/internal/portfolio"
	"stockwatch/internal/store"
)

// addPortfolioCommands adds trade and portfolio commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
}

func parseTradeArgs(args []string) (symbol string, shares, price decimal.Decimal, err error) {
	symbol = strings.ToUpper(args[0])
	shares, err = decimal.NewFromString(args[1])
	if err != nil {
		return "", decimal.Zero, decimal.Zero, apperrors.NewValidationError("shares", args[1], "not a number")
	}
	price, err = decimal.NewFromString(args[2])
	if err != nil {
		return "", decimal.Zero, decimal.Zero, apperrors.NewValidationError("price", args[2], "not a number")
	}
	return symbol, shares, price, nil
}

func newBuyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy SYMBOL SHARES PRICE",
		Short: "Record a purchase",
		Example: `  stockwatch buy AAPL 10 178.50
  stockwatch buy GLD 5 185 --sector Commodities`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			symbol, shares, price, err := parseTradeArgs(args)
			if err != nil {
				return err
			}
			sector, _ := cmd.Flags().GetString("sector")
			if sector == "" {
				sector = app.Sectors.Sector(symbol)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			user := userID(cmd)

			p, err := app.Store.Portfolio(ctx, user)
			if err != nil {
				return err
			}

			pos, trade, err := portfolio.ApplyBuy(p, symbol, shares, price, sector, time.Now())
			if err != nil {
				return err
			}

			if err := app.Store.SavePosition(ctx, user, pos); err != nil {
				return err
			}
			if err := app.Store.LogTrade(ctx, user, trade); err != nil {
				return err
			}
			logging.LogTrade(app.Logger, user, symbol, string(trade.Side), shares.String(), price.String())

			if output.IsJSON() {
				return output.JSON(pos)
			}
			output.Success("✓ Bought %s %s @ $%s", shares, symbol, price)
			output.Printf("  Holding: %s shares, cost basis $%s\n",
				pos.Shares, pos.CostBasis.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().String("sector", "", "sector for the position (default: built-in lookup)")
	return cmd
}

func newSellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "sell SYMBOL SHARES PRICE",
		Short:   "Record a sale",
		Example: `  stockwatch sell AAPL 5 185.20`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			symbol, shares, price, err := parseTradeArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			user := userID(cmd)

			p, err := app.Store.Portfolio(ctx, user)
			if err != nil {
				return err
			}

			trade, err := portfolio.ApplySell(p, symbol, shares, price, time.Now())
			if err != nil {
				return err
			}

			if pos, held := p.Positions[symbol]; held {
				if err := app.Store.SavePosition(ctx, user, pos); err != nil {
					return err
				}
			} else {
				if err := app.Store.DeletePosition(ctx, user, symbol); err != nil {
					return err
				}
			}
			if err := app.Store.LogTrade(ctx, user, trade); err != nil {
				return err
			}
			logging.LogTrade(app.Logger, user, symbol, string(trade.Side), shares.String(), price.String())

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("✓ Sold %s %s @ $%s", shares, symbol, price)
			if trade.RealizedPnL.IsNegative() {
				output.Printf("  Realized P&L: %s\n", output.Red("-$"+trade.RealizedPnL.Abs().StringFixed(2)))
			} else {
				output.Printf("  Realized P&L: %s\n", output.Green("+$"+trade.RealizedPnL.StringFixed(2)))
			}
			return nil
		},
	}
}

func newPortfolioCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show portfolio valuation and diversification analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			p, err := app.Store.Portfolio(ctx, userID(cmd))
			if err != nil {
				return err
			}
			if len(p.Positions) == 0 {
				output.Info("Portfolio is empty. Record a trade with 'stockwatch buy'.")
				return nil
			}

			v, err := app.Analyzer.Valuate(ctx, p)
			if err != nil {
				return err
			}
			analysis := portfolio.Analyze(v)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"valuation": v,
					"analysis":  analysis,
				})
			}

			output.Bold("Portfolio")
			table := NewTable(output, "Symbol", "Shares", "Cost Basis", "Price", "Value", "P&L", "Weight")
			for _, h := range v.Holdings {
				table.AddRow(
					h.Symbol,
					h.Shares.String(),
					"$"+h.CostBasis.StringFixed(2),
					"$"+h.Price.StringFixed(2),
					"$"+h.Value.StringFixed(2),
					formatPnL(output, h.PnL, h.PnLPercent),
					fmt.Sprintf("%.1f%%", h.Weight),
				)
			}
			table.Render()
			output.Println()

			output.Printf("Total Value: $%s\n", v.TotalValue.StringFixed(2))
			output.Printf("Total P&L:   %s\n", formatPnL(output, v.TotalPnL, v.PnLPercent))
			if v.Partial {
				output.Warning("Quotes unavailable for: %s (excluded from totals)",
					strings.Join(v.Unpriced, ", "))
			}
			output.Println()

			output.Bold("Sector Breakdown")
			sectors := make([]string, 0, len(v.Sectors))
			for sector := range v.Sectors {
				sectors = append(sectors, sector)
			}
			sort.Slice(sectors, func(i, j int) bool {
				return v.Sectors[sectors[i]] > v.Sectors[sectors[j]]
			})
			for _, sector := range sectors {
				output.Printf("  %-14s %.1f%%\n", sector, v.Sectors[sector])
			}
			output.Println()

			output.Bold("Diversification Score: %d/100", analysis.Score)
			for _, w := range analysis.Warnings {
				output.Warning("  %s", w)
			}
			for _, r := range analysis.Recommendations {
				output.Dim("  • %s", r)
			}
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show trade history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			side, _ := cmd.Flags().GetString("side")
			limit, _ := cmd.Flags().GetInt("limit")

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			trades, err := app.Store.Trades(ctx, store.TradeFilter{
				UserID: userID(cmd),
				Symbol: strings.ToUpper(symbol),
				Side:   models.TradeSide(strings.ToUpper(side)),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades recorded.")
				return nil
			}

			table := NewTable(output, "When", "Symbol", "Side", "Shares", "Price", "Realized P&L")
			for _, t := range trades {
				pnl := "-"
				if t.Side == models.SideSell {
					pnl = "$" + t.RealizedPnL.StringFixed(2)
				}
				table.AddRow(
					humanize.Time(t.Timestamp),
					t.Symbol,
					string(t.Side),
					t.Shares.String(),
					"$"+t.Price.StringFixed(2),
					pnl,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().String("side", "", "filter by side (buy/sell)")
	cmd.Flags().Int("limit", 20, "maximum trades to show")
	return cmd
}

func formatPnL(output *Output, pnl decimal.Decimal, pct float64) string {
	if pnl.IsNegative() {
		return output.Red(fmt.Sprintf("-$%s (%.1f%%)", pnl.Abs().StringFixed(2), pct))
	}
	return output.Green(fmt.Sprintf("+$%s (+%.1f%%)", pnl.StringFixed(2), pct))
}
