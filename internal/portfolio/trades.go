// Package portfolio implements trade application, valuation, and
// diversification analysis over a user's holdings.
package portfolio

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
)

// dustThreshold closes out positions whose share count rounds to nothing
// after a sell.
var dustThreshold = decimal.NewFromFloat(0.001)

// ApplyBuy records a purchase, creating the position or folding the buy
// into the existing one with a weighted-average cost basis.
func ApplyBuy(p *models.Portfolio, symbol string, shares, price decimal.Decimal, sector string, now time.Time) (models.Position, models.Trade, error) {
	if shares.LessThanOrEqual(decimal.Zero) {
		return models.Position{}, models.Trade{}, apperrors.NewValidationError("shares", shares.String(), "must be positive")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return models.Position{}, models.Trade{}, apperrors.NewValidationError("price", price.String(), "must be positive")
	}

	pos, ok := p.Positions[symbol]
	if !ok {
		pos = models.Position{
			Symbol:    symbol,
			Shares:    shares,
			CostBasis: price,
			Sector:    sector,
		}
	} else {
		// Weighted-average cost basis across the old lot and the new buy.
		oldValue := pos.Shares.Mul(pos.CostBasis)
		newValue := shares.Mul(price)
		total := pos.Shares.Add(shares)
		pos.CostBasis = oldValue.Add(newValue).Div(total)
		pos.Shares = total
		if sector != "" {
			pos.Sector = sector
		}
	}
	p.Positions[symbol] = pos

	trade := models.Trade{
		Symbol:    symbol,
		Side:      models.SideBuy,
		Shares:    shares,
		Price:     price,
		Timestamp: now,
	}
	p.Trades = append(p.Trades, trade)

	return pos, trade, nil
}

// ApplySell records a sale and returns the realized profit or loss,
// computed against the position's cost basis. The cost basis itself is
// unchanged by a sell. Selling more than held is rejected with no state
// mutated.
func ApplySell(p *models.Portfolio, symbol string, shares, price decimal.Decimal, now time.Time) (models.Trade, error) {
	if shares.LessThanOrEqual(decimal.Zero) {
		return models.Trade{}, apperrors.NewValidationError("shares", shares.String(), "must be positive")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return models.Trade{}, apperrors.NewValidationError("price", price.String(), "must be positive")
	}

	pos, ok := p.Positions[symbol]
	if !ok {
		return models.Trade{}, apperrors.NewTradeError(symbol, string(models.SideSell), "no position held", apperrors.ErrInsufficientShares)
	}
	if shares.GreaterThan(pos.Shares) {
		reason := fmt.Sprintf("sell of %s shares exceeds %s held", shares, pos.Shares)
		return models.Trade{}, apperrors.NewTradeError(symbol, string(models.SideSell), reason, apperrors.ErrInsufficientShares)
	}

	realized := price.Sub(pos.CostBasis).Mul(shares)

	pos.Shares = pos.Shares.Sub(shares)
	if pos.Shares.LessThanOrEqual(dustThreshold) {
		delete(p.Positions, symbol)
	} else {
		p.Positions[symbol] = pos
	}

	trade := models.Trade{
		Symbol:      symbol,
		Side:        models.SideSell,
		Shares:      shares,
		Price:       price,
		RealizedPnL: realized,
		Timestamp:   now,
	}
	p.Trades = append(p.Trades, trade)

	return trade, nil
}
