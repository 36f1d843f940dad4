package portfolio

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
	"stockwatch/internal/quote"
)

// Holding is a valued position.
type Holding struct {
	Symbol     string
	Sector     string
	Shares     decimal.Decimal
	CostBasis  decimal.Decimal
	Price      decimal.Decimal
	Value      decimal.Decimal
	PnL        decimal.Decimal
	PnLPercent float64
	Weight     float64 // percent of total portfolio value
}

// Valuation aggregates a portfolio at current prices. Holdings are sorted
// by value, largest first. Partial is set when one or more positions could
// not be priced; those positions are listed in Unpriced and excluded from
// every aggregate.
type Valuation struct {
	Holdings   []Holding
	Sectors    map[string]float64 // sector → percent of total value
	TotalValue decimal.Decimal
	TotalCost  decimal.Decimal
	TotalPnL   decimal.Decimal
	PnLPercent float64
	Partial    bool
	Unpriced   []string
}

// Analyzer values portfolios against live quotes.
type Analyzer struct {
	quotes       quote.Source
	quoteTimeout time.Duration
	logger       zerolog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(quotes quote.Source, quoteTimeout time.Duration, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		quotes:       quotes,
		quoteTimeout: quoteTimeout,
		logger:       logger.With().Str("component", "portfolio").Logger(),
	}
}

// Valuate prices every position in the portfolio. A quote failure on one
// symbol excludes that position and marks the result partial; it never
// aborts the rest.
func (a *Analyzer) Valuate(ctx context.Context, p *models.Portfolio) (*Valuation, error) {
	v := &Valuation{
		Sectors:    make(map[string]float64),
		TotalValue: decimal.Zero,
		TotalCost:  decimal.Zero,
		TotalPnL:   decimal.Zero,
	}

	sectorValue := make(map[string]decimal.Decimal)

	for symbol, pos := range p.Positions {
		qctx, cancel := context.WithTimeout(ctx, a.quoteTimeout)
		q, err := a.quotes.GetQuote(qctx, symbol)
		cancel()
		if err != nil {
			a.logger.Warn().Err(err).Str("symbol", symbol).Msg("position unpriced, excluding from totals")
			v.Partial = true
			v.Unpriced = append(v.Unpriced, symbol)
			continue
		}

		price := decimal.NewFromFloat(q.Price)
		value := pos.Shares.Mul(price)
		cost := pos.Shares.Mul(pos.CostBasis)
		pnl := value.Sub(cost)

		h := Holding{
			Symbol:    symbol,
			Sector:    pos.Sector,
			Shares:    pos.Shares,
			CostBasis: pos.CostBasis,
			Price:     price,
			Value:     value,
			PnL:       pnl,
		}
		if cost.IsPositive() {
			h.PnLPercent, _ = pnl.Div(cost).Mul(decimal.NewFromInt(100)).Float64()
		}

		v.Holdings = append(v.Holdings, h)
		v.TotalValue = v.TotalValue.Add(value)
		v.TotalCost = v.TotalCost.Add(cost)
		v.TotalPnL = v.TotalPnL.Add(pnl)

		sv, ok := sectorValue[pos.Sector]
		if !ok {
			sv = decimal.Zero
		}
		sectorValue[pos.Sector] = sv.Add(value)
	}

	sort.Slice(v.Holdings, func(i, j int) bool {
		return v.Holdings[i].Value.GreaterThan(v.Holdings[j].Value)
	})
	sort.Strings(v.Unpriced)

	if v.TotalValue.IsPositive() {
		hundred := decimal.NewFromInt(100)
		for i := range v.Holdings {
			v.Holdings[i].Weight, _ = v.Holdings[i].Value.Div(v.TotalValue).Mul(hundred).Float64()
		}
		for sector, sv := range sectorValue {
			v.Sectors[sector], _ = sv.Div(v.TotalValue).Mul(hundred).Float64()
		}
	}
	if v.TotalCost.IsPositive() {
		v.PnLPercent, _ = v.TotalPnL.Div(v.TotalCost).Mul(decimal.NewFromInt(100)).Float64()
	}

	return v, nil
}
