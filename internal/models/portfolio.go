package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a holding in a user's portfolio. CostBasis is the
// weighted-average purchase price per share; it is recomputed on buys and
// left unchanged on sells.
type Position struct {
	Symbol    string
	Shares    decimal.Decimal
	CostBasis decimal.Decimal
	Sector    string
}

// Trade is one entry in a user's append-only trade log. RealizedPnL is
// only meaningful for sells: (sell price - cost basis at time) * shares.
type Trade struct {
	Symbol      string
	Side        TradeSide
	Shares      decimal.Decimal
	Price       decimal.Decimal
	RealizedPnL decimal.Decimal
	Timestamp   time.Time
}

// Portfolio holds one user's positions and trade history. Trades are
// ordered oldest first as loaded from the store.
type Portfolio struct {
	Positions map[string]Position
	Trades    []Trade
}

// NewPortfolio returns an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{Positions: make(map[string]Position)}
}
