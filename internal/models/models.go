// Package models provides domain models for the monitoring engine.
package models

import (
	"time"
)

// Quote represents a point-in-time market quote for a symbol.
type Quote struct {
	Symbol        string
	Price         float64
	Volume        int64
	AverageVolume float64
	Timestamp     time.Time
}

// TradeSide represents the side of a trade.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// MarketStatus represents the current state of the reference market.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketClosed  MarketStatus = "CLOSED"
	MarketPreOpen MarketStatus = "PRE_OPEN"
)

// BreachKind identifies which bound of a watch was breached.
type BreachKind string

const (
	BreachLower BreachKind = "lower"
	BreachUpper BreachKind = "upper"
)
