// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"stockwatch/internal/models"
)

// Store defines the interface for the durable alert and portfolio state.
// All state is keyed by an opaque user identifier supplied by the
// messaging layer.
type Store interface {
	// Watches
	SaveWatch(ctx context.Context, userID string, w models.Watch) error
	DeleteWatch(ctx context.Context, userID, symbol string) error
	UserWatches(ctx context.Context, userID string) ([]models.Watch, error)
	AllWatches(ctx context.Context) (map[string][]models.Watch, error)
	UpdateWatchAlerts(ctx context.Context, userID string, w models.Watch) error
	Users(ctx context.Context) ([]string, error)

	// Portfolio
	Portfolio(ctx context.Context, userID string) (*models.Portfolio, error)
	SavePosition(ctx context.Context, userID string, p models.Position) error
	DeletePosition(ctx context.Context, userID, symbol string) error
	LogTrade(ctx context.Context, userID string, t models.Trade) error
	Trades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)

	// Volume alert ledger
	LastVolumeAlert(ctx context.Context, userID, symbol string) (time.Time, error)
	MarkVolumeAlert(ctx context.Context, userID, symbol string, day time.Time) error

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying the trade log.
type TradeFilter struct {
	UserID string
	Symbol string
	Side   models.TradeSide
	Limit  int
}
