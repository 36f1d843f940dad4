// Package quote provides market data sources.
package quote

import (
	"context"

	"stockwatch/internal/models"
)

// Source fetches current market data for a symbol. Implementations must
// honor ctx deadlines so one unresponsive fetch cannot stall a whole
// monitoring cycle; failures are reported as ErrQuoteUnavailable.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}
