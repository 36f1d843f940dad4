package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/config"
	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/market"
	"stockwatch/internal/models"
	"stockwatch/internal/notify"
	"stockwatch/internal/quote"
)

// VolumeLedger is the slice of the store the volume monitor needs.
type VolumeLedger interface {
	AllWatches(ctx context.Context) (map[string][]models.Watch, error)
	LastVolumeAlert(ctx context.Context, userID, symbol string) (time.Time, error)
	MarkVolumeAlert(ctx context.Context, userID, symbol string, day time.Time) error
}

// VolumeMonitor alerts when a watched symbol trades at an unusual multiple
// of its average volume. Runs only during market hours; each (user, symbol)
// pair alerts at most once per trading day.
type VolumeMonitor struct {
	store        VolumeLedger
	quotes       quote.Source
	notifier     notify.Notifier
	cal          *market.Calendar
	spikeRatio   float64
	quoteTimeout time.Duration
	logger       zerolog.Logger

	now func() time.Time
}

// NewVolumeMonitor creates a volume monitor.
func NewVolumeMonitor(store VolumeLedger, quotes quote.Source, notifier notify.Notifier, cal *market.Calendar, cfg config.MonitorConfig, logger zerolog.Logger) *VolumeMonitor {
	return &VolumeMonitor{
		store:        store,
		quotes:       quotes,
		notifier:     notifier,
		cal:          cal,
		spikeRatio:   cfg.VolumeSpikeRatio,
		quoteTimeout: cfg.QuoteTimeout,
		logger:       logger.With().Str("monitor", "volume").Logger(),
		now:          time.Now,
	}
}

// Name returns the monitor name used for scheduling and logs.
func (m *VolumeMonitor) Name() string { return "volume" }

// Check runs one monitoring cycle.
func (m *VolumeMonitor) Check(ctx context.Context) {
	t := m.now().In(m.cal.Location())
	if !m.cal.IsOpenAt(t) {
		return
	}
	day := m.cal.Day(t)

	all, err := m.store.AllWatches(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to load watches")
		return
	}

	quotes := make(map[string]*models.Quote)
	failed := make(map[string]bool)

	for userID, watches := range all {
		for _, w := range watches {
			if failed[w.Symbol] {
				continue
			}
			q, ok := quotes[w.Symbol]
			if !ok {
				qctx, cancel := context.WithTimeout(ctx, m.quoteTimeout)
				q, err = m.quotes.GetQuote(qctx, w.Symbol)
				cancel()
				if err != nil {
					if apperrors.Is(err, apperrors.ErrQuoteUnavailable) {
						m.logger.Warn().Err(err).Str("symbol", w.Symbol).Msg("quote unavailable, skipping symbol")
					} else {
						m.logger.Error().Err(err).Str("symbol", w.Symbol).Msg("quote fetch failed")
					}
					failed[w.Symbol] = true
					continue
				}
				quotes[w.Symbol] = q
			}

			// No baseline means no signal.
			if q.AverageVolume <= 0 {
				continue
			}
			ratio := float64(q.Volume) / q.AverageVolume
			if ratio < m.spikeRatio {
				continue
			}

			last, err := m.store.LastVolumeAlert(ctx, userID, w.Symbol)
			if err != nil {
				m.logger.Error().Err(err).Str("user", userID).Str("symbol", w.Symbol).
					Msg("failed to read volume alert ledger")
				continue
			}
			if !last.IsZero() && last.Format("2006-01-02") == day {
				continue
			}

			m.logger.Info().
				Str("user", userID).
				Str("symbol", w.Symbol).
				Int64("volume", q.Volume).
				Float64("average", q.AverageVolume).
				Float64("ratio", ratio).
				Msg("volume spike")

			if err := m.notifier.Send(ctx, userID, notify.VolumeNotification(w.Symbol, q.Volume, q.AverageVolume, ratio)); err != nil {
				m.logger.Error().Err(err).Str("user", userID).Msg("failed to send volume alert")
				continue
			}
			if err := m.store.MarkVolumeAlert(ctx, userID, w.Symbol, t); err != nil {
				m.logger.Error().Err(err).Str("user", userID).Str("symbol", w.Symbol).
					Msg("failed to mark volume alert")
			}
		}
	}
}
