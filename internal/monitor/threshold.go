// Package monitor implements the background monitoring cycles: price
// thresholds, market calendar events, and volume spikes.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/config"
	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
	"stockwatch/internal/notify"
	"stockwatch/internal/quote"
)

// WatchStore is the slice of the store the threshold monitor needs.
type WatchStore interface {
	AllWatches(ctx context.Context) (map[string][]models.Watch, error)
	UserWatches(ctx context.Context, userID string) ([]models.Watch, error)
	UpdateWatchAlerts(ctx context.Context, userID string, w models.Watch) error
}

// ThresholdMonitor checks watched symbols against their price bounds and
// alerts on breaches, subject to a per-bound cooldown.
type ThresholdMonitor struct {
	store        WatchStore
	quotes       quote.Source
	notifier     notify.Notifier
	cooldown     time.Duration
	quoteTimeout time.Duration
	logger       zerolog.Logger

	now func() time.Time
}

// NewThresholdMonitor creates a threshold monitor.
func NewThresholdMonitor(store WatchStore, quotes quote.Source, notifier notify.Notifier, cfg config.MonitorConfig, logger zerolog.Logger) *ThresholdMonitor {
	return &ThresholdMonitor{
		store:        store,
		quotes:       quotes,
		notifier:     notifier,
		cooldown:     cfg.AlertCooldown,
		quoteTimeout: cfg.QuoteTimeout,
		logger:       logger.With().Str("monitor", "threshold").Logger(),
		now:          time.Now,
	}
}

// Name returns the monitor name used for scheduling and logs.
func (m *ThresholdMonitor) Name() string { return "threshold" }

// Check runs one monitoring cycle. A failure on one watch never prevents
// the remaining watches from being evaluated.
func (m *ThresholdMonitor) Check(ctx context.Context) {
	all, err := m.store.AllWatches(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to load watches")
		return
	}

	// Each distinct symbol is fetched at most once per cycle.
	quotes := make(map[string]*models.Quote)
	failed := make(map[string]bool)

	for userID, watches := range all {
		for i := range watches {
			w := watches[i]

			if failed[w.Symbol] {
				continue
			}
			q, ok := quotes[w.Symbol]
			if !ok {
				q, err = m.fetchQuote(ctx, w.Symbol)
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

			breaches := Evaluate(&w, q.Price, m.cooldown, m.now())
			for _, b := range breaches {
				m.logger.Info().
					Str("user", userID).
					Str("symbol", b.Symbol).
					Str("kind", string(b.Kind)).
					Float64("price", b.Price).
					Float64("bound", b.Bound).
					Msg("threshold breach")

				if err := m.notifier.Send(ctx, userID, notify.BreachNotification(b)); err != nil {
					m.logger.Error().Err(err).Str("user", userID).Msg("failed to send breach alert")
				}
			}

			if len(breaches) > 0 {
				if err := m.store.UpdateWatchAlerts(ctx, userID, w); err != nil {
					m.logger.Error().Err(err).Str("user", userID).Str("symbol", w.Symbol).
						Msg("failed to persist alert timestamps")
				}
			}
		}
	}
}

// WatchStatus is the result of a one-shot evaluation of a single watch.
type WatchStatus struct {
	Watch    models.Watch
	Quote    *models.Quote
	Breaches []models.Breach
	Err      error
}

// EvaluateOnce evaluates every watch of a single user right now, without
// touching cooldown state. Used by the manual price command.
func (m *ThresholdMonitor) EvaluateOnce(ctx context.Context, userID string) ([]WatchStatus, error) {
	watches, err := m.store.UserWatches(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]WatchStatus, 0, len(watches))
	for _, w := range watches {
		st := WatchStatus{Watch: w}
		q, err := m.fetchQuote(ctx, w.Symbol)
		if err != nil {
			st.Err = err
			statuses = append(statuses, st)
			continue
		}
		st.Quote = q
		// Zero cooldown on a scratch copy: breaches are reported but no
		// timestamps persist.
		scratch := w
		st.Breaches = Evaluate(&scratch, q.Price, 0, m.now())
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (m *ThresholdMonitor) fetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	qctx, cancel := context.WithTimeout(ctx, m.quoteTimeout)
	defer cancel()
	return m.quotes.GetQuote(qctx, symbol)
}

// Evaluate compares price against the watch bounds and returns the breaches
// that are due for alerting. Both bounds are inclusive and carry independent
// cooldowns. The watch's last-alert timestamps are advanced for every
// returned breach; a price inside the band leaves them untouched.
func Evaluate(w *models.Watch, price float64, cooldown time.Duration, now time.Time) []models.Breach {
	var breaches []models.Breach

	if price <= w.Lower && alertDue(w.LastAlertLow, cooldown, now) {
		t := now
		w.LastAlertLow = &t
		breaches = append(breaches, models.Breach{
			Symbol: w.Symbol,
			Kind:   models.BreachLower,
			Price:  price,
			Bound:  w.Lower,
		})
	}

	if price >= w.Upper && alertDue(w.LastAlertHigh, cooldown, now) {
		t := now
		w.LastAlertHigh = &t
		breaches = append(breaches, models.Breach{
			Symbol: w.Symbol,
			Kind:   models.BreachUpper,
			Price:  price,
			Bound:  w.Upper,
		})
	}

	return breaches
}

func alertDue(last *time.Time, cooldown time.Duration, now time.Time) bool {
	return last == nil || now.Sub(*last) >= cooldown
}
