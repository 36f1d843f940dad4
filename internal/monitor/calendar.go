package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/market"
	"stockwatch/internal/notify"
)

// subscriberSource yields the users who receive market calendar alerts.
type subscriberSource interface {
	Users(ctx context.Context) ([]string, error)
}

// CalendarMonitor sends a heads-up shortly before the market opens and
// closes. Each event fires at most once per trading day.
type CalendarMonitor struct {
	cal      *market.Calendar
	users    subscriberSource
	notifier notify.Notifier
	logger   zerolog.Logger

	now func() time.Time

	mu           sync.Mutex
	openAlerted  string
	closeAlerted string
}

// NewCalendarMonitor creates a calendar monitor.
func NewCalendarMonitor(cal *market.Calendar, users subscriberSource, notifier notify.Notifier, logger zerolog.Logger) *CalendarMonitor {
	return &CalendarMonitor{
		cal:      cal,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("monitor", "calendar").Logger(),
		now:      time.Now,
	}
}

// Name returns the monitor name used for scheduling and logs.
func (m *CalendarMonitor) Name() string { return "calendar" }

// Check runs one monitoring cycle.
func (m *CalendarMonitor) Check(ctx context.Context) {
	t := m.now().In(m.cal.Location())
	if !m.cal.IsTradingDay(t) {
		return
	}

	day := m.cal.Day(t)
	lead := m.cal.AlertLead()
	openAt := m.cal.OpenAt(t)
	closeAt := m.cal.CloseAt(t)

	if inWindow(t, openAt, lead) && m.claim(&m.openAlerted, day) {
		m.broadcast(ctx, notify.MarketOpenNotification(openAt), "open")
	}
	if inWindow(t, closeAt, lead) && m.claim(&m.closeAlerted, day) {
		m.broadcast(ctx, notify.MarketCloseNotification(closeAt), "close")
	}
}

// inWindow reports whether t falls in [event-lead, event).
func inWindow(t, event time.Time, lead time.Duration) bool {
	return !t.Before(event.Add(-lead)) && t.Before(event)
}

// claim marks the event as alerted for day. It returns false when the
// alert already fired that day.
func (m *CalendarMonitor) claim(slot *string, day string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *slot == day {
		return false
	}
	*slot = day
	return true
}

func (m *CalendarMonitor) broadcast(ctx context.Context, n notify.Notification, event string) {
	users, err := m.users.Users(ctx)
	if err != nil {
		m.logger.Error().Err(err).Str("event", event).Msg("failed to load subscribers")
		return
	}

	m.logger.Info().Str("event", event).Int("subscribers", len(users)).Msg("market calendar alert")

	for _, userID := range users {
		if err := m.notifier.Send(ctx, userID, n); err != nil {
			m.logger.Error().Err(err).Str("user", userID).Str("event", event).
				Msg("failed to send market alert")
		}
	}
}
