// Package market provides the reference trading calendar.
package market

import (
	"time"

	"stockwatch/internal/config"
	"stockwatch/internal/models"
)

// Calendar answers open/close questions for a single reference market.
// Weekday-only; the holiday set is supplied by configuration rather than
// baked in, since no holiday table is authoritative here.
type Calendar struct {
	loc       *time.Location
	openHour  int
	openMin   int
	closeHour int
	closeMin  int
	alertLead time.Duration
	holidays  map[string]struct{}
}

// NewCalendar builds a calendar from market configuration. An unknown
// timezone falls back to US Eastern as a fixed offset.
func NewCalendar(cfg config.MarketConfig) *Calendar {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}

	openH, openM := cfg.OpenClock()
	closeH, closeM := cfg.CloseClock()

	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays[h] = struct{}{}
	}

	return &Calendar{
		loc:       loc,
		openHour:  openH,
		openMin:   openM,
		closeHour: closeH,
		closeMin:  closeM,
		alertLead: cfg.AlertLead,
		holidays:  holidays,
	}
}

// Location returns the market timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// AlertLead returns how far ahead of open/close the one-shot alerts fire.
func (c *Calendar) AlertLead() time.Duration {
	return c.alertLead
}

// IsTradingDay reports whether t falls on a trading day.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	t = t.In(c.loc)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	_, holiday := c.holidays[t.Format("2006-01-02")]
	return !holiday
}

// OpenAt returns the market open instant on t's date.
func (c *Calendar) OpenAt(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), c.openHour, c.openMin, 0, 0, c.loc)
}

// CloseAt returns the market close instant on t's date.
func (c *Calendar) CloseAt(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), c.closeHour, c.closeMin, 0, 0, c.loc)
}

// IsOpenAt reports whether the market is in its regular session at t.
func (c *Calendar) IsOpenAt(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	t = t.In(c.loc)
	return !t.Before(c.OpenAt(t)) && t.Before(c.CloseAt(t))
}

// Status returns the market status at t.
func (c *Calendar) Status(t time.Time) models.MarketStatus {
	if !c.IsTradingDay(t) {
		return models.MarketClosed
	}
	t = t.In(c.loc)
	open := c.OpenAt(t)
	if t.Before(open) {
		if !t.Before(open.Add(-c.alertLead)) {
			return models.MarketPreOpen
		}
		return models.MarketClosed
	}
	if t.Before(c.CloseAt(t)) {
		return models.MarketOpen
	}
	return models.MarketClosed
}

// NextOpen returns the next market opening instant at or after t.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	t = t.In(c.loc)
	next := c.OpenAt(t)
	if t.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	for !c.IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Day returns t's calendar date in the market timezone, formatted
// "2006-01-02". Used as the dedup key for one-shot daily alerts.
func (c *Calendar) Day(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}
