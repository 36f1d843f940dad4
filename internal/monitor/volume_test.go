package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/models"
)

type fakeVolumeLedger struct {
	watches map[string][]models.Watch
	alerted map[string]time.Time // user|symbol → day
}

func newFakeVolumeLedger(watches map[string][]models.Watch) *fakeVolumeLedger {
	return &fakeVolumeLedger{watches: watches, alerted: make(map[string]time.Time)}
}

func (f *fakeVolumeLedger) AllWatches(ctx context.Context) (map[string][]models.Watch, error) {
	return f.watches, nil
}

func (f *fakeVolumeLedger) LastVolumeAlert(ctx context.Context, userID, symbol string) (time.Time, error) {
	return f.alerted[userID+"|"+symbol], nil
}

func (f *fakeVolumeLedger) MarkVolumeAlert(ctx context.Context, userID, symbol string, day time.Time) error {
	f.alerted[userID+"|"+symbol] = day
	return nil
}

func marketHours(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	// Monday, mid-session.
	return time.Date(2024, 3, 4, 11, 0, 0, 0, loc)
}

func newVolumeMonitorForTest(ledger *fakeVolumeLedger, quotes *fakeQuoteSource, notifier *fakeNotifier, at time.Time) *VolumeMonitor {
	m := NewVolumeMonitor(ledger, quotes, notifier, testCalendar(), testMonitorConfig(), zerolog.Nop())
	m.now = func() time.Time { return at }
	return m
}

func TestVolumeSpikeAlert(t *testing.T) {
	ledger := newFakeVolumeLedger(map[string][]models.Watch{
		"user1": {{Symbol: "AAPL", Lower: 150, Upper: 180}},
	})
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 165, Volume: 2_500_000, AverageVolume: 1_000_000},
	}}
	notifier := &fakeNotifier{}

	m := newVolumeMonitorForTest(ledger, quotes, notifier, marketHours(t))
	m.Check(context.Background())

	if len(notifier.sent) != 1 {
		t.Fatalf("got %d alerts, want 1", len(notifier.sent))
	}
	if notifier.sent[0].n.Data["ratio"].(float64) != 2.5 {
		t.Errorf("got ratio %v, want 2.5", notifier.sent[0].n.Data["ratio"])
	}
}

func TestVolumeBelowRatioNoAlert(t *testing.T) {
	ledger := newFakeVolumeLedger(map[string][]models.Watch{
		"user1": {{Symbol: "AAPL", Lower: 150, Upper: 180}},
	})
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 165, Volume: 1_900_000, AverageVolume: 1_000_000},
	}}
	notifier := &fakeNotifier{}

	m := newVolumeMonitorForTest(ledger, quotes, notifier, marketHours(t))
	m.Check(context.Background())

	if len(notifier.sent) != 0 {
		t.Fatalf("got %d alerts, want 0", len(notifier.sent))
	}
}

func TestVolumeZeroAverageNeverAlerts(t *testing.T) {
	ledger := newFakeVolumeLedger(map[string][]models.Watch{
		"user1": {{Symbol: "IPO", Lower: 10, Upper: 50}},
	})
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"IPO": {Symbol: "IPO", Price: 20, Volume: 5_000_000, AverageVolume: 0},
	}}
	notifier := &fakeNotifier{}

	m := newVolumeMonitorForTest(ledger, quotes, notifier, marketHours(t))
	m.Check(context.Background())

	if len(notifier.sent) != 0 {
		t.Fatalf("zero average volume produced %d alerts", len(notifier.sent))
	}
}

func TestVolumeOneAlertPerDay(t *testing.T) {
	ledger := newFakeVolumeLedger(map[string][]models.Watch{
		"user1": {{Symbol: "AAPL", Lower: 150, Upper: 180}},
	})
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 165, Volume: 3_000_000, AverageVolume: 1_000_000},
	}}
	notifier := &fakeNotifier{}

	at := marketHours(t)
	m := newVolumeMonitorForTest(ledger, quotes, notifier, at)

	// Several qualifying cycles on the same day.
	for i := 0; i < 5; i++ {
		current := at.Add(time.Duration(i) * 5 * time.Minute)
		m.now = func() time.Time { return current }
		m.Check(context.Background())
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("same day: got %d alerts, want 1", len(notifier.sent))
	}

	// Next trading day resets the dedup.
	next := at.AddDate(0, 0, 1)
	m.now = func() time.Time { return next }
	m.Check(context.Background())
	if len(notifier.sent) != 2 {
		t.Fatalf("next day: got %d alerts, want 2", len(notifier.sent))
	}
}

func TestVolumeSilentWhenMarketClosed(t *testing.T) {
	ledger := newFakeVolumeLedger(map[string][]models.Watch{
		"user1": {{Symbol: "AAPL", Lower: 150, Upper: 180}},
	})
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 165, Volume: 3_000_000, AverageVolume: 1_000_000},
	}}
	notifier := &fakeNotifier{}

	loc, _ := time.LoadLocation("America/New_York")
	evening := time.Date(2024, 3, 4, 20, 0, 0, 0, loc)

	m := newVolumeMonitorForTest(ledger, quotes, notifier, evening)
	m.Check(context.Background())

	if len(notifier.sent) != 0 {
		t.Fatalf("closed market produced %d alerts", len(notifier.sent))
	}
}
