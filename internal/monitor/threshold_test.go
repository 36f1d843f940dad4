package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/config"
	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
	"stockwatch/internal/notify"
)

type fakeWatchStore struct {
	watches map[string][]models.Watch
	updates int
}

func (f *fakeWatchStore) AllWatches(ctx context.Context) (map[string][]models.Watch, error) {
	return f.watches, nil
}

func (f *fakeWatchStore) UserWatches(ctx context.Context, userID string) ([]models.Watch, error) {
	return f.watches[userID], nil
}

func (f *fakeWatchStore) UpdateWatchAlerts(ctx context.Context, userID string, w models.Watch) error {
	f.updates++
	for i, existing := range f.watches[userID] {
		if existing.Symbol == w.Symbol {
			f.watches[userID][i] = w
		}
	}
	return nil
}

type fakeQuoteSource struct {
	quotes map[string]*models.Quote
	errs   map[string]error
}

func (f *fakeQuoteSource) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return nil, apperrors.NewQuoteError(symbol, "unknown symbol", nil)
}

type sentAlert struct {
	userID string
	n      notify.Notification
}

type fakeNotifier struct {
	sent []sentAlert
}

func (f *fakeNotifier) Send(ctx context.Context, userID string, n notify.Notification) error {
	f.sent = append(f.sent, sentAlert{userID: userID, n: n})
	return nil
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		ThresholdInterval: 2 * time.Minute,
		CalendarInterval:  time.Minute,
		VolumeInterval:    5 * time.Minute,
		AlertCooldown:     time.Hour,
		VolumeSpikeRatio:  2.0,
		QuoteTimeout:      10 * time.Second,
	}
}

func TestEvaluateInclusiveBounds(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		price float64
		want  []models.BreachKind
	}{
		{"exactly lower", 150.0, []models.BreachKind{models.BreachLower}},
		{"exactly upper", 180.0, []models.BreachKind{models.BreachUpper}},
		{"below lower", 140.0, []models.BreachKind{models.BreachLower}},
		{"above upper", 190.0, []models.BreachKind{models.BreachUpper}},
		{"in band", 165.0, nil},
		{"just inside lower", 150.01, nil},
		{"just inside upper", 179.99, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180}
			breaches := Evaluate(&w, tt.price, time.Hour, now)

			if len(breaches) != len(tt.want) {
				t.Fatalf("got %d breaches, want %d", len(breaches), len(tt.want))
			}
			for i, kind := range tt.want {
				if breaches[i].Kind != kind {
					t.Errorf("breach %d: got kind %s, want %s", i, breaches[i].Kind, kind)
				}
				if breaches[i].Price != tt.price {
					t.Errorf("breach %d: got price %v, want %v", i, breaches[i].Price, tt.price)
				}
			}
		})
	}
}

func TestEvaluateCooldown(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	w := models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180}

	if got := Evaluate(&w, 149, time.Hour, now); len(got) != 1 {
		t.Fatalf("first evaluation: got %d breaches, want 1", len(got))
	}
	if w.LastAlertLow == nil || !w.LastAlertLow.Equal(now) {
		t.Fatalf("last_alert_low not set to now")
	}

	// Still breaching 10 minutes later, inside the cooldown.
	if got := Evaluate(&w, 149, time.Hour, now.Add(10*time.Minute)); len(got) != 0 {
		t.Fatalf("within cooldown: got %d breaches, want 0", len(got))
	}

	// Cooldown elapsed exactly.
	if got := Evaluate(&w, 149, time.Hour, now.Add(time.Hour)); len(got) != 1 {
		t.Fatalf("after cooldown: got %d breaches, want 1", len(got))
	}
}

func TestEvaluateIndependentCooldowns(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	w := models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180}

	if got := Evaluate(&w, 149, time.Hour, now); len(got) != 1 || got[0].Kind != models.BreachLower {
		t.Fatalf("expected a lower breach first")
	}

	// An upper breach 10 minutes later is not throttled by the lower
	// breach's cooldown.
	got := Evaluate(&w, 181, time.Hour, now.Add(10*time.Minute))
	if len(got) != 1 || got[0].Kind != models.BreachUpper {
		t.Fatalf("upper breach blocked by lower cooldown: got %v", got)
	}
}

func TestEvaluateInBandLeavesTimestamps(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	alerted := now.Add(-30 * time.Minute)
	w := models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180, LastAlertLow: &alerted}

	if got := Evaluate(&w, 165, time.Hour, now); len(got) != 0 {
		t.Fatalf("in-band price produced breaches: %v", got)
	}
	if w.LastAlertLow == nil || !w.LastAlertLow.Equal(alerted) {
		t.Errorf("in-band price moved last_alert_low")
	}
}

func TestThresholdCheckIsolatesQuoteFailures(t *testing.T) {
	store := &fakeWatchStore{watches: map[string][]models.Watch{
		"user1": {
			{Symbol: "FAIL", Lower: 150, Upper: 180},
			{Symbol: "AAPL", Lower: 150, Upper: 180},
		},
	}}
	quotes := &fakeQuoteSource{
		quotes: map[string]*models.Quote{"AAPL": {Symbol: "AAPL", Price: 149}},
		errs:   map[string]error{"FAIL": apperrors.NewQuoteError("FAIL", "provider error", nil)},
	}
	notifier := &fakeNotifier{}

	m := NewThresholdMonitor(store, quotes, notifier, testMonitorConfig(), zerolog.Nop())
	m.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }

	m.Check(context.Background())

	if len(notifier.sent) != 1 {
		t.Fatalf("got %d alerts, want 1", len(notifier.sent))
	}
	if notifier.sent[0].userID != "user1" {
		t.Errorf("alert went to %q", notifier.sent[0].userID)
	}
	if store.updates != 1 {
		t.Errorf("got %d timestamp persists, want 1", store.updates)
	}
}

func TestThresholdEndToEnd(t *testing.T) {
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	current := base

	store := &fakeWatchStore{watches: map[string][]models.Watch{
		"user1": {{Symbol: "AAPL", Lower: 150, Upper: 180}},
	}}
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 149},
	}}
	notifier := &fakeNotifier{}

	m := NewThresholdMonitor(store, quotes, notifier, testMonitorConfig(), zerolog.Nop())
	m.now = func() time.Time { return current }

	// Quote at 149: lower breach fires and the timestamp is recorded.
	m.Check(context.Background())
	if len(notifier.sent) != 1 {
		t.Fatalf("cycle 1: got %d alerts, want 1", len(notifier.sent))
	}
	if store.watches["user1"][0].LastAlertLow == nil {
		t.Fatal("cycle 1: last_alert_low not persisted")
	}

	// Same price 10 minutes later: cooldown suppresses the repeat.
	current = base.Add(10 * time.Minute)
	m.Check(context.Background())
	if len(notifier.sent) != 1 {
		t.Fatalf("cycle 2: got %d alerts, want 1", len(notifier.sent))
	}

	// Price jumps to 181 over an hour later: the upper breach has its own
	// cooldown and fires.
	current = base.Add(90 * time.Minute)
	quotes.quotes["AAPL"].Price = 181
	m.Check(context.Background())
	if len(notifier.sent) != 2 {
		t.Fatalf("cycle 3: got %d alerts, want 2", len(notifier.sent))
	}
	if notifier.sent[1].n.Type != notify.NotificationPrice {
		t.Errorf("cycle 3: got notification type %s", notifier.sent[1].n.Type)
	}
}

func TestEvaluateOnceDoesNotMutate(t *testing.T) {
	store := &fakeWatchStore{watches: map[string][]models.Watch{
		"user1": {{Symbol: "AAPL", Lower: 150, Upper: 180}},
	}}
	quotes := &fakeQuoteSource{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 149},
	}}
	notifier := &fakeNotifier{}

	m := NewThresholdMonitor(store, quotes, notifier, testMonitorConfig(), zerolog.Nop())

	statuses, err := m.EvaluateOnce(context.Background(), "user1")
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	if len(statuses[0].Breaches) != 1 || statuses[0].Breaches[0].Kind != models.BreachLower {
		t.Fatalf("expected a lower breach, got %v", statuses[0].Breaches)
	}
	if store.watches["user1"][0].LastAlertLow != nil {
		t.Error("one-shot evaluation mutated cooldown state")
	}
	if store.updates != 0 {
		t.Error("one-shot evaluation persisted timestamps")
	}
	if len(notifier.sent) != 0 {
		t.Error("one-shot evaluation sent alerts")
	}
}

func TestQuoteErrorMatchesSentinel(t *testing.T) {
	err := apperrors.NewQuoteError("AAPL", "provider down", errors.New("http 503"))
	if !apperrors.Is(err, apperrors.ErrQuoteUnavailable) {
		t.Error("QuoteError does not match ErrQuoteUnavailable")
	}
}
