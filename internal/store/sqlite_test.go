package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWatchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w := models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180}
	if err := s.SaveWatch(ctx, "user1", w); err != nil {
		t.Fatal(err)
	}

	watches, err := s.UserWatches(ctx, "user1")
	if err != nil {
		t.Fatal(err)
	}
	if len(watches) != 1 {
		t.Fatalf("got %d watches, want 1", len(watches))
	}
	got := watches[0]
	if got.Symbol != "AAPL" || got.Lower != 150 || got.Upper != 180 {
		t.Errorf("got %+v", got)
	}
	if got.LastAlertLow != nil || got.LastAlertHigh != nil {
		t.Error("fresh watch has alert timestamps")
	}
}

func TestSaveWatchUpsertKeepsTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w := models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180}
	if err := s.SaveWatch(ctx, "user1", w); err != nil {
		t.Fatal(err)
	}

	alerted := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	w.LastAlertLow = &alerted
	if err := s.UpdateWatchAlerts(ctx, "user1", w); err != nil {
		t.Fatal(err)
	}

	// Re-saving with new bounds must not clear the cooldown timestamps.
	w2 := models.Watch{Symbol: "AAPL", Lower: 140, Upper: 190}
	if err := s.SaveWatch(ctx, "user1", w2); err != nil {
		t.Fatal(err)
	}

	watches, err := s.UserWatches(ctx, "user1")
	if err != nil {
		t.Fatal(err)
	}
	got := watches[0]
	if got.Lower != 140 || got.Upper != 190 {
		t.Errorf("bounds not updated: %+v", got)
	}
	if got.LastAlertLow == nil || !got.LastAlertLow.Equal(alerted) {
		t.Error("upsert cleared last_alert_low")
	}
}

func TestAllWatchesGroupsByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveWatch(ctx, "user1", models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180})
	s.SaveWatch(ctx, "user1", models.Watch{Symbol: "TSLA", Lower: 200, Upper: 280})
	s.SaveWatch(ctx, "user2", models.Watch{Symbol: "AAPL", Lower: 100, Upper: 200})

	all, err := s.AllWatches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d users, want 2", len(all))
	}
	if len(all["user1"]) != 2 || len(all["user2"]) != 1 {
		t.Errorf("got %d/%d watches", len(all["user1"]), len(all["user2"]))
	}

	users, err := s.Users(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("got users %v", users)
	}
}

func TestDeleteWatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveWatch(ctx, "user1", models.Watch{Symbol: "AAPL", Lower: 150, Upper: 180})
	if err := s.DeleteWatch(ctx, "user1", "AAPL"); err != nil {
		t.Fatal(err)
	}
	err := s.DeleteWatch(ctx, "user1", "AAPL")
	if !apperrors.Is(err, apperrors.ErrWatchNotFound) {
		t.Errorf("got %v, want ErrWatchNotFound", err)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pos := models.Position{Symbol: "AAPL", Shares: dec("10.5"), CostBasis: dec("150.25"), Sector: "Technology"}
	if err := s.SavePosition(ctx, "user1", pos); err != nil {
		t.Fatal(err)
	}

	p, err := s.Portfolio(ctx, "user1")
	if err != nil {
		t.Fatal(err)
	}
	got, ok := p.Positions["AAPL"]
	if !ok {
		t.Fatal("position not loaded")
	}
	if !got.Shares.Equal(dec("10.5")) || !got.CostBasis.Equal(dec("150.25")) {
		t.Errorf("got %s shares @ %s", got.Shares, got.CostBasis)
	}
	if got.Sector != "Technology" {
		t.Errorf("got sector %s", got.Sector)
	}
}

func TestTradeLogAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		{Symbol: "AAPL", Side: models.SideBuy, Shares: dec("10"), Price: dec("150"), Timestamp: base},
		{Symbol: "TSLA", Side: models.SideBuy, Shares: dec("5"), Price: dec("200"), Timestamp: base.Add(time.Hour)},
		{Symbol: "AAPL", Side: models.SideSell, Shares: dec("4"), Price: dec("160"), RealizedPnL: dec("40"), Timestamp: base.Add(2 * time.Hour)},
	}
	for _, tr := range trades {
		if err := s.LogTrade(ctx, "user1", tr); err != nil {
			t.Fatal(err)
		}
	}

	// Newest first.
	all, err := s.Trades(ctx, TradeFilter{UserID: "user1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d trades, want 3", len(all))
	}
	if all[0].Symbol != "AAPL" || all[0].Side != models.SideSell {
		t.Errorf("newest trade first: got %+v", all[0])
	}
	if !all[0].RealizedPnL.Equal(dec("40")) {
		t.Errorf("got realized P&L %s, want 40", all[0].RealizedPnL)
	}

	bySymbol, err := s.Trades(ctx, TradeFilter{UserID: "user1", Symbol: "TSLA"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySymbol) != 1 {
		t.Errorf("symbol filter: got %d trades", len(bySymbol))
	}

	bySide, err := s.Trades(ctx, TradeFilter{UserID: "user1", Side: models.SideBuy})
	if err != nil {
		t.Fatal(err)
	}
	if len(bySide) != 2 {
		t.Errorf("side filter: got %d trades", len(bySide))
	}

	limited, err := s.Trades(ctx, TradeFilter{UserID: "user1", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d trades", len(limited))
	}
}

func TestPortfolioTradesOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	s.LogTrade(ctx, "user1", models.Trade{Symbol: "AAPL", Side: models.SideBuy, Shares: dec("1"), Price: dec("100"), Timestamp: base})
	s.LogTrade(ctx, "user1", models.Trade{Symbol: "AAPL", Side: models.SideBuy, Shares: dec("1"), Price: dec("110"), Timestamp: base.Add(time.Hour)})

	p, err := s.Portfolio(ctx, "user1")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(p.Trades))
	}
	if !p.Trades[0].Price.Equal(dec("100")) {
		t.Errorf("portfolio trade log not oldest first: %+v", p.Trades[0])
	}
}

func TestVolumeAlertLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	last, err := s.LastVolumeAlert(ctx, "user1", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if !last.IsZero() {
		t.Errorf("unmarked pair returned %s", last)
	}

	day := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)
	if err := s.MarkVolumeAlert(ctx, "user1", "AAPL", day); err != nil {
		t.Fatal(err)
	}

	last, err = s.LastVolumeAlert(ctx, "user1", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if last.Format("2006-01-02") != "2024-03-04" {
		t.Errorf("got %s, want 2024-03-04", last)
	}

	// Re-marking a later day overwrites.
	if err := s.MarkVolumeAlert(ctx, "user1", "AAPL", day.AddDate(0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	last, _ = s.LastVolumeAlert(ctx, "user1", "AAPL")
	if last.Format("2006-01-02") != "2024-03-05" {
		t.Errorf("got %s, want 2024-03-05", last)
	}
}
