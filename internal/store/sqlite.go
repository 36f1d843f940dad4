package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store. A load failure here is
// fatal to the caller; once open, individual write failures are surfaced to
// be logged and retried on the next mutation.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Price watches, one row per (user, symbol)
	CREATE TABLE IF NOT EXISTS watches (
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		lower_bound REAL NOT NULL,
		upper_bound REAL NOT NULL,
		last_alert_low DATETIME,
		last_alert_high DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, symbol)
	);

	-- Portfolio positions
	CREATE TABLE IF NOT EXISTS positions (
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		shares TEXT NOT NULL,
		cost_basis TEXT NOT NULL,
		sector TEXT NOT NULL DEFAULT 'Other',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, symbol)
	);

	-- Append-only trade log
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		shares TEXT NOT NULL,
		price TEXT NOT NULL,
		realized_pnl TEXT,
		timestamp DATETIME NOT NULL
	);

	-- Volume spike dedup ledger, one alert per (user, symbol) per day
	CREATE TABLE IF NOT EXISTS volume_alerts (
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		alerted_on TEXT NOT NULL,
		PRIMARY KEY (user_id, symbol)
	);

	CREATE INDEX IF NOT EXISTS idx_watches_user ON watches(user_id);
	CREATE INDEX IF NOT EXISTS idx_positions_user ON positions(user_id);
	CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id);
	CREATE INDEX IF NOT EXISTS idx_trades_user_symbol ON trades(user_id, symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Watch Methods
// ============================================================================

// SaveWatch inserts or replaces a watch.
func (s *SQLiteStore) SaveWatch(ctx context.Context, userID string, w models.Watch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watches (user_id, symbol, lower_bound, upper_bound, last_alert_low, last_alert_high)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, symbol) DO UPDATE SET
			lower_bound = excluded.lower_bound,
			upper_bound = excluded.upper_bound
	`, userID, w.Symbol, w.Lower, w.Upper, nullTime(w.LastAlertLow), nullTime(w.LastAlertHigh))
	if err != nil {
		return fmt.Errorf("failed to save watch: %w", err)
	}
	return nil
}

// DeleteWatch removes a watch.
func (s *SQLiteStore) DeleteWatch(ctx context.Context, userID, symbol string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM watches WHERE user_id = ? AND symbol = ?
	`, userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete watch: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrWatchNotFound, symbol)
	}
	return nil
}

// UserWatches retrieves all watches for a user.
func (s *SQLiteStore) UserWatches(ctx context.Context, userID string) ([]models.Watch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, lower_bound, upper_bound, last_alert_low, last_alert_high, created_at
		FROM watches WHERE user_id = ? ORDER BY symbol ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watches: %w", err)
	}
	defer rows.Close()

	var watches []models.Watch
	for rows.Next() {
		w, err := scanWatch(rows)
		if err != nil {
			return nil, err
		}
		watches = append(watches, w)
	}

	return watches, rows.Err()
}

// AllWatches retrieves every watch grouped by user.
func (s *SQLiteStore) AllWatches(ctx context.Context) (map[string][]models.Watch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, symbol, lower_bound, upper_bound, last_alert_low, last_alert_high, created_at
		FROM watches ORDER BY user_id, symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watches: %w", err)
	}
	defer rows.Close()

	all := make(map[string][]models.Watch)
	for rows.Next() {
		var userID string
		var w models.Watch
		var low, high sql.NullTime
		if err := rows.Scan(&userID, &w.Symbol, &w.Lower, &w.Upper, &low, &high, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		if low.Valid {
			t := low.Time
			w.LastAlertLow = &t
		}
		if high.Valid {
			t := high.Time
			w.LastAlertHigh = &t
		}
		all[userID] = append(all[userID], w)
	}

	return all, rows.Err()
}

// UpdateWatchAlerts persists a watch's last-alert timestamps.
func (s *SQLiteStore) UpdateWatchAlerts(ctx context.Context, userID string, w models.Watch) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE watches SET last_alert_low = ?, last_alert_high = ?
		WHERE user_id = ? AND symbol = ?
	`, nullTime(w.LastAlertLow), nullTime(w.LastAlertHigh), userID, w.Symbol)
	if err != nil {
		return fmt.Errorf("failed to update watch alerts: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrWatchNotFound, w.Symbol)
	}
	return nil
}

// Users returns the distinct users that have at least one watch.
func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM watches ORDER BY user_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// ============================================================================
// Portfolio Methods
// ============================================================================

// Portfolio loads a user's positions and trade log.
func (s *SQLiteStore) Portfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	p := models.NewPortfolio()

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, shares, cost_basis, sector
		FROM positions WHERE user_id = ? ORDER BY symbol ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pos models.Position
		var shares, costBasis string
		if err := rows.Scan(&pos.Symbol, &shares, &costBasis, &pos.Sector); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if pos.Shares, err = decimal.NewFromString(shares); err != nil {
			return nil, fmt.Errorf("invalid shares for %s: %w", pos.Symbol, err)
		}
		if pos.CostBasis, err = decimal.NewFromString(costBasis); err != nil {
			return nil, fmt.Errorf("invalid cost basis for %s: %w", pos.Symbol, err)
		}
		p.Positions[pos.Symbol] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	trades, err := s.Trades(ctx, TradeFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	// Trades query returns newest first; the portfolio log is oldest first.
	for i := len(trades) - 1; i >= 0; i-- {
		p.Trades = append(p.Trades, trades[i])
	}

	return p, nil
}

// SavePosition inserts or replaces a position.
func (s *SQLiteStore) SavePosition(ctx context.Context, userID string, p models.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (user_id, symbol, shares, cost_basis, sector, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, symbol) DO UPDATE SET
			shares = excluded.shares,
			cost_basis = excluded.cost_basis,
			sector = excluded.sector,
			updated_at = CURRENT_TIMESTAMP
	`, userID, p.Symbol, p.Shares.String(), p.CostBasis.String(), p.Sector)
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// DeletePosition removes a position.
func (s *SQLiteStore) DeletePosition(ctx context.Context, userID, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM positions WHERE user_id = ? AND symbol = ?
	`, userID, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

// LogTrade appends a trade to the user's trade log.
func (s *SQLiteStore) LogTrade(ctx context.Context, userID string, t models.Trade) error {
	var pnl interface{}
	if t.Side == models.SideSell {
		pnl = t.RealizedPnL.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (user_id, symbol, side, shares, price, realized_pnl, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, t.Symbol, string(t.Side), t.Shares.String(), t.Price.String(), pnl, t.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to log trade: %w", err)
	}
	return nil
}

// Trades retrieves trades from the log, newest first.
func (s *SQLiteStore) Trades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT symbol, side, shares, price, realized_pnl, timestamp FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, string(filter.Side))
	}

	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var side, shares, price string
		var pnl sql.NullString

		if err := rows.Scan(&t.Symbol, &side, &shares, &price, &pnl, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Side = models.TradeSide(side)
		if t.Shares, err = decimal.NewFromString(shares); err != nil {
			return nil, fmt.Errorf("invalid trade shares: %w", err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid trade price: %w", err)
		}
		if pnl.Valid {
			if t.RealizedPnL, err = decimal.NewFromString(pnl.String); err != nil {
				return nil, fmt.Errorf("invalid trade pnl: %w", err)
			}
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// ============================================================================
// Volume Alert Ledger
// ============================================================================

// LastVolumeAlert returns the date of the last volume spike alert for a
// (user, symbol) pair, or the zero time when none was recorded.
func (s *SQLiteStore) LastVolumeAlert(ctx context.Context, userID, symbol string) (time.Time, error) {
	var day string
	err := s.db.QueryRowContext(ctx, `
		SELECT alerted_on FROM volume_alerts WHERE user_id = ? AND symbol = ?
	`, userID, symbol).Scan(&day)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get volume alert date: %w", err)
	}

	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid volume alert date %q: %w", day, err)
	}
	return t, nil
}

// MarkVolumeAlert records that a volume spike alert was sent on day.
func (s *SQLiteStore) MarkVolumeAlert(ctx context.Context, userID, symbol string, day time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO volume_alerts (user_id, symbol, alerted_on)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, symbol) DO UPDATE SET alerted_on = excluded.alerted_on
	`, userID, symbol, day.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to mark volume alert: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func scanWatch(rows *sql.Rows) (models.Watch, error) {
	var w models.Watch
	var low, high sql.NullTime
	if err := rows.Scan(&w.Symbol, &w.Lower, &w.Upper, &low, &high, &w.CreatedAt); err != nil {
		return w, fmt.Errorf("failed to scan watch: %w", err)
	}
	if low.Valid {
		t := low.Time
		w.LastAlertLow = &t
	}
	if high.Valid {
		t := high.Time
		w.LastAlertHigh = &t
	}
	return w, nil
}
