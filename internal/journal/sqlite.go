package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id      TEXT PRIMARY KEY,
	date          TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	direction     TEXT NOT NULL,
	entry_price   REAL NOT NULL,
	exit_price    REAL NOT NULL,
	quantity      REAL NOT NULL,
	pnl           REAL NOT NULL,
	pnl_percent   REAL NOT NULL,
	exit_reason   TEXT NOT NULL,
	entry_time    TIMESTAMP NOT NULL,
	exit_time     TIMESTAMP NOT NULL,
	stop_loss     REAL NOT NULL,
	profit_target REAL NOT NULL,
	pivot         REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
`

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("Не удалось создать каталог журнала: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("Не удалось открыть базу журнала: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Не удалось создать схему журнала: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(rec Record) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, date, symbol, direction, entry_price, exit_price, quantity,
		 pnl, pnl_percent, exit_reason, entry_time, exit_time,
		 stop_loss, profit_target, pivot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TradeID, rec.Date, rec.Symbol, rec.Direction,
		rec.EntryPrice, rec.ExitPrice, rec.Quantity,
		rec.PnL, rec.PnLPercent, rec.ExitReason,
		rec.EntryTime, rec.ExitTime,
		rec.StopLoss, rec.ProfitTarget, rec.Pivot,
	)
	if err != nil {
		return fmt.Errorf("Не удалось записать сделку в журнал: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) DayStats(date string) (Stats, error) {
	rows, err := j.db.Query(`SELECT pnl FROM trades WHERE date = ? ORDER BY exit_time`, date)
	if err != nil {
		return Stats{}, fmt.Errorf("Не удалось прочитать журнал: %w", err)
	}
	defer rows.Close()

	var pnls []float64
	for rows.Next() {
		var pnl float64
		if err := rows.Scan(&pnl); err != nil {
			return Stats{}, fmt.Errorf("Не удалось прочитать строку журнала: %w", err)
		}
		pnls = append(pnls, pnl)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	return calcStats(pnls), nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
