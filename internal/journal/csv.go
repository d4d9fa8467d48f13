package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{
	"trade_id", "date", "symbol", "direction",
	"entry_price", "exit_price", "quantity",
	"pnl", "pnl_percent", "exit_reason",
	"entry_time", "exit_time",
	"stop_loss", "profit_target", "pivot",
}

// CSVJournal дописывает сделки в один файл; заголовок пишется только при
// создании файла, чтобы журнал переживал перезапуски бота.
type CSVJournal struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *csv.Writer
}

func NewCSV(path string) (*CSVJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("Не удалось создать каталог журнала: %w", err)
	}

	info, err := os.Stat(path)
	fresh := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("Не удалось открыть файл журнала: %w", err)
	}

	j := &CSVJournal{
		path: path,
		file: file,
		w:    csv.NewWriter(file),
	}

	if fresh {
		if err := j.w.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("Не удалось записать заголовок журнала: %w", err)
		}
		j.w.Flush()
		if err := j.w.Error(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return j, nil
}

func (j *CSVJournal) Record(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.w.Write([]string{
		rec.TradeID,
		rec.Date,
		rec.Symbol,
		rec.Direction,
		f(rec.EntryPrice),
		f(rec.ExitPrice),
		f(rec.Quantity),
		f(rec.PnL),
		f(rec.PnLPercent),
		rec.ExitReason,
		rec.EntryTime.Format(time.RFC3339),
		rec.ExitTime.Format(time.RFC3339),
		f(rec.StopLoss),
		f(rec.ProfitTarget),
		f(rec.Pivot),
	})
	if err != nil {
		return fmt.Errorf("Не удалось записать сделку в журнал: %w", err)
	}

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return fmt.Errorf("Не удалось сбросить журнал на диск: %w", err)
	}
	return nil
}

func (j *CSVJournal) DayStats(date string) (Stats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		return Stats{}, fmt.Errorf("Не удалось открыть журнал для чтения: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	var pnls []float64
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Stats{}, fmt.Errorf("Не удалось прочитать журнал: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(row) < 8 || row[1] != date {
			continue
		}
		pnl, err := strconv.ParseFloat(row[7], 64)
		if err != nil {
			continue
		}
		pnls = append(pnls, pnl)
	}

	return calcStats(pnls), nil
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
