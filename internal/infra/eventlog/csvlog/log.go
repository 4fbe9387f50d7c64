package csvlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/SatvikDB/aegis/internal/domain/eventlog"
)

// Log is the append-only CSV event store. The file is the boundary
// format: fixed column order, header written once on first use. A single
// mutex serializes appends and reads; it is scoped to the file operation
// only and never held across inference or network calls.
type Log struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Log {
	return &Log{path: path}
}

// Append writes all rows of one event as a single file write, so
// concurrent appends never interleave bytes and a failed encode leaves
// the file untouched.
func (l *Log) Append(ctx context.Context, rows []eventlog.Row) error {
	if len(rows) == 0 {
		return errors.New("append requires at least one row")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(encodeRow(row)); err != nil {
			return fmt.Errorf("encoding log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding log rows: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFile(); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending event log rows: %w", err)
	}
	return f.Sync()
}

// ReadRecent returns up to limit rows, newest first.
func (l *Log) ReadRecent(ctx context.Context, limit int) ([]eventlog.Row, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	// reverse in place: tail of the file is the newest
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// ReadAll returns every row in append order.
func (l *Log) ReadAll(ctx context.Context) ([]eventlog.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureFile(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(eventlog.Columns)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}

	rows := make([]eventlog.Row, 0, len(records))
	for i, record := range records {
		if i == 0 && record[0] == eventlog.Columns[0] {
			continue // header
		}
		row, err := decodeRow(record)
		if err != nil {
			return nil, fmt.Errorf("decoding event log row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ensureFile creates the backing file with its schema header if it does
// not exist or is empty. Callers must hold the mutex.
func (l *Log) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	info, err := os.Stat(l.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking event log: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(eventlog.Columns); err != nil {
		return err
	}
	w.Flush()
	if err := os.WriteFile(l.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing event log header: %w", err)
	}
	return nil
}

func encodeRow(r eventlog.Row) []string {
	return []string{
		r.Timestamp.UTC().Format(eventlog.TimeFormat),
		r.ImageFilename,
		r.ThreatLevel,
		strconv.Itoa(r.TotalDetections),
		strconv.Itoa(r.HighRiskCount),
		r.ClassName,
		fmt.Sprintf("%.4f", r.Confidence),
		r.RiskLevel,
		strconv.Itoa(r.BoxX1),
		strconv.Itoa(r.BoxY1),
		strconv.Itoa(r.BoxX2),
		strconv.Itoa(r.BoxY2),
		strconv.FormatFloat(r.InferenceMS, 'f', -1, 64),
	}
}

func decodeRow(record []string) (eventlog.Row, error) {
	ts, err := time.Parse(eventlog.TimeFormat, record[0])
	if err != nil {
		return eventlog.Row{}, err
	}
	total, err := strconv.Atoi(record[3])
	if err != nil {
		return eventlog.Row{}, err
	}
	high, err := strconv.Atoi(record[4])
	if err != nil {
		return eventlog.Row{}, err
	}
	conf, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return eventlog.Row{}, err
	}
	x1, err := strconv.Atoi(record[8])
	if err != nil {
		return eventlog.Row{}, err
	}
	y1, err := strconv.Atoi(record[9])
	if err != nil {
		return eventlog.Row{}, err
	}
	x2, err := strconv.Atoi(record[10])
	if err != nil {
		return eventlog.Row{}, err
	}
	y2, err := strconv.Atoi(record[11])
	if err != nil {
		return eventlog.Row{}, err
	}
	ms, err := strconv.ParseFloat(record[12], 64)
	if err != nil {
		return eventlog.Row{}, err
	}
	return eventlog.Row{
		Timestamp:       ts,
		ImageFilename:   record[1],
		ThreatLevel:     record[2],
		TotalDetections: total,
		HighRiskCount:   high,
		ClassName:       record[5],
		Confidence:      conf,
		RiskLevel:       record[7],
		BoxX1:           x1,
		BoxY1:           y1,
		BoxX2:           x2,
		BoxY2:           y2,
		InferenceMS:     ms,
	}, nil
}
