package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/SatvikDB/aegis/internal/domain/eventlog"
)

// Connect opens and pings a PostgreSQL connection pool.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

const createTable = `
CREATE TABLE IF NOT EXISTS detection_events (
  seq BIGSERIAL PRIMARY KEY,
  timestamp TIMESTAMPTZ NOT NULL,
  image_filename TEXT NOT NULL,
  threat_level TEXT NOT NULL,
  total_detections INT NOT NULL,
  high_risk_count INT NOT NULL,
  class_name TEXT NOT NULL,
  confidence NUMERIC(5,4) NOT NULL,
  risk_level TEXT NOT NULL,
  box_x1 INT NOT NULL,
  box_y1 INT NOT NULL,
  box_x2 INT NOT NULL,
  box_y2 INT NOT NULL,
  inference_ms DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_detection_events_ts ON detection_events (timestamp);`

// Log is the PostgreSQL-backed event store, the same append-only contract
// as the MySQL backend.
type Log struct {
	db *sql.DB
}

func New(ctx context.Context, db *sql.DB) (*Log, error) {
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("creating detection_events table: %w", err)
	}
	return &Log{db: db}, nil
}

const insertRow = `
INSERT INTO detection_events
(timestamp, image_filename, threat_level, total_detections, high_risk_count,
 class_name, confidence, risk_level, box_x1, box_y1, box_x2, box_y2, inference_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`

// Append inserts every row of one event inside a transaction.
func (l *Log) Append(ctx context.Context, rows []eventlog.Row) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append tx: %w", err)
	}
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, insertRow,
			r.Timestamp.UTC(), r.ImageFilename, r.ThreatLevel,
			r.TotalDetections, r.HighRiskCount,
			r.ClassName, r.Confidence, r.RiskLevel,
			r.BoxX1, r.BoxY1, r.BoxX2, r.BoxY2, r.InferenceMS,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting event row: %w", err)
		}
	}
	return tx.Commit()
}

const selectCols = `
SELECT timestamp, image_filename, threat_level, total_detections, high_risk_count,
       class_name, confidence, risk_level, box_x1, box_y1, box_x2, box_y2, inference_ms
FROM detection_events`

// ReadRecent returns up to limit rows, newest first.
func (l *Log) ReadRecent(ctx context.Context, limit int) ([]eventlog.Row, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, selectCols+" ORDER BY seq DESC LIMIT $1;", limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ReadAll returns every row in append order.
func (l *Log) ReadAll(ctx context.Context) ([]eventlog.Row, error) {
	rows, err := l.db.QueryContext(ctx, selectCols+" ORDER BY seq ASC;")
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]eventlog.Row, error) {
	defer rows.Close()

	var out []eventlog.Row
	for rows.Next() {
		var r eventlog.Row
		if err := rows.Scan(
			&r.Timestamp, &r.ImageFilename, &r.ThreatLevel,
			&r.TotalDetections, &r.HighRiskCount,
			&r.ClassName, &r.Confidence, &r.RiskLevel,
			&r.BoxX1, &r.BoxY1, &r.BoxX2, &r.BoxY2, &r.InferenceMS,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
