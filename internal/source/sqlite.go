package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// sqliteRecord mirrors the alert wire shape so rows share the JSON decode path
type sqliteRecord struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Timestamp string          `json:"timestamp"`
	Severity  string          `json:"severity"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// SQLite reads alerts from the alerts table of an SQLite database
type SQLite struct {
	logger *zap.Logger
	db     *sql.DB
	path   string
}

// NewSQLite opens the database at dbPath and makes sure the alerts table exists
func NewSQLite(logger *zap.Logger, dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	src := &SQLite{
		logger: logger.Named("sqlite-source"),
		db:     db,
		path:   dbPath,
	}

	if err := src.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return src, nil
}

// initialize creates the alerts table if it doesn't exist
func (s *SQLite) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT NOT NULL,
			subject TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			metadata TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_id ON alerts(id);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Name implements store.Source
func (s *SQLite) Name() string {
	return "sqlite:" + s.path
}

// Records implements store.Source. Rows come back in insertion order.
func (s *SQLite) Records(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, timestamp, severity, title, message, metadata
		FROM alerts
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec sqliteRecord
		var metadata sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.Subject,
			&rec.Timestamp,
			&rec.Severity,
			&rec.Title,
			&rec.Message,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if metadata.Valid && metadata.String != "" {
			if !json.Valid([]byte(metadata.String)) {
				// keep the row so the loader rejects it with its id
				s.logger.Warn("Alert row has malformed metadata", zap.String("id", rec.ID))
				quoted, err := json.Marshal(metadata.String)
				if err != nil {
					return nil, fmt.Errorf("failed to encode alert metadata: %w", err)
				}
				metadata.String = string(quoted)
			}
			rec.Metadata = json.RawMessage(metadata.String)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode alert row: %w", err)
		}
		records = append(records, data)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}
