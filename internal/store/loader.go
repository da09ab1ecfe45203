package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/model"
)

// ErrRejectedRecord is returned by a strict load when any record is invalid
var ErrRejectedRecord = errors.New("alert record rejected")

// Source supplies raw alert records, one JSON object per record, in source order
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Records reads every record currently held by the source
	Records(ctx context.Context) ([]json.RawMessage, error)
}

// LoadOptions controls how invalid records are handled
type LoadOptions struct {
	// Strict fails the whole load on the first invalid record instead of skipping it
	Strict bool
	Logger *zap.Logger
}

// Rejection records why a single source record was not loaded
type Rejection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// LoadReport summarizes a bulk load
type LoadReport struct {
	Source   string      `json:"source"`
	Total    int         `json:"total"`
	Loaded   int         `json:"loaded"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// Load reads every record from src and builds a Store from the valid ones.
// Duplicate ids keep their first occurrence.
func Load(ctx context.Context, src Source, opts LoadOptions) (*Store, LoadReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("loader")

	report := LoadReport{Source: src.Name()}

	records, err := src.Records(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("failed to read records from %s: %w", src.Name(), err)
	}
	report.Total = len(records)

	s := &Store{
		entries: make([]Entry, 0, len(records)),
		byID:    make(map[string]int, len(records)),
	}

	for i, raw := range records {
		entry, err := decodeEntry(raw)
		if err == nil {
			if _, dup := s.byID[entry.Alert.ID]; dup {
				err = fmt.Errorf("%w: %s", ErrDuplicateID, entry.Alert.ID)
			}
		}
		if err != nil {
			rej := Rejection{Index: i, ID: entry.Alert.ID, Reason: err.Error()}
			if opts.Strict {
				return nil, report, fmt.Errorf("%w: record %d: %v", ErrRejectedRecord, i, err)
			}
			logger.Warn("Skipping invalid alert record",
				zap.Int("index", i),
				zap.String("id", rej.ID),
				zap.Error(err))
			report.Rejected = append(report.Rejected, rej)
			continue
		}

		s.byID[entry.Alert.ID] = len(s.entries)
		s.entries = append(s.entries, entry)
	}

	s.loadedAt = timeNow()
	report.Loaded = len(s.entries)

	logger.Info("Alerts loaded",
		zap.String("source", report.Source),
		zap.Int("total", report.Total),
		zap.Int("loaded", report.Loaded),
		zap.Int("rejected", len(report.Rejected)))

	return s, report, nil
}

// decodeEntry decodes one record. On failure the returned entry still carries
// whatever id could be decoded so rejections can name it.
func decodeEntry(raw json.RawMessage) (Entry, error) {
	var a model.Alert
	if err := json.Unmarshal(raw, &a); err != nil {
		var probe struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(raw, &probe)
		return Entry{Alert: model.Alert{ID: probe.ID}}, fmt.Errorf("malformed record: %w", err)
	}
	entry, err := newEntry(a)
	if err != nil {
		return Entry{Alert: a}, err
	}
	return entry, nil
}
