package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/t77yq/alert-dashboard/internal/model"
	"github.com/t77yq/alert-dashboard/internal/validation"
)

// ErrDuplicateID is returned when two alerts share an id
var ErrDuplicateID = errors.New("duplicate alert id")

var timeNow = time.Now

// Entry pairs an alert with its timestamp parsed to UTC
type Entry struct {
	Alert model.Alert
	At    time.Time
}

// Store is the load-once, read-only collection of alerts.
//
// A Store is fully built before it is handed to readers and is never
// modified afterwards, so concurrent reads need no locking.
type Store struct {
	entries  []Entry
	byID     map[string]int
	loadedAt time.Time
}

// Empty returns a store holding no alerts
func Empty() *Store {
	return &Store{byID: map[string]int{}, loadedAt: timeNow()}
}

// New validates alerts and builds a store preserving their order. It fails on
// the first invalid alert or repeated id.
func New(alerts []model.Alert) (*Store, error) {
	s := &Store{
		entries:  make([]Entry, 0, len(alerts)),
		byID:     make(map[string]int, len(alerts)),
		loadedAt: timeNow(),
	}
	for i, a := range alerts {
		entry, err := newEntry(a)
		if err != nil {
			return nil, fmt.Errorf("alert %d: %w", i, err)
		}
		if _, dup := s.byID[a.ID]; dup {
			return nil, fmt.Errorf("alert %d: %w: %s", i, ErrDuplicateID, a.ID)
		}
		s.byID[a.ID] = len(s.entries)
		s.entries = append(s.entries, entry)
	}
	return s, nil
}

func newEntry(a model.Alert) (Entry, error) {
	if err := validation.Struct(a); err != nil {
		return Entry{}, err
	}
	at, err := model.ParseTimestamp(a.Timestamp)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Alert: a, At: at}, nil
}

// Len returns the number of alerts held
func (s *Store) Len() int {
	return len(s.entries)
}

// LoadedAt returns when the store was built
func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// Entries returns the alerts in load order. Callers must not modify the slice.
func (s *Store) Entries() []Entry {
	return s.entries
}

// Lookup returns the position of the alert with the given id
func (s *Store) Lookup(id string) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}
