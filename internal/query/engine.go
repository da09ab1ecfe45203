// Package query answers the read-only alert queries over a loaded store.
package query

import (
	"time"

	"github.com/t77yq/alert-dashboard/internal/model"
	"github.com/t77yq/alert-dashboard/internal/store"
)

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the source of "now" used to resolve the current month
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine runs queries against an immutable store. It holds no mutable state
// and may be shared by concurrent requests.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// NewEngine creates a query engine over s
func NewEngine(s *store.Store, opts ...Option) *Engine {
	if s == nil {
		s = store.Empty()
	}
	e := &Engine{
		store: s,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the store the engine reads from
func (e *Engine) Store() *store.Store {
	return e.store
}

// CurrentMonth returns the UTC calendar month at call time
func (e *Engine) CurrentMonth() model.YearMonth {
	return model.YearMonthOf(e.now())
}

// Subjects returns each distinct subject once. Order is unspecified.
func (e *Engine) Subjects() []string {
	seen := make(map[string]struct{})
	subjects := make([]string, 0)
	for _, entry := range e.store.Entries() {
		if _, ok := seen[entry.Alert.Subject]; ok {
			continue
		}
		seen[entry.Alert.Subject] = struct{}{}
		subjects = append(subjects, entry.Alert.Subject)
	}
	return subjects
}

// Get returns the alert with the given id. A missing alert is reported with
// ok=false, not an error.
func (e *Engine) Get(id string) (model.Alert, bool) {
	i, ok := e.store.Lookup(id)
	if !ok {
		return model.Alert{}, false
	}
	return e.store.Entries()[i].Alert, true
}

// List returns the alerts of one month matching the criteria, in store order.
// A zero criteria.Month means the current UTC month.
func (e *Engine) List(criteria model.FilterCriteria) []model.Alert {
	month := criteria.Month
	if month.IsZero() {
		month = e.CurrentMonth()
	}

	alerts := make([]model.Alert, 0)
	for _, entry := range e.store.Entries() {
		if model.YearMonthOf(entry.At) != month {
			continue
		}
		if criteria.Severity != "" && entry.Alert.Severity != criteria.Severity {
			continue
		}
		if criteria.Subject != "" && entry.Alert.Subject != criteria.Subject {
			continue
		}
		alerts = append(alerts, entry.Alert)
	}
	return alerts
}

// MonthlyCounts counts alerts per calendar month for the current month and
// the months-1 months before it, newest first. A non-empty subjects list
// restricts the count to those subjects. months <= 0 yields no buckets.
func (e *Engine) MonthlyCounts(months int, subjects []string) []model.MonthBucket {
	if months <= 0 {
		return []model.MonthBucket{}
	}

	var only map[string]struct{}
	if len(subjects) > 0 {
		only = make(map[string]struct{}, len(subjects))
		for _, s := range subjects {
			only[s] = struct{}{}
		}
	}

	// now is read once so every bucket shares the same reference month
	current := e.CurrentMonth()

	counts := make(map[model.YearMonth]int, months)
	for _, entry := range e.store.Entries() {
		if only != nil {
			if _, ok := only[entry.Alert.Subject]; !ok {
				continue
			}
		}
		counts[model.YearMonthOf(entry.At)]++
	}

	buckets := make([]model.MonthBucket, 0, months)
	for i := 0; i < months; i++ {
		month := current.MonthsBefore(i)
		buckets = append(buckets, model.MonthBucket{
			Month: month.String(),
			Count: counts[month],
		})
	}
	return buckets
}
