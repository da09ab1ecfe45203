package model

// AlertSeverity represents the severity level of an alert
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "LOW"
	AlertSeverityMedium   AlertSeverity = "MEDIUM"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// Severities lists every known severity. The set carries no ranking.
var Severities = []AlertSeverity{
	AlertSeverityLow,
	AlertSeverityMedium,
	AlertSeverityHigh,
	AlertSeverityCritical,
}

// Valid reports whether s is one of the known severities
func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityLow, AlertSeverityMedium, AlertSeverityHigh, AlertSeverityCritical:
		return true
	}
	return false
}

// Alert represents a recorded alert event
type Alert struct {
	ID        string                 `json:"id" validate:"required"`
	Subject   string                 `json:"subject" validate:"min=2,max=100"`
	Timestamp string                 `json:"timestamp" validate:"timestamp"`
	Severity  AlertSeverity          `json:"severity" validate:"severity"`
	Title     string                 `json:"title" validate:"min=2,max=100"`
	Message   string                 `json:"message" validate:"min=2,max=500"`
	Metadata  map[string]interface{} `json:"metadata" validate:"required"`
}

// FilterCriteria narrows a list query. Zero values mean "not set"; a zero
// Month resolves to the current UTC month when the query runs.
type FilterCriteria struct {
	Month    YearMonth
	Severity AlertSeverity
	Subject  string
}

// MonthBucket is one calendar month slot in a count report
type MonthBucket struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}
