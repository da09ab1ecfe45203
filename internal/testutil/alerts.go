// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"

	"github.com/t77yq/alert-dashboard/internal/model"
)

// NewAlert returns a valid alert with the given identity fields
func NewAlert(id, subject, timestamp string, severity model.AlertSeverity) model.Alert {
	return model.Alert{
		ID:        id,
		Subject:   subject,
		Timestamp: timestamp,
		Severity:  severity,
		Title:     fmt.Sprintf("Alert %s", id),
		Message:   fmt.Sprintf("Alert %s raised on %s", id, subject),
		Metadata:  map[string]interface{}{"source": "test"},
	}
}

// ScenarioAlerts returns the two-alert dataset used across tests:
// "1" subject AA in 2024-01 (LOW) and "2" subject BB in 2024-02 (HIGH).
func ScenarioAlerts() []model.Alert {
	return []model.Alert{
		NewAlert("1", "AA", "2024-01-15T00:00:00Z", model.AlertSeverityLow),
		NewAlert("2", "BB", "2024-02-15T00:00:00Z", model.AlertSeverityHigh),
	}
}
