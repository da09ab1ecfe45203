package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t77yq/alert-dashboard/internal/apperr"
	"github.com/t77yq/alert-dashboard/internal/model"
)

func validAlert() model.Alert {
	return model.Alert{
		ID:        "c0a8012e-0000-4000-8000-000000000001",
		Subject:   "database",
		Timestamp: "2024-01-15T00:00:00Z",
		Severity:  model.AlertSeverityHigh,
		Title:     "Replica lag",
		Message:   "Replica lag above threshold",
		Metadata:  map[string]interface{}{"host": "db-1"},
	}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	require.Equal(t, apperr.CodeValidation, ae.Code)

	names := make([]string, 0, len(ae.Fields))
	for _, f := range ae.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestStruct_ValidAlert(t *testing.T) {
	require.NoError(t, Struct(validAlert()))

	a := validAlert()
	a.Metadata = map[string]interface{}{}
	require.NoError(t, Struct(a), "metadata has no schema and may be empty")
}

func TestStruct_MetadataRequired(t *testing.T) {
	a := validAlert()
	a.Metadata = nil
	assert.Equal(t, []string{"metadata"}, fieldNames(t, Struct(a)))
}

func TestStruct_AlertRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Alert)
		field  string
	}{
		{"missing id", func(a *model.Alert) { a.ID = "" }, "id"},
		{"short subject", func(a *model.Alert) { a.Subject = "x" }, "subject"},
		{"long subject", func(a *model.Alert) { a.Subject = strings.Repeat("s", 101) }, "subject"},
		{"bad timestamp", func(a *model.Alert) { a.Timestamp = "not a date" }, "timestamp"},
		{"bad severity", func(a *model.Alert) { a.Severity = "SEVERE" }, "severity"},
		{"lowercase severity", func(a *model.Alert) { a.Severity = "low" }, "severity"},
		{"short title", func(a *model.Alert) { a.Title = "t" }, "title"},
		{"long message", func(a *model.Alert) { a.Message = strings.Repeat("m", 501) }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAlert()
			tt.mutate(&a)
			err := Struct(a)
			require.Error(t, err)
			assert.Equal(t, []string{tt.field}, fieldNames(t, err))
		})
	}
}

func TestStruct_BoundaryLengths(t *testing.T) {
	a := validAlert()
	a.Subject = "ab"
	a.Title = strings.Repeat("t", 100)
	a.Message = strings.Repeat("m", 500)
	require.NoError(t, Struct(a))
}

func TestStruct_ReportsEveryField(t *testing.T) {
	a := validAlert()
	a.Subject = ""
	a.Severity = ""
	err := Struct(a)
	assert.ElementsMatch(t, []string{"subject", "severity"}, fieldNames(t, err))

	ae, _ := apperr.As(err)
	for _, f := range ae.Fields {
		assert.NotEmpty(t, f.Reason)
	}
}

func TestStruct_YearMonthTag(t *testing.T) {
	type input struct {
		Month string `form:"month" validate:"omitempty,yearmonth"`
	}

	require.NoError(t, Struct(input{}))
	require.NoError(t, Struct(input{Month: "2024-02"}))

	err := Struct(input{Month: "2024-13"})
	assert.Equal(t, []string{"month"}, fieldNames(t, err))
}
