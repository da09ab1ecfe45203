package query

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/t77yq/alert-dashboard/internal/apperr"
	"github.com/t77yq/alert-dashboard/internal/model"
	"github.com/t77yq/alert-dashboard/internal/validation"
)

// RawFilter carries the untrusted filter parameters of a list request
type RawFilter struct {
	Month    string `form:"month" json:"month" validate:"omitempty,yearmonth"`
	Severity string `form:"severity" json:"severity" validate:"omitempty,severity"`
	Subject  string `form:"subject" json:"subject" validate:"omitempty,min=2,max=100"`
}

// ParseFilter validates raw and converts it into FilterCriteria. Failures are
// *apperr.Error values with code VALIDATION_ERROR naming each bad field.
func ParseFilter(raw RawFilter) (model.FilterCriteria, error) {
	if err := validation.Struct(raw); err != nil {
		return model.FilterCriteria{}, err
	}

	criteria := model.FilterCriteria{
		Severity: model.AlertSeverity(raw.Severity),
		Subject:  raw.Subject,
	}
	if raw.Month != "" {
		month, err := model.ParseYearMonth(raw.Month)
		if err != nil {
			return model.FilterCriteria{}, apperr.Validation(apperr.FieldError{Field: "month", Reason: err.Error()})
		}
		criteria.Month = month
	}
	return criteria, nil
}

// ParseMonths validates the bucket count of a month report. It must be an
// integer between 1 and max.
func ParseMonths(raw string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation(apperr.FieldError{Field: "months", Reason: "must be an integer"})
	}
	if n < 1 || n > max {
		return 0, apperr.Validation(apperr.FieldError{
			Field:  "months",
			Reason: "must be between 1 and " + strconv.Itoa(max),
		})
	}
	return n, nil
}

// ParseSubjects builds the subject restriction of a month report. Each value
// is one literal subject, so subjects may contain commas. Empty values and
// repeats are dropped; every other value must be 2..100 characters.
func ParseSubjects(values []string) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	var subjects []string
	for _, s := range values {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		if n := utf8.RuneCountInString(s); n < 2 || n > 100 {
			return nil, apperr.Validation(apperr.FieldError{
				Field:  "subjects",
				Reason: "each subject must be between 2 and 100 characters",
			})
		}
		seen[s] = struct{}{}
		subjects = append(subjects, s)
	}
	return subjects, nil
}
