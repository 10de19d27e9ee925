package validation

import (
	"encoding/json"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
)

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the validation errors, or nil when there are none.
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// UUID validates UUID format
func (v *Validator) UUID(field, value string) *Validator {
	if value != "" && !uuidRegex.MatchString(value) {
		v.errors.Add(field, "Must be a valid UUID")
	}
	return v
}

// Max validates maximum integer value
func (v *Validator) Max(field string, value, max int) *Validator {
	if value > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max))
	}
	return v
}

// Range validates integer is within range
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors.Add(field, "Must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// NotNil validates that a pointer is not nil
func (v *Validator) NotNil(field string, value interface{}) *Validator {
	if value == nil || (reflect.ValueOf(value).Kind() == reflect.Ptr && reflect.ValueOf(value).IsNil()) {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// Period validates a month and year pair.
func (v *Validator) Period(month, year int) *Validator {
	v.Range("month", month, 1, 12)
	v.Range("year", year, domain.MinPeriodYear, domain.MaxPeriodYear)
	return v
}

// DecodeAndValidate decodes JSON request body and runs basic validation
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	return &req, nil
}

// ParseUUIDParam parses a path or query value as a UUID.
func ParseUUIDParam(field, value string) (uuid.UUID, error) {
	v := NewValidator()
	v.Required(field, value).UUID(field, value)
	if err := v.Err(); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(value), nil
}

// ParsePeriod reads the month and year query parameters. Both are required.
func ParsePeriod(r *http.Request) (domain.PeriodWindow, error) {
	v := NewValidator()
	month, monthOK := parseRequiredInt(v, r, "month")
	year, yearOK := parseRequiredInt(v, r, "year")
	if monthOK && yearOK {
		v.Period(month, year)
	}
	if err := v.Err(); err != nil {
		return domain.PeriodWindow{}, err
	}
	return domain.PeriodWindow{Month: month, Year: year}, nil
}

func parseRequiredInt(v *Validator, r *http.Request, key string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		v.Required(key, raw)
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		v.Custom(key, false, "Must be a whole number")
		return 0, false
	}
	return value, true
}
