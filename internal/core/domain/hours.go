package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
)

// HourValue is a billable-hours amount as stored upstream: either a number
// of decimal hours or an "HH:MM" string. Raw keeps the stored text.
type HourValue struct {
	Raw string
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (h *HourValue) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		h.Raw = text
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrMalformedHours, string(data))
	}
	h.Raw = number.String()
	return nil
}

// MarshalJSON writes the stored text back out.
func (h HourValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Raw)
}

// Hours converts the value to decimal hours.
func (h HourValue) Hours() (float64, error) {
	return ParseHours(h.Raw)
}

// ParseHours converts "HH:MM" (h + m/60) or a decimal number to hours.
func ParseHours(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}

	if hh, mm, ok := strings.Cut(value, ":"); ok {
		hours, err := strconv.Atoi(strings.TrimSpace(hh))
		if err != nil || hours < 0 {
			return 0, fmt.Errorf("%w: %q", apperrors.ErrMalformedHours, raw)
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(mm))
		if err != nil || minutes < 0 || minutes > 59 {
			return 0, fmt.Errorf("%w: %q", apperrors.ErrMalformedHours, raw)
		}
		return float64(hours) + float64(minutes)/60, nil
	}

	hours, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil || hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrMalformedHours, raw)
	}
	return hours, nil
}

// HourRecord is one billable-hours entry for a company and month.
type HourRecord struct {
	ID          string       `json:"id"`
	CompanyID   uuid.UUID    `json:"companyId"`
	Period      PeriodWindow `json:"period"`
	HoursTotal  HourValue    `json:"hoursTotal"`
	BillingType string       `json:"billingType"`
}

// IsIncident reports whether the hours were billed against incidents.
func (r HourRecord) IsIncident() bool {
	return strings.Contains(strings.ToLower(r.BillingType), strings.ToLower(TypeIncident))
}

// BillingLabel returns the billing type, or a placeholder when unset.
func (r HourRecord) BillingLabel() string {
	if strings.TrimSpace(r.BillingType) == "" {
		return NoBillingTypeLabel
	}
	return r.BillingType
}
