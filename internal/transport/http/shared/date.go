package shared

import "time"

// dateLayouts: RFC3339 from API clients, YYYY-MM-DD from date inputs,
// and the JJ/MM/AAAA form typed into the frontend's filter fields.
var dateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006"}

// ParseDate parses a date filter value. Empty input is not an error;
// it returns the zero time so callers can treat the filter as unset.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
