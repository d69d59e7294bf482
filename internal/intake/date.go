package intake

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar date kept in its YYYY-MM-DD text form. Whatever the user typed is preserved until a validator
// judges it, so a half-entered date is never dropped.
type Date string

func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) String() string {
	return string(d)
}

func (d Date) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

// Time parses the date as midnight UTC.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(string(d)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", string(d), err)
	}
	return t, nil
}

// After reports whether d is strictly after other. Both dates must parse.
func (d Date) After(other Date) (bool, error) {
	dt, err := d.Time()
	if err != nil {
		return false, err
	}
	ot, err := other.Time()
	if err != nil {
		return false, err
	}
	return dt.After(ot), nil
}

// normalizeDate trims timestamps down to their calendar date. It reports whether the value was rewritten.
func normalizeDate(d Date) (Date, bool) {
	s := strings.TrimSpace(string(d))
	if s == "" || len(s) == len(DateLayout) {
		return Date(s), s != string(d)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t.Format(DateLayout)), true
		}
	}
	return Date(s), s != string(d)
}
