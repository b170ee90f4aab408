package calendar

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
)

var (
	// errors
	ErrInvalidDate   = errors.New("invalid date")
	ErrDuplicateDate = errors.New("duplicate date")
)

// DateKey identifies a lesson date, formatted as YYYY-MM-DD.
type DateKey string

// ParseDateKey validates s and returns it as a DateKey.
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(core.DateKeyLayout, s); err != nil {
		return "", errors.Wrapf(ErrInvalidDate, "%q", s)
	}
	return DateKey(s), nil
}

// ParseField is ParseDateKey for user input: failures are validation errors on field.
func ParseField(field, s string) (DateKey, error) {
	d, err := ParseDateKey(s)
	if err != nil {
		return "", core.NewValidationError(err, core.FieldError{Field: field, Error: "must be a date formatted as YYYY-MM-DD"})
	}
	return d, nil
}

// KeyOf returns the DateKey of t's calendar day.
func KeyOf(t time.Time) DateKey {
	return DateKey(t.Format(core.DateKeyLayout))
}

// Time returns the start of the day in UTC. Malformed keys give the zero time.
func (d DateKey) Time() time.Time {
	t, _ := time.Parse(core.DateKeyLayout, string(d))
	return t
}

// Short formats the date as DD.MM.
func (d DateKey) Short() string {
	t, err := time.Parse(core.DateKeyLayout, string(d))
	if err != nil {
		return string(d)
	}
	return t.Format("02.01")
}

func (d DateKey) String() string { return string(d) }

// Before compares keys chronologically. YYYY-MM-DD sorts lexically.
func (d DateKey) Before(other DateKey) bool { return d < other }

// Formatter renders a date key for display.
type Formatter func(DateKey) string

// ShortFormatter is the default DD.MM Formatter.
func ShortFormatter(d DateKey) string { return d.Short() }

// Axis is the ordered sequence of lesson dates shown as columns.
type Axis []DateKey

// NewAxis parses the given dates in order. Duplicates are rejected.
func NewAxis(dates ...string) (Axis, error) {
	axis := make(Axis, 0, len(dates))
	seen := make(map[DateKey]bool, len(dates))
	for _, s := range dates {
		d, err := ParseDateKey(s)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			return nil, errors.Wrapf(ErrDuplicateDate, "%q", s)
		}
		seen[d] = true
		axis = append(axis, d)
	}
	return axis, nil
}

func (a Axis) Contains(d DateKey) bool {
	for _, k := range a {
		if k == d {
			return true
		}
	}
	return false
}

// Between returns the dates of the axis within [from, to]. A zero bound is open.
func (a Axis) Between(from, to DateKey) Axis {
	r := make(Axis, 0, len(a))
	for _, d := range a {
		if from != "" && d.Before(from) {
			continue
		}
		if to != "" && to.Before(d) {
			continue
		}
		r = append(r, d)
	}
	return r
}

// Strings returns the raw keys.
func (a Axis) Strings() []string {
	s := make([]string, len(a))
	for i, d := range a {
		s[i] = string(d)
	}
	return s
}
