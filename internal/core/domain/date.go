package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDate = errors.New("invalid date (must be YYYY-MM-DD)")
)

const DateLayout = "2006-01-02"

// DateKey is a calendar date without a time component, serialized as YYYY-MM-DD.
// The zero value is not a valid date.
type DateKey string

func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateKey(t.Format(DateLayout)), nil
}

func MustParseDateKey(s string) DateKey {
	d, err := ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateKeyOf returns the calendar date of t in its own location.
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.Format(DateLayout))
}

func (d DateKey) String() string {
	return string(d)
}

func (d DateKey) Validate() error {
	_, err := ParseDateKey(string(d))
	return err
}

// Time returns midnight UTC of the date.
func (d DateKey) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

// AddDays shifts the date by n calendar days. An invalid key yields the zero
// DateKey.
func (d DateKey) AddDays(n int) DateKey {
	t, err := d.Time()
	if err != nil {
		return ""
	}
	return DateKeyOf(t.AddDate(0, 0, n))
}

func (d DateKey) Before(other DateKey) bool {
	return d < other
}

func (d DateKey) After(other DateKey) bool {
	return d > other
}
