package validation

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// MaxAgeYears bounds how far back a birth date may be.
const MaxAgeYears = 120

var (
	ErrBirthDateFormat = errors.New("birth date must be DD/MM/YYYY")
	ErrBirthDateValue  = errors.New("birth date is not a calendar date")
	ErrBirthDateFuture = errors.New("birth date is in the future")
	ErrBirthDateTooOld = errors.New("birth date is too far in the past")
)

var birthDateMask = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ParseBirthDate parses a masked DD/MM/YYYY value into a UTC date. Dates that
// do not exist on the calendar (31/04, 29/02 outside leap years) are rejected.
func ParseBirthDate(value string) (time.Time, error) {
	if !birthDateMask.MatchString(value) {
		return time.Time{}, ErrBirthDateFormat
	}
	day, _ := strconv.Atoi(value[0:2])
	month, _ := strconv.Atoi(value[3:5])
	year, _ := strconv.Atoi(value[6:10])

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, ErrBirthDateValue
	}
	return date, nil
}

// CheckBirthDate parses value and applies the calendar bounds relative to now:
// not after today, and not before the day exactly MaxAgeYears ago.
func CheckBirthDate(value string, now time.Time) (time.Time, error) {
	date, err := ParseBirthDate(value)
	if err != nil {
		return time.Time{}, err
	}
	today := dateOf(now)
	if date.After(today) {
		return time.Time{}, ErrBirthDateFuture
	}
	if date.Before(today.AddDate(-MaxAgeYears, 0, 0)) {
		return time.Time{}, ErrBirthDateTooOld
	}
	return date, nil
}

// BirthDateISO converts a masked DD/MM/YYYY value to YYYY-MM-DD for the API.
func BirthDateISO(value string) (string, error) {
	date, err := ParseBirthDate(value)
	if err != nil {
		return "", err
	}
	return date.Format(time.DateOnly), nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
