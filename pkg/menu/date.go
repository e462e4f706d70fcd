package menu

import (
	"errors"
	"strings"
	"time"
)

const (
	// DateLayout is the vendor's query-parameter date format.
	DateLayout = "2006-01-02"

	// DateTimeLayout is the vendor's day-entry key format.
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Resolve shifts date by offsetDays calendar days and formats it as YYYY-MM-DD.
func Resolve(date time.Time, offsetDays int) string {
	return shift(date, offsetDays).Format(DateLayout)
}

// ResolveDateTime is Resolve for the vendor's day-list key: YYYY-MM-DDT00:00:00.
func ResolveDateTime(date time.Time, offsetDays int) string {
	return shift(date, offsetDays).Format(DateTimeLayout)
}

// Shift returns midnight of the calendar day offsetDays after date, in date's location.
func Shift(date time.Time, offsetDays int) time.Time {
	return shift(date, offsetDays)
}

func shift(date time.Time, offsetDays int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d+offsetDays, 0, 0, 0, 0, date.Location())
}

// ParseDate parses a YYYY-MM-DD string in loc. A nil loc means UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDate, err)
	}
	return t, nil
}

// DisplayFields are the date parts shown in the email subject and heading.
type DisplayFields struct {
	DayName string
	Month   string
	Day     int
}

// Display derives the weekday name, month name and day of month for date.
func Display(date time.Time) DisplayFields {
	return DisplayFields{
		DayName: date.Weekday().String(),
		Month:   date.Month().String(),
		Day:     date.Day(),
	}
}
