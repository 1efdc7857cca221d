package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Week-specific validation errors
var (
	// ErrInvalidWeek is returned when a week number is outside the valid
	// ISO range for its year.
	ErrInvalidWeek = errors.New("week number outside valid ISO range")

	// ErrInvalidWeekSpec is returned when a week specification string does
	// not match the YYYY.WW format.
	ErrInvalidWeekSpec = errors.New("invalid week spec, expected YYYY.WW")
)

// ISOWeek identifies one week of the ISO-8601 week-date calendar.
// It is the identity key for a sprint: the sprint name on the board is
// derived from it and nothing else.
type ISOWeek struct {
	Year int
	Week int
}

// WeekRange is the Monday-to-Friday span of an ISO week expressed both as
// dates and as the UTC epoch-millisecond boundaries the tracker expects.
type WeekRange struct {
	Monday       time.Time
	Friday       time.Time
	StartMillis  int64
	FinishMillis int64
}

// WeeksInYear returns the number of ISO weeks in the given year (52 or 53).
func WeeksInYear(year int) int {
	// December 28 is always in the last ISO week of its year.
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// mondayOfWeek returns the Monday date of the given ISO week in UTC.
// January 4 is always in ISO week 1, so week 1's Monday is found by walking
// back from it and later weeks follow in 7-day steps.
func mondayOfWeek(w ISOWeek) time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 { // Sunday
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, 7*(w.Week-1))
}

// RangeForWeek computes the Monday-Friday range of an ISO week.
// Returns ErrInvalidWeek if the week number does not exist in that year,
// which happens for week 53 in 52-week years.
func RangeForWeek(year, week int) (WeekRange, error) {
	if week < 1 || week > WeeksInYear(year) {
		return WeekRange{}, fmt.Errorf(
			"%w: %d.%02d (year %d has %d weeks)",
			ErrInvalidWeek, year, week, year, WeeksInYear(year),
		)
	}

	monday := mondayOfWeek(ISOWeek{Year: year, Week: week})
	friday := monday.AddDate(0, 0, 4)
	finish := time.Date(
		friday.Year(), friday.Month(), friday.Day(),
		23, 59, 59, 999_000_000, time.UTC,
	)

	return WeekRange{
		Monday:       monday,
		Friday:       friday,
		StartMillis:  monday.UnixMilli(),
		FinishMillis: finish.UnixMilli(),
	}, nil
}

// CurrentWeek returns the ISO week containing the given instant, evaluated
// in UTC so the result does not depend on the host timezone.
func CurrentWeek(now time.Time) ISOWeek {
	year, week := now.UTC().ISOWeek()
	return ISOWeek{Year: year, Week: week}
}

// ParseWeekSpec parses a "YYYY.WW" week specification such as "2025.32".
// Returns ErrInvalidWeekSpec if the text does not match the pattern or the
// week number is outside 1..53.
func ParseWeekSpec(spec string) (ISOWeek, error) {
	yearStr, weekStr, ok := strings.Cut(spec, ".")
	if !ok {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeekSpec, spec)
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || len(yearStr) != 4 {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeekSpec, spec)
	}

	week, err := strconv.Atoi(weekStr)
	if err != nil || week < 1 || week > 53 {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeekSpec, spec)
	}

	return ISOWeek{Year: year, Week: week}, nil
}

// SprintName returns the canonical sprint name for the week, "YYYY.WW Sprint"
// with the week zero-padded to two digits.
func (w ISOWeek) SprintName() string {
	return fmt.Sprintf("%d.%02d Sprint", w.Year, w.Week)
}

// String returns the week in its spec form, "YYYY.WW".
func (w ISOWeek) String() string {
	return fmt.Sprintf("%d.%02d", w.Year, w.Week)
}

// Next advances the week by offset whole weeks and re-derives the ISO
// year/week pair of the result. Incrementing the week field directly would
// be wrong at year boundaries: week 52 or 53 rolls into week 1 of the next
// year, and only some years have a week 53.
func (w ISOWeek) Next(offset int) ISOWeek {
	monday := mondayOfWeek(w).AddDate(0, 0, 7*offset)
	year, week := monday.ISOWeek()
	return ISOWeek{Year: year, Week: week}
}
