// Package scheduler fires scheduled posts and parses schedule expressions.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"multipost_bot/internal/model"
)

const (
	dateTimeLayout  = "2006-01-02 15:04"
	timeOfDayLayout = "15:04"
	dailyPrefix     = "daily "
)

// Schedule expression errors.
var (
	ErrBadSchedule = errors.New("schedule must be YYYY-MM-DD HH:MM or daily HH:MM")
	ErrInPast      = errors.New("schedule time is in the past")
)

// ParseSchedule parses "YYYY-MM-DD HH:MM" into a one-time entry and
// "daily HH:MM" into a daily one, both in loc. ID and PostID are left zero.
//
// A new daily entry counts as sent at now, so a time of day that has already
// passed today first fires tomorrow.
func ParseSchedule(expr string, now time.Time, loc *time.Location) (model.ScheduledEntry, error) {
	expr = strings.TrimSpace(expr)

	if rest, ok := cutPrefixFold(expr, dailyPrefix); ok {
		tod, err := time.Parse(timeOfDayLayout, strings.TrimSpace(rest))
		if err != nil {
			return model.ScheduledEntry{}, fmt.Errorf("%w: %q", ErrBadSchedule, expr)
		}
		sent := now.UTC()
		return model.ScheduledEntry{
			Mode:      model.ScheduleDaily,
			TimeOfDay: tod.Format(timeOfDayLayout),
			LastSent:  &sent,
		}, nil
	}

	at, err := time.ParseInLocation(dateTimeLayout, expr, loc)
	if err != nil {
		return model.ScheduledEntry{}, fmt.Errorf("%w: %q", ErrBadSchedule, expr)
	}
	if !at.After(now) {
		return model.ScheduledEntry{}, ErrInPast
	}
	at = at.UTC()
	return model.ScheduledEntry{Mode: model.ScheduleOnce, RunAt: &at}, nil
}

// Describe renders an entry for display, in loc.
func Describe(e model.ScheduledEntry, loc *time.Location) string {
	switch e.Mode {
	case model.ScheduleDaily:
		return "daily " + e.TimeOfDay
	case model.ScheduleOnce:
		if e.RunAt != nil {
			return e.RunAt.In(loc).Format(dateTimeLayout)
		}
	}
	return string(e.Mode)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
