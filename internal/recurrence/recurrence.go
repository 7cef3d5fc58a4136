package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// MaxInstances is a safety cap on a single expansion. Rules that would keep
// generating past the cap are truncated, not rejected.
const MaxInstances = 200

const (
	defaultDailyHorizonDays   = 30
	defaultWeeklyHorizonWeeks = 8
)

// Mode is the recurrence rule attached to a submission.
type Mode int

const (
	None Mode = iota
	Daily
	Weekly
)

// ParseMode maps a wire value to a Mode. Matching is case-insensitive and an
// empty value means no recurrence.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return None, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	}
	return None, fmt.Errorf("unknown recurrence %q", value)
}

func (m Mode) String() string {
	switch m {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	default:
		return "none"
	}
}

// Instance is one concrete occurrence produced by Expand.
type Instance struct {
	Start time.Time
	End   *time.Time
}

// Expand materializes a submission into the instances to store.
//
// The first instance is always emitted, even when until lies before start:
// a submission persists at least one row, and an early until just means no
// repetition. Daily steps one calendar day, weekly seven, via AddDate, and
// end times step with the same call so the wall-clock offset survives DST
// transitions. A nil until defaults the horizon to 30 days (daily) or 8
// weeks (weekly) after start. The horizon is inclusive and expansion stops
// at MaxInstances.
func Expand(start time.Time, end *time.Time, mode Mode, until *time.Time) []Instance {
	if mode == None {
		return []Instance{{Start: start, End: copyTime(end)}}
	}

	stepDays := 1
	horizon := start.AddDate(0, 0, defaultDailyHorizonDays)
	if mode == Weekly {
		stepDays = 7
		horizon = start.AddDate(0, 0, 7*defaultWeeklyHorizonWeeks)
	}
	if until != nil {
		horizon = *until
	}

	instances := make([]Instance, 0, 8)
	curStart := start
	curEnd := copyTime(end)

	for {
		instances = append(instances, Instance{Start: curStart, End: copyTime(curEnd)})
		if len(instances) >= MaxInstances {
			break
		}

		next := curStart.AddDate(0, 0, stepDays)
		if next.After(horizon) {
			break
		}
		curStart = next
		if curEnd != nil {
			stepped := curEnd.AddDate(0, 0, stepDays)
			curEnd = &stepped
		}
	}

	return instances
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
