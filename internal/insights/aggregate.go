// Package insights derives energy and engagement series from a user's activities.
//
// The functions here are pure: the caller supplies the activity snapshot, the
// instant to anchor on and the location whose calendar days are used. The
// Service type wires them to the domain access layer.
package insights

import (
	"fmt"
	"math"
	"time"

	"example.com/journal/internal/domain"
)

const (
	// DailyWindow is the number of calendar days in the daily series.
	DailyWindow = 30
	// WeeklyWindow is the number of Monday-start weeks in the weekly series.
	WeeklyWindow = 8
	// RollingWindow is the sliding window used by CurrentWeek.
	RollingWindow = 7 * 24 * time.Hour

	dayLayout = "2006-01-02"
)

// DailyPoint is the mean energy and engagement of one calendar day.
type DailyPoint struct {
	Date       string
	Energy     int
	Engagement int
}

// WeeklyPoint is the mean energy and engagement of one Monday-start week.
type WeeklyPoint struct {
	Week       string
	WeekStart  time.Time
	Engagement int
	Energy     int
}

// WeekValue is a single-field projection of a WeeklyPoint.
type WeekValue struct {
	Week  string
	Value int
}

// Averages is a rounded energy/engagement pair.
type Averages struct {
	Energy     int
	Engagement int
}

type accumulator struct {
	energy     int
	engagement int
	n          int
}

func (a *accumulator) add(act domain.Activity) {
	a.energy += act.Energy
	a.engagement += act.Engagement
	a.n++
}

// averages returns zeros for an empty bucket; "no data" and a zero mean are
// not distinguished.
func (a accumulator) averages() Averages {
	if a.n == 0 {
		return Averages{}
	}
	return Averages{
		Energy:     roundMean(a.energy, a.n),
		Engagement: roundMean(a.engagement, a.n),
	}
}

// roundMean rounds half away from zero.
func roundMean(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}

// DayKey formats t as the YYYY-MM-DD calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// MostRecentMonday returns midnight of the Monday starting t's week in loc.
// Sundays belong to the week that began six days earlier.
func MostRecentMonday(t time.Time, loc *time.Location) time.Time {
	d := t.In(loc)
	diff := 1 - int(d.Weekday())
	if d.Weekday() == time.Sunday {
		diff = -6
	}
	y, m, day := d.AddDate(0, 0, diff).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// LastDays returns the n calendar days ending with now's day, oldest first.
func LastDays(n int, now time.Time, loc *time.Location) []string {
	today := now.In(loc)
	days := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i).Format(dayLayout))
	}
	return days
}

// LastMondays returns the n week starts ending with now's week, oldest first.
func LastMondays(n int, now time.Time, loc *time.Location) []time.Time {
	current := MostRecentMonday(now, loc)
	mondays := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		mondays = append(mondays, current.AddDate(0, 0, -7*i))
	}
	return mondays
}

// Daily returns exactly DailyWindow points, one per calendar day in loc,
// ending today.
func Daily(activities []domain.Activity, now time.Time, loc *time.Location) []DailyPoint {
	byDay := make(map[string]*accumulator)
	for _, act := range activities {
		key := DayKey(act.Date, loc)
		acc, ok := byDay[key]
		if !ok {
			acc = &accumulator{}
			byDay[key] = acc
		}
		acc.add(act)
	}

	points := make([]DailyPoint, 0, DailyWindow)
	for _, day := range LastDays(DailyWindow, now, loc) {
		var avg Averages
		if acc, ok := byDay[day]; ok {
			avg = acc.averages()
		}
		points = append(points, DailyPoint{Date: day, Energy: avg.Energy, Engagement: avg.Engagement})
	}
	return points
}

// Weekly returns exactly WeeklyWindow points labeled "Week 1" (oldest)
// through "Week 8" (current week).
func Weekly(activities []domain.Activity, now time.Time, loc *time.Location) []WeeklyPoint {
	byWeek := make(map[string]*accumulator)
	for _, act := range activities {
		key := MostRecentMonday(act.Date, loc).Format(dayLayout)
		acc, ok := byWeek[key]
		if !ok {
			acc = &accumulator{}
			byWeek[key] = acc
		}
		acc.add(act)
	}

	points := make([]WeeklyPoint, 0, WeeklyWindow)
	for i, monday := range LastMondays(WeeklyWindow, now, loc) {
		var avg Averages
		if acc, ok := byWeek[monday.Format(dayLayout)]; ok {
			avg = acc.averages()
		}
		points = append(points, WeeklyPoint{
			Week:       fmt.Sprintf("Week %d", i+1),
			WeekStart:  monday,
			Engagement: avg.Engagement,
			Energy:     avg.Energy,
		})
	}
	return points
}

// EngagementTrend projects Weekly onto engagement.
func EngagementTrend(activities []domain.Activity, now time.Time, loc *time.Location) []WeekValue {
	weekly := Weekly(activities, now, loc)
	out := make([]WeekValue, len(weekly))
	for i, p := range weekly {
		out[i] = WeekValue{Week: p.Week, Value: p.Engagement}
	}
	return out
}

// EnergyTrend projects Weekly onto energy.
func EnergyTrend(activities []domain.Activity, now time.Time, loc *time.Location) []WeekValue {
	weekly := Weekly(activities, now, loc)
	out := make([]WeekValue, len(weekly))
	for i, p := range weekly {
		out[i] = WeekValue{Week: p.Week, Value: p.Energy}
	}
	return out
}

// CurrentWeek averages activities dated within RollingWindow of now. The
// window slides with now and is not aligned to calendar weeks.
func CurrentWeek(activities []domain.Activity, now time.Time) Averages {
	cutoff := now.Add(-RollingWindow)
	var acc accumulator
	for _, act := range activities {
		if act.Date.Before(cutoff) {
			continue
		}
		acc.add(act)
	}
	return acc.averages()
}
