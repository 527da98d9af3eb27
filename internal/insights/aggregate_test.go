package insights

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"example.com/journal/internal/domain"
)

// Wednesday.
var anchor = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

func activityAt(t time.Time, energy, engagement int) domain.Activity {
	return domain.Activity{ID: t.Format(time.RFC3339Nano), Date: t, Energy: energy, Engagement: engagement}
}

func TestDailyReturnsThirtyAscendingDaysEndingToday(t *testing.T) {
	points := Daily(nil, anchor, time.UTC)

	require.Len(t, points, DailyWindow)
	require.Equal(t, "2026-09-15", points[0].Date)
	require.Equal(t, "2026-10-14", points[len(points)-1].Date)
	for i := 1; i < len(points); i++ {
		require.Less(t, points[i-1].Date, points[i].Date)
	}
	for _, p := range points {
		require.Zero(t, p.Energy)
		require.Zero(t, p.Engagement)
	}
}

func TestDailyAveragesActivitiesOnTheSameDay(t *testing.T) {
	activities := []domain.Activity{
		activityAt(anchor.Add(-2*time.Hour), 20, 80),
		activityAt(anchor.Add(-time.Hour), 40, 60),
		activityAt(anchor.AddDate(0, 0, -3), -50, 10),
	}

	points := Daily(activities, anchor, time.UTC)

	require.Equal(t, DailyPoint{Date: "2026-10-14", Energy: 30, Engagement: 70}, points[29])
	require.Equal(t, DailyPoint{Date: "2026-10-11", Energy: -50, Engagement: 10}, points[26])
	require.Equal(t, DailyPoint{Date: "2026-10-13"}, points[28])
}

func TestDailyRoundsHalfAwayFromZero(t *testing.T) {
	day := anchor.Add(-time.Hour)
	cases := []struct {
		name       string
		energies   [2]int
		engagement [2]int
		wantEnergy int
		wantEng    int
	}{
		{name: "positive tie", energies: [2]int{10, 11}, engagement: [2]int{0, 1}, wantEnergy: 11, wantEng: 1},
		{name: "negative tie", energies: [2]int{-10, -11}, engagement: [2]int{50, 50}, wantEnergy: -11, wantEng: 50},
		{name: "negative half", energies: [2]int{-1, 0}, engagement: [2]int{99, 100}, wantEnergy: -1, wantEng: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			activities := []domain.Activity{
				activityAt(day, tc.energies[0], tc.engagement[0]),
				activityAt(day.Add(time.Minute), tc.energies[1], tc.engagement[1]),
			}
			last := Daily(activities, anchor, time.UTC)[DailyWindow-1]
			require.Equal(t, tc.wantEnergy, last.Energy)
			require.Equal(t, tc.wantEng, last.Engagement)
		})
	}
}

func TestDailyGroupsByCalendarDayOfLocation(t *testing.T) {
	loc := time.FixedZone("UTC-4", -4*60*60)
	// 02:00 UTC on the 14th is still the evening of the 13th at UTC-4.
	activities := []domain.Activity{activityAt(time.Date(2026, time.October, 14, 2, 0, 0, 0, time.UTC), 60, 90)}

	points := Daily(activities, anchor, loc)

	require.Equal(t, "2026-10-14", points[29].Date)
	require.Zero(t, points[29].Energy)
	require.Equal(t, DailyPoint{Date: "2026-10-13", Energy: 60, Engagement: 90}, points[28])

	utc := Daily(activities, anchor, time.UTC)
	require.Equal(t, 60, utc[29].Energy)
}

func TestMostRecentMonday(t *testing.T) {
	monday := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		in   time.Time
		want time.Time
	}{
		"wednesday":       {in: anchor, want: monday},
		"monday":          {in: monday.Add(9 * time.Hour), want: monday},
		"saturday":        {in: time.Date(2026, time.October, 17, 23, 59, 0, 0, time.UTC), want: monday},
		"sunday":          {in: time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC), want: monday},
		"previous sunday": {in: time.Date(2026, time.October, 11, 8, 0, 0, 0, time.UTC), want: monday.AddDate(0, 0, -7)},
		"month boundary":  {in: time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC), want: time.Date(2026, time.September, 28, 0, 0, 0, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := MostRecentMonday(tc.in, time.UTC)
			require.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
			require.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestWeeklyLabelsEightWeeksOldestFirst(t *testing.T) {
	points := Weekly(nil, anchor, time.UTC)

	require.Len(t, points, WeeklyWindow)
	for i, p := range points {
		require.Equal(t, fmt.Sprintf("Week %d", i+1), p.Week)
		require.Equal(t, time.Monday, p.WeekStart.Weekday())
	}
	require.Equal(t, "2026-08-24", points[0].WeekStart.Format("2006-01-02"))
	require.Equal(t, "2026-10-12", points[7].WeekStart.Format("2006-01-02"))
}

func TestWeeklyBucketsByMostRecentMonday(t *testing.T) {
	sunday := time.Date(2026, time.October, 11, 21, 0, 0, 0, time.UTC)
	activities := []domain.Activity{
		activityAt(sunday, 10, 40),
		activityAt(time.Date(2026, time.October, 5, 9, 0, 0, 0, time.UTC), 30, 60),
		activityAt(time.Date(2026, time.October, 13, 9, 0, 0, 0, time.UTC), -20, 90),
		// Older than the eight-week window.
		activityAt(time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC), 100, 100),
	}

	points := Weekly(activities, anchor, time.UTC)

	for _, act := range activities[:3] {
		want := MostRecentMonday(act.Date, time.UTC)
		found := false
		for _, p := range points {
			if p.WeekStart.Equal(want) {
				found = true
				require.NotZero(t, p.Engagement)
			}
		}
		require.True(t, found, "week for %s missing", act.Date)
	}
	require.Equal(t, WeeklyPoint{Week: "Week 7", WeekStart: points[6].WeekStart, Engagement: 50, Energy: 20}, points[6])
	require.Equal(t, -20, points[7].Energy)
	require.Equal(t, 90, points[7].Engagement)
	for _, p := range points[:6] {
		require.Zero(t, p.Engagement)
		require.Zero(t, p.Energy)
	}
}

func TestWeeklyIsIdempotent(t *testing.T) {
	activities := []domain.Activity{
		activityAt(anchor.AddDate(0, 0, -1), 12, 34),
		activityAt(anchor.AddDate(0, 0, -20), -56, 78),
	}

	first := Weekly(activities, anchor, time.UTC)
	second := Weekly(activities, anchor, time.UTC)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("weekly series changed between runs (-first +second):\n%s", diff)
	}
}

func TestTrendsProjectWeeklySeries(t *testing.T) {
	activities := []domain.Activity{activityAt(anchor, -40, 70)}

	engagement := EngagementTrend(activities, anchor, time.UTC)
	energy := EnergyTrend(activities, anchor, time.UTC)

	require.Len(t, engagement, WeeklyWindow)
	require.Len(t, energy, WeeklyWindow)
	require.Equal(t, WeekValue{Week: "Week 8", Value: 70}, engagement[7])
	require.Equal(t, WeekValue{Week: "Week 8", Value: -40}, energy[7])
	require.Equal(t, WeekValue{Week: "Week 1", Value: 0}, energy[0])
}

func TestCurrentWeekUsesSlidingWindow(t *testing.T) {
	activities := []domain.Activity{
		activityAt(anchor.Add(-167*time.Hour), 50, 80),
		activityAt(anchor.Add(-RollingWindow), 10, 20),
		activityAt(anchor.Add(-169*time.Hour), -100, 0),
	}

	got := CurrentWeek(activities, anchor)

	require.Equal(t, Averages{Energy: 30, Engagement: 50}, got)
}

func TestCurrentWeekEmptyIsZero(t *testing.T) {
	require.Equal(t, Averages{}, CurrentWeek(nil, anchor))

	stale := []domain.Activity{activityAt(anchor.AddDate(0, 0, -30), 90, 90)}
	require.Equal(t, Averages{}, CurrentWeek(stale, anchor))
}
