package insights_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/journal/internal/domain"
	"example.com/journal/internal/insights"
	"example.com/journal/internal/persistence/memory"
)

func TestCreateThenCurrentWeekAverages(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)
	journal := domain.NewService(memory.NewRepository(), nil)

	id, err := journal.CreateActivity(ctx, "user-1", domain.ActivityInput{
		Title:      "Morning run",
		Content:    "5k along the river",
		Date:       now,
		Energy:     50,
		Engagement: 80,
	})
	require.NoError(t, err)

	activities, err := journal.ListActivities(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, id, activities[0].ID)
	require.Equal(t, 50, activities[0].Energy)
	require.Equal(t, 80, activities[0].Engagement)
	require.Empty(t, activities[0].Tags)

	svc := insights.NewService(journal, insights.WithClock(func() time.Time { return now }))
	avg, err := svc.CurrentWeek(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, insights.Averages{Energy: 50, Engagement: 80}, avg)
}

func TestTwoActivitiesSameDayAverageInDailySeries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.October, 14, 20, 0, 0, 0, time.UTC)
	journal := domain.NewService(memory.NewRepository(), nil)

	for _, energy := range []int{20, 40} {
		_, err := journal.CreateActivity(ctx, "user-1", domain.ActivityInput{
			Title:      "Session",
			Content:    "notes",
			Date:       now.Add(-time.Duration(energy) * time.Minute),
			Energy:     energy,
			Engagement: 50,
		})
		require.NoError(t, err)
	}

	svc := insights.NewService(journal, insights.WithClock(func() time.Time { return now }))
	daily, err := svc.Daily(ctx, "user-1", time.UTC)
	require.NoError(t, err)
	require.Len(t, daily, insights.DailyWindow)
	require.Equal(t, insights.DailyPoint{Date: "2026-10-14", Energy: 30, Engagement: 50}, daily[len(daily)-1])
}

func TestOverviewUsesOneSnapshot(t *testing.T) {
	now := time.Date(2026, time.October, 14, 20, 0, 0, 0, time.UTC)
	source := &countingSource{activities: []domain.Activity{{ID: "a", Date: now, Energy: 10, Engagement: 20}}}
	svc := insights.NewService(source, insights.WithClock(func() time.Time { return now }))

	overview, err := svc.Overview(context.Background(), "user-1", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
	require.Len(t, overview.Daily, insights.DailyWindow)
	require.Len(t, overview.Weekly, insights.WeeklyWindow)
	require.Equal(t, insights.Averages{Energy: 10, Engagement: 20}, overview.CurrentWeek)
}

func TestServicePropagatesSourceFailure(t *testing.T) {
	source := &countingSource{err: domain.ErrStoreFailure}
	svc := insights.NewService(source)

	_, err := svc.Weekly(context.Background(), "user-1", time.UTC)
	require.True(t, errors.Is(err, domain.ErrStoreFailure))
}

type countingSource struct {
	activities []domain.Activity
	err        error
	calls      int
}

func (c *countingSource) ListActivities(context.Context, string) ([]domain.Activity, error) {
	c.calls++
	return c.activities, c.err
}
