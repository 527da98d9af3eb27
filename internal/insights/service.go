package insights

import (
	"context"
	"time"

	"example.com/journal/internal/domain"
	"example.com/journal/internal/observability"
)

// ActivitySource supplies the activity snapshot the series are computed from.
type ActivitySource interface {
	ListActivities(ctx context.Context, userID string) ([]domain.Activity, error)
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service fetches a user's activities and applies the aggregation functions.
// It keeps no state between calls.
type Service struct {
	source ActivitySource
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(source ActivitySource, opts ...Option) *Service {
	s := &Service{source: source, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Overview bundles every series computed from one snapshot.
type Overview struct {
	Daily       []DailyPoint
	Weekly      []WeeklyPoint
	CurrentWeek Averages
}

// Daily computes the 30-day series.
func (s *Service) Daily(ctx context.Context, userID string, loc *time.Location) ([]DailyPoint, error) {
	activities, err := s.source.ListActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	observability.RecordInsightsComputed("daily")
	return Daily(activities, s.now(), loc), nil
}

// Weekly computes the 8-week series.
func (s *Service) Weekly(ctx context.Context, userID string, loc *time.Location) ([]WeeklyPoint, error) {
	activities, err := s.source.ListActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	observability.RecordInsightsComputed("weekly")
	return Weekly(activities, s.now(), loc), nil
}

// CurrentWeek computes the rolling 7-day averages.
func (s *Service) CurrentWeek(ctx context.Context, userID string) (Averages, error) {
	activities, err := s.source.ListActivities(ctx, userID)
	if err != nil {
		return Averages{}, err
	}
	observability.RecordInsightsComputed("current_week")
	return CurrentWeek(activities, s.now()), nil
}

// Overview computes all series against a single fetch and clock reading.
func (s *Service) Overview(ctx context.Context, userID string, loc *time.Location) (Overview, error) {
	activities, err := s.source.ListActivities(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	now := s.now()
	observability.RecordInsightsComputed("overview")
	return Overview{
		Daily:       Daily(activities, now, loc),
		Weekly:      Weekly(activities, now, loc),
		CurrentWeek: CurrentWeek(activities, now),
	}, nil
}
