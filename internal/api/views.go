package api

import (
	"time"

	"example.com/journal/internal/domain"
	"example.com/journal/internal/insights"
)

// TagInput is a tag reference in a request body. Type is optional.
type TagInput struct {
	Name string  `json:"name"`
	Type *string `json:"type,omitempty"`
}

func toDomainTags(in []TagInput) []domain.Tag {
	out := make([]domain.Tag, 0, len(in))
	for _, t := range in {
		tag := domain.Tag{Name: t.Name}
		if t.Type != nil {
			typ := domain.TagType(*t.Type)
			tag.Type = &typ
		}
		out = append(out, tag)
	}
	return out
}

func optionalTags(in *[]TagInput) *[]domain.Tag {
	if in == nil {
		return nil
	}
	tags := toDomainTags(*in)
	return &tags
}

// CreateActivityRequest is the payload for POST /v1/activities.
type CreateActivityRequest struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Date       time.Time  `json:"date"`
	Engagement int        `json:"engagement"`
	Energy     int        `json:"energy"`
	Tags       []TagInput `json:"tags"`
}

func (r CreateActivityRequest) input() domain.ActivityInput {
	return domain.ActivityInput{
		Title:      r.Title,
		Content:    r.Content,
		Date:       r.Date,
		Engagement: r.Engagement,
		Energy:     r.Energy,
		Tags:       toDomainTags(r.Tags),
	}
}

// UpdateActivityRequest is the payload for PATCH /v1/activities/{id}. Absent
// fields are left unchanged; an empty tags array clears the tags.
type UpdateActivityRequest struct {
	Title      *string     `json:"title"`
	Content    *string     `json:"content"`
	Date       *time.Time  `json:"date"`
	Engagement *int        `json:"engagement"`
	Energy     *int        `json:"energy"`
	Tags       *[]TagInput `json:"tags"`
}

func (r UpdateActivityRequest) patch() domain.ActivityPatch {
	return domain.ActivityPatch{
		Title:      r.Title,
		Content:    r.Content,
		Date:       r.Date,
		Engagement: r.Engagement,
		Energy:     r.Energy,
		Tags:       optionalTags(r.Tags),
	}
}

// CreateReflectionRequest is the payload for POST /v1/reflections.
type CreateReflectionRequest struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Tags      []TagInput `json:"tags"`
}

func (r CreateReflectionRequest) input() domain.ReflectionInput {
	return domain.ReflectionInput{
		Title:     r.Title,
		Content:   r.Content,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Tags:      toDomainTags(r.Tags),
	}
}

// UpdateReflectionRequest is the payload for PATCH /v1/reflections/{id}.
type UpdateReflectionRequest struct {
	Title     *string     `json:"title"`
	Content   *string     `json:"content"`
	StartDate *time.Time  `json:"start_date"`
	EndDate   *time.Time  `json:"end_date"`
	Tags      *[]TagInput `json:"tags"`
}

func (r UpdateReflectionRequest) patch() domain.ReflectionPatch {
	return domain.ReflectionPatch{
		Title:     r.Title,
		Content:   r.Content,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Tags:      optionalTags(r.Tags),
	}
}

// UpsertTagRequest is the optional body of PUT /v1/tags/{name}.
type UpsertTagRequest struct {
	Type *string `json:"type"`
}

// UpsertUserRequest is the body of PUT /v1/users/me.
type UpsertUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profile_pic"`
}

// CreatedResponse carries the id of a new record.
type CreatedResponse struct {
	ID string `json:"id"`
}

// ListResponse packages list results.
type ListResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// TagView is a resolved tag; Type is null for names missing from the registry.
type TagView struct {
	Name string  `json:"name"`
	Type *string `json:"type"`
}

// ActivityView exposes an activity.
type ActivityView struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Date       time.Time `json:"date"`
	Engagement int       `json:"engagement"`
	Energy     int       `json:"energy"`
	Tags       []TagView `json:"tags"`
}

// ReflectionView exposes a reflection.
type ReflectionView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Tags      []TagView `json:"tags"`
}

// EntryView is one item of the merged entry listing. Exactly one of
// Activity and Reflection is set, matching Kind.
type EntryView struct {
	Kind       string          `json:"kind"`
	Activity   *ActivityView   `json:"activity,omitempty"`
	Reflection *ReflectionView `json:"reflection,omitempty"`
}

// UserView exposes the caller's profile.
type UserView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profile_pic"`
	CreatedAt  time.Time `json:"created_at"`
}

// DailyPointView is one day of the daily series.
type DailyPointView struct {
	Date       string `json:"date"`
	Energy     int    `json:"energy"`
	Engagement int    `json:"engagement"`
}

// DailyResponse is the body of GET /v1/insights/daily.
type DailyResponse struct {
	Points []DailyPointView `json:"points"`
}

// WeeklyPointView is one week of the weekly series.
type WeeklyPointView struct {
	Week       string `json:"week"`
	WeekStart  string `json:"week_start"`
	Engagement int    `json:"engagement"`
	Energy     int    `json:"energy"`
}

// WeekValueView is one point of a single-metric trend.
type WeekValueView struct {
	Week  string `json:"week"`
	Value int    `json:"value"`
}

// WeeklyResponse is the body of GET /v1/insights/weekly.
type WeeklyResponse struct {
	Points          []WeeklyPointView `json:"points"`
	EngagementTrend []WeekValueView   `json:"engagement_trend"`
	EnergyTrend     []WeekValueView   `json:"energy_trend"`
}

// AveragesView is the body of GET /v1/insights/current.
type AveragesView struct {
	Energy     int `json:"energy"`
	Engagement int `json:"engagement"`
}

// OverviewResponse is the body of GET /v1/insights/overview.
type OverviewResponse struct {
	Daily       []DailyPointView `json:"daily"`
	Weekly      WeeklyResponse   `json:"weekly"`
	CurrentWeek AveragesView     `json:"current_week"`
}

func toTagView(t domain.Tag) TagView {
	view := TagView{Name: t.Name}
	if t.Type != nil {
		typ := string(*t.Type)
		view.Type = &typ
	}
	return view
}

func toTagViews(tags []domain.Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagView(t))
	}
	return out
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ID:         a.ID,
		Title:      a.Title,
		Content:    a.Content,
		Date:       a.Date,
		Engagement: a.Engagement,
		Energy:     a.Energy,
		Tags:       toTagViews(a.Tags),
	}
}

func toReflectionView(r domain.Reflection) ReflectionView {
	return ReflectionView{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Tags:      toTagViews(r.Tags),
	}
}

func toEntryView(e domain.Entry) (EntryView, error) {
	view := EntryView{Kind: string(e.Kind)}
	err := e.Visit(
		func(a domain.Activity) error {
			av := toActivityView(a)
			view.Activity = &av
			return nil
		},
		func(r domain.Reflection) error {
			rv := toReflectionView(r)
			view.Reflection = &rv
			return nil
		},
	)
	return view, err
}

func toUserView(u domain.User) UserView {
	return UserView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		CreatedAt:  u.CreatedAt,
	}
}

func toDailyViews(points []insights.DailyPoint) []DailyPointView {
	out := make([]DailyPointView, 0, len(points))
	for _, p := range points {
		out = append(out, DailyPointView(p))
	}
	return out
}

func toWeeklyResponse(points []insights.WeeklyPoint) WeeklyResponse {
	resp := WeeklyResponse{
		Points:          make([]WeeklyPointView, 0, len(points)),
		EngagementTrend: make([]WeekValueView, 0, len(points)),
		EnergyTrend:     make([]WeekValueView, 0, len(points)),
	}
	for _, p := range points {
		resp.Points = append(resp.Points, WeeklyPointView{
			Week:       p.Week,
			WeekStart:  insights.DayKey(p.WeekStart, p.WeekStart.Location()),
			Engagement: p.Engagement,
			Energy:     p.Energy,
		})
		resp.EngagementTrend = append(resp.EngagementTrend, WeekValueView{Week: p.Week, Value: p.Engagement})
		resp.EnergyTrend = append(resp.EnergyTrend, WeekValueView{Week: p.Week, Value: p.Energy})
	}
	return resp
}
