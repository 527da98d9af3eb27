package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"example.com/journal/internal/domain"
	"example.com/journal/internal/persistence/memory"
)

const userID = "user-1"

var day = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T) (*domain.Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	return domain.NewService(repo, zap.NewNop()), repo
}

func tagType(t domain.TagType) *domain.TagType { return &t }

func validActivity() domain.ActivityInput {
	return domain.ActivityInput{
		Title:      "Deep work",
		Content:    "Wrote the quarterly plan",
		Date:       day,
		Engagement: 80,
		Energy:     50,
	}
}

func TestCreateAndGetActivityRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	in := validActivity()
	in.Date = day.Add(123456789 * time.Nanosecond)
	id, err := svc.CreateActivity(ctx, userID, in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := repo.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Equal(t, in.Date.UnixMilli(), stored.DateMillis)

	got, err := svc.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, userID, got.UserID)
	require.Equal(t, "Deep work", got.Title)
	require.True(t, got.Date.Equal(day.Add(123*time.Millisecond)))
	require.Equal(t, 80, got.Engagement)
	require.Equal(t, 50, got.Energy)
	require.Empty(t, got.Tags)
}

func TestRecordsAreScopedToTheirOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	id, err := svc.CreateActivity(ctx, userID, validActivity())
	require.NoError(t, err)

	_, err = svc.GetActivity(ctx, "someone-else", id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	others, err := svc.ListActivities(ctx, "someone-else")
	require.NoError(t, err)
	require.Empty(t, others)
}

func TestCreateActivityValidation(t *testing.T) {
	cases := map[string]func(*domain.ActivityInput){
		"blank title":         func(in *domain.ActivityInput) { in.Title = "  " },
		"blank content":       func(in *domain.ActivityInput) { in.Content = "" },
		"missing date":        func(in *domain.ActivityInput) { in.Date = time.Time{} },
		"engagement too low":  func(in *domain.ActivityInput) { in.Engagement = -1 },
		"engagement too high": func(in *domain.ActivityInput) { in.Engagement = 101 },
		"energy too low":      func(in *domain.ActivityInput) { in.Energy = -101 },
		"energy too high":     func(in *domain.ActivityInput) { in.Energy = 101 },
		"blank tag":           func(in *domain.ActivityInput) { in.Tags = []domain.Tag{{Name: ""}} },
		"unknown tag type":    func(in *domain.ActivityInput) { in.Tags = []domain.Tag{{Name: "focus", Type: tagType("boulder")}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newService(t)
			in := validActivity()
			mutate(&in)
			_, err := svc.CreateActivity(context.Background(), userID, in)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestRatingBoundsAreInclusive(t *testing.T) {
	svc, _ := newService(t)
	for _, pair := range [][2]int{{0, -100}, {100, 100}} {
		in := validActivity()
		in.Engagement, in.Energy = pair[0], pair[1]
		_, err := svc.CreateActivity(context.Background(), userID, in)
		require.NoError(t, err)
	}
}

func TestCreateRegistersNewTagsAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.UpsertTag(ctx, userID, "health", tagType(domain.TagTypeSand))
	require.NoError(t, err)

	in := validActivity()
	in.Tags = []domain.Tag{
		{Name: "focus"},
		{Name: "health", Type: tagType(domain.TagTypeRock)},
		{Name: "big-rock", Type: tagType("Rock")},
		{Name: "focus", Type: tagType(domain.TagTypeSand)},
	}
	id, err := svc.CreateActivity(ctx, userID, in)
	require.NoError(t, err)

	got, err := svc.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Len(t, got.Tags, 3)
	require.Equal(t, "focus", got.Tags[0].Name)
	require.Equal(t, domain.DefaultTagType, *got.Tags[0].Type)
	// Registered tags keep their type.
	require.Equal(t, domain.TagTypeSand, *got.Tags[1].Type)
	require.Equal(t, domain.TagTypeRock, *got.Tags[2].Type)

	tags, err := svc.ListTags(ctx, userID)
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	require.Equal(t, []string{"big-rock", "focus", "health"}, names)
}

func TestDeletedTagResolvesUntyped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	in := validActivity()
	in.Tags = []domain.Tag{{Name: "focus", Type: tagType(domain.TagTypeRock)}}
	id, err := svc.CreateActivity(ctx, userID, in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTag(ctx, userID, "focus"))
	require.ErrorIs(t, svc.DeleteTag(ctx, userID, "focus"), domain.ErrNotFound)

	all, err := svc.ListActivities(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, []domain.Tag{{Name: "focus", Type: nil}}, all[0].Tags)

	got, err := svc.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Nil(t, got.Tags[0].Type)
}

func TestUpsertTagDefaultsAndValidatesType(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	tag, err := svc.UpsertTag(ctx, userID, "reading", nil)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTagType, *tag.Type)

	tag, err = svc.UpsertTag(ctx, userID, "reading", tagType("SAND"))
	require.NoError(t, err)
	require.Equal(t, domain.TagTypeSand, *tag.Type)

	_, err = svc.UpsertTag(ctx, userID, "reading", tagType("gravel"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpsertTag(ctx, userID, " ", nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	tags, err := svc.ListTags(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, domain.TagTypeSand, *tags[0].Type)
}

func TestTagNamesAreCaseSensitive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	in := validActivity()
	in.Tags = []domain.Tag{{Name: "Focus"}, {Name: "focus"}}
	id, err := svc.CreateActivity(ctx, userID, in)
	require.NoError(t, err)

	got, err := svc.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Len(t, got.Tags, 2)
}

func TestUpdateActivityOverwritesOnlySuppliedFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	in := validActivity()
	in.Tags = []domain.Tag{{Name: "focus"}}
	id, err := svc.CreateActivity(ctx, userID, in)
	require.NoError(t, err)

	title := "Shallow work"
	energy := -30
	require.NoError(t, svc.UpdateActivity(ctx, userID, id, domain.ActivityPatch{Title: &title, Energy: &energy}))

	got, err := svc.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Equal(t, "Shallow work", got.Title)
	require.Equal(t, -30, got.Energy)
	require.Equal(t, in.Content, got.Content)
	require.Equal(t, in.Engagement, got.Engagement)
	require.True(t, got.Date.Equal(in.Date))
	require.Len(t, got.Tags, 1)

	cleared := []domain.Tag{}
	require.NoError(t, svc.UpdateActivity(ctx, userID, id, domain.ActivityPatch{Tags: &cleared}))
	got, err = svc.GetActivity(ctx, userID, id)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
}

func TestUpdateActivityRejectsInvalidAndMissing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	id, err := svc.CreateActivity(ctx, userID, validActivity())
	require.NoError(t, err)

	tooHigh := 150
	require.ErrorIs(t, svc.UpdateActivity(ctx, userID, id, domain.ActivityPatch{Engagement: &tooHigh}), domain.ErrInvalidInput)

	title := "x"
	require.ErrorIs(t, svc.UpdateActivity(ctx, userID, "missing", domain.ActivityPatch{Title: &title}), domain.ErrNotFound)
}

func TestDeleteActivity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	keep, err := svc.CreateActivity(ctx, userID, validActivity())
	require.NoError(t, err)
	drop, err := svc.CreateActivity(ctx, userID, validActivity())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteActivity(ctx, userID, drop))

	_, err = svc.GetActivity(ctx, userID, drop)
	require.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.ListActivities(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, keep, all[0].ID)

	require.ErrorIs(t, svc.DeleteActivity(ctx, userID, drop), domain.ErrNotFound)
}

func TestReflectionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	// Start after end is accepted.
	id, err := svc.CreateReflection(ctx, userID, domain.ReflectionInput{
		Title:     "Weekly review",
		Content:   "Good week",
		StartDate: day,
		EndDate:   day.AddDate(0, 0, -6),
		Tags:      []domain.Tag{{Name: "review"}},
	})
	require.NoError(t, err)

	got, err := svc.GetReflection(ctx, userID, id)
	require.NoError(t, err)
	require.True(t, got.StartDate.Equal(day))
	require.True(t, got.EndDate.Equal(day.AddDate(0, 0, -6)))
	require.Equal(t, "review", got.Tags[0].Name)

	end := day.AddDate(0, 0, 1)
	require.NoError(t, svc.UpdateReflection(ctx, userID, id, domain.ReflectionPatch{EndDate: &end}))
	got, err = svc.GetReflection(ctx, userID, id)
	require.NoError(t, err)
	require.True(t, got.EndDate.Equal(end))
	require.Equal(t, "Good week", got.Content)

	list, err := svc.ListReflections(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteReflection(ctx, userID, id))
	_, err = svc.GetReflection(ctx, userID, id)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.UpdateReflection(ctx, userID, id, domain.ReflectionPatch{EndDate: &end}), domain.ErrNotFound)
}

func TestCreateReflectionValidation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateReflection(context.Background(), userID, domain.ReflectionInput{
		Title:   "Missing dates",
		Content: "body",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFailedWritesDoNotRegisterTags(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	ghost := &[]domain.Tag{{Name: "ghost"}}
	require.ErrorIs(t, svc.UpdateActivity(ctx, userID, "does-not-exist", domain.ActivityPatch{Tags: ghost}), domain.ErrNotFound)
	require.ErrorIs(t, svc.UpdateReflection(ctx, userID, "does-not-exist", domain.ReflectionPatch{Tags: ghost}), domain.ErrNotFound)

	tags, err := svc.ListTags(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, tags)

	failing := domain.NewService(failingRepo{Repository: memory.NewRepository()}, zap.NewNop())
	in := validActivity()
	in.Tags = []domain.Tag{{Name: "ghost"}}
	_, err = failing.CreateActivity(ctx, userID, in)
	require.ErrorIs(t, err, domain.ErrStoreFailure)

	tags, err = failing.ListTags(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, tags)
}

func TestListEntriesOmitsCursorOnExactlyFullLastPage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for i := 0; i < 4; i++ {
		in := validActivity()
		in.Date = day.AddDate(0, 0, -i)
		_, err := svc.CreateActivity(ctx, userID, in)
		require.NoError(t, err)
	}

	page, next, err := svc.ListEntries(ctx, userID, domain.EntryFilter{Limit: 4})
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.Nil(t, next)

	page, next, err = svc.ListEntries(ctx, userID, domain.EntryFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)

	page, next, err = svc.ListEntries(ctx, userID, domain.EntryFilter{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Nil(t, next)
}

func TestInvertedReflectionMatchesWindowInsideItsRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.CreateReflection(ctx, userID, domain.ReflectionInput{
		Title:     "Backwards",
		Content:   "dates entered in reverse",
		StartDate: day,
		EndDate:   day.AddDate(0, 0, -10),
	})
	require.NoError(t, err)

	inside, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{
		From: day.AddDate(0, 0, -5),
		To:   day.AddDate(0, 0, -4),
	})
	require.NoError(t, err)
	require.Len(t, inside, 1)

	outside, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{
		From: day.AddDate(0, 0, 1),
		To:   day.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	require.Empty(t, outside)
}

func TestListEntriesFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for i := 0; i < 5; i++ {
		in := validActivity()
		in.Date = day.AddDate(0, 0, -i)
		if i%2 == 0 {
			in.Tags = []domain.Tag{{Name: "even"}}
		}
		_, err := svc.CreateActivity(ctx, userID, in)
		require.NoError(t, err)
	}
	reflectionID, err := svc.CreateReflection(ctx, userID, domain.ReflectionInput{
		Title:     "Monthly goals",
		Content:   "Assessed the DEEP WORK habit",
		StartDate: day.AddDate(0, 0, -30),
		EndDate:   day.AddDate(0, 0, -2).Add(time.Hour),
	})
	require.NoError(t, err)

	all, next, err := svc.ListEntries(ctx, userID, domain.EntryFilter{Limit: 50})
	require.NoError(t, err)
	require.Nil(t, next)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].SortDate().After(all[i-1].SortDate()))
	}

	reflections, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{Kind: domain.EntryKindReflection})
	require.NoError(t, err)
	require.Len(t, reflections, 1)
	require.Equal(t, reflectionID, reflections[0].ID())

	matched, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{Query: "deep work"})
	require.NoError(t, err)
	require.Len(t, matched, 6)

	tagged, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{Tag: "even"})
	require.NoError(t, err)
	require.Len(t, tagged, 3)

	windowed, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{
		Kind: domain.EntryKindActivity,
		From: day.AddDate(0, 0, -1),
		To:   day,
	})
	require.NoError(t, err)
	require.Len(t, windowed, 2)

	// The reflection spans the window even though it starts before it.
	spanning, _, err := svc.ListEntries(ctx, userID, domain.EntryFilter{
		Kind: domain.EntryKindReflection,
		From: day.AddDate(0, 0, -10),
		To:   day.AddDate(0, 0, -9),
	})
	require.NoError(t, err)
	require.Len(t, spanning, 1)

	var seen []string
	var cursor *domain.Cursor
	for {
		page, nextCursor, err := svc.ListEntries(ctx, userID, domain.EntryFilter{Limit: 4, Cursor: cursor})
		require.NoError(t, err)
		for _, e := range page {
			seen = append(seen, e.ID())
		}
		if nextCursor == nil {
			break
		}
		cursor = nextCursor
	}
	require.Len(t, seen, 6)
	for i, e := range all {
		require.Equal(t, e.ID(), seen[i])
	}
}

func TestEntryVisitIsExhaustive(t *testing.T) {
	var kinds []domain.EntryKind
	entries := []domain.Entry{
		domain.ActivityEntry(domain.Activity{ID: "a"}),
		domain.ReflectionEntry(domain.Reflection{ID: "r"}),
	}
	for _, e := range entries {
		err := e.Visit(
			func(domain.Activity) error { kinds = append(kinds, domain.EntryKindActivity); return nil },
			func(domain.Reflection) error { kinds = append(kinds, domain.EntryKindReflection); return nil },
		)
		require.NoError(t, err)
	}
	require.Equal(t, []domain.EntryKind{domain.EntryKindActivity, domain.EntryKindReflection}, kinds)

	err := domain.Entry{Kind: "note"}.Visit(nil, nil)
	require.Error(t, err)
}

func TestUpsertUserKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.GetUser(ctx, userID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	first, err := svc.UpsertUser(ctx, domain.User{ID: userID, Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	require.False(t, first.CreatedAt.IsZero())

	second, err := svc.UpsertUser(ctx, domain.User{ID: userID, Name: "Ada L."})
	require.NoError(t, err)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))

	got, err := svc.GetUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "Ada L.", got.Name)
}

func TestStoreFailuresAreLoggedAndWrapped(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := domain.NewService(failingRepo{Repository: memory.NewRepository()}, zap.New(core))

	_, err := svc.CreateActivity(context.Background(), userID, validActivity())
	require.ErrorIs(t, err, domain.ErrStoreFailure)
	require.False(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.ListActivities(context.Background(), userID)
	require.ErrorIs(t, err, domain.ErrStoreFailure)

	entries := logs.FilterMessage("store operation failed").All()
	require.Len(t, entries, 2)
	require.Equal(t, "create_activity", entries[0].ContextMap()["op"])
	require.Equal(t, userID, entries[1].ContextMap()["user_id"])
}

var errUnavailable = errors.New("store unavailable")

type failingRepo struct {
	*memory.Repository
}

func (failingRepo) CreateActivity(context.Context, domain.ActivityRecord) error {
	return errUnavailable
}

func (failingRepo) ListActivities(context.Context, string) ([]domain.ActivityRecord, error) {
	return nil, errUnavailable
}
