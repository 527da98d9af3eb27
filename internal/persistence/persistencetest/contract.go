// Package persistencetest holds the behaviour every domain.Repository must share.
package persistencetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/journal/internal/domain"
)

// RunRepositoryContract exercises repo through the domain.Repository contract.
// newRepo must return an empty store.
func RunRepositoryContract(t *testing.T, newRepo func(t *testing.T) domain.Repository) {
	t.Helper()

	t.Run("activity round trip is user scoped", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		rec := domain.ActivityRecord{
			ID:         uuid.NewString(),
			UserID:     "user-1",
			Title:      "Run",
			Content:    "Easy 5k",
			DateMillis: 1_760_000_000_123,
			Engagement: 100,
			Energy:     -100,
			Tags:       []string{"run", "Run"},
		}
		require.NoError(t, repo.CreateActivity(ctx, rec))

		got, err := repo.GetActivity(ctx, "user-1", rec.ID)
		require.NoError(t, err)
		require.Equal(t, &rec, got)

		other, err := repo.GetActivity(ctx, "user-2", rec.ID)
		require.NoError(t, err)
		require.Nil(t, other)

		listed, err := repo.ListActivities(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, []domain.ActivityRecord{rec}, listed)

		empty, err := repo.ListActivities(ctx, "user-2")
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("activity partial update and delete", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		rec := domain.ActivityRecord{ID: "a-1", UserID: "user-1", Title: "Swim", Content: "Pool", DateMillis: 10, Engagement: 40, Energy: 5, Tags: []string{"water"}}
		require.NoError(t, repo.CreateActivity(ctx, rec))

		energy := 60
		cleared := []string{}
		found, err := repo.UpdateActivity(ctx, "user-1", "a-1", domain.ActivityRecordPatch{Energy: &energy, Tags: &cleared})
		require.NoError(t, err)
		require.True(t, found)

		got, err := repo.GetActivity(ctx, "user-1", "a-1")
		require.NoError(t, err)
		require.Equal(t, "Swim", got.Title)
		require.Equal(t, 60, got.Energy)
		require.Equal(t, 40, got.Engagement)
		require.Empty(t, got.Tags)

		found, err = repo.UpdateActivity(ctx, "user-2", "a-1", domain.ActivityRecordPatch{Energy: &energy})
		require.NoError(t, err)
		require.False(t, found)

		found, err = repo.DeleteActivity(ctx, "user-1", "a-1")
		require.NoError(t, err)
		require.True(t, found)
		found, err = repo.DeleteActivity(ctx, "user-1", "a-1")
		require.NoError(t, err)
		require.False(t, found)

		gone, err := repo.GetActivity(ctx, "user-1", "a-1")
		require.NoError(t, err)
		require.Nil(t, gone)
	})

	t.Run("reflection lifecycle", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		rec := domain.ReflectionRecord{ID: "r-1", UserID: "user-1", Title: "Week", Content: "Good", StartMillis: 2_000, EndMillis: 1_000, Tags: []string{"weekly"}}
		require.NoError(t, repo.CreateReflection(ctx, rec))

		got, err := repo.GetReflection(ctx, "user-1", "r-1")
		require.NoError(t, err)
		require.Equal(t, &rec, got)

		content := "Better"
		end := int64(3_000)
		found, err := repo.UpdateReflection(ctx, "user-1", "r-1", domain.ReflectionRecordPatch{Content: &content, EndMillis: &end})
		require.NoError(t, err)
		require.True(t, found)

		listed, err := repo.ListReflections(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, "Better", listed[0].Content)
		require.Equal(t, int64(2_000), listed[0].StartMillis)
		require.Equal(t, int64(3_000), listed[0].EndMillis)
		require.Equal(t, []string{"weekly"}, listed[0].Tags)

		found, err = repo.DeleteReflection(ctx, "user-1", "r-1")
		require.NoError(t, err)
		require.True(t, found)
		found, err = repo.UpdateReflection(ctx, "user-1", "r-1", domain.ReflectionRecordPatch{Content: &content})
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("tag registry", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.UpsertTag(ctx, "user-1", domain.TagRecord{Name: "focus", Type: "pebble"}))
		require.NoError(t, repo.UpsertTag(ctx, "user-1", domain.TagRecord{Name: "focus", Type: "rock"}))
		require.NoError(t, repo.UpsertTag(ctx, "user-1", domain.TagRecord{Name: "Focus"}))
		require.NoError(t, repo.UpsertTag(ctx, "user-2", domain.TagRecord{Name: "other", Type: "sand"}))

		tags, err := repo.ListTags(ctx, "user-1")
		require.NoError(t, err)
		require.ElementsMatch(t, []domain.TagRecord{{Name: "focus", Type: "rock"}, {Name: "Focus"}}, tags)

		found, err := repo.DeleteTag(ctx, "user-1", "focus")
		require.NoError(t, err)
		require.True(t, found)
		found, err = repo.DeleteTag(ctx, "user-1", "other")
		require.NoError(t, err)
		require.False(t, found)

		tags, err = repo.ListTags(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, []domain.TagRecord{{Name: "Focus"}}, tags)
	})

	t.Run("user profile", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		missing, err := repo.GetUser(ctx, "user-1")
		require.NoError(t, err)
		require.Nil(t, missing)

		user := domain.User{ID: "user-1", Name: "Sam", Email: "sam@example.com", ProfilePic: "https://example.com/p.png", CreatedAt: domain.FromMillis(1_700_000_000_000)}
		require.NoError(t, repo.UpsertUser(ctx, user))
		user.Name = "Sam B"
		require.NoError(t, repo.UpsertUser(ctx, user))

		got, err := repo.GetUser(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "Sam B", got.Name)
		require.Equal(t, user.Email, got.Email)
		require.True(t, user.CreatedAt.Equal(got.CreatedAt))
	})
}
