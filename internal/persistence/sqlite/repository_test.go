package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/journal/internal/domain"
	"example.com/journal/internal/persistence/persistencetest"
)

func openTemp(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryContract(t *testing.T) {
	persistencetest.RunRepositoryContract(t, func(t *testing.T) domain.Repository {
		return openTemp(t)
	})
}

func TestOpenIsIdempotentAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.UpsertTag(ctx, "user-1", domain.TagRecord{Name: "run", Type: "rock"}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	tags, err := second.ListTags(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []domain.TagRecord{{Name: "run", Type: "rock"}}, tags)
}

func TestCheckConstraintsRejectOutOfRangeRatings(t *testing.T) {
	repo := openTemp(t)

	err := repo.CreateActivity(context.Background(), domain.ActivityRecord{ID: "a", UserID: "u", Title: "t", Content: "c", Engagement: 101})
	require.Error(t, err)
}

func TestServiceOverSQLite(t *testing.T) {
	ctx := context.Background()
	svc := domain.NewService(openTemp(t), nil)

	id, err := svc.CreateActivity(ctx, "user-1", domain.ActivityInput{
		Title:      "Yoga",
		Content:    "Morning flow",
		Date:       domain.FromMillis(1_760_000_000_000),
		Engagement: 55,
		Energy:     10,
		Tags:       []domain.Tag{{Name: "mobility"}},
	})
	require.NoError(t, err)

	got, err := svc.GetActivity(ctx, "user-1", id)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	require.NotNil(t, got.Tags[0].Type)
	require.Equal(t, domain.DefaultTagType, *got.Tags[0].Type)
}
