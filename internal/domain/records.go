package domain

import (
	"context"
	"time"
)

// ActivityRecord is the stored form of an Activity: epoch-millisecond date
// and bare tag names.
type ActivityRecord struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	DateMillis int64
	Engagement int
	Energy     int
	Tags       []string
}

// ActivityRecordPatch overwrites only its non-nil fields.
type ActivityRecordPatch struct {
	Title      *string
	Content    *string
	DateMillis *int64
	Engagement *int
	Energy     *int
	Tags       *[]string
}

// ReflectionRecord is the stored form of a Reflection.
type ReflectionRecord struct {
	ID          string
	UserID      string
	Title       string
	Content     string
	StartMillis int64
	EndMillis   int64
	Tags        []string
}

// ReflectionRecordPatch overwrites only its non-nil fields.
type ReflectionRecordPatch struct {
	Title       *string
	Content     *string
	StartMillis *int64
	EndMillis   *int64
	Tags        *[]string
}

// TagRecord is a registry row. Type may be empty for rows written without one.
type TagRecord struct {
	Name string
	Type string
}

// Repository captures persistence operations, all scoped to one user.
// Lookups return nil without error when the record is absent; mutations
// report whether a record was found.
type Repository interface {
	CreateActivity(ctx context.Context, record ActivityRecord) error
	GetActivity(ctx context.Context, userID, id string) (*ActivityRecord, error)
	ListActivities(ctx context.Context, userID string) ([]ActivityRecord, error)
	UpdateActivity(ctx context.Context, userID, id string, patch ActivityRecordPatch) (bool, error)
	DeleteActivity(ctx context.Context, userID, id string) (bool, error)

	CreateReflection(ctx context.Context, record ReflectionRecord) error
	GetReflection(ctx context.Context, userID, id string) (*ReflectionRecord, error)
	ListReflections(ctx context.Context, userID string) ([]ReflectionRecord, error)
	UpdateReflection(ctx context.Context, userID, id string, patch ReflectionRecordPatch) (bool, error)
	DeleteReflection(ctx context.Context, userID, id string) (bool, error)

	ListTags(ctx context.Context, userID string) ([]TagRecord, error)
	UpsertTag(ctx context.Context, userID string, tag TagRecord) error
	DeleteTag(ctx context.Context, userID, name string) (bool, error)

	UpsertUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, userID string) (*User, error)
}

// ToMillis converts a time to the stored epoch-millisecond form.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a stored epoch-millisecond value back to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
