// Package postgres stores journal records in Postgres. Every operation runs in
// its own transaction scoped to one user through the app.user_id setting, and
// writes append a change event to the outbox table in the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/journal/internal/domain"
	"example.com/journal/internal/events"
)

// Repository provides Postgres-backed persistence for journal records and outbox events.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// withUserTx runs fn in a transaction whose row-level-security scope is userID.
func (r *Repository) withUserTx(ctx context.Context, userID string, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const activityColumns = `activity_id, user_id, title, content, date_ms, engagement, energy, tags`

func scanActivity(row pgx.Row) (domain.ActivityRecord, error) {
	var rec domain.ActivityRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Content, &rec.DateMillis, &rec.Engagement, &rec.Energy, &rec.Tags)
	return rec, err
}

// CreateActivity inserts the record and a created event.
func (r *Repository) CreateActivity(ctx context.Context, rec domain.ActivityRecord) error {
	return r.withUserTx(ctx, rec.UserID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO activities (`+activityColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			rec.ID, rec.UserID, rec.Title, rec.Content, rec.DateMillis, rec.Engagement, rec.Energy, nonNil(rec.Tags))
		if err != nil {
			return err
		}
		return r.recordChanged(ctx, tx, rec.UserID, rec.ID, "activity", events.OpCreated)
	})
}

// GetActivity returns nil when the activity is not in the user's scope.
func (r *Repository) GetActivity(ctx context.Context, userID, id string) (*domain.ActivityRecord, error) {
	var found *domain.ActivityRecord
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		rec, err := scanActivity(tx.QueryRow(ctx,
			`SELECT `+activityColumns+` FROM activities WHERE user_id=$1 AND activity_id=$2`, userID, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = &rec
		return nil
	})
	return found, err
}

// ListActivities returns every activity in the user's scope.
func (r *Repository) ListActivities(ctx context.Context, userID string) ([]domain.ActivityRecord, error) {
	var results []domain.ActivityRecord
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+activityColumns+` FROM activities WHERE user_id=$1 ORDER BY date_ms DESC, activity_id DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rec, err := scanActivity(rows)
			if err != nil {
				return err
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	return results, err
}

// UpdateActivity overwrites the non-nil patch fields.
func (r *Repository) UpdateActivity(ctx context.Context, userID, id string, patch domain.ActivityRecordPatch) (bool, error) {
	var found bool
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE activities SET
            title = COALESCE($3, title),
            content = COALESCE($4, content),
            date_ms = COALESCE($5, date_ms),
            engagement = COALESCE($6, engagement),
            energy = COALESCE($7, energy),
            tags = COALESCE($8, tags)
        WHERE user_id=$1 AND activity_id=$2`,
			userID, id, patch.Title, patch.Content, patch.DateMillis, patch.Engagement, patch.Energy, optionalTags(patch.Tags))
		if err != nil {
			return err
		}
		if found = tag.RowsAffected() > 0; !found {
			return nil
		}
		return r.recordChanged(ctx, tx, userID, id, "activity", events.OpUpdated)
	})
	return found, err
}

// DeleteActivity removes the activity.
func (r *Repository) DeleteActivity(ctx context.Context, userID, id string) (bool, error) {
	var found bool
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE user_id=$1 AND activity_id=$2`, userID, id)
		if err != nil {
			return err
		}
		if found = tag.RowsAffected() > 0; !found {
			return nil
		}
		return r.recordChanged(ctx, tx, userID, id, "activity", events.OpDeleted)
	})
	return found, err
}

const reflectionColumns = `reflection_id, user_id, title, content, start_ms, end_ms, tags`

func scanReflection(row pgx.Row) (domain.ReflectionRecord, error) {
	var rec domain.ReflectionRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Content, &rec.StartMillis, &rec.EndMillis, &rec.Tags)
	return rec, err
}

// CreateReflection inserts the record and a created event.
func (r *Repository) CreateReflection(ctx context.Context, rec domain.ReflectionRecord) error {
	return r.withUserTx(ctx, rec.UserID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO reflections (`+reflectionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			rec.ID, rec.UserID, rec.Title, rec.Content, rec.StartMillis, rec.EndMillis, nonNil(rec.Tags))
		if err != nil {
			return err
		}
		return r.recordChanged(ctx, tx, rec.UserID, rec.ID, "reflection", events.OpCreated)
	})
}

// GetReflection returns nil when the reflection is not in the user's scope.
func (r *Repository) GetReflection(ctx context.Context, userID, id string) (*domain.ReflectionRecord, error) {
	var found *domain.ReflectionRecord
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		rec, err := scanReflection(tx.QueryRow(ctx,
			`SELECT `+reflectionColumns+` FROM reflections WHERE user_id=$1 AND reflection_id=$2`, userID, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = &rec
		return nil
	})
	return found, err
}

// ListReflections returns every reflection in the user's scope.
func (r *Repository) ListReflections(ctx context.Context, userID string) ([]domain.ReflectionRecord, error) {
	var results []domain.ReflectionRecord
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+reflectionColumns+` FROM reflections WHERE user_id=$1 ORDER BY end_ms DESC, reflection_id DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			rec, err := scanReflection(rows)
			if err != nil {
				return err
			}
			results = append(results, rec)
		}
		return rows.Err()
	})
	return results, err
}

// UpdateReflection overwrites the non-nil patch fields.
func (r *Repository) UpdateReflection(ctx context.Context, userID, id string, patch domain.ReflectionRecordPatch) (bool, error) {
	var found bool
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE reflections SET
            title = COALESCE($3, title),
            content = COALESCE($4, content),
            start_ms = COALESCE($5, start_ms),
            end_ms = COALESCE($6, end_ms),
            tags = COALESCE($7, tags)
        WHERE user_id=$1 AND reflection_id=$2`,
			userID, id, patch.Title, patch.Content, patch.StartMillis, patch.EndMillis, optionalTags(patch.Tags))
		if err != nil {
			return err
		}
		if found = tag.RowsAffected() > 0; !found {
			return nil
		}
		return r.recordChanged(ctx, tx, userID, id, "reflection", events.OpUpdated)
	})
	return found, err
}

// DeleteReflection removes the reflection.
func (r *Repository) DeleteReflection(ctx context.Context, userID, id string) (bool, error) {
	var found bool
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM reflections WHERE user_id=$1 AND reflection_id=$2`, userID, id)
		if err != nil {
			return err
		}
		if found = tag.RowsAffected() > 0; !found {
			return nil
		}
		return r.recordChanged(ctx, tx, userID, id, "reflection", events.OpDeleted)
	})
	return found, err
}

// ListTags returns the user's tag registry.
func (r *Repository) ListTags(ctx context.Context, userID string) ([]domain.TagRecord, error) {
	var results []domain.TagRecord
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT name, type FROM tags WHERE user_id=$1 ORDER BY name`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var tag domain.TagRecord
			if err := rows.Scan(&tag.Name, &tag.Type); err != nil {
				return err
			}
			results = append(results, tag)
		}
		return rows.Err()
	})
	return results, err
}

// UpsertTag inserts or retypes a registry entry.
func (r *Repository) UpsertTag(ctx context.Context, userID string, tag domain.TagRecord) error {
	return r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO tags (user_id, name, type) VALUES ($1,$2,$3)
            ON CONFLICT (user_id, name) DO UPDATE SET type = EXCLUDED.type`, userID, tag.Name, tag.Type)
		if err != nil {
			return err
		}
		return r.tagChanged(ctx, tx, userID, tag, events.OpUpserted)
	})
}

// DeleteTag removes a registry entry. Records referencing it are untouched.
func (r *Repository) DeleteTag(ctx context.Context, userID, name string) (bool, error) {
	var found bool
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tags WHERE user_id=$1 AND name=$2`, userID, name)
		if err != nil {
			return err
		}
		if found = tag.RowsAffected() > 0; !found {
			return nil
		}
		return r.tagChanged(ctx, tx, userID, domain.TagRecord{Name: name}, events.OpDeleted)
	})
	return found, err
}

// UpsertUser writes the profile row. CreatedAt is kept from the first write.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	return r.withUserTx(ctx, user.ID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (user_id, name, email, profile_pic, created_at) VALUES ($1,$2,$3,$4,$5)
            ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, profile_pic = EXCLUDED.profile_pic`,
			user.ID, user.Name, user.Email, user.ProfilePic, user.CreatedAt)
		return err
	})
}

// GetUser returns nil when no profile exists.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var found *domain.User
	err := r.withUserTx(ctx, userID, func(tx pgx.Tx) error {
		var user domain.User
		err := tx.QueryRow(ctx, `SELECT user_id, name, email, profile_pic, created_at FROM users WHERE user_id=$1`, userID).
			Scan(&user.ID, &user.Name, &user.Email, &user.ProfilePic, &user.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		found = &user
		return nil
	})
	return found, err
}

func (r *Repository) recordChanged(ctx context.Context, tx pgx.Tx, userID, id, kind, op string) error {
	return r.insertOutbox(ctx, tx, userID, kind, id, events.TypeRecordChanged, events.RecordChanged{
		RecordID:   id,
		UserID:     userID,
		Kind:       kind,
		Op:         op,
		OccurredAt: r.now().UTC(),
	})
}

func (r *Repository) tagChanged(ctx context.Context, tx pgx.Tx, userID string, tag domain.TagRecord, op string) error {
	return r.insertOutbox(ctx, tx, userID, "tag", tag.Name, events.TypeTagChanged, events.TagChanged{
		UserID:     userID,
		Name:       tag.Name,
		Type:       tag.Type,
		Op:         op,
		OccurredAt: r.now().UTC(),
	})
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, userID, aggregateType, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		userID,
		body,
	)
	return err
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func optionalTags(tags *[]string) interface{} {
	if tags == nil {
		return nil
	}
	return nonNil(*tags)
}

// EventMetadata describes how to route an outbox event. Events are keyed by
// user so one user's changes stay ordered within a partition.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeRecordChanged: {
		Topic:         events.TopicRecords,
		SchemaSubject: events.TopicRecords + "-value",
	},
	events.TypeTagChanged: {
		Topic:         events.TopicTags,
		SchemaSubject: events.TopicTags + "-value",
	},
}
