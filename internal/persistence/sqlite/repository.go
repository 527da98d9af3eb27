// Package sqlite stores journal records in a single SQLite file for personal
// deployments. It has no outbox; change events are only produced by the
// Postgres store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"example.com/journal/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id     TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    profile_pic TEXT NOT NULL DEFAULT '',
    created_ms  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS activities (
    user_id     TEXT NOT NULL,
    activity_id TEXT NOT NULL,
    title       TEXT NOT NULL,
    content     TEXT NOT NULL,
    date_ms     INTEGER NOT NULL,
    engagement  INTEGER NOT NULL CHECK (engagement BETWEEN 0 AND 100),
    energy      INTEGER NOT NULL CHECK (energy BETWEEN -100 AND 100),
    tags        TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (user_id, activity_id)
);

CREATE INDEX IF NOT EXISTS idx_activities_user_date ON activities (user_id, date_ms DESC);

CREATE TABLE IF NOT EXISTS reflections (
    user_id       TEXT NOT NULL,
    reflection_id TEXT NOT NULL,
    title         TEXT NOT NULL,
    content       TEXT NOT NULL,
    start_ms      INTEGER NOT NULL,
    end_ms        INTEGER NOT NULL,
    tags          TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (user_id, reflection_id)
);

CREATE TABLE IF NOT EXISTS tags (
    user_id TEXT NOT NULL,
    name    TEXT NOT NULL,
    type    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (user_id, name)
);
`

// Repository is a domain.Repository backed by database/sql and modernc.org/sqlite.
type Repository struct {
	db *sql.DB
}

var _ domain.Repository = (*Repository)(nil)

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// One writer at a time; WAL still lets readers proceed.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	body, err := json.Marshal(tags)
	return string(body), err
}

func decodeTags(raw string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// optionalTags encodes a patch tag list, leaving nil as SQL NULL.
func optionalTags(tags *[]string) (interface{}, error) {
	if tags == nil {
		return nil, nil
	}
	return encodeTags(*tags)
}

// nullable binds a nil patch field as SQL NULL.
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

const activityColumns = `activity_id, user_id, title, content, date_ms, engagement, energy, tags`

func scanActivity(row scanner) (domain.ActivityRecord, error) {
	var (
		rec  domain.ActivityRecord
		tags string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Content, &rec.DateMillis, &rec.Engagement, &rec.Energy, &tags); err != nil {
		return rec, err
	}
	var err error
	rec.Tags, err = decodeTags(tags)
	return rec, err
}

// CreateActivity implements domain.Repository.
func (r *Repository) CreateActivity(ctx context.Context, rec domain.ActivityRecord) error {
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO activities (`+activityColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.UserID, rec.Title, rec.Content, rec.DateMillis, rec.Engagement, rec.Energy, tags)
	return err
}

// GetActivity implements domain.Repository.
func (r *Repository) GetActivity(ctx context.Context, userID, id string) (*domain.ActivityRecord, error) {
	rec, err := scanActivity(r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? AND activity_id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListActivities implements domain.Repository.
func (r *Repository) ListActivities(ctx context.Context, userID string) ([]domain.ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? ORDER BY date_ms DESC, activity_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityRecord
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateActivity implements domain.Repository.
func (r *Repository) UpdateActivity(ctx context.Context, userID, id string, patch domain.ActivityRecordPatch) (bool, error) {
	tags, err := optionalTags(patch.Tags)
	if err != nil {
		return false, err
	}
	return affected(r.db.ExecContext(ctx, `UPDATE activities SET
        title = COALESCE(?, title),
        content = COALESCE(?, content),
        date_ms = COALESCE(?, date_ms),
        engagement = COALESCE(?, engagement),
        energy = COALESCE(?, energy),
        tags = COALESCE(?, tags)
    WHERE user_id = ? AND activity_id = ?`,
		nullable(patch.Title), nullable(patch.Content), nullable(patch.DateMillis), nullable(patch.Engagement), nullable(patch.Energy), tags, userID, id))
}

// DeleteActivity implements domain.Repository.
func (r *Repository) DeleteActivity(ctx context.Context, userID, id string) (bool, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM activities WHERE user_id = ? AND activity_id = ?`, userID, id))
}

const reflectionColumns = `reflection_id, user_id, title, content, start_ms, end_ms, tags`

func scanReflection(row scanner) (domain.ReflectionRecord, error) {
	var (
		rec  domain.ReflectionRecord
		tags string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Content, &rec.StartMillis, &rec.EndMillis, &tags); err != nil {
		return rec, err
	}
	var err error
	rec.Tags, err = decodeTags(tags)
	return rec, err
}

// CreateReflection implements domain.Repository.
func (r *Repository) CreateReflection(ctx context.Context, rec domain.ReflectionRecord) error {
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO reflections (`+reflectionColumns+`) VALUES (?,?,?,?,?,?,?)`,
		rec.ID, rec.UserID, rec.Title, rec.Content, rec.StartMillis, rec.EndMillis, tags)
	return err
}

// GetReflection implements domain.Repository.
func (r *Repository) GetReflection(ctx context.Context, userID, id string) (*domain.ReflectionRecord, error) {
	rec, err := scanReflection(r.db.QueryRowContext(ctx,
		`SELECT `+reflectionColumns+` FROM reflections WHERE user_id = ? AND reflection_id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListReflections implements domain.Repository.
func (r *Repository) ListReflections(ctx context.Context, userID string) ([]domain.ReflectionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reflectionColumns+` FROM reflections WHERE user_id = ? ORDER BY end_ms DESC, reflection_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReflectionRecord
	for rows.Next() {
		rec, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateReflection implements domain.Repository.
func (r *Repository) UpdateReflection(ctx context.Context, userID, id string, patch domain.ReflectionRecordPatch) (bool, error) {
	tags, err := optionalTags(patch.Tags)
	if err != nil {
		return false, err
	}
	return affected(r.db.ExecContext(ctx, `UPDATE reflections SET
        title = COALESCE(?, title),
        content = COALESCE(?, content),
        start_ms = COALESCE(?, start_ms),
        end_ms = COALESCE(?, end_ms),
        tags = COALESCE(?, tags)
    WHERE user_id = ? AND reflection_id = ?`,
		nullable(patch.Title), nullable(patch.Content), nullable(patch.StartMillis), nullable(patch.EndMillis), tags, userID, id))
}

// DeleteReflection implements domain.Repository.
func (r *Repository) DeleteReflection(ctx context.Context, userID, id string) (bool, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM reflections WHERE user_id = ? AND reflection_id = ?`, userID, id))
}

// ListTags implements domain.Repository.
func (r *Repository) ListTags(ctx context.Context, userID string) ([]domain.TagRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, type FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TagRecord
	for rows.Next() {
		var tag domain.TagRecord
		if err := rows.Scan(&tag.Name, &tag.Type); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// UpsertTag implements domain.Repository.
func (r *Repository) UpsertTag(ctx context.Context, userID string, tag domain.TagRecord) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tags (user_id, name, type) VALUES (?,?,?)
        ON CONFLICT (user_id, name) DO UPDATE SET type = excluded.type`, userID, tag.Name, tag.Type)
	return err
}

// DeleteTag implements domain.Repository.
func (r *Repository) DeleteTag(ctx context.Context, userID, name string) (bool, error) {
	return affected(r.db.ExecContext(ctx, `DELETE FROM tags WHERE user_id = ? AND name = ?`, userID, name))
}

// UpsertUser implements domain.Repository. The first created time is kept.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (user_id, name, email, profile_pic, created_ms) VALUES (?,?,?,?,?)
        ON CONFLICT (user_id) DO UPDATE SET name = excluded.name, email = excluded.email, profile_pic = excluded.profile_pic`,
		user.ID, user.Name, user.Email, user.ProfilePic, domain.ToMillis(user.CreatedAt))
	return err
}

// GetUser implements domain.Repository.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var (
		user      domain.User
		createdMS int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT user_id, name, email, profile_pic, created_ms FROM users WHERE user_id = ?`, userID).
		Scan(&user.ID, &user.Name, &user.Email, &user.ProfilePic, &createdMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt = domain.FromMillis(createdMS)
	return &user, nil
}
