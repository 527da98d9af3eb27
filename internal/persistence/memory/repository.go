// Package memory provides an in-process journal store for tests and local development.
package memory

import (
	"context"
	"sync"

	"example.com/journal/internal/domain"
)

type userScope struct {
	activities  map[string]domain.ActivityRecord
	reflections map[string]domain.ReflectionRecord
	tags        map[string]domain.TagRecord
}

// Repository stores records in maps keyed by user id.
type Repository struct {
	mu     sync.RWMutex
	scopes map[string]*userScope
	users  map[string]domain.User
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		scopes: make(map[string]*userScope),
		users:  make(map[string]domain.User),
	}
}

// scope returns the user's scope, creating it when create is set. Callers hold mu.
func (r *Repository) scope(userID string, create bool) *userScope {
	s, ok := r.scopes[userID]
	if !ok && create {
		s = &userScope{
			activities:  make(map[string]domain.ActivityRecord),
			reflections: make(map[string]domain.ReflectionRecord),
			tags:        make(map[string]domain.TagRecord),
		}
		r.scopes[userID] = s
	}
	return s
}

// CreateActivity implements domain.Repository.
func (r *Repository) CreateActivity(ctx context.Context, record domain.ActivityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.Tags = cloneStrings(record.Tags)
	r.scope(record.UserID, true).activities[record.ID] = record
	return nil
}

// GetActivity implements domain.Repository.
func (r *Repository) GetActivity(ctx context.Context, userID, id string) (*domain.ActivityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.scope(userID, false)
	if s == nil {
		return nil, nil
	}
	rec, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	rec.Tags = cloneStrings(rec.Tags)
	return &rec, nil
}

// ListActivities implements domain.Repository.
func (r *Repository) ListActivities(ctx context.Context, userID string) ([]domain.ActivityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.scope(userID, false)
	if s == nil {
		return nil, nil
	}
	out := make([]domain.ActivityRecord, 0, len(s.activities))
	for _, rec := range s.activities {
		rec.Tags = cloneStrings(rec.Tags)
		out = append(out, rec)
	}
	return out, nil
}

// UpdateActivity implements domain.Repository.
func (r *Repository) UpdateActivity(ctx context.Context, userID, id string, patch domain.ActivityRecordPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.scope(userID, false)
	if s == nil {
		return false, nil
	}
	rec, ok := s.activities[id]
	if !ok {
		return false, nil
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Content != nil {
		rec.Content = *patch.Content
	}
	if patch.DateMillis != nil {
		rec.DateMillis = *patch.DateMillis
	}
	if patch.Engagement != nil {
		rec.Engagement = *patch.Engagement
	}
	if patch.Energy != nil {
		rec.Energy = *patch.Energy
	}
	if patch.Tags != nil {
		rec.Tags = cloneStrings(*patch.Tags)
	}
	s.activities[id] = rec
	return true, nil
}

// DeleteActivity implements domain.Repository.
func (r *Repository) DeleteActivity(ctx context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.scope(userID, false)
	if s == nil {
		return false, nil
	}
	if _, ok := s.activities[id]; !ok {
		return false, nil
	}
	delete(s.activities, id)
	return true, nil
}

// CreateReflection implements domain.Repository.
func (r *Repository) CreateReflection(ctx context.Context, record domain.ReflectionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.Tags = cloneStrings(record.Tags)
	r.scope(record.UserID, true).reflections[record.ID] = record
	return nil
}

// GetReflection implements domain.Repository.
func (r *Repository) GetReflection(ctx context.Context, userID, id string) (*domain.ReflectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.scope(userID, false)
	if s == nil {
		return nil, nil
	}
	rec, ok := s.reflections[id]
	if !ok {
		return nil, nil
	}
	rec.Tags = cloneStrings(rec.Tags)
	return &rec, nil
}

// ListReflections implements domain.Repository.
func (r *Repository) ListReflections(ctx context.Context, userID string) ([]domain.ReflectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.scope(userID, false)
	if s == nil {
		return nil, nil
	}
	out := make([]domain.ReflectionRecord, 0, len(s.reflections))
	for _, rec := range s.reflections {
		rec.Tags = cloneStrings(rec.Tags)
		out = append(out, rec)
	}
	return out, nil
}

// UpdateReflection implements domain.Repository.
func (r *Repository) UpdateReflection(ctx context.Context, userID, id string, patch domain.ReflectionRecordPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.scope(userID, false)
	if s == nil {
		return false, nil
	}
	rec, ok := s.reflections[id]
	if !ok {
		return false, nil
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Content != nil {
		rec.Content = *patch.Content
	}
	if patch.StartMillis != nil {
		rec.StartMillis = *patch.StartMillis
	}
	if patch.EndMillis != nil {
		rec.EndMillis = *patch.EndMillis
	}
	if patch.Tags != nil {
		rec.Tags = cloneStrings(*patch.Tags)
	}
	s.reflections[id] = rec
	return true, nil
}

// DeleteReflection implements domain.Repository.
func (r *Repository) DeleteReflection(ctx context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.scope(userID, false)
	if s == nil {
		return false, nil
	}
	if _, ok := s.reflections[id]; !ok {
		return false, nil
	}
	delete(s.reflections, id)
	return true, nil
}

// ListTags implements domain.Repository.
func (r *Repository) ListTags(ctx context.Context, userID string) ([]domain.TagRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.scope(userID, false)
	if s == nil {
		return nil, nil
	}
	out := make([]domain.TagRecord, 0, len(s.tags))
	for _, tag := range s.tags {
		out = append(out, tag)
	}
	return out, nil
}

// UpsertTag implements domain.Repository.
func (r *Repository) UpsertTag(ctx context.Context, userID string, tag domain.TagRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scope(userID, true).tags[tag.Name] = tag
	return nil
}

// DeleteTag implements domain.Repository.
func (r *Repository) DeleteTag(ctx context.Context, userID, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.scope(userID, false)
	if s == nil {
		return false, nil
	}
	if _, ok := s.tags[name]; !ok {
		return false, nil
	}
	delete(s.tags, name)
	return true, nil
}

// UpsertUser implements domain.Repository.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
	return nil
}

// GetUser implements domain.Repository.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
