// Package domain defines the journal's records and the access layer over them.
package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/journal/internal/observability"
)

var (
	// ErrNotFound is returned when a record cannot be located in the user's scope.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreFailure wraps any error raised by the underlying store.
	ErrStoreFailure = errors.New("store operation failed")
)

// Service is the access layer between callers and the Repository. It converts
// between stored and in-memory representations and keeps the tag registry in
// step with the tags records reference.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService constructs a Service. A nil logger is replaced with a no-op one.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// storeFailure logs err and wraps it in ErrStoreFailure.
func (s *Service) storeFailure(op, userID, id string, err error) error {
	fields := []zap.Field{zap.String("op", op), zap.String("user_id", userID), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("id", id))
	}
	s.logger.Error("store operation failed", fields...)
	return fmt.Errorf("%w: %s: %v", ErrStoreFailure, op, err)
}

// CreateActivity validates and persists a new activity, returning its id.
func (s *Service) CreateActivity(ctx context.Context, userID string, in ActivityInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	record := ActivityRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      in.Title,
		Content:    in.Content,
		DateMillis: ToMillis(in.Date),
		Engagement: in.Engagement,
		Energy:     in.Energy,
		Tags:       tagNames(in.Tags),
	}
	if err := s.repo.CreateActivity(ctx, record); err != nil {
		return "", s.storeFailure("create_activity", userID, record.ID, err)
	}
	if err := s.registerTags(ctx, userID, in.Tags); err != nil {
		return "", err
	}
	observability.RecordEntryPersisted(string(EntryKindActivity), time.Now())
	return record.ID, nil
}

// ListActivities returns every activity in the user's scope, newest first.
func (s *Service) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	records, err := s.repo.ListActivities(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("list_activities", userID, "", err)
	}
	idx, err := s.tagSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(records))
	for _, rec := range records {
		out = append(out, activityFromRecord(rec, idx))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetActivity fetches by id.
func (s *Service) GetActivity(ctx context.Context, userID, id string) (*Activity, error) {
	rec, err := s.repo.GetActivity(ctx, userID, id)
	if err != nil {
		return nil, s.storeFailure("get_activity", userID, id, err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	idx, err := s.tagSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity := activityFromRecord(*rec, idx)
	return &activity, nil
}

// UpdateActivity overwrites the supplied fields of an existing activity.
func (s *Service) UpdateActivity(ctx context.Context, userID, id string, patch ActivityPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	found, err := s.repo.UpdateActivity(ctx, userID, id, patch.record())
	if err != nil {
		return s.storeFailure("update_activity", userID, id, err)
	}
	if !found {
		return ErrNotFound
	}
	if patch.Tags != nil {
		if err := s.registerTags(ctx, userID, *patch.Tags); err != nil {
			return err
		}
	}
	observability.RecordEntryPersisted(string(EntryKindActivity), time.Now())
	return nil
}

// DeleteActivity removes an activity.
func (s *Service) DeleteActivity(ctx context.Context, userID, id string) error {
	found, err := s.repo.DeleteActivity(ctx, userID, id)
	if err != nil {
		return s.storeFailure("delete_activity", userID, id, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// CreateReflection validates and persists a new reflection, returning its id.
func (s *Service) CreateReflection(ctx context.Context, userID string, in ReflectionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	record := ReflectionRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Content:     in.Content,
		StartMillis: ToMillis(in.StartDate),
		EndMillis:   ToMillis(in.EndDate),
		Tags:        tagNames(in.Tags),
	}
	if err := s.repo.CreateReflection(ctx, record); err != nil {
		return "", s.storeFailure("create_reflection", userID, record.ID, err)
	}
	if err := s.registerTags(ctx, userID, in.Tags); err != nil {
		return "", err
	}
	observability.RecordEntryPersisted(string(EntryKindReflection), time.Now())
	return record.ID, nil
}

// ListReflections returns every reflection in the user's scope, newest end date first.
func (s *Service) ListReflections(ctx context.Context, userID string) ([]Reflection, error) {
	records, err := s.repo.ListReflections(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("list_reflections", userID, "", err)
	}
	idx, err := s.tagSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Reflection, 0, len(records))
	for _, rec := range records {
		out = append(out, reflectionFromRecord(rec, idx))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].EndDate.After(out[j].EndDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetReflection fetches by id.
func (s *Service) GetReflection(ctx context.Context, userID, id string) (*Reflection, error) {
	rec, err := s.repo.GetReflection(ctx, userID, id)
	if err != nil {
		return nil, s.storeFailure("get_reflection", userID, id, err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	idx, err := s.tagSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	reflection := reflectionFromRecord(*rec, idx)
	return &reflection, nil
}

// UpdateReflection overwrites the supplied fields of an existing reflection.
func (s *Service) UpdateReflection(ctx context.Context, userID, id string, patch ReflectionPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	found, err := s.repo.UpdateReflection(ctx, userID, id, patch.record())
	if err != nil {
		return s.storeFailure("update_reflection", userID, id, err)
	}
	if !found {
		return ErrNotFound
	}
	if patch.Tags != nil {
		if err := s.registerTags(ctx, userID, *patch.Tags); err != nil {
			return err
		}
	}
	observability.RecordEntryPersisted(string(EntryKindReflection), time.Now())
	return nil
}

// DeleteReflection removes a reflection.
func (s *Service) DeleteReflection(ctx context.Context, userID, id string) error {
	found, err := s.repo.DeleteReflection(ctx, userID, id)
	if err != nil {
		return s.storeFailure("delete_reflection", userID, id, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// ListEntries merges activities and reflections, applies the filter and
// returns one page ordered by SortDate descending. The returned cursor is
// nil on the last page.
func (s *Service) ListEntries(ctx context.Context, userID string, filter EntryFilter) ([]Entry, *Cursor, error) {
	var entries []Entry
	if filter.Kind == "" || filter.Kind == EntryKindActivity {
		activities, err := s.ListActivities(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		for _, a := range activities {
			entries = append(entries, ActivityEntry(a))
		}
	}
	if filter.Kind == "" || filter.Kind == EntryKindReflection {
		reflections, err := s.ListReflections(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range reflections {
			entries = append(entries, ReflectionEntry(r))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entryBefore(entries[i], entries[j])
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	// One extra match tells us whether another page exists.
	page := make([]Entry, 0, limit+1)
	for _, e := range entries {
		if !filter.matches(e) {
			continue
		}
		if filter.Cursor != nil && !afterCursor(e, *filter.Cursor) {
			continue
		}
		page = append(page, e)
		if len(page) > limit {
			break
		}
	}

	var next *Cursor
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		next = &Cursor{SortDate: last.SortDate(), ID: last.ID()}
	}
	return page, next, nil
}

// entryBefore orders newest first, ties broken by id descending.
func entryBefore(a, b Entry) bool {
	ad, bd := a.SortDate(), b.SortDate()
	if !ad.Equal(bd) {
		return ad.After(bd)
	}
	return a.ID() > b.ID()
}

func afterCursor(e Entry, c Cursor) bool {
	d := e.SortDate()
	if !d.Equal(c.SortDate) {
		return d.Before(c.SortDate)
	}
	return e.ID() < c.ID
}

func (f EntryFilter) matches(e Entry) bool {
	title, content, tags := e.text()
	if q := strings.TrimSpace(f.Query); q != "" && !containsFold(title, q) && !containsFold(content, q) {
		return false
	}
	if f.Tag != "" && !hasTag(tags, f.Tag) {
		return false
	}
	start, end := e.span()
	if !f.From.IsZero() && end.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && start.After(f.To) {
		return false
	}
	return true
}

// ListTags returns the user's registry sorted by name.
func (s *Service) ListTags(ctx context.Context, userID string) ([]Tag, error) {
	records, err := s.repo.ListTags(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("list_tags", userID, "", err)
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return newTagIndex(records).resolve(names), nil
}

// UpsertTag writes the registry entry for name. A nil type assigns DefaultTagType.
func (s *Service) UpsertTag(ctx context.Context, userID, name string, typ *TagType) (Tag, error) {
	if strings.TrimSpace(name) == "" {
		return Tag{}, fmt.Errorf("%w: tag name is required", ErrInvalidInput)
	}
	resolved := DefaultTagType
	if typ != nil {
		parsed, err := ParseTagType(string(*typ))
		if err != nil {
			return Tag{}, err
		}
		resolved = parsed
	}
	if err := s.repo.UpsertTag(ctx, userID, TagRecord{Name: name, Type: string(resolved)}); err != nil {
		return Tag{}, s.storeFailure("upsert_tag", userID, name, err)
	}
	return Tag{Name: name, Type: &resolved}, nil
}

// DeleteTag removes the registry entry only. Records that reference the name
// keep it and resolve it as an untyped tag.
func (s *Service) DeleteTag(ctx context.Context, userID, name string) error {
	found, err := s.repo.DeleteTag(ctx, userID, name)
	if err != nil {
		return s.storeFailure("delete_tag", userID, name, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// UpsertUser writes the user's profile.
func (s *Service) UpsertUser(ctx context.Context, user User) (*User, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if existing, err := s.repo.GetUser(ctx, user.ID); err != nil {
		return nil, s.storeFailure("get_user", user.ID, "", err)
	} else if existing != nil {
		user.CreatedAt = existing.CreatedAt
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, s.storeFailure("upsert_user", user.ID, "", err)
	}
	return &user, nil
}

// GetUser fetches the user's profile.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("get_user", userID, "", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *Service) tagSnapshot(ctx context.Context, userID string) (tagIndex, error) {
	records, err := s.repo.ListTags(ctx, userID)
	if err != nil {
		return nil, s.storeFailure("list_tags", userID, "", err)
	}
	return newTagIndex(records), nil
}

// registerTags upserts names the registry does not know yet. Existing
// entries keep their type.
func (s *Service) registerTags(ctx context.Context, userID string, tags []Tag) error {
	if len(tags) == 0 {
		return nil
	}
	idx, err := s.tagSnapshot(ctx, userID)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if _, known := idx[tag.Name]; known {
			continue
		}
		if _, err := s.UpsertTag(ctx, userID, tag.Name, tag.Type); err != nil {
			return err
		}
		idx[tag.Name] = ""
	}
	return nil
}

func activityFromRecord(rec ActivityRecord, idx tagIndex) Activity {
	return Activity{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Title:      rec.Title,
		Content:    rec.Content,
		Date:       FromMillis(rec.DateMillis),
		Engagement: rec.Engagement,
		Energy:     rec.Energy,
		Tags:       idx.resolve(rec.Tags),
	}
}

func reflectionFromRecord(rec ReflectionRecord, idx tagIndex) Reflection {
	return Reflection{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Title:     rec.Title,
		Content:   rec.Content,
		StartDate: FromMillis(rec.StartMillis),
		EndDate:   FromMillis(rec.EndMillis),
		Tags:      idx.resolve(rec.Tags),
	}
}
