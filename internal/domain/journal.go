package domain

import (
	"fmt"
	"strings"
	"time"
)

// TagType classifies a tag by weight.
type TagType string

const (
	TagTypeRock   TagType = "rock"
	TagTypePebble TagType = "pebble"
	TagTypeSand   TagType = "sand"
)

// DefaultTagType is assigned when a tag is registered without a type.
const DefaultTagType = TagTypePebble

// ParseTagType validates a raw type name. Matching is case-insensitive.
func ParseTagType(raw string) (TagType, error) {
	switch t := TagType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TagTypeRock, TagTypePebble, TagTypeSand:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown tag type %q", ErrInvalidInput, raw)
	}
}

// Tag is a resolved tag reference. Type is nil when the name is not in the
// owner's registry.
type Tag struct {
	Name string
	Type *TagType
}

// Activity is a dated entry with engagement and energy ratings.
type Activity struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	Date       time.Time
	Engagement int
	Energy     int
	Tags       []Tag
}

// Reflection is an entry covering a date range.
type Reflection struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	StartDate time.Time
	EndDate   time.Time
	Tags      []Tag
}

// User is the profile stored at account creation.
type User struct {
	ID         string
	Name       string
	Email      string
	ProfilePic string
	CreatedAt  time.Time
}

// EntryKind discriminates the Entry variant.
type EntryKind string

const (
	EntryKindActivity   EntryKind = "activity"
	EntryKindReflection EntryKind = "reflection"
)

// ParseEntryKind maps a raw kind to EntryKind. The empty string yields "".
func ParseEntryKind(raw string) (EntryKind, error) {
	switch k := EntryKind(strings.TrimSpace(raw)); k {
	case "", EntryKindActivity, EntryKindReflection:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown entry kind %q", ErrInvalidInput, raw)
	}
}

// Entry holds exactly one of Activity or Reflection, selected by Kind.
type Entry struct {
	Kind       EntryKind
	Activity   *Activity
	Reflection *Reflection
}

// ActivityEntry wraps an activity.
func ActivityEntry(a Activity) Entry {
	return Entry{Kind: EntryKindActivity, Activity: &a}
}

// ReflectionEntry wraps a reflection.
func ReflectionEntry(r Reflection) Entry {
	return Entry{Kind: EntryKindReflection, Reflection: &r}
}

// Visit calls the function matching the entry's kind.
func (e Entry) Visit(onActivity func(Activity) error, onReflection func(Reflection) error) error {
	switch e.Kind {
	case EntryKindActivity:
		return onActivity(*e.Activity)
	case EntryKindReflection:
		return onReflection(*e.Reflection)
	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
}

// ID returns the wrapped record id.
func (e Entry) ID() string {
	switch e.Kind {
	case EntryKindActivity:
		return e.Activity.ID
	case EntryKindReflection:
		return e.Reflection.ID
	}
	return ""
}

// SortDate is the activity date or the reflection end date.
func (e Entry) SortDate() time.Time {
	switch e.Kind {
	case EntryKindActivity:
		return e.Activity.Date
	case EntryKindReflection:
		return e.Reflection.EndDate
	}
	return time.Time{}
}

// span returns the inclusive date range the entry covers, earliest first.
// Reflections may be stored with their dates inverted.
func (e Entry) span() (time.Time, time.Time) {
	switch e.Kind {
	case EntryKindActivity:
		return e.Activity.Date, e.Activity.Date
	case EntryKindReflection:
		start, end := e.Reflection.StartDate, e.Reflection.EndDate
		if end.Before(start) {
			return end, start
		}
		return start, end
	}
	return time.Time{}, time.Time{}
}

func (e Entry) text() (string, string, []Tag) {
	switch e.Kind {
	case EntryKindActivity:
		return e.Activity.Title, e.Activity.Content, e.Activity.Tags
	case EntryKindReflection:
		return e.Reflection.Title, e.Reflection.Content, e.Reflection.Tags
	}
	return "", "", nil
}

// Cursor models the pagination token for entry listings.
type Cursor struct {
	SortDate time.Time
	ID       string
}

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	Kind   EntryKind
	Query  string
	Tag    string
	From   time.Time
	To     time.Time
	Cursor *Cursor
	Limit  int
}
