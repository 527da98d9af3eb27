package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinEngagement = 0
	MaxEngagement = 100
	MinEnergy     = -100
	MaxEnergy     = 100
)

// ActivityInput carries the fields of a new activity.
type ActivityInput struct {
	Title      string
	Content    string
	Date       time.Time
	Engagement int
	Energy     int
	Tags       []Tag
}

// Validate ensures input correctness.
func (in ActivityInput) Validate() error {
	var errs []error
	errs = append(errs, requireText("title", in.Title), requireText("content", in.Content))
	if in.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	}
	errs = append(errs, checkEngagement(in.Engagement), checkEnergy(in.Energy), checkTags(in.Tags))
	return invalid(errs...)
}

// ActivityPatch overwrites only the supplied (non-nil) fields.
type ActivityPatch struct {
	Title      *string
	Content    *string
	Date       *time.Time
	Engagement *int
	Energy     *int
	Tags       *[]Tag
}

// Validate checks supplied fields.
func (p ActivityPatch) Validate() error {
	var errs []error
	if p.Title != nil {
		errs = append(errs, requireText("title", *p.Title))
	}
	if p.Content != nil {
		errs = append(errs, requireText("content", *p.Content))
	}
	if p.Date != nil && p.Date.IsZero() {
		errs = append(errs, errors.New("date must not be empty"))
	}
	if p.Engagement != nil {
		errs = append(errs, checkEngagement(*p.Engagement))
	}
	if p.Energy != nil {
		errs = append(errs, checkEnergy(*p.Energy))
	}
	if p.Tags != nil {
		errs = append(errs, checkTags(*p.Tags))
	}
	return invalid(errs...)
}

func (p ActivityPatch) record() ActivityRecordPatch {
	out := ActivityRecordPatch{
		Title:      p.Title,
		Content:    p.Content,
		Engagement: p.Engagement,
		Energy:     p.Energy,
	}
	if p.Date != nil {
		ms := ToMillis(*p.Date)
		out.DateMillis = &ms
	}
	if p.Tags != nil {
		names := tagNames(*p.Tags)
		out.Tags = &names
	}
	return out
}

// ReflectionInput carries the fields of a new reflection. StartDate after
// EndDate is accepted.
type ReflectionInput struct {
	Title     string
	Content   string
	StartDate time.Time
	EndDate   time.Time
	Tags      []Tag
}

// Validate ensures input correctness.
func (in ReflectionInput) Validate() error {
	var errs []error
	errs = append(errs, requireText("title", in.Title), requireText("content", in.Content))
	if in.StartDate.IsZero() {
		errs = append(errs, errors.New("start_date is required"))
	}
	if in.EndDate.IsZero() {
		errs = append(errs, errors.New("end_date is required"))
	}
	errs = append(errs, checkTags(in.Tags))
	return invalid(errs...)
}

// ReflectionPatch overwrites only the supplied (non-nil) fields.
type ReflectionPatch struct {
	Title     *string
	Content   *string
	StartDate *time.Time
	EndDate   *time.Time
	Tags      *[]Tag
}

// Validate checks supplied fields.
func (p ReflectionPatch) Validate() error {
	var errs []error
	if p.Title != nil {
		errs = append(errs, requireText("title", *p.Title))
	}
	if p.Content != nil {
		errs = append(errs, requireText("content", *p.Content))
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		errs = append(errs, errors.New("start_date must not be empty"))
	}
	if p.EndDate != nil && p.EndDate.IsZero() {
		errs = append(errs, errors.New("end_date must not be empty"))
	}
	if p.Tags != nil {
		errs = append(errs, checkTags(*p.Tags))
	}
	return invalid(errs...)
}

func (p ReflectionPatch) record() ReflectionRecordPatch {
	out := ReflectionRecordPatch{Title: p.Title, Content: p.Content}
	if p.StartDate != nil {
		ms := ToMillis(*p.StartDate)
		out.StartMillis = &ms
	}
	if p.EndDate != nil {
		ms := ToMillis(*p.EndDate)
		out.EndMillis = &ms
	}
	if p.Tags != nil {
		names := tagNames(*p.Tags)
		out.Tags = &names
	}
	return out
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func checkEngagement(v int) error {
	if v < MinEngagement || v > MaxEngagement {
		return fmt.Errorf("engagement must be between %d and %d", MinEngagement, MaxEngagement)
	}
	return nil
}

func checkEnergy(v int) error {
	if v < MinEnergy || v > MaxEnergy {
		return fmt.Errorf("energy must be between %d and %d", MinEnergy, MaxEnergy)
	}
	return nil
}

func checkTags(tags []Tag) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag.Name) == "" {
			return errors.New("tag name must not be empty")
		}
		if tag.Type != nil {
			if _, err := ParseTagType(string(*tag.Type)); err != nil {
				return fmt.Errorf("tag %q has unknown type %q", tag.Name, *tag.Type)
			}
		}
	}
	return nil
}

// invalid joins non-nil errors under ErrInvalidInput.
func invalid(errs ...error) error {
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
