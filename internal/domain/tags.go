package domain

import "strings"

// tagIndex is a snapshot of a user's registry keyed by tag name.
type tagIndex map[string]TagType

func newTagIndex(records []TagRecord) tagIndex {
	idx := make(tagIndex, len(records))
	for _, rec := range records {
		idx[rec.Name] = TagType(rec.Type)
	}
	return idx
}

// resolve left-joins bare names against the snapshot. Names missing from
// the registry come back untyped.
func (idx tagIndex) resolve(names []string) []Tag {
	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		tag := Tag{Name: name}
		if t, ok := idx[name]; ok && t != "" {
			typ := t
			tag.Type = &typ
		}
		tags = append(tags, tag)
	}
	return tags
}

// tagNames reduces tags to bare names, keeping the first occurrence of each.
func tagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, dup := seen[tag.Name]; dup {
			continue
		}
		seen[tag.Name] = struct{}{}
		names = append(names, tag.Name)
	}
	return names
}

func hasTag(tags []Tag, name string) bool {
	for _, tag := range tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
