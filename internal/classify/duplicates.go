package classify

import (
	"strings"

	"github.com/noah-isme/camp-registry-api/internal/fieldmatch"
	"github.com/noah-isme/camp-registry-api/internal/models"
)

// DuplicateDetector finds records that plausibly represent the same
// submission: same child plus same parent identifier (name or phone).
type DuplicateDetector struct {
	matcher *fieldmatch.Matcher
}

// NewDuplicateDetector builds a detector using the given column matcher.
func NewDuplicateDetector(matcher *fieldmatch.Matcher) *DuplicateDetector {
	return &DuplicateDetector{matcher: matcher}
}

// Find returns the subset of records flagged as duplicates. Records are
// visited in input order, which the reconciler guarantees is chronological, so
// the first occurrence always wins as the original. A duplicate keeps its
// validation errors; only its duplicate_of link and, when not already invalid,
// its status are updated. The duplicate's own keys are never stored: the first
// occurrence stays the canonical lookup target.
func (d *DuplicateDetector) Find(records []*models.Registration) []*models.Registration {
	seen := make(map[string]*models.Registration)
	var duplicates []*models.Registration

	for _, record := range records {
		childColumn, ok := d.matcher.Locate(record.Fields, fieldmatch.RoleChildName)
		if !ok {
			continue
		}
		childValue, _ := record.Fields.Get(childColumn)
		child := normalizeKey(childValue)
		if child == "" {
			continue
		}

		var parent, phone string
		if column, ok := d.matcher.Locate(record.Fields, fieldmatch.RoleParentName); ok {
			value, _ := record.Fields.Get(column)
			parent = normalizeKey(value)
		}
		if column, ok := d.matcher.Locate(record.Fields, fieldmatch.RolePhone); ok {
			value, _ := record.Fields.Get(column)
			phone = normalizeKey(value)
		}
		if parent == "" && phone == "" {
			continue
		}

		var keys []string
		if parent != "" {
			keys = append(keys, child+"__"+parent)
		}
		if phone != "" {
			keys = append(keys, child+"__"+phone)
		}

		var original *models.Registration
		for _, key := range keys {
			if first, ok := seen[key]; ok {
				original = first
				break
			}
		}

		if original != nil {
			if record.Status != models.RecordStatusInvalid {
				record.Status = models.RecordStatusDuplicate
			}
			id := original.ID
			record.DuplicateOf = &id
			duplicates = append(duplicates, record)
			continue
		}

		for _, key := range keys {
			seen[key] = record
		}
	}
	return duplicates
}

// normalizeKey lowercases and strips all whitespace.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
