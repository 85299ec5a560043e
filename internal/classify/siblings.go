package classify

import (
	"strings"

	"github.com/noah-isme/camp-registry-api/internal/fieldmatch"
	"github.com/noah-isme/camp-registry-api/internal/models"
)

const unknownName = "Unknown"

// SiblingGrouper clusters registrations by normalized parent email to surface
// probable families registering more than one child.
type SiblingGrouper struct {
	matcher *fieldmatch.Matcher
}

// NewSiblingGrouper builds a grouper using the given column matcher.
func NewSiblingGrouper(matcher *fieldmatch.Matcher) *SiblingGrouper {
	return &SiblingGrouper{matcher: matcher}
}

// Group returns family groups with two or more children, in
// first-encountered-key order. Records without a resolvable parent email are
// excluded from grouping entirely.
func (g *SiblingGrouper) Group(records []*models.Registration) []models.FamilyGroup {
	type family struct {
		parentName string
		children   []string
	}

	families := make(map[string]*family)
	var order []string

	for _, record := range records {
		emailColumn, ok := g.matcher.Locate(record.Fields, fieldmatch.RoleParentEmail)
		if !ok {
			continue
		}
		emailValue, _ := record.Fields.Get(emailColumn)
		key := strings.ToLower(strings.TrimSpace(emailValue))
		if key == "" {
			continue
		}

		parentName := unknownName
		if column, ok := g.matcher.Locate(record.Fields, fieldmatch.RoleParentName); ok {
			if value, _ := record.Fields.Get(column); strings.TrimSpace(value) != "" {
				parentName = strings.TrimSpace(value)
			}
		}

		childName := unknownName
		if column, ok := g.matcher.Locate(record.Fields, fieldmatch.RoleChildName); ok {
			if value, _ := record.Fields.Get(column); strings.TrimSpace(value) != "" {
				childName = strings.TrimSpace(value)
			}
		}

		entry, ok := families[key]
		if !ok {
			entry = &family{parentName: parentName}
			families[key] = entry
			order = append(order, key)
		}
		entry.children = append(entry.children, childName)
	}

	var groups []models.FamilyGroup
	for _, key := range order {
		entry := families[key]
		if len(entry.children) < 2 {
			continue
		}
		groups = append(groups, models.FamilyGroup{
			FamilyKey:     key,
			ParentName:    entry.parentName,
			ChildCount:    len(entry.children),
			ChildrenNames: strings.Join(entry.children, ", "),
		})
	}
	return groups
}
