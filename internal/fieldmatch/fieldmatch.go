// Package fieldmatch locates semantic columns inside an operator-defined
// column set. Form headers are free text and vary by camp and locale, so the
// engine never hardcodes column names; it sniffs them through per-role
// keyword rules instead.
package fieldmatch

import (
	"strings"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

// Role identifies a semantic column the engine needs to resolve.
type Role string

const (
	RoleChildName   Role = "childName"
	RoleParentName  Role = "parentName"
	RoleParentEmail Role = "parentEmail"
	RolePhone       Role = "phone"
)

// Rule describes one way a column name can qualify for a role. A column
// matches when its lowercased name contains at least one keyword from every
// AllOf group and none of the Exclude keywords.
type Rule struct {
	AllOf   [][]string
	Exclude []string
}

// Table maps each role to its rules, tried in order. Earlier rules are more
// specific; a later rule is only consulted when no column satisfies the
// previous one.
type Table map[Role][]Rule

// DefaultTable returns the built-in English/Italian keyword rules.
func DefaultTable() Table {
	return Table{
		RoleChildName: {
			{AllOf: [][]string{{"nome"}, {"bambino", "ragazzo", "cognome"}}, Exclude: []string{"genitore"}},
			{AllOf: [][]string{{"child", "kid"}}, Exclude: []string{"parent"}},
		},
		RoleParentName: {
			{AllOf: [][]string{{"parent", "genitore"}, {"nome", "name"}}},
			{AllOf: [][]string{{"parent", "genitore", "cognome"}}},
		},
		RoleParentEmail: {
			{AllOf: [][]string{{"email"}, {"parent", "genitore"}}},
		},
		RolePhone: {
			{AllOf: [][]string{{"phone", "telefono"}}},
		},
	}
}

// Matcher resolves roles against a keyword table.
type Matcher struct {
	table Table
}

// New builds a matcher. A nil table falls back to the defaults.
func New(table Table) *Matcher {
	if table == nil {
		table = DefaultTable()
	}
	return &Matcher{table: table}
}

// Extend appends extra keywords to the first AllOf group of every rule for
// the role. Used to fold locale-specific synonyms in from configuration.
func (m *Matcher) Extend(role Role, keywords ...string) {
	rules := m.table[role]
	for i := range rules {
		if len(rules[i].AllOf) == 0 {
			continue
		}
		rules[i].AllOf[0] = append(rules[i].AllOf[0], keywords...)
	}
	m.table[role] = rules
}

// Locate returns the first column of the record that qualifies for the role,
// in rule order then column order. The boolean is false when no column
// qualifies.
func (m *Matcher) Locate(fields models.Fields, role Role) (string, bool) {
	for _, rule := range m.table[role] {
		for _, field := range fields {
			if rule.matches(field.Name) {
				return field.Name, true
			}
		}
	}
	return "", false
}

func (r Rule) matches(column string) bool {
	low := strings.ToLower(column)
	for _, keyword := range r.Exclude {
		if strings.Contains(low, keyword) {
			return false
		}
	}
	for _, group := range r.AllOf {
		if !containsAny(low, group) {
			return false
		}
	}
	return len(r.AllOf) > 0
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
