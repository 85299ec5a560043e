package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// RecordStatus is the classification outcome for a registration.
type RecordStatus string

const (
	RecordStatusValid     RecordStatus = "valid"
	RecordStatusInvalid   RecordStatus = "invalid"
	RecordStatusDuplicate RecordStatus = "duplicate"
)

// AcceptanceStatus is the admission workflow state, orthogonal to classification.
type AcceptanceStatus string

const (
	AcceptancePending  AcceptanceStatus = "pending"
	AcceptanceAccepted AcceptanceStatus = "accepted"
	AcceptanceRejected AcceptanceStatus = "rejected"
)

// ValidAcceptanceStatus reports whether s is one of the known workflow states.
func ValidAcceptanceStatus(s AcceptanceStatus) bool {
	switch s {
	case AcceptancePending, AcceptanceAccepted, AcceptanceRejected:
		return true
	}
	return false
}

// Field is a single form column and its raw value.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields holds a registration's raw columns in source order. Column names are
// operator-defined free text (localized form labels), so order and exact names
// must survive a JSON and database round trip.
type Fields []Field

// Get returns the value of the named column.
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Set overwrites the named column in place, appending it when absent.
func (f *Fields) Set(name, value string) {
	for i, field := range *f {
		if field.Name == name {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Field{Name: name, Value: value})
}

// Names returns the column names in source order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// Merge overlays the other fields onto a copy of f, keeping f's column order
// for columns that already exist and appending unseen ones.
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	for _, field := range other {
		out.Set(field.Name, field.Value)
	}
	return out
}

// MarshalJSON renders the fields as a JSON object preserving column order.
func (f Fields) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object token by token so key order is preserved.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("fields: expected JSON object, got %v", tok)
	}

	out := Fields{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		var value string
		switch v := valTok.(type) {
		case string:
			value = v
		case nil:
			value = ""
		case json.Number:
			value = v.String()
		case float64:
			value = fmt.Sprintf("%v", v)
		case bool:
			value = fmt.Sprintf("%v", v)
		default:
			return fmt.Errorf("fields: unsupported value for column %q", key)
		}
		out = append(out, Field{Name: key, Value: value})
	}
	*f = out
	return nil
}

// Value stores the fields as a JSON array of name/value pairs. The array form
// is used in the database because jsonb does not keep object key order.
func (f Fields) Value() (driver.Value, error) {
	pairs := []Field(f)
	if pairs == nil {
		pairs = []Field{}
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan restores fields from the stored array form.
func (f *Fields) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*f = nil
		return nil
	default:
		return fmt.Errorf("fields: cannot scan %T", src)
	}
	var pairs []Field
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return fmt.Errorf("fields: decode stored value: %w", err)
	}
	*f = Fields(pairs)
	return nil
}

// Registration is one camp submission with its classification and workflow state.
type Registration struct {
	ID               int              `db:"seq" json:"id"`
	Fields           Fields           `db:"fields" json:"fields"`
	Status           RecordStatus     `db:"status" json:"status"`
	ValidationErrors pq.StringArray   `db:"validation_errors" json:"validation_errors,omitempty"`
	DuplicateOf      *int             `db:"duplicate_of" json:"duplicate_of,omitempty"`
	AcceptanceStatus AcceptanceStatus `db:"acceptance_status" json:"acceptance_status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// FamilyGroup is a derived cluster of registrations sharing a parent email.
type FamilyGroup struct {
	FamilyKey     string `json:"family_key"`
	ParentName    string `json:"parent_name"`
	ChildCount    int    `json:"child_count"`
	ChildrenNames string `json:"children_names"`
}

// Classification carries the counts surfaced with every registration response.
type Classification struct {
	ValidCount         int `json:"valid_count"`
	InvalidCount       int `json:"invalid_count"`
	DuplicateCount     int `json:"duplicate_count"`
	SiblingGroupsCount int `json:"sibling_groups_count"`
	TotalCount         int `json:"total_count"`
}

var _ driver.Valuer = Fields{}
