package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/camp-registry-api/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator checks required-field presence and email well-formedness. It is a
// classification pass, not a pure function: it stamps status and errors on the
// records so later passes can build on them.
type Validator struct {
	requiredFields []string
}

// NewValidator builds a validator. The submission timestamp column is always
// required; extra required columns come from configuration.
func NewValidator(requiredFields []string) *Validator {
	if len(requiredFields) == 0 {
		requiredFields = []string{"Timestamp"}
	}
	return &Validator{requiredFields: requiredFields}
}

// Validate classifies every record as valid or invalid. A previous
// classification is reset first so the pass is deterministic after mutations.
func (v *Validator) Validate(records []*models.Registration) (valid, invalid []*models.Registration) {
	for _, record := range records {
		var errs []string

		for _, required := range v.requiredFields {
			value, _ := record.Fields.Get(required)
			if strings.TrimSpace(value) == "" {
				errs = append(errs, fmt.Sprintf("Missing required field: %s", required))
			}
		}

		for _, field := range record.Fields {
			if !strings.Contains(strings.ToLower(field.Name), "email") {
				continue
			}
			if field.Value != "" && !emailPattern.MatchString(field.Value) {
				errs = append(errs, fmt.Sprintf("Invalid email format: %s", field.Name))
			}
		}

		record.DuplicateOf = nil
		if len(errs) == 0 {
			record.Status = models.RecordStatusValid
			record.ValidationErrors = nil
			valid = append(valid, record)
		} else {
			record.Status = models.RecordStatusInvalid
			record.ValidationErrors = errs
			invalid = append(invalid, record)
		}
	}
	return valid, invalid
}
