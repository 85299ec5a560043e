// Package classify runs the registration classification pipeline: validation,
// duplicate detection and sibling grouping over a camp's full history.
package classify

import (
	"go.uber.org/zap"

	"github.com/noah-isme/camp-registry-api/internal/fieldmatch"
	"github.com/noah-isme/camp-registry-api/internal/models"
)

// Result is the combined outcome of one classification pass.
type Result struct {
	Valid         []*models.Registration
	Invalid       []*models.Registration
	Duplicates    []*models.Registration
	SiblingGroups []models.FamilyGroup
	Total         int
}

// Counts reduces the result to the summary surfaced with every response.
func (r Result) Counts() models.Classification {
	return models.Classification{
		ValidCount:         len(r.Valid),
		InvalidCount:       len(r.Invalid),
		DuplicateCount:     len(r.Duplicates),
		SiblingGroupsCount: len(r.SiblingGroups),
		TotalCount:         r.Total,
	}
}

// Classifier orchestrates the three passes. All three always run over the
// full record set: duplicates must be catchable even among invalid records,
// and a record may carry both signals at once.
type Classifier struct {
	validator  *Validator
	duplicates *DuplicateDetector
	siblings   *SiblingGrouper
	logger     *zap.Logger
}

// New builds a classifier around a shared column matcher.
func New(matcher *fieldmatch.Matcher, requiredFields []string, logger *zap.Logger) *Classifier {
	if matcher == nil {
		matcher = fieldmatch.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		validator:  NewValidator(requiredFields),
		duplicates: NewDuplicateDetector(matcher),
		siblings:   NewSiblingGrouper(matcher),
		logger:     logger,
	}
}

// Classify runs validation, duplicate detection and sibling grouping, in that
// order, mutating the records' status fields. It must be re-invoked after
// every history mutation so the counts callers see are always fresh.
func (c *Classifier) Classify(records []*models.Registration) Result {
	valid, invalid := c.validator.Validate(records)
	duplicates := c.duplicates.Find(records)
	groups := c.siblings.Group(records)

	// Records re-flagged as duplicates leave the valid bucket; invalid ones
	// stay invalid with duplicate_of set alongside their errors.
	stillValid := make([]*models.Registration, 0, len(valid))
	for _, record := range valid {
		if record.Status == models.RecordStatusValid {
			stillValid = append(stillValid, record)
		}
	}

	result := Result{
		Valid:         stillValid,
		Invalid:       invalid,
		Duplicates:    duplicates,
		SiblingGroups: groups,
		Total:         len(records),
	}
	c.logger.Debug("classification pass complete",
		zap.Int("total", result.Total),
		zap.Int("valid", len(result.Valid)),
		zap.Int("invalid", len(result.Invalid)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("sibling_groups", len(result.SiblingGroups)),
	)
	return result
}
