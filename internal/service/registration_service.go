package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/camp-registry-api/internal/classify"
	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
)

type campReader interface {
	FindByID(ctx context.Context, id string) (*models.Camp, error)
}

type feedSyncer interface {
	Sync(ctx context.Context, camp *models.Camp) ([]*models.Registration, int, error)
}

// RegistrationSet is the result of a façade operation: the full history plus
// the derived family groups.
type RegistrationSet struct {
	Registrations []*models.Registration `json:"registrations"`
	SiblingGroups []models.FamilyGroup   `json:"sibling_groups"`

	Classification models.Classification `json:"-"`
}

// AddRegistrationRequest carries the raw columns of a locally added record.
type AddRegistrationRequest struct {
	Fields models.Fields `json:"fields" validate:"required"`
}

// ModifyRegistrationRequest merges the provided columns into an existing
// record. The id itself can never be changed by the caller.
type ModifyRegistrationRequest struct {
	ID     int           `json:"id" validate:"required,min=1"`
	Fields models.Fields `json:"fields" validate:"required"`
}

// AcceptanceRequest updates the workflow state of a set of records.
type AcceptanceRequest struct {
	IDs    []int                   `json:"ids" validate:"required,min=1,dive,min=1"`
	Status models.AcceptanceStatus `json:"status" validate:"required"`
}

// RegistrationService is the record store façade. It owns each camp's history
// between calls: every operation is serialized per camp, mutates the history
// as a whole, re-runs classification and persists atomically, so callers
// always observe a total order of fully applied operations.
type RegistrationService struct {
	camps      campReader
	store      historyStore
	syncer     feedSyncer
	classifier *classify.Classifier
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger

	locks sync.Map // camp id -> *sync.Mutex
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(camps campReader, store historyStore, syncer feedSyncer, classifier *classify.Classifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		camps:      camps,
		store:      store,
		syncer:     syncer,
		classifier: classifier,
		cache:      cache,
		validator:  validate,
		logger:     logger,
	}
}

// lockCamp serializes operations against one camp. Two concurrent mutations
// computing the same next id would break the dense-id invariant.
func (s *RegistrationService) lockCamp(campID string) func() {
	entry, _ := s.locks.LoadOrStore(campID, &sync.Mutex{})
	mu := entry.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *RegistrationService) camp(ctx context.Context, campID string) (*models.Camp, error) {
	camp, err := s.camps.FindByID(ctx, campID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "camp not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load camp")
	}
	return camp, nil
}

// List syncs the camp's feed and returns the classified history. Identifiers
// are never reassigned by a read.
func (s *RegistrationService) List(ctx context.Context, campID string) (*RegistrationSet, error) {
	unlock := s.lockCamp(campID)
	defer unlock()

	camp, err := s.camp(ctx, campID)
	if err != nil {
		return nil, err
	}
	history, _, err := s.syncer.Sync(ctx, camp)
	if err != nil {
		return nil, err
	}
	return s.classified(ctx, camp, history), nil
}

// Add appends a locally created registration with the next dense id and a
// pending acceptance status.
func (s *RegistrationService) Add(ctx context.Context, campID string, req AddRegistrationRequest) (*RegistrationSet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	unlock := s.lockCamp(campID)
	defer unlock()

	camp, err := s.camp(ctx, campID)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx, camp)
	if err != nil {
		return nil, err
	}

	record := &models.Registration{
		ID:               len(history) + 1,
		Fields:           req.Fields.Clone(),
		AcceptanceStatus: models.AcceptancePending,
		CreatedAt:        time.Now(),
	}
	history = append(history, record)

	return s.commit(ctx, camp, history)
}

// Modify merges the provided columns into existing records. The batch is
// all-or-nothing: the first unresolved id aborts the whole call.
func (s *RegistrationService) Modify(ctx context.Context, campID string, updates []ModifyRegistrationRequest) (*RegistrationSet, error) {
	if len(updates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updates provided")
	}
	for _, update := range updates {
		if err := s.validator.Struct(update); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
		}
	}

	unlock := s.lockCamp(campID)
	defer unlock()

	camp, err := s.camp(ctx, campID)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx, camp)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]*models.Registration, len(history))
	for _, record := range history {
		byID[record.ID] = record
	}
	for _, update := range updates {
		record, ok := byID[update.ID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("registration %d not found", update.ID))
		}
		record.Fields = record.Fields.Merge(update.Fields)
	}

	return s.commit(ctx, camp, history)
}

// Delete removes one record and renumbers the remaining ids to 1..N in their
// current order. Callers must not cache ids across a delete.
func (s *RegistrationService) Delete(ctx context.Context, campID string, id int) (*RegistrationSet, error) {
	unlock := s.lockCamp(campID)
	defer unlock()

	camp, err := s.camp(ctx, campID)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx, camp)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, record := range history {
		if record.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("registration %d not found", id))
	}

	history = append(history[:index], history[index+1:]...)
	for i, record := range history {
		record.ID = i + 1
	}

	return s.commit(ctx, camp, history)
}

// UpdateAcceptance sets the workflow state for every record whose id is in
// the set. Matching zero records is reported as a failure, not a silent no-op.
func (s *RegistrationService) UpdateAcceptance(ctx context.Context, campID string, req AcceptanceRequest) (*RegistrationSet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid acceptance payload")
	}
	if !models.ValidAcceptanceStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown acceptance status %q", req.Status))
	}

	unlock := s.lockCamp(campID)
	defer unlock()

	camp, err := s.camp(ctx, campID)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx, camp)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		wanted[id] = struct{}{}
	}
	matched := 0
	for _, record := range history {
		if _, ok := wanted[record.ID]; ok {
			record.AcceptanceStatus = req.Status
			matched++
		}
	}
	if matched == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no registrations matched the provided ids")
	}

	return s.commit(ctx, camp, history)
}

// Classification returns the camp's current counts, from cache when fresh.
// It never syncs the feed.
func (s *RegistrationService) Classification(ctx context.Context, campID string) (models.Classification, error) {
	var counts models.Classification
	key := classificationCacheKey(campID)
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, key, &counts); err == nil && hit {
			return counts, nil
		}
	}

	unlock := s.lockCamp(campID)
	defer unlock()

	camp, err := s.camp(ctx, campID)
	if err != nil {
		return models.Classification{}, err
	}
	history, err := s.loadHistory(ctx, camp)
	if err != nil {
		return models.Classification{}, err
	}
	set := s.classified(ctx, camp, history)
	return set.Classification, nil
}

func (s *RegistrationService) loadHistory(ctx context.Context, camp *models.Camp) ([]*models.Registration, error) {
	history, err := s.store.LoadHistory(ctx, camp.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return history, nil
}

// commit classifies the mutated history, persists it together with the
// unchanged cursor, and refreshes the cached counts. Nothing is considered
// applied until the write succeeds.
func (s *RegistrationService) commit(ctx context.Context, camp *models.Camp, history []*models.Registration) (*RegistrationSet, error) {
	result := s.classifier.Classify(history)
	if err := s.store.ReplaceHistory(ctx, camp.ID, history, camp.LastRowProcessed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	set := &RegistrationSet{
		Registrations:  history,
		SiblingGroups:  result.SiblingGroups,
		Classification: result.Counts(),
	}
	s.refreshCache(ctx, camp.ID, set.Classification)
	return set, nil
}

// classified runs a classification pass without persisting: used by reads,
// where the history on disk already reflects the last completed mutation.
func (s *RegistrationService) classified(ctx context.Context, camp *models.Camp, history []*models.Registration) *RegistrationSet {
	result := s.classifier.Classify(history)
	set := &RegistrationSet{
		Registrations:  history,
		SiblingGroups:  result.SiblingGroups,
		Classification: result.Counts(),
	}
	s.refreshCache(ctx, camp.ID, set.Classification)
	return set
}

func (s *RegistrationService) refreshCache(ctx context.Context, campID string, counts models.Classification) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, classificationCacheKey(campID), counts, 0); err != nil {
		s.logger.Warn("failed to cache classification", zap.String("camp_id", campID), zap.Error(err))
	}
}

func classificationCacheKey(campID string) string {
	return "classification:" + campID
}
