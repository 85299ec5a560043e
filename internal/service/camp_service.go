package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/camp-registry-api/internal/models"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type campRepository interface {
	List(ctx context.Context, filter models.CampFilter) ([]models.Camp, int, error)
	FindByID(ctx context.Context, id string) (*models.Camp, error)
	FindBySlug(ctx context.Context, slug string) (*models.Camp, error)
	Create(ctx context.Context, camp *models.Camp) error
	Delete(ctx context.Context, id string) error
}

// CreateCampRequest provisions a camp bound to one sheet feed.
type CreateCampRequest struct {
	Slug    string `json:"slug" validate:"required,min=2,max=64"`
	Name    string `json:"name" validate:"required,min=2,max=128"`
	SheetID string `json:"sheet_id" validate:"required"`
}

// CampService manages camp provisioning and lookup.
type CampService struct {
	repo      campRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCampService constructs a CampService.
func NewCampService(repo campRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CampService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns camps matching the filter together with pagination metadata.
func (s *CampService) List(ctx context.Context, filter models.CampFilter) ([]models.Camp, *models.Pagination, error) {
	camps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list camps")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return camps, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single camp by id.
func (s *CampService) Get(ctx context.Context, id string) (*models.Camp, error) {
	camp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "camp not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load camp")
	}
	return camp, nil
}

// Create provisions a camp. Slugs are unique and lowercase-hyphenated.
func (s *CampService) Create(ctx context.Context, req CreateCampRequest) (*models.Camp, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid camp payload")
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slug must be lowercase letters, digits and hyphens")
	}

	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a camp with this slug already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}

	camp := &models.Camp{
		ID:      uuid.NewString(),
		Slug:    slug,
		Name:    strings.TrimSpace(req.Name),
		SheetID: strings.TrimSpace(req.SheetID),
	}
	if err := s.repo.Create(ctx, camp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	s.logger.Info("camp created", zap.String("camp_id", camp.ID), zap.String("slug", camp.Slug))
	return camp, nil
}

// Delete removes a camp, its history and cached classification.
func (s *CampService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "camp not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, classificationCacheKey(id)); err != nil {
			s.logger.Warn("failed to invalidate classification cache", zap.String("camp_id", id), zap.Error(err))
		}
	}
	s.logger.Info("camp deleted", zap.String("camp_id", id))
	return nil
}
