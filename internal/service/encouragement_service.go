package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unieval/course-review-api/internal/models"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

const encouragementCacheKey = "encouragements:active"

type encouragementRepository interface {
	ListActive(ctx context.Context) ([]models.Encouragement, error)
	Create(ctx context.Context, content string) (*models.Encouragement, error)
	Update(ctx context.Context, encouragementID string, content *string, status *models.RecordStatus) error
	SoftDelete(ctx context.Context, encouragementID string) error
}

// EncouragementRequest carries a sentence to create or patch.
type EncouragementRequest struct {
	Content string `json:"content" validate:"required,max=248"`
}

// EncouragementService serves the landing-page sentence and its admin CRUD.
type EncouragementService struct {
	repo      encouragementRepository
	cache     *CacheService
	cacheTTL  time.Duration
	pick      func(n int) int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEncouragementService constructs EncouragementService.
func NewEncouragementService(repo encouragementRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *EncouragementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EncouragementService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		pick:      rand.Intn,
		validator: validate,
		logger:    logger,
	}
}

// Random returns one active sentence picked uniformly from the cached list.
func (s *EncouragementService) Random(ctx context.Context) (*models.Encouragement, error) {
	sentences, err := s.activeSentences(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch encouragements")
	}
	if len(sentences) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no encouragements available")
	}
	chosen := sentences[s.pick(len(sentences))]
	return &chosen, nil
}

// List returns every active sentence for the admin dashboard.
func (s *EncouragementService) List(ctx context.Context) ([]models.Encouragement, error) {
	sentences, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list encouragements")
	}
	return sentences, nil
}

// Create persists a new sentence and drops the cached list.
func (s *EncouragementService) Create(ctx context.Context, req EncouragementRequest) (*models.Encouragement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid encouragement payload")
	}
	sentence, err := s.repo.Create(ctx, req.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create encouragement")
	}
	s.invalidate(ctx)
	return sentence, nil
}

// Update patches a sentence's content and drops the cached list.
func (s *EncouragementService) Update(ctx context.Context, encouragementID string, req EncouragementRequest) error {
	if encouragementID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "encouragement id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid encouragement payload")
	}
	if err := s.repo.Update(ctx, encouragementID, &req.Content, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "encouragement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update encouragement")
	}
	s.invalidate(ctx)
	return nil
}

// Delete soft deletes a sentence and drops the cached list.
func (s *EncouragementService) Delete(ctx context.Context, encouragementID string) error {
	if encouragementID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "encouragement id is required")
	}
	if err := s.repo.SoftDelete(ctx, encouragementID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "encouragement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete encouragement")
	}
	s.invalidate(ctx)
	return nil
}

func (s *EncouragementService) activeSentences(ctx context.Context) ([]models.Encouragement, error) {
	var cached []models.Encouragement
	if hit, _ := s.cache.Get(ctx, encouragementCacheKey, &cached); hit {
		return cached, nil
	}
	sentences, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, encouragementCacheKey, sentences, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache encouragements", zap.Error(err))
	}
	return sentences, nil
}

func (s *EncouragementService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, encouragementCacheKey); err != nil {
		s.logger.Warn("failed to invalidate encouragement cache", zap.Error(err))
	}
}
