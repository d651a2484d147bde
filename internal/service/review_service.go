package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, params repository.CreateReviewParams) (*repository.CreateReviewResult, error)
	Exists(ctx context.Context, userID, courseID, semesterID string) (bool, error)
	List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error)
	SoftDelete(ctx context.Context, reviewID string) error
}

// SubmitReviewRequest describes a review submission payload. Ratings are
// pointers so that a legitimate zero survives the required check.
type SubmitReviewRequest struct {
	CourseID       string   `json:"courseId" validate:"required"`
	SemesterID     string   `json:"semesterId" validate:"required"`
	ContentRating  *int     `json:"contentRating" validate:"required,min=0,max=10"`
	TeachingRating *int     `json:"teachingRating" validate:"required,min=0,max=10"`
	GradingRating  *int     `json:"gradingRating" validate:"required,min=0,max=10"`
	WorkloadRating *int     `json:"workloadRating" validate:"required,min=0,max=10"`
	Comment        string   `json:"comment" validate:"max=2000"`
	InstructorIDs  []string `json:"instructorIds"`
}

// ReviewService orchestrates review submission and moderation.
type ReviewService struct {
	repo      reviewRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(repo reviewRepository, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, validator: validate, logger: logger}
}

// Submit validates the payload and runs the transactional write path. A
// duplicate active review surfaces as 409; an unknown course or semester as
// 404. Unresolvable instructor ids do not fail the submission.
func (s *ReviewService) Submit(ctx context.Context, userID string, req SubmitReviewRequest) (*repository.CreateReviewResult, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	result, err := s.repo.Create(ctx, repository.CreateReviewParams{
		UserID:         userID,
		CourseID:       req.CourseID,
		SemesterID:     req.SemesterID,
		ContentRating:  *req.ContentRating,
		TeachingRating: *req.TeachingRating,
		GradingRating:  *req.GradingRating,
		WorkloadRating: *req.WorkloadRating,
		Comment:        req.Comment,
		InstructorIDs:  req.InstructorIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateReview):
			return nil, appErrors.ErrDuplicateReview
		case errors.Is(err, repository.ErrUnknownOffering):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course or semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit review")
	}

	s.logger.Info("review submitted",
		zap.String("review_id", result.ReviewID),
		zap.String("course_id", req.CourseID),
		zap.String("semester_id", req.SemesterID),
		zap.Int("linked_instructors", result.LinkedInstructors),
		zap.Int("invalid_instructors", len(result.InvalidInstructors)),
	)
	return result, nil
}

// Check reports whether the caller already reviewed the offering.
func (s *ReviewService) Check(ctx context.Context, userID, courseID, semesterID string) (bool, error) {
	if userID == "" {
		return false, appErrors.ErrUnauthorized
	}
	if courseID == "" || semesterID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "courseId and semesterId are required")
	}
	exists, err := s.repo.Exists(ctx, userID, courseID, semesterID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check review")
	}
	return exists, nil
}

// List returns reviews with pagination metadata.
func (s *ReviewService) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, *models.Pagination, error) {
	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, paginationFor(filter.PageFilter, total), nil
}

// AdminDelete soft deletes a review. The transition is terminal.
func (s *ReviewService) AdminDelete(ctx context.Context, reviewID string) error {
	if reviewID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "review id is required")
	}
	if err := s.repo.SoftDelete(ctx, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}
	s.logger.Info("review deleted", zap.String("review_id", reviewID))
	return nil
}
