package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseSearchRow, int, error)
	FindByID(ctx context.Context, courseID string) (*models.CourseDetail, error)
	Offerings(ctx context.Context, courseID string) ([]models.OfferingRow, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, courseID string, params repository.UpdateCourseParams) error
	SoftDelete(ctx context.Context, courseID string) error
	LinkInstructor(ctx context.Context, courseID, semesterID, instructorID string) error
}

type courseStatsReader interface {
	AveragesByCourse(ctx context.Context, courseID string) (*models.RatingAverages, error)
}

// CreateCourseRequest describes catalog course creation.
type CreateCourseRequest struct {
	CourseID     string `json:"courseId" validate:"required,max=32"`
	DepartmentID string `json:"departmentId" validate:"required,max=32"`
	Name         string `json:"name" validate:"required,max=255"`
	Credits      int    `json:"credits" validate:"min=0,max=30"`
	Description  string `json:"description" validate:"max=4000"`
}

// UpdateCourseRequest carries a partial course patch.
type UpdateCourseRequest struct {
	DepartmentID *string `json:"departmentId" validate:"omitempty,max=32"`
	Name         *string `json:"name" validate:"omitempty,max=255"`
	Credits      *int    `json:"credits" validate:"omitempty,min=0,max=30"`
	Description  *string `json:"description" validate:"omitempty,max=4000"`
}

// LinkInstructorRequest attaches an instructor to a course offering.
type LinkInstructorRequest struct {
	SemesterID   string `json:"semesterId" validate:"required"`
	InstructorID string `json:"instructorId" validate:"required"`
}

// CourseService serves the course catalog and course pages.
type CourseService struct {
	repo      courseRepository
	stats     courseStatsReader
	cache     *CacheService
	statsTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, stats courseStatsReader, cache *CacheService, statsTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, stats: stats, cache: cache, statsTTL: statsTTL, validator: validate, logger: logger}
}

// List returns catalog courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.PageFilter, total), nil
}

// Search returns ranked courses with review aggregates.
func (s *CourseService) Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseSearchRow, *models.Pagination, error) {
	switch filter.Sort {
	case "", "latest", "reviews", "rating":
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "sort must be one of latest, reviews, rating")
	}
	rows, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search courses")
	}
	return rows, paginationFor(filter.PageFilter, total), nil
}

// Detail assembles the course page: base info, offerings and review stats.
// Stats are cached; the database is the fallback on any cache miss.
func (s *CourseService) Detail(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	detail, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}

	offerings, err := s.repo.Offerings(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course offerings")
	}
	detail.Offerings = offerings

	stats, err := s.courseStats(ctx, courseID)
	if err != nil {
		s.logger.Warn("failed to aggregate course stats", zap.String("course_id", courseID), zap.Error(err))
	} else {
		detail.Stats = stats
	}
	return detail, nil
}

// Stats returns the aggregated review ratings for one course.
func (s *CourseService) Stats(ctx context.Context, courseID string) (*models.RatingAverages, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	stats, err := s.courseStats(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate course stats")
	}
	return stats, nil
}

func (s *CourseService) courseStats(ctx context.Context, courseID string) (*models.RatingAverages, error) {
	key := courseStatsCacheKey(courseID)
	var cached models.RatingAverages
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	stats, err := s.stats.AveragesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, stats, s.statsTTL); err != nil {
		s.logger.Warn("failed to cache course stats", zap.String("course_id", courseID), zap.Error(err))
	}
	return stats, nil
}

// InvalidateStats drops the cached aggregates after a review write.
func (s *CourseService) InvalidateStats(ctx context.Context, courseID string) {
	if err := s.cache.Invalidate(ctx, courseStatsCacheKey(courseID)); err != nil {
		s.logger.Warn("failed to invalidate course stats cache", zap.String("course_id", courseID), zap.Error(err))
	}
}

// Create registers a catalog course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		CourseID:     req.CourseID,
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Credits:      req.Credits,
		Status:       models.StatusActive,
	}
	if req.Description != "" {
		course.Description = &req.Description
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.CourseID))
	return course, nil
}

// Update applies a partial patch to a course.
func (s *CourseService) Update(ctx context.Context, courseID string, req UpdateCourseRequest) error {
	if courseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	params := repository.UpdateCourseParams{
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Credits:      req.Credits,
		Description:  req.Description,
	}
	if err := s.repo.Update(ctx, courseID, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return nil
}

// Delete soft deletes a course.
func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	if courseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if err := s.repo.SoftDelete(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", courseID))
	return nil
}

// LinkInstructor attaches an instructor to a course offering, materializing
// the offering when needed.
func (s *CourseService) LinkInstructor(ctx context.Context, courseID string, req LinkInstructorRequest) error {
	if courseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	if err := s.repo.LinkInstructor(ctx, courseID, req.SemesterID, req.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course, semester or instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link instructor")
	}
	return nil
}

func courseStatsCacheKey(courseID string) string {
	return fmt.Sprintf("course:stats:%s", courseID)
}

func paginationFor(filter models.PageFilter, total int) *models.Pagination {
	limit, _ := filter.NormalizePage()
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return &models.Pagination{Page: page, PageSize: limit, TotalCount: total}
}
