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

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindActive(ctx context.Context, instructorID string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructorID string, params repository.UpdateInstructorParams) error
	SoftDelete(ctx context.Context, instructorID string) error
}

// CreateInstructorRequest describes instructor creation.
type CreateInstructorRequest struct {
	InstructorID string `json:"instructorId" validate:"required,max=32"`
	FirstName    string `json:"firstName" validate:"required,max=64"`
	LastName     string `json:"lastName" validate:"required,max=64"`
	Email        string `json:"email" validate:"omitempty,email"`
	DepartmentID string `json:"departmentId" validate:"required,max=32"`
}

// UpdateInstructorRequest carries a partial instructor patch.
type UpdateInstructorRequest struct {
	FirstName    *string `json:"firstName" validate:"omitempty,max=64"`
	LastName     *string `json:"lastName" validate:"omitempty,max=64"`
	Email        *string `json:"email" validate:"omitempty,email"`
	DepartmentID *string `json:"departmentId" validate:"omitempty,max=32"`
}

// InstructorService manages the instructor roster.
type InstructorService struct {
	repo      instructorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService constructs InstructorService.
func NewInstructorService(repo instructorRepository, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, validator: validate, logger: logger}
}

// List returns instructors with pagination metadata.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, paginationFor(filter.PageFilter, total), nil
}

// Get returns one active instructor.
func (s *InstructorService) Get(ctx context.Context, instructorID string) (*models.Instructor, error) {
	if instructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	instructor, err := s.repo.FindActive(ctx, instructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch instructor")
	}
	return instructor, nil
}

// Create registers an instructor.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	instructor := &models.Instructor{
		InstructorID: req.InstructorID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: req.DepartmentID,
		Status:       models.StatusActive,
	}
	if req.Email != "" {
		instructor.Email = &req.Email
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "instructor already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	s.logger.Info("instructor created", zap.String("instructor_id", instructor.InstructorID))
	return instructor, nil
}

// Update applies a partial patch to an instructor.
func (s *InstructorService) Update(ctx context.Context, instructorID string, req UpdateInstructorRequest) error {
	if instructorID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	params := repository.UpdateInstructorParams{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
	}
	if err := s.repo.Update(ctx, instructorID, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return nil
}

// Delete soft deletes an instructor.
func (s *InstructorService) Delete(ctx context.Context, instructorID string) error {
	if instructorID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	if err := s.repo.SoftDelete(ctx, instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instructor")
	}
	s.logger.Info("instructor deleted", zap.String("instructor_id", instructorID))
	return nil
}
