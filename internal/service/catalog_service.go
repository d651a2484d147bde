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

type departmentRepository interface {
	List(ctx context.Context, filter models.PageFilter) ([]models.Department, int, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, departmentID string, name *string, status *models.RecordStatus) error
}

type semesterRepository interface {
	List(ctx context.Context, filter models.PageFilter) ([]models.Semester, int, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semesterID string, name *string, status *models.RecordStatus) error
}

// CatalogEntryRequest creates a department or semester.
type CatalogEntryRequest struct {
	ID   string `json:"id" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=255"`
}

// CatalogPatchRequest renames or retires a catalog entry.
type CatalogPatchRequest struct {
	Name   *string              `json:"name" validate:"omitempty,max=255"`
	Status *models.RecordStatus `json:"status" validate:"omitempty,oneof=C D"`
}

// CatalogService manages the department and semester reference data.
type CatalogService struct {
	departments departmentRepository
	semesters   semesterRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(departments departmentRepository, semesters semesterRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{departments: departments, semesters: semesters, validator: validate, logger: logger}
}

// ListDepartments returns active departments.
func (s *CatalogService) ListDepartments(ctx context.Context, filter models.PageFilter) ([]models.Department, *models.Pagination, error) {
	departments, total, err := s.departments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, paginationFor(filter, total), nil
}

// CreateDepartment registers a department.
func (s *CatalogService) CreateDepartment(ctx context.Context, req CatalogEntryRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	department := &models.Department{DepartmentID: req.ID, Name: req.Name}
	if err := s.departments.Create(ctx, department); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return department, nil
}

// UpdateDepartment renames or retires a department.
func (s *CatalogService) UpdateDepartment(ctx context.Context, departmentID string, req CatalogPatchRequest) error {
	if departmentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "department id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	if err := s.departments.Update(ctx, departmentID, req.Name, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return nil
}

// ListSemesters returns active semesters.
func (s *CatalogService) ListSemesters(ctx context.Context, filter models.PageFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.semesters.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, paginationFor(filter, total), nil
}

// CreateSemester registers an academic term.
func (s *CatalogService) CreateSemester(ctx context.Context, req CatalogEntryRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	semester := &models.Semester{SemesterID: req.ID, Name: req.Name}
	if err := s.semesters.Create(ctx, semester); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "semester already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// UpdateSemester renames or retires a semester.
func (s *CatalogService) UpdateSemester(ctx context.Context, semesterID string, req CatalogPatchRequest) error {
	if semesterID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "semester id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if err := s.semesters.Update(ctx, semesterID, req.Name, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	return nil
}
