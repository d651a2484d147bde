package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unieval/course-review-api/internal/models"
)

// DepartmentRepository handles persistence of departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns active departments.
func (r *DepartmentRepository) List(ctx context.Context, filter models.PageFilter) ([]models.Department, int, error) {
	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT department_id, name, status FROM departments
WHERE status = $1 ORDER BY department_id ASC LIMIT %d OFFSET %d`, limit, offset)

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, models.StatusActive); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM departments WHERE status = $1", models.StatusActive); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	return departments, total, nil
}

// Create persists a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	department.Status = models.StatusActive
	const query = `INSERT INTO departments (department_id, name, status) VALUES (:department_id, :name, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update patches a department's name and/or status.
func (r *DepartmentRepository) Update(ctx context.Context, departmentID string, name *string, status *models.RecordStatus) error {
	const query = `UPDATE departments SET name = COALESCE($2, name), status = COALESCE($3, status)
WHERE department_id = $1`
	res, err := r.db.ExecContext(ctx, query, departmentID, name, status)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update department result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SemesterRepository handles persistence of semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns active semesters, newest first.
func (r *SemesterRepository) List(ctx context.Context, filter models.PageFilter) ([]models.Semester, int, error) {
	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT semester_id, name, status FROM semesters
WHERE status = $1 ORDER BY semester_id DESC LIMIT %d OFFSET %d`, limit, offset)

	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, models.StatusActive); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM semesters WHERE status = $1", models.StatusActive); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// Create persists a new semester.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	semester.Status = models.StatusActive
	const query = `INSERT INTO semesters (semester_id, name, status) VALUES (:semester_id, :name, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Update patches a semester's name and/or status.
func (r *SemesterRepository) Update(ctx context.Context, semesterID string, name *string, status *models.RecordStatus) error {
	const query = `UPDATE semesters SET name = COALESCE($2, name), status = COALESCE($3, status)
WHERE semester_id = $1`
	res, err := r.db.ExecContext(ctx, query, semesterID, name, status)
	if err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update semester result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
