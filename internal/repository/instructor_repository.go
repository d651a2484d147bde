package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unieval/course-review-api/internal/models"
)

// InstructorRepository handles persistence of instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns active instructors, optionally matching a name/email search.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	clause := " WHERE status = $1"
	args := []interface{}{models.StatusActive}

	if filter.Search != "" {
		clause += " AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)"
		args = append(args, "%"+filter.Search+"%")
	}

	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT instructor_id, first_name, last_name, email, department_id, status
FROM instructors%s ORDER BY instructor_id ASC LIMIT %d OFFSET %d`, clause, limit, offset)

	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM instructors"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}
	return instructors, total, nil
}

// FindActive returns an active instructor by id.
func (r *InstructorRepository) FindActive(ctx context.Context, instructorID string) (*models.Instructor, error) {
	const query = `SELECT instructor_id, first_name, last_name, email, department_id, status
FROM instructors WHERE instructor_id = $1 AND status = $2`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, instructorID, models.StatusActive); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Create persists a new instructor.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	const query = `INSERT INTO instructors (instructor_id, first_name, last_name, email, department_id, status)
VALUES (:instructor_id, :first_name, :last_name, :email, :department_id, :status)`
	instructor.Status = models.StatusActive
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// UpdateInstructorParams is a partial instructor update.
type UpdateInstructorParams struct {
	FirstName    *string
	LastName     *string
	Email        *string
	DepartmentID *string
	Status       *models.RecordStatus
}

// Update patches an instructor; sql.ErrNoRows when absent.
func (r *InstructorRepository) Update(ctx context.Context, instructorID string, params UpdateInstructorParams) error {
	const query = `UPDATE instructors SET
first_name = COALESCE($2, first_name),
last_name = COALESCE($3, last_name),
email = COALESCE($4, email),
department_id = COALESCE($5, department_id),
status = COALESCE($6, status)
WHERE instructor_id = $1`
	res, err := r.db.ExecContext(ctx, query, instructorID, params.FirstName, params.LastName, params.Email, params.DepartmentID, params.Status)
	if err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update instructor result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete flips an active instructor to deleted.
func (r *InstructorRepository) SoftDelete(ctx context.Context, instructorID string) error {
	const query = `UPDATE instructors SET status = $1 WHERE instructor_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, models.StatusDeleted, instructorID, models.StatusActive)
	if err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete instructor result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
