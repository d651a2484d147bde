package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/unieval/course-review-api/internal/models"
)

// CourseRepository handles persistence of courses, their descriptions and
// offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns active courses with descriptions, optionally filtered by a
// course id / name search.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses c LEFT JOIN course_descriptions cd ON cd.course_id = c.course_id`
	clause := " WHERE c.status = $1"
	args := []interface{}{models.StatusActive}

	if filter.Search != "" {
		clause += " AND (c.course_id ILIKE $2 OR c.name ILIKE $2)"
		args = append(args, "%"+filter.Search+"%")
	}

	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT c.course_id, c.department_id, c.name, c.credits, c.status, cd.description
%s ORDER BY c.course_id ASC LIMIT %d OFFSET %d`, base+clause, limit, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Search returns active courses ranked by review activity. The query term
// matches course ids, names or any active instructor teaching an offering of
// the course; sort is one of latest, reviews, rating.
func (r *CourseRepository) Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseSearchRow, int, error) {
	clause := " WHERE c.status = $1"
	args := []interface{}{models.StatusActive}

	if filter.Search != "" {
		clause += ` AND (c.course_id ILIKE $2 OR c.name ILIKE $2 OR EXISTS (
SELECT 1 FROM course_offering_instructors coi
JOIN instructors i ON i.instructor_id = coi.instructor_id
WHERE coi.course_id = c.course_id AND i.status = $1
AND (i.first_name ILIKE $2 OR i.last_name ILIKE $2 OR i.email ILIKE $2)))`
		args = append(args, "%"+filter.Search+"%")
	}

	orderBy := "ORDER BY latest_review_at DESC NULLS LAST"
	switch strings.ToLower(filter.Sort) {
	case "reviews":
		orderBy = "ORDER BY review_count DESC"
	case "rating":
		orderBy = "ORDER BY avg_total DESC"
	}

	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT c.course_id, c.name, c.department_id, cd.description,
COALESCE(ROUND(AVG(r.content_rating)::numeric, 2), 0) AS avg_content,
COALESCE(ROUND(AVG(r.teaching_rating)::numeric, 2), 0) AS avg_teaching,
COALESCE(ROUND(AVG(r.grading_rating)::numeric, 2), 0) AS avg_grading,
COALESCE(ROUND(AVG(r.workload_rating)::numeric, 2), 0) AS avg_workload,
COALESCE(ROUND((AVG(r.content_rating) + AVG(r.teaching_rating) + AVG(r.grading_rating) + AVG(r.workload_rating))::numeric / 4, 2), 0) AS avg_total,
COUNT(r.review_id) AS review_count,
MAX(r.created_at) AS latest_review_at
FROM courses c
LEFT JOIN course_descriptions cd ON cd.course_id = c.course_id
LEFT JOIN reviews r ON r.course_id = c.course_id AND r.status = $1
%s
GROUP BY c.course_id, c.name, c.department_id, cd.description
%s LIMIT %d OFFSET %d`, clause, orderBy, limit, offset)

	var rows []models.CourseSearchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM courses c" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course search: %w", err)
	}
	return rows, total, nil
}

// FindByID returns a course with its department name and description,
// regardless of status.
func (r *CourseRepository) FindByID(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	const query = `SELECT c.course_id, c.department_id, d.name AS department_name, c.name, c.credits, c.status, cd.description
FROM courses c
JOIN departments d ON d.department_id = c.department_id
LEFT JOIN course_descriptions cd ON cd.course_id = c.course_id
WHERE c.course_id = $1`
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, courseID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Offerings lists (offering, instructor) rows for a course, newest semester
// first.
func (r *CourseRepository) Offerings(ctx context.Context, courseID string) ([]models.OfferingRow, error) {
	const query = `SELECT co.course_id, co.semester_id, s.name AS semester_name,
coi.instructor_id, i.first_name, i.last_name, i.email
FROM course_offerings co
JOIN semesters s ON s.semester_id = co.semester_id
LEFT JOIN course_offering_instructors coi ON coi.course_id = co.course_id AND coi.semester_id = co.semester_id
LEFT JOIN instructors i ON i.instructor_id = coi.instructor_id
WHERE co.course_id = $1
ORDER BY s.semester_id DESC, i.last_name ASC, i.first_name ASC`
	var offerings []models.OfferingRow
	if err := r.db.SelectContext(ctx, &offerings, query, courseID); err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	return offerings, nil
}

// Create persists a course and its description in one transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course create: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const insertCourse = `INSERT INTO courses (course_id, department_id, name, credits, status)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insertCourse, course.CourseID, course.DepartmentID, course.Name, course.Credits, models.StatusActive); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert course: %w", err)
	}

	desc := sql.NullString{}
	if course.Description != nil && strings.TrimSpace(*course.Description) != "" {
		desc = sql.NullString{String: *course.Description, Valid: true}
	}
	const insertDesc = `INSERT INTO course_descriptions (course_id, description) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insertDesc, course.CourseID, desc); err != nil {
		return fmt.Errorf("insert course description: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course create: %w", err)
	}
	committed = true
	return nil
}

// UpdateCourseParams is a partial course update; nil fields are untouched.
type UpdateCourseParams struct {
	DepartmentID *string
	Name         *string
	Credits      *int
	Status       *models.RecordStatus
	Description  *string
}

// Update patches a course and upserts its description in one transaction.
// Returns sql.ErrNoRows when the course does not exist.
func (r *CourseRepository) Update(ctx context.Context, courseID string, params UpdateCourseParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const update = `UPDATE courses SET
department_id = COALESCE($2, department_id),
name = COALESCE($3, name),
credits = COALESCE($4, credits),
status = COALESCE($5, status)
WHERE course_id = $1`
	res, err := tx.ExecContext(ctx, update, courseID, params.DepartmentID, params.Name, params.Credits, params.Status)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if params.Description != nil {
		const upsertDesc = `INSERT INTO course_descriptions (course_id, description) VALUES ($1, $2)
ON CONFLICT (course_id) DO UPDATE SET description = EXCLUDED.description`
		if _, err := tx.ExecContext(ctx, upsertDesc, courseID, *params.Description); err != nil {
			return fmt.Errorf("upsert course description: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course update: %w", err)
	}
	committed = true
	return nil
}

// SoftDelete flips an active course to deleted; sql.ErrNoRows when no active
// row matched.
func (r *CourseRepository) SoftDelete(ctx context.Context, courseID string) error {
	const query = `UPDATE courses SET status = $1 WHERE course_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, models.StatusDeleted, courseID, models.StatusActive)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LinkInstructor attaches an instructor to a (course, semester) offering,
// creating the offering when absent. Duplicate links are no-ops.
func (r *CourseRepository) LinkInstructor(ctx context.Context, courseID, semesterID, instructorID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin instructor link: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const upsertOffering = `INSERT INTO course_offerings (course_id, semester_id)
VALUES ($1, $2)
ON CONFLICT (course_id, semester_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, upsertOffering, courseID, semesterID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownOffering
		}
		return fmt.Errorf("upsert course offering: %w", err)
	}

	const link = `INSERT INTO course_offering_instructors (course_id, semester_id, instructor_id)
VALUES ($1, $2, $3)
ON CONFLICT (course_id, semester_id, instructor_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, link, courseID, semesterID, instructorID); err != nil {
		if isForeignKeyViolation(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("link instructor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit instructor link: %w", err)
	}
	committed = true
	return nil
}

// ErrAlreadyExists reports a unique-key conflict on catalog creation.
var ErrAlreadyExists = errors.New("record already exists")
