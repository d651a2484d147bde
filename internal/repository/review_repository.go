package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unieval/course-review-api/internal/models"
)

// Sentinel errors surfaced by the review write path. The service layer maps
// them onto API error categories.
var (
	// ErrDuplicateReview reports that an active review already exists for
	// the (user, course, semester) triple.
	ErrDuplicateReview = errors.New("active review already exists for offering")
	// ErrUnknownOffering reports that the offering upsert hit a missing
	// course or semester.
	ErrUnknownOffering = errors.New("course or semester does not exist")
)

// IDAllocator mints identifiers for new rows.
type IDAllocator interface {
	NextID() string
}

// ReviewRepository owns review persistence, including the transactional
// submission path.
type ReviewRepository struct {
	db  *sqlx.DB
	ids IDAllocator
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB, ids IDAllocator) *ReviewRepository {
	return &ReviewRepository{db: db, ids: ids}
}

// CreateReviewParams is a validated review submission.
type CreateReviewParams struct {
	UserID         string
	CourseID       string
	SemesterID     string
	ContentRating  int
	TeachingRating int
	GradingRating  int
	WorkloadRating int
	Comment        string
	InstructorIDs  []string
}

// CreateReviewResult reports the outcome of a successful submission.
type CreateReviewResult struct {
	ReviewID           string   `json:"reviewId"`
	LinkedInstructors  int      `json:"linkedInstructors"`
	InvalidInstructors []string `json:"invalidInstructors"`
}

// Create runs the review submission as one transaction: it materializes the
// course offering, rejects duplicate active reviews, mints a review id,
// persists the review with its comment and links the resolvable instructors.
// Instructor ids that do not resolve to an active instructor are skipped and
// reported, not treated as failures.
//
// The pre-insert duplicate check is a fast path only; the authoritative
// guard is the partial unique index on active (user_id, course_id,
// semester_id) rows, whose violation is mapped to ErrDuplicateReview even
// when two submissions race past the check.
func (r *ReviewRepository) Create(ctx context.Context, params CreateReviewParams) (*CreateReviewResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review submission: %w", err)
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
	if _, err := tx.ExecContext(ctx, upsertOffering, params.CourseID, params.SemesterID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownOffering
		}
		return nil, fmt.Errorf("upsert course offering: %w", err)
	}

	const dupCheck = `SELECT review_id FROM reviews
WHERE user_id = $1 AND course_id = $2 AND semester_id = $3 AND status = $4
LIMIT 1`
	var existing string
	err = tx.GetContext(ctx, &existing, dupCheck, params.UserID, params.CourseID, params.SemesterID, models.StatusActive)
	if err == nil {
		return nil, ErrDuplicateReview
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	reviewID := r.ids.NextID()

	const insertReview = `INSERT INTO reviews
(review_id, user_id, course_id, semester_id, content_rating, teaching_rating, grading_rating, workload_rating, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.ExecContext(ctx, insertReview,
		reviewID, params.UserID, params.CourseID, params.SemesterID,
		params.ContentRating, params.TeachingRating, params.GradingRating, params.WorkloadRating,
		models.StatusActive, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	comment := sql.NullString{}
	if trimmed := strings.TrimSpace(params.Comment); trimmed != "" {
		comment = sql.NullString{String: trimmed, Valid: true}
	}
	const insertComment = `INSERT INTO review_comments (review_id, comment) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insertComment, reviewID, comment); err != nil {
		return nil, fmt.Errorf("insert review comment: %w", err)
	}

	result := &CreateReviewResult{ReviewID: reviewID, InvalidInstructors: []string{}}

	const resolveInstructor = `SELECT 1 FROM instructors WHERE instructor_id = $1 AND status = $2`
	const linkInstructor = `INSERT INTO course_offering_instructors (course_id, semester_id, instructor_id)
VALUES ($1, $2, $3)
ON CONFLICT (course_id, semester_id, instructor_id) DO NOTHING`
	for _, instructorID := range params.InstructorIDs {
		var one int
		err := tx.GetContext(ctx, &one, resolveInstructor, instructorID, models.StatusActive)
		if errors.Is(err, sql.ErrNoRows) {
			result.InvalidInstructors = append(result.InvalidInstructors, instructorID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve instructor %s: %w", instructorID, err)
		}
		if _, err := tx.ExecContext(ctx, linkInstructor, params.CourseID, params.SemesterID, instructorID); err != nil {
			return nil, fmt.Errorf("link instructor %s: %w", instructorID, err)
		}
		result.LinkedInstructors++
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("commit review submission: %w", err)
	}
	committed = true

	return result, nil
}

// Exists reports whether the user has an active review for the offering.
func (r *ReviewRepository) Exists(ctx context.Context, userID, courseID, semesterID string) (bool, error) {
	const query = `SELECT 1 FROM reviews
WHERE user_id = $1 AND course_id = $2 AND semester_id = $3 AND status = $4
LIMIT 1`
	var one int
	err := r.db.GetContext(ctx, &one, query, userID, courseID, semesterID, models.StatusActive)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check review existence: %w", err)
	}
	return true, nil
}

// List returns active reviews (newest first) with comments, optionally
// filtered by course or author.
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error) {
	base := `FROM reviews r LEFT JOIN review_comments rc ON rc.review_id = r.review_id`
	conditions := []string{"r.status = $1"}
	args := []interface{}{models.StatusActive}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("r.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	limit, offset := filter.NormalizePage()
	query := fmt.Sprintf(`SELECT r.review_id, r.user_id, r.course_id, r.semester_id,
r.content_rating, r.teaching_rating, r.grading_rating, r.workload_rating, r.status, r.created_at, rc.comment
%s ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, base+clause, limit, offset)

	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	return reviews, total, nil
}

// AveragesByCourse aggregates active review ratings for one course.
func (r *ReviewRepository) AveragesByCourse(ctx context.Context, courseID string) (*models.RatingAverages, error) {
	const query = `SELECT
COALESCE(ROUND(AVG(content_rating)::numeric, 2), 0) AS content_rating,
COALESCE(ROUND(AVG(teaching_rating)::numeric, 2), 0) AS teaching_rating,
COALESCE(ROUND(AVG(grading_rating)::numeric, 2), 0) AS grading_rating,
COALESCE(ROUND(AVG(workload_rating)::numeric, 2), 0) AS workload_rating,
COUNT(*) AS count
FROM reviews WHERE course_id = $1 AND status = $2`
	var avg models.RatingAverages
	if err := r.db.GetContext(ctx, &avg, query, courseID, models.StatusActive); err != nil {
		return nil, fmt.Errorf("aggregate course ratings: %w", err)
	}
	return &avg, nil
}

// SoftDelete flips an active review to deleted. Deleting a missing or
// already-deleted review returns sql.ErrNoRows; the transition is terminal.
func (r *ReviewRepository) SoftDelete(ctx context.Context, reviewID string) error {
	const query = `UPDATE reviews SET status = $1 WHERE review_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, models.StatusDeleted, reviewID, models.StatusActive)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
