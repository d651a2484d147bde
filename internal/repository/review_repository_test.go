package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unieval/course-review-api/internal/models"
)

type stubIDs struct {
	id string
}

func (s stubIDs) NextID() string { return s.id }

func newReviewRepoMock(t *testing.T) (*ReviewRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewReviewRepository(sqlx.NewDb(db, "sqlmock"), stubIDs{id: "7321779921283186689"})
	return repo, mock, func() { db.Close() }
}

func submission() CreateReviewParams {
	return CreateReviewParams{
		UserID:         "s1",
		CourseID:       "COMP101",
		SemesterID:     "2024sem1",
		ContentRating:  8,
		TeachingRating: 7,
		GradingRating:  6,
		WorkloadRating: 9,
		Comment:        "Solid course, clear assignments.",
	}
}

func TestReviewRepositoryCreatePersistsReviewAndComment(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings (course_id, semester_id) VALUES ($1, $2) ON CONFLICT (course_id, semester_id) DO NOTHING")).
		WithArgs("COMP101", "2024sem1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT review_id FROM reviews WHERE user_id = $1 AND course_id = $2 AND semester_id = $3 AND status = $4 LIMIT 1")).
		WithArgs("s1", "COMP101", "2024sem1", models.StatusActive).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_comments (review_id, comment) VALUES ($1, $2)")).
		WithArgs("7321779921283186689", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Create(context.Background(), submission())
	require.NoError(t, err)
	assert.Equal(t, "7321779921283186689", result.ReviewID)
	assert.Equal(t, 0, result.LinkedInstructors)
	assert.Empty(t, result.InvalidInstructors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateReportsInvalidInstructorsWithoutFailing(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	params := submission()
	params.InstructorIDs = []string{"1001", "999999"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT review_id FROM reviews")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_comments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM instructors WHERE instructor_id = $1 AND status = $2")).
		WithArgs("1001", models.StatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offering_instructors (course_id, semester_id, instructor_id) VALUES ($1, $2, $3) ON CONFLICT (course_id, semester_id, instructor_id) DO NOTHING")).
		WithArgs("COMP101", "2024sem1", "1001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM instructors WHERE instructor_id = $1 AND status = $2")).
		WithArgs("999999", models.StatusActive).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	result, err := repo.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LinkedInstructors)
	assert.Equal(t, []string{"999999"}, result.InvalidInstructors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateRejectsDuplicateOnPreCheck(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT review_id FROM reviews")).
		WillReturnRows(sqlmock.NewRows([]string{"review_id"}).AddRow("7321779921283186001"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), submission())
	require.ErrorIs(t, err, ErrDuplicateReview)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateMapsUniqueViolationToDuplicate(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	// Two submissions racing past the pre-check: the partial unique index
	// fires at insert time and must surface as a duplicate, not a 500.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT review_id FROM reviews")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_reviews_active"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), submission())
	require.ErrorIs(t, err, ErrDuplicateReview)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateMapsMissingCourseToUnknownOffering(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_offerings")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "fk_offerings_course"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), submission())
	require.ErrorIs(t, err, ErrUnknownOffering)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryExists(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM reviews WHERE user_id = $1 AND course_id = $2 AND semester_id = $3 AND status = $4 LIMIT 1")).
		WithArgs("s1", "COMP101", "2024sem1", models.StatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "s1", "COMP101", "2024sem1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM reviews")).
		WillReturnError(sql.ErrNoRows)
	exists, err = repo.Exists(context.Background(), "s2", "COMP101", "2024sem1")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositorySoftDeleteIsTerminal(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reviews SET status = $1 WHERE review_id = $2 AND status = $3")).
		WithArgs(models.StatusDeleted, "7321779921283186689", models.StatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), "7321779921283186689"))

	// Second attempt matches no active row and reports not found.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reviews SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SoftDelete(context.Background(), "7321779921283186689")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
