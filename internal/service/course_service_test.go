package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]models.CourseDetail
	linked  [][3]string
	linkErr error
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, c.Course)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseSearchRow, int, error) {
	return []models.CourseSearchRow{}, 0, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, courseID string) (*models.CourseDetail, error) {
	if c, ok := m.courses[courseID]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Offerings(ctx context.Context, courseID string) ([]models.OfferingRow, error) {
	return []models.OfferingRow{{CourseID: courseID, SemesterID: "2025sem1", SemesterName: "Spring 2025"}}, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.CourseID]; ok {
		return repository.ErrAlreadyExists
	}
	if m.courses == nil {
		m.courses = map[string]models.CourseDetail{}
	}
	m.courses[course.CourseID] = models.CourseDetail{Course: *course}
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, courseID string, params repository.UpdateCourseParams) error {
	if _, ok := m.courses[courseID]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockCourseRepo) SoftDelete(ctx context.Context, courseID string) error {
	if _, ok := m.courses[courseID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.courses, courseID)
	return nil
}

func (m *mockCourseRepo) LinkInstructor(ctx context.Context, courseID, semesterID, instructorID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.linked = append(m.linked, [3]string{courseID, semesterID, instructorID})
	return nil
}

type mockStatsReader struct {
	stats models.RatingAverages
	calls int
}

func (m *mockStatsReader) AveragesByCourse(ctx context.Context, courseID string) (*models.RatingAverages, error) {
	m.calls++
	clone := m.stats
	return &clone, nil
}

func courseFixture(courseID string) models.CourseDetail {
	return models.CourseDetail{
		Course: models.Course{
			CourseID:     courseID,
			DepartmentID: "CS",
			Name:         "Operating Systems",
			Credits:      3,
			Status:       models.StatusActive,
		},
		DepartmentName: "Computer Science",
	}
}

func TestCourseDetailAssemblesOfferingsAndStats(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.CourseDetail{"CS101": courseFixture("CS101")}}
	stats := &mockStatsReader{stats: models.RatingAverages{ContentRating: 8.5, Count: 12}}
	svc := NewCourseService(repo, stats, nil, time.Minute, nil, nil)

	detail, err := svc.Detail(context.Background(), "CS101")
	require.NoError(t, err)
	require.Len(t, detail.Offerings, 1)
	require.NotNil(t, detail.Stats)
	assert.Equal(t, 12, detail.Stats.Count)
	assert.Equal(t, "Computer Science", detail.DepartmentName)
}

func TestCourseDetailNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, &mockStatsReader{}, nil, time.Minute, nil, nil)

	_, err := svc.Detail(context.Background(), "NOPE")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseStatsAreCached(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.CourseDetail{"CS101": courseFixture("CS101")}}
	stats := &mockStatsReader{stats: models.RatingAverages{Count: 3}}
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	svc := NewCourseService(repo, stats, cache, time.Minute, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Stats(context.Background(), "CS101")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stats.calls)

	svc.InvalidateStats(context.Background(), "CS101")
	_, err := svc.Stats(context.Background(), "CS101")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.calls)
}

func TestSearchRejectsUnknownSort(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, &mockStatsReader{}, nil, time.Minute, nil, nil)

	_, _, err := svc.Search(context.Background(), models.CourseFilter{Sort: "alphabetical"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateCourseConflict(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.CourseDetail{"CS101": courseFixture("CS101")}}
	svc := NewCourseService(repo, &mockStatsReader{}, nil, time.Minute, nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseID:     "CS101",
		DepartmentID: "CS",
		Name:         "Operating Systems",
		Credits:      3,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestLinkInstructorMapsMissingTarget(t *testing.T) {
	repo := &mockCourseRepo{linkErr: sql.ErrNoRows}
	svc := NewCourseService(repo, &mockStatsReader{}, nil, time.Minute, nil, nil)

	err := svc.LinkInstructor(context.Background(), "CS101", LinkInstructorRequest{SemesterID: "2025sem1", InstructorID: "1001"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
