package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type mockReviewRepo struct {
	created   []repository.CreateReviewParams
	createErr error
	result    *repository.CreateReviewResult
	exists    bool
	deleted   []string
	deleteErr error
}

func (m *mockReviewRepo) Create(ctx context.Context, params repository.CreateReviewParams) (*repository.CreateReviewResult, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, params)
	if m.result != nil {
		return m.result, nil
	}
	return &repository.CreateReviewResult{ReviewID: "7321779921283186689", InvalidInstructors: []string{}}, nil
}

func (m *mockReviewRepo) Exists(ctx context.Context, userID, courseID, semesterID string) (bool, error) {
	return m.exists, nil
}

func (m *mockReviewRepo) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error) {
	return []models.Review{}, 0, nil
}

func (m *mockReviewRepo) SoftDelete(ctx context.Context, reviewID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, reviewID)
	return nil
}

func intPtr(v int) *int { return &v }

func validSubmitRequest() SubmitReviewRequest {
	return SubmitReviewRequest{
		CourseID:       "CS101",
		SemesterID:     "2025sem1",
		ContentRating:  intPtr(8),
		TeachingRating: intPtr(9),
		GradingRating:  intPtr(7),
		WorkloadRating: intPtr(0),
		Comment:        "great course",
		InstructorIDs:  []string{"1001"},
	}
}

func TestSubmitReviewSuccess(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewReviewService(repo, nil, nil)

	result, err := svc.Submit(context.Background(), "u123", validSubmitRequest())
	require.NoError(t, err)
	assert.Equal(t, "7321779921283186689", result.ReviewID)

	require.Len(t, repo.created, 1)
	params := repo.created[0]
	assert.Equal(t, "u123", params.UserID)
	assert.Equal(t, 0, params.WorkloadRating)
	assert.Equal(t, []string{"1001"}, params.InstructorIDs)
}

func TestSubmitReviewRequiresAuthenticatedUser(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewReviewService(repo, nil, nil)

	_, err := svc.Submit(context.Background(), "", validSubmitRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized, err)
	assert.Empty(t, repo.created)
}

func TestSubmitReviewValidatesBeforePersisting(t *testing.T) {
	cases := map[string]func(*SubmitReviewRequest){
		"missing course":       func(r *SubmitReviewRequest) { r.CourseID = "" },
		"missing semester":     func(r *SubmitReviewRequest) { r.SemesterID = "" },
		"missing rating":       func(r *SubmitReviewRequest) { r.ContentRating = nil },
		"rating above maximum": func(r *SubmitReviewRequest) { r.TeachingRating = intPtr(11) },
		"rating below minimum": func(r *SubmitReviewRequest) { r.GradingRating = intPtr(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &mockReviewRepo{}
			svc := NewReviewService(repo, nil, nil)

			req := validSubmitRequest()
			mutate(&req)
			_, err := svc.Submit(context.Background(), "u123", req)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestSubmitReviewAcceptsZeroRatings(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewReviewService(repo, nil, nil)

	req := validSubmitRequest()
	req.ContentRating = intPtr(0)
	req.TeachingRating = intPtr(0)
	req.GradingRating = intPtr(0)
	req.WorkloadRating = intPtr(0)

	_, err := svc.Submit(context.Background(), "u123", req)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, 0, repo.created[0].ContentRating)
}

func TestSubmitReviewMapsDuplicate(t *testing.T) {
	repo := &mockReviewRepo{createErr: repository.ErrDuplicateReview}
	svc := NewReviewService(repo, nil, nil)

	_, err := svc.Submit(context.Background(), "u123", validSubmitRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateReview, err)
}

func TestSubmitReviewMapsUnknownOffering(t *testing.T) {
	repo := &mockReviewRepo{createErr: repository.ErrUnknownOffering}
	svc := NewReviewService(repo, nil, nil)

	_, err := svc.Submit(context.Background(), "u123", validSubmitRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSubmitReviewReportsInvalidInstructors(t *testing.T) {
	repo := &mockReviewRepo{result: &repository.CreateReviewResult{
		ReviewID:           "7321779921283186690",
		LinkedInstructors:  1,
		InvalidInstructors: []string{"999999"},
	}}
	svc := NewReviewService(repo, nil, nil)

	result, err := svc.Submit(context.Background(), "u123", validSubmitRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, result.LinkedInstructors)
	assert.Equal(t, []string{"999999"}, result.InvalidInstructors)
}

func TestCheckReviewRequiresOffering(t *testing.T) {
	svc := NewReviewService(&mockReviewRepo{}, nil, nil)

	_, err := svc.Check(context.Background(), "u123", "", "2025sem1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCheckReviewReportsExisting(t *testing.T) {
	svc := NewReviewService(&mockReviewRepo{exists: true}, nil, nil)

	exists, err := svc.Check(context.Background(), "u123", "CS101", "2025sem1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAdminDeleteMapsMissingReview(t *testing.T) {
	repo := &mockReviewRepo{deleteErr: sql.ErrNoRows}
	svc := NewReviewService(repo, nil, nil)

	err := svc.AdminDelete(context.Background(), "7321779921283186689")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAdminDeleteSoftDeletes(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := NewReviewService(repo, nil, nil)

	require.NoError(t, svc.AdminDelete(context.Background(), "7321779921283186689"))
	assert.Equal(t, []string{"7321779921283186689"}, repo.deleted)
}
