package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unieval/course-review-api/internal/middleware"
	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	"github.com/unieval/course-review-api/internal/service"
	"github.com/unieval/course-review-api/pkg/response"
)

type reviewRepoStub struct {
	createErr error
	exists    bool
	created   []repository.CreateReviewParams
}

func (s *reviewRepoStub) Create(ctx context.Context, params repository.CreateReviewParams) (*repository.CreateReviewResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, params)
	return &repository.CreateReviewResult{ReviewID: "7321779921283186689", LinkedInstructors: 1, InvalidInstructors: []string{}}, nil
}

func (s *reviewRepoStub) Exists(ctx context.Context, userID, courseID, semesterID string) (bool, error) {
	return s.exists, nil
}

func (s *reviewRepoStub) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error) {
	return []models.Review{}, 0, nil
}

func (s *reviewRepoStub) SoftDelete(ctx context.Context, reviewID string) error {
	return nil
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"courseId":       "CS101",
		"semesterId":     "2025sem1",
		"contentRating":  8,
		"teachingRating": 9,
		"gradingRating":  7,
		"workloadRating": 6,
		"comment":        "solid course",
		"instructorIds":  []string{"1001"},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func studentContext(w *httptest.ResponseRecorder, req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u123", Role: models.RoleStudent})
	return c
}

func TestReviewHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reviewRepoStub{}
	handler := NewReviewHandler(service.NewReviewService(repo, nil, nil), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews", submitBody(t))
	req.Header.Set("Content-Type", "application/json")

	handler.Submit(studentContext(w, req))
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "7321779921283186689", data["reviewId"])

	require.Len(t, repo.created, 1)
	assert.Equal(t, "u123", repo.created[0].UserID)
}

func TestReviewHandlerSubmitDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reviewRepoStub{createErr: repository.ErrDuplicateReview}
	handler := NewReviewHandler(service.NewReviewService(repo, nil, nil), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews", submitBody(t))
	req.Header.Set("Content-Type", "application/json")

	handler.Submit(studentContext(w, req))
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE_REVIEW", envelope.Error.Code)
}

func TestReviewHandlerSubmitWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reviewRepoStub{}
	handler := NewReviewHandler(service.NewReviewService(repo, nil, nil), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reviews", submitBody(t))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.created)
}

func TestReviewHandlerSubmitMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reviewRepoStub{}
	handler := NewReviewHandler(service.NewReviewService(repo, nil, nil), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/reviews", bytes.NewBufferString(`{"courseId":`))
	req.Header.Set("Content-Type", "application/json")

	handler.Submit(studentContext(w, req))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.created)
}

func TestReviewHandlerCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reviewRepoStub{exists: true}
	handler := NewReviewHandler(service.NewReviewService(repo, nil, nil), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/reviews/check?courseId=CS101&semesterId=2025sem1", nil)

	handler.Check(studentContext(w, req))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, true, data["reviewed"])
}

func TestReviewHandlerListHidesAuthorFilterFromStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reviewRepoStub{}
	handler := NewReviewHandler(service.NewReviewService(repo, nil, nil), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/reviews?userId=other", nil)

	handler.List(studentContext(w, req))
	require.Equal(t, http.StatusForbidden, w.Code)
}
