package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unieval/course-review-api/internal/middleware"
	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/service"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/response"
)

// ReviewHandler exposes review submission and moderation endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	courses *service.CourseService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, courses *service.CourseService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, courses: courses}
}

// Submit godoc
// @Summary Submit a course review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body service.SubmitReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /reviews [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.reviews.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.courses != nil {
		h.courses.InvalidateStats(c.Request.Context(), req.CourseID)
	}
	response.Created(c, result)
}

// Check godoc
// @Summary Check whether the caller already reviewed an offering
// @Tags Reviews
// @Produce json
// @Param courseId query string true "Course ID"
// @Param semesterId query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reviews/check [get]
func (h *ReviewHandler) Check(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	exists, err := h.reviews.Check(c.Request.Context(), claims.UserID, c.Query("courseId"), c.Query("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reviewed": exists}, nil)
}

// List godoc
// @Summary List reviews
// @Tags Reviews
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param userId query string false "Filter by author (admin only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	var filter models.ReviewFilter
	filter.CourseID = c.Query("courseId")
	filter.PageFilter = pageFilterFromQuery(c)

	// Filtering by author exposes identities; admins only.
	if userID := c.Query("userId"); userID != "" {
		claims := middleware.CurrentUser(c)
		if claims == nil || !claims.IsAdmin() {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		filter.UserID = userID
	}

	reviews, pagination, err := h.reviews.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, pagination)
}

// Delete godoc
// @Summary Delete a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 204
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.reviews.AdminDelete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pageFilterFromQuery(c *gin.Context) models.PageFilter {
	var filter models.PageFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.PageSize = size
	}
	return filter
}
