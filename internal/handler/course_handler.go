package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/service"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/response"
)

// CourseHandler exposes the course catalog endpoints.
type CourseHandler struct {
	courses *service.CourseService
	exports *service.ExportService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, exports *service.ExportService) *CourseHandler {
	return &CourseHandler{courses: courses, exports: exports}
}

// List godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Param search query string false "Name filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = c.Query("search")
	filter.PageFilter = pageFilterFromQuery(c)

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Search godoc
// @Summary Search courses with review aggregates
// @Tags Courses
// @Produce json
// @Param search query string false "Course or instructor name"
// @Param sort query string false "latest | reviews | rating"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses/search [get]
func (h *CourseHandler) Search(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = c.Query("search")
	filter.Sort = c.Query("sort")
	filter.PageFilter = pageFilterFromQuery(c)

	rows, pagination, err := h.courses.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Detail godoc
// @Summary Course page with offerings and review stats
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Detail(c *gin.Context) {
	detail, err := h.courses.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Patch a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Patch payload"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.courses.Update(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LinkInstructor godoc
// @Summary Attach an instructor to a course offering
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.LinkInstructorRequest true "Link payload"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id}/instructors [post]
func (h *CourseHandler) LinkInstructor(c *gin.Context) {
	var req service.LinkInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.courses.LinkInstructor(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportReviews godoc
// @Summary Export a course's reviews as CSV or PDF
// @Tags Courses
// @Produce octet-stream
// @Param id path string true "Course ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /courses/{id}/reviews/export [get]
func (h *CourseHandler) ExportReviews(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.exports.CourseReviews(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
