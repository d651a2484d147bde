package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/service"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/response"
)

// InstructorHandler exposes instructor roster endpoints.
type InstructorHandler struct {
	instructors *service.InstructorService
}

// NewInstructorHandler constructs InstructorHandler.
func NewInstructorHandler(instructors *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors}
}

// List godoc
// @Summary List instructors
// @Tags Instructors
// @Produce json
// @Param search query string false "Name filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *InstructorHandler) List(c *gin.Context) {
	var filter models.InstructorFilter
	filter.Search = c.Query("search")
	filter.PageFilter = pageFilterFromQuery(c)

	instructors, pagination, err := h.instructors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, pagination)
}

// Get godoc
// @Summary Fetch one instructor
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [get]
func (h *InstructorHandler) Get(c *gin.Context) {
	instructor, err := h.instructors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// Create godoc
// @Summary Create an instructor
// @Tags Instructors
// @Accept json
// @Produce json
// @Param payload body service.CreateInstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /instructors [post]
func (h *InstructorHandler) Create(c *gin.Context) {
	var req service.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.instructors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// Update godoc
// @Summary Patch an instructor
// @Tags Instructors
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body service.UpdateInstructorRequest true "Patch payload"
// @Success 204
// @Security BearerAuth
// @Router /instructors/{id} [put]
func (h *InstructorHandler) Update(c *gin.Context) {
	var req service.UpdateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.instructors.Update(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete an instructor
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 204
// @Security BearerAuth
// @Router /instructors/{id} [delete]
func (h *InstructorHandler) Delete(c *gin.Context) {
	if err := h.instructors.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
