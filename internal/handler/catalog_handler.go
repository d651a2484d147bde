package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unieval/course-review-api/internal/service"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/response"
)

// CatalogHandler exposes department and semester reference endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	departments, pagination, err := h.catalog.ListDepartments(c.Request.Context(), pageFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, pagination)
}

// CreateDepartment godoc
// @Summary Create a department
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CatalogEntryRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /departments [post]
func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req service.CatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	department, err := h.catalog.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// UpdateDepartment godoc
// @Summary Rename or retire a department
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body service.CatalogPatchRequest true "Patch payload"
// @Success 204
// @Security BearerAuth
// @Router /departments/{id} [put]
func (h *CatalogHandler) UpdateDepartment(c *gin.Context) {
	var req service.CatalogPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.UpdateDepartment(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *CatalogHandler) ListSemesters(c *gin.Context) {
	semesters, pagination, err := h.catalog.ListSemesters(c.Request.Context(), pageFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, pagination)
}

// CreateSemester godoc
// @Summary Create a semester
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CatalogEntryRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /semesters [post]
func (h *CatalogHandler) CreateSemester(c *gin.Context) {
	var req service.CatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.catalog.CreateSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// UpdateSemester godoc
// @Summary Rename or retire a semester
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body service.CatalogPatchRequest true "Patch payload"
// @Success 204
// @Security BearerAuth
// @Router /semesters/{id} [put]
func (h *CatalogHandler) UpdateSemester(c *gin.Context) {
	var req service.CatalogPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.UpdateSemester(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
