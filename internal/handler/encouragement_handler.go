package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unieval/course-review-api/internal/service"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/response"
)

// EncouragementHandler exposes the landing-page sentence endpoints.
type EncouragementHandler struct {
	encouragements *service.EncouragementService
}

// NewEncouragementHandler constructs EncouragementHandler.
func NewEncouragementHandler(encouragements *service.EncouragementService) *EncouragementHandler {
	return &EncouragementHandler{encouragements: encouragements}
}

// Random godoc
// @Summary A random encouragement sentence
// @Tags Encouragements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /encouragements/random [get]
func (h *EncouragementHandler) Random(c *gin.Context) {
	sentence, err := h.encouragements.Random(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sentence, nil)
}

// List godoc
// @Summary List active sentences
// @Tags Encouragements
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /encouragements [get]
func (h *EncouragementHandler) List(c *gin.Context) {
	sentences, err := h.encouragements.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sentences, nil)
}

// Create godoc
// @Summary Create a sentence
// @Tags Encouragements
// @Accept json
// @Produce json
// @Param payload body service.EncouragementRequest true "Sentence payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /encouragements [post]
func (h *EncouragementHandler) Create(c *gin.Context) {
	var req service.EncouragementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sentence, err := h.encouragements.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sentence)
}

// Update godoc
// @Summary Update a sentence
// @Tags Encouragements
// @Accept json
// @Produce json
// @Param id path string true "Encouragement ID"
// @Param payload body service.EncouragementRequest true "Sentence payload"
// @Success 204
// @Security BearerAuth
// @Router /encouragements/{id} [put]
func (h *EncouragementHandler) Update(c *gin.Context) {
	var req service.EncouragementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.encouragements.Update(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a sentence
// @Tags Encouragements
// @Produce json
// @Param id path string true "Encouragement ID"
// @Success 204
// @Security BearerAuth
// @Router /encouragements/{id} [delete]
func (h *EncouragementHandler) Delete(c *gin.Context) {
	if err := h.encouragements.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
