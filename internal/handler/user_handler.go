package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unieval/course-review-api/internal/middleware"
	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/service"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/response"
)

// UserHandler exposes profile and admin account endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me godoc
// @Summary The caller's profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.users.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// List godoc
// @Summary List accounts
// @Tags Users
// @Produce json
// @Param search query string false "User id, email or name filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	filter.Search = c.Query("search")
	filter.PageFilter = pageFilterFromQuery(c)

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

// SetLocked godoc
// @Summary Lock or unlock an account
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body lockRequest true "Lock payload"
// @Success 204
// @Security BearerAuth
// @Router /users/{id}/lock [put]
func (h *UserHandler) SetLocked(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.users.SetLocked(c.Request.Context(), c.Param("id"), req.Locked); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type roleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// SetRole godoc
// @Summary Change an account's role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body roleRequest true "Role payload"
// @Success 204
// @Security BearerAuth
// @Router /users/{id}/role [put]
func (h *UserHandler) SetRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.users.SetRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
