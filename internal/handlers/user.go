package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/codesurge/hackathon/internal/middleware"
	"github.com/codesurge/hackathon/internal/services"
	"github.com/codesurge/hackathon/pkg/response"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns every team account
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// GET /api/users/team/:teamName
func (h *UserHandler) GetByTeamName(c *gin.Context) {
	user, err := h.userService.GetByTeamName(c.Request.Context(), middleware.GetPrincipal(c), c.Param("teamName"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Update renames a team
// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateTeamName(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "User deleted successfully"})
}
