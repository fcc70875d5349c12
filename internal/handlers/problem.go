package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/codesurge/hackathon/internal/services"
	"github.com/codesurge/hackathon/pkg/response"
)

type ProblemHandler struct {
	problemService *services.ProblemService
}

func NewProblemHandler(problemService *services.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService}
}

// List returns the problem catalog, optionally filtered by track
// GET /api/hackathon/problems?track=
func (h *ProblemHandler) List(c *gin.Context) {
	problems, err := h.problemService.List(c.Request.Context(), c.Query("track"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problems)
}

// GET /api/hackathon/problems/:id
func (h *ProblemHandler) Get(c *gin.Context) {
	problem, err := h.problemService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

// POST /api/hackathon/problems
func (h *ProblemHandler) Create(c *gin.Context) {
	var req services.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	problem, err := h.problemService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, problem)
}

// PUT /api/hackathon/problems/:id
func (h *ProblemHandler) Update(c *gin.Context) {
	var req services.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	problem, err := h.problemService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, problem)
}

// DELETE /api/hackathon/problems/:id
func (h *ProblemHandler) Delete(c *gin.Context) {
	if err := h.problemService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Problem deleted successfully"})
}
