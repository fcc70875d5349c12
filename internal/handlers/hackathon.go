package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/middleware"
	"github.com/codesurge/hackathon/internal/services"
	"github.com/codesurge/hackathon/pkg/response"
)

// Sweeper runs one expiry pass on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

type HackathonHandler struct {
	hackathonService *services.HackathonService
	sweeper          Sweeper
	loc              *time.Location
}

// NewHackathonHandler renders times in loc unless the request asks for a
// different zone with ?tz=.
func NewHackathonHandler(hackathonService *services.HackathonService, sweeper Sweeper, loc *time.Location) *HackathonHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &HackathonHandler{hackathonService: hackathonService, sweeper: sweeper, loc: loc}
}

// Start enrolls teams into a new hackathon
// POST /api/hackathon/start
func (h *HackathonHandler) Start(c *gin.Context) {
	var req services.StartHackathonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	res, err := h.hackathonService.StartHackathon(c.Request.Context(), middleware.GetPrincipal(c), &req)
	if err != nil {
		if res != nil {
			response.ErrorWithData(c, err, res)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// SelectProblem locks in a problem for a team
// POST /api/hackathon/problems/:problemId/select/:userId/:hackathonId
func (h *HackathonHandler) SelectProblem(c *gin.Context) {
	p, err := h.hackathonService.SelectProblem(c.Request.Context(), middleware.GetPrincipal(c),
		c.Param("problemId"), c.Param("userId"), c.Param("hackathonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// AssignProblem sets a team's problem as an admin
// POST /api/users/:id/problem/:problemId/:hackathonId
func (h *HackathonHandler) AssignProblem(c *gin.Context) {
	p, err := h.hackathonService.AssignProblem(c.Request.Context(), middleware.GetPrincipal(c),
		c.Param("id"), c.Param("problemId"), c.Param("hackathonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// Submit attaches a solution and ends the team's participation
// POST /api/hackathon/submit/:userId
func (h *HackathonHandler) Submit(c *gin.Context) {
	var req services.SubmitSolutionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.hackathonService.SubmitSolution(c.Request.Context(), middleware.GetPrincipal(c), c.Param("userId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// Close ends every active participation of a hackathon
// POST /api/hackathon/close/:hackathonId
func (h *HackathonHandler) Close(c *gin.Context) {
	hackathonID := c.Param("hackathonId")
	closed, err := h.hackathonService.CloseHackathon(c.Request.Context(), middleware.GetPrincipal(c), hackathonID)
	if err != nil {
		if closed > 0 {
			response.ErrorWithData(c, err, gin.H{"hackathon_id": hackathonID, "closed": closed})
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"hackathon_id": hackathonID, "closed": closed})
}

// Sweep expires overdue participations immediately
// POST /api/hackathon/sweep
func (h *HackathonHandler) Sweep(c *gin.Context) {
	expired, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"expired": expired})
}

// Status reports running participations grouped by hackathon id
// GET /api/hackathon/status?tz=
func (h *HackathonHandler) Status(c *gin.Context) {
	loc, err := h.location(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.hackathonService.Status(c.Request.Context(), loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// All summarizes every hackathon
// GET /api/hackathon/all?tz=
func (h *HackathonHandler) All(c *gin.Context) {
	loc, err := h.location(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summaries, err := h.hackathonService.AllHackathons(c.Request.Context(), loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summaries)
}

// Participations returns a team's participation history
// GET /api/hackathon/participations/:userId
func (h *HackathonHandler) Participations(c *gin.Context) {
	history, err := h.hackathonService.ParticipationsFor(c.Request.Context(), middleware.GetPrincipal(c), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, history)
}

func (h *HackathonHandler) location(c *gin.Context) (*time.Location, error) {
	tz := strings.TrimSpace(c.Query("tz"))
	if tz == "" {
		return h.loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperr.Validation("Unknown time zone: " + tz)
	}
	return loc, nil
}
