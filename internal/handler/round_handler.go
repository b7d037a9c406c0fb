package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/service"
	"fairway/roundhub/pkg/response"
)

type RoundHandler struct {
	roundService service.RoundService
}

func NewRoundHandler(roundService service.RoundService) *RoundHandler {
	return &RoundHandler{roundService: roundService}
}

type CreateRoundRequest struct {
	CourseName string    `json:"course_name" binding:"required"`
	TeeTime    time.Time `json:"tee_time" binding:"required"`
	JoinPolicy string    `json:"join_policy" binding:"required"`
	Visibility string    `json:"visibility" binding:"required"`
	MaxPlayers int       `json:"max_players" binding:"required,min=1"`
}

type EditRoundRequest struct {
	CourseName *string    `json:"course_name"`
	TeeTime    *time.Time `json:"tee_time"`
	JoinPolicy *string    `json:"join_policy"`
	Visibility *string    `json:"visibility"`
	MaxPlayers *int       `json:"max_players"`
}

func (h *RoundHandler) Create(c *gin.Context) {
	hostID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	round, err := h.roundService.CreateRound(c.Request.Context(), hostID, service.CreateRoundParams{
		CourseName: req.CourseName,
		TeeTime:    req.TeeTime,
		JoinPolicy: model.JoinPolicy(req.JoinPolicy),
		Visibility: model.Visibility(req.Visibility),
		MaxPlayers: req.MaxPlayers,
	})
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, round)
}

func (h *RoundHandler) Get(c *gin.Context) {
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}
	round, err := h.roundService.GetRound(c.Request.Context(), roundID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, round)
}

func (h *RoundHandler) ListOpen(c *gin.Context) {
	viewerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	rounds, err := h.roundService.ListOpenRounds(c.Request.Context(), viewerID, limit)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, rounds)
}

func (h *RoundHandler) MyRounds(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	hosted, err := h.roundService.ListRoundsHostedBy(c.Request.Context(), userID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	joined, err := h.roundService.ListRoundsJoinedBy(c.Request.Context(), userID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, gin.H{"hosted": hosted, "joined": joined})
}

func (h *RoundHandler) Edit(c *gin.Context) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}

	var req EditRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	patch := service.EditRoundPatch{
		CourseName: req.CourseName,
		TeeTime:    req.TeeTime,
		MaxPlayers: req.MaxPlayers,
	}
	if req.JoinPolicy != nil {
		p := model.JoinPolicy(*req.JoinPolicy)
		patch.JoinPolicy = &p
	}
	if req.Visibility != nil {
		v := model.Visibility(*req.Visibility)
		patch.Visibility = &v
	}

	round, err := h.roundService.EditRound(c.Request.Context(), roundID, actorID, patch)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, round)
}

func (h *RoundHandler) Cancel(c *gin.Context) {
	h.transition(c, h.roundService.CancelRound)
}

func (h *RoundHandler) Complete(c *gin.Context) {
	h.transition(c, h.roundService.MarkCompleted)
}

func (h *RoundHandler) Close(c *gin.Context) {
	h.transition(c, h.roundService.CloseRound)
}

func (h *RoundHandler) Reopen(c *gin.Context) {
	h.transition(c, h.roundService.ReopenRound)
}

// transition handles the body-less host status operations, which differ
// only in the service method they call.
func (h *RoundHandler) transition(c *gin.Context, op func(ctx context.Context, roundID, actorID uuid.UUID) (*model.Round, error)) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}

	round, err := op(c.Request.Context(), roundID, actorID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, round)
}
