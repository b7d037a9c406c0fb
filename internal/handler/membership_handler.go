package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fairway/roundhub/internal/model"
	"fairway/roundhub/internal/service"
	"fairway/roundhub/pkg/response"
)

type MembershipHandler struct {
	membershipService service.MembershipService
}

func NewMembershipHandler(membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

type InviteMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Join dispatches by the round's policy: instant rounds grant a seat
// immediately, approval rounds record a pending request. The resulting
// status in the response tells the client which happened.
func (h *MembershipHandler) Join(c *gin.Context) {
	h.selfOp(c, h.membershipService.Join)
}

func (h *MembershipHandler) CancelRequest(c *gin.Context) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}

	if err := h.membershipService.CancelRequest(c.Request.Context(), roundID, actorID); err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *MembershipHandler) Leave(c *gin.Context) {
	h.selfOp(c, h.membershipService.LeaveRound)
}

func (h *MembershipHandler) AcceptInvite(c *gin.Context) {
	h.selfOp(c, h.membershipService.AcceptInvite)
}

func (h *MembershipHandler) DeclineInvite(c *gin.Context) {
	h.selfOp(c, h.membershipService.DeclineInvite)
}

func (h *MembershipHandler) AcceptMember(c *gin.Context) {
	h.hostOp(c, h.membershipService.AcceptMember)
}

func (h *MembershipHandler) DeclineMember(c *gin.Context) {
	h.hostOp(c, h.membershipService.DeclineMember)
}

func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	h.hostOp(c, h.membershipService.RemoveMember)
}

func (h *MembershipHandler) Invite(c *gin.Context) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m, err := h.membershipService.InviteMember(c.Request.Context(), roundID, actorID, req.UserID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, m)
}

func (h *MembershipHandler) Roster(c *gin.Context) {
	viewerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}

	roster, err := h.membershipService.RoundRoster(c.Request.Context(), roundID, viewerID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, roster)
}

// selfOp handles operations where the acting user is also the subject.
func (h *MembershipHandler) selfOp(c *gin.Context, op func(ctx context.Context, roundID, actorID uuid.UUID) (*model.Membership, error)) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}

	m, err := op(c.Request.Context(), roundID, actorID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, m)
}

// hostOp handles host operations targeting the member in the :uid param.
func (h *MembershipHandler) hostOp(c *gin.Context, op func(ctx context.Context, roundID, actorID, targetID uuid.UUID) (*model.Membership, error)) {
	actorID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	roundID, ok := roundIDParam(c)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	m, err := op(c.Request.Context(), roundID, actorID, targetID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, m)
}
