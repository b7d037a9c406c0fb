package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fairway/roundhub/internal/service"
	"fairway/roundhub/pkg/response"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	DisplayName *string  `json:"display_name"`
	HomeCity    *string  `json:"home_city"`
	Handicap    *float64 `json:"handicap"`
}

type FriendRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, service.ProfilePatch{
		DisplayName: req.DisplayName,
		HomeCity:    req.HomeCity,
		Handicap:    req.Handicap,
	})
	if err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) AddFriend(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.userService.AddFriend(c.Request.Context(), userID, req.UserID); err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *UserHandler) RemoveFriend(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	friendID, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.userService.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		respondCoordinatorError(c, err)
		return
	}
	response.Success(c, nil)
}
