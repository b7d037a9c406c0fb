package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fairway/roundhub/internal/handler/middleware"
	"fairway/roundhub/internal/service"
	jwtpkg "fairway/roundhub/pkg/jwt"
	"fairway/roundhub/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return uuid.Nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return uuid.Nil, ErrNoClaims
	}
	return uuid.Parse(claims.Subject)
}

func roundIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid round id")
		return uuid.Nil, false
	}
	return id, true
}

// respondCoordinatorError maps the coordinator's sentinel errors onto
// the response envelope. Unknown errors are transient storage failures;
// the client may retry, re-applied transitions fail cleanly.
func respondCoordinatorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoundNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotHost),
		errors.Is(err, service.ErrProfileIncomplete),
		errors.Is(err, service.ErrNotAllowed):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrRoundTerminal),
		errors.Is(err, service.ErrRoundNotOpen),
		errors.Is(err, service.ErrRoundNotClosed),
		errors.Is(err, service.ErrRoundFull),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrWrongJoinPolicy):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrAlreadyHost),
		errors.Is(err, service.ErrCapacityBelowAccepted):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, "operation failed")
	}
}
