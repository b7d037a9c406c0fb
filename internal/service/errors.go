package service

import "errors"

var (
	ErrRoundNotFound         = errors.New("round not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrNotHost               = errors.New("only the host may perform this operation")
	ErrRoundTerminal         = errors.New("round is canceled or completed")
	ErrRoundNotOpen          = errors.New("round is not open")
	ErrRoundNotClosed        = errors.New("round is not closed")
	ErrRoundFull             = errors.New("round is full")
	ErrInvalidTransition     = errors.New("current membership status does not permit this operation")
	ErrAlreadyHost           = errors.New("the host cannot be a member of their own round")
	ErrWrongJoinPolicy       = errors.New("operation does not match the round's join policy")
	ErrProfileIncomplete     = errors.New("profile is incomplete")
	ErrNotAllowed            = errors.New("round is visible to friends of the host only")
	ErrCapacityBelowAccepted = errors.New("capacity cannot drop below the accepted member count")

	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid or revoked")
)
