package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fairway/roundhub/internal/config"
	"fairway/roundhub/internal/handler/middleware"
	jwtpkg "fairway/roundhub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	roundHandler *RoundHandler,
	membershipHandler *MembershipHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public auth routes
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		// Profile and friends
		protected.GET("/me", userHandler.Me)
		protected.PATCH("/me", userHandler.UpdateProfile)
		protected.POST("/me/friends", userHandler.AddFriend)
		protected.DELETE("/me/friends/:uid", userHandler.RemoveFriend)
		protected.GET("/me/rounds", roundHandler.MyRounds)

		// Rounds
		protected.POST("/rounds", roundHandler.Create)
		protected.GET("/rounds", roundHandler.ListOpen)
		protected.GET("/rounds/:id", roundHandler.Get)
		protected.PATCH("/rounds/:id", roundHandler.Edit)
		protected.POST("/rounds/:id/close", roundHandler.Close)
		protected.POST("/rounds/:id/reopen", roundHandler.Reopen)
		protected.POST("/rounds/:id/cancel", roundHandler.Cancel)
		protected.POST("/rounds/:id/complete", roundHandler.Complete)

		// Membership
		protected.GET("/rounds/:id/members", membershipHandler.Roster)
		protected.POST("/rounds/:id/join", membershipHandler.Join)
		protected.DELETE("/rounds/:id/join", membershipHandler.CancelRequest)
		protected.POST("/rounds/:id/leave", membershipHandler.Leave)
		protected.POST("/rounds/:id/invites", membershipHandler.Invite)
		protected.POST("/rounds/:id/invites/accept", membershipHandler.AcceptInvite)
		protected.POST("/rounds/:id/invites/decline", membershipHandler.DeclineInvite)
		protected.POST("/rounds/:id/members/:uid/accept", membershipHandler.AcceptMember)
		protected.POST("/rounds/:id/members/:uid/decline", membershipHandler.DeclineMember)
		protected.DELETE("/rounds/:id/members/:uid", membershipHandler.RemoveMember)
	}

	return r
}
