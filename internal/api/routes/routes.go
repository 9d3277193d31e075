package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tawafuqapp/tawafuq/internal/api/handlers"
	"github.com/tawafuqapp/tawafuq/internal/api/middleware"
)

type Deps struct {
	Match *handlers.MatchHandler
	Test  *handlers.TestHandler
	Photo *handlers.PhotoHandler
	Admin *handlers.AdminHandler
	WS    *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/matches", d.Match.List)
	auth.GET("/matches/quota", d.Match.Quota)
	auth.GET("/matches/suggestions", d.Match.Suggestions)
	auth.GET("/matches/:match_id", d.Match.Get)
	auth.POST("/matches/requests/:target_id", d.Match.RequestView)
	auth.POST("/matches/:match_id/approve", d.Match.Approve)
	auth.POST("/matches/:match_id/reject", d.Match.Reject)
	auth.POST("/matches/:match_id/cancel", d.Match.Cancel)
	auth.POST("/matches/:match_id/dislike", d.Match.Dislike)
	auth.POST("/matches/:match_id/photos/request", d.Match.RequestPhotos)
	auth.POST("/matches/:match_id/full-data/request", d.Match.RequestFullData)
	auth.POST("/matches/:match_id/chat", d.Match.StartChat)
	auth.GET("/matches/:match_id/photos", d.Photo.ListForMatch)

	auth.POST("/tests", d.Test.Submit)
	auth.GET("/tests/me", d.Test.History)
	auth.GET("/traits/me", d.Test.TraitsMe)

	auth.POST("/photos", d.Photo.Upload)
	auth.GET("/photos/me", d.Photo.ListOwn)

	// WebSocket
	auth.GET("/ws/matches", d.WS.MatchesWS)

	// Admin
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/events", d.Admin.Events)
	admin.POST("/rescore", d.Admin.Rescore)
}
