package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rq1234/cv-tailor/internal/api/handlers"
	"github.com/rq1234/cv-tailor/internal/api/middleware"
)

type Deps struct {
	Library *handlers.LibraryHandler
	Tailor  *handlers.TailorHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/experiences", d.Library.AddExperience)
	auth.POST("/projects", d.Library.AddProject)
	auth.POST("/activities", d.Library.AddActivity)

	auth.POST("/tailor/select", d.Tailor.Select)
	auth.POST("/tailor/run", d.Tailor.Run)

	auth.POST("/cv/re-embed", d.Library.Reembed)
}
