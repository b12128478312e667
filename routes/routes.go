package routes

import (
	"github.com/ZacBytes/caloric/controllers"
	"github.com/ZacBytes/caloric/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries the controllers the router mounts.
type Deps struct {
	JWTSecret string
	Health    *controllers.HealthController
	Auth      *controllers.AuthController
	Estimate  *controllers.EstimateController
	Profile   *controllers.ProfileController
	Entries   *controllers.EntryController
	Progress  *controllers.ProgressController
	Photos    *controllers.PhotoController
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", deps.Health.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
	}

	// Estimation is public: the SPA calls it before onboarding finishes.
	r.POST("/food/estimate", deps.Estimate.Estimate)

	// Protected user routes
	api := r.Group("/api")
	api.Use(middlewares.Auth(deps.JWTSecret))
	{
		api.GET("/profile", deps.Profile.Get)
		api.PUT("/profile", deps.Profile.Update)

		api.POST("/entries", deps.Entries.Create)
		api.GET("/entries", deps.Entries.List)
		api.DELETE("/entries/:id", deps.Entries.Delete)

		api.GET("/progress/daily", deps.Progress.Daily)
		api.GET("/progress/weekly", deps.Progress.Weekly)
		api.GET("/progress/monthly", deps.Progress.Monthly)

		api.POST("/photos", deps.Photos.Upload)
	}

	return r
}
