package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/karthikosa11/smartcal-nutrition-tracker/controllers"
	"github.com/karthikosa11/smartcal-nutrition-tracker/middlewares"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
)

// Deps are the services the router hands to controllers.
type Deps struct {
	Auth      *services.AuthService
	Meals     *services.MealService
	Stats     *services.StatsService
	Estimator *services.EstimationService
	Insights  *services.InsightsService
	Hub       *services.RealtimeHub

	AllowedOrigins  []string
	AllowAllOrigins bool
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	// global: preflight requests match no OPTIONS route
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger(),
		middlewares.CORS(d.AllowedOrigins, d.AllowAllOrigins))

	authCtl := controllers.NewAuthController(d.Auth)
	mealCtl := controllers.NewMealController(d.Meals)
	statsCtl := controllers.NewStatsController(d.Stats)
	aiCtl := controllers.NewAIController(d.Estimator, d.Insights)
	nutritionCtl := controllers.NewNutritionController(nil)
	rtCtl := controllers.NewRealtimeController(d.Hub, middlewares.WebsocketOrigin(d.AllowedOrigins, d.AllowAllOrigins))

	requireAuth := middlewares.AuthMiddleware(d.Auth, false)

	api := r.Group("/api")
	api.GET("/health", controllers.Health)

	// Public auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authCtl.Signup)
		auth.POST("/login", authCtl.Login)
		auth.GET("/verify", authCtl.Verify)
	}
	authed := auth.Group("")
	authed.Use(requireAuth)
	{
		authed.PUT("/profile", authCtl.UpdateProfile)
		authed.POST("/logout", authCtl.Logout)
	}

	meals := api.Group("/meals")
	meals.Use(requireAuth)
	{
		meals.GET("", mealCtl.List)
		meals.GET("/by-date", mealCtl.ListByDate)
		meals.GET("/stats/weekly", mealCtl.WeeklyStats)
		meals.GET("/:id", mealCtl.Get)
		meals.POST("", mealCtl.Create)
		meals.PUT("/:id", mealCtl.Update)
		meals.DELETE("/:id", mealCtl.Delete)
	}

	stats := api.Group("/stats")
	stats.Use(requireAuth)
	{
		stats.GET("/daily", statsCtl.Daily)
		stats.GET("/weekly", statsCtl.Weekly)
		stats.GET("/overview", statsCtl.Overview)
		stats.POST("/update", statsCtl.Update)
	}

	admin := api.Group("/admin")
	admin.Use(requireAuth, middlewares.RequireRole(models.RoleAdmin))
	{
		admin.POST("/stats/rebuild", statsCtl.Rebuild)
	}

	ai := api.Group("/ai")
	ai.Use(requireAuth)
	{
		ai.POST("/parse-text", aiCtl.ParseText)
		ai.POST("/analyze-image", aiCtl.AnalyzeImage)
		ai.GET("/insights", aiCtl.Insights)
	}

	nutrition := api.Group("/nutrition")
	nutrition.Use(requireAuth)
	{
		nutrition.POST("/seed", nutritionCtl.Seed)
		nutrition.POST("/recalculate", nutritionCtl.Recalculate)
	}

	// websocket upgrades cannot carry headers from browsers
	api.GET("/ws", middlewares.AuthMiddleware(d.Auth, true), rtCtl.Events)

	return r
}
