package routes

import (
	"time"

	"studybuddy/handlers"
	"studybuddy/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options tune the router.
type Options struct {
	CORSOrigins        []string
	RequestsPerMin     int
	AuthRequestsPerMin int
	// Registry receives request and runtime metrics. A fresh registry is used when nil;
	// it must not already hold Go or process collectors.
	Registry *prometheus.Registry
}

// RegisterUserRoutes registers account and profile endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	api := r.Group("/users")
	{
		// Credential endpoints get a stricter per-IP budget.
		strict := middleware.RateLimitMiddleware(opts.AuthRequestsPerMin)
		api.POST("/signup", strict, hb.Users.SignupHandler)
		api.POST("/auth", strict, hb.Users.LoginHandler)
		api.GET("/check-logged-in", hb.Users.CheckLoggedInHandler)
		api.GET("/image/:username", hb.Users.ImageHandler)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.Sessions))
		protected.GET("/logout", hb.Users.LogoutHandler)
		protected.GET("/info", hb.Users.InfoHandler)
		protected.POST("/edit", hb.Users.EditHandler)
		protected.POST("/availability", hb.Users.AvailabilityHandler)
		protected.POST("/post-loc", hb.Users.PostLocationHandler)
		protected.POST("/addreview", hb.Users.AddReviewHandler)
		protected.GET("/peers", hb.Users.PeersHandler)
		protected.POST("/fcm-token", hb.Users.FCMTokenHandler)
		protected.GET("/viewbuddy", hb.Users.GetViewBuddyHandler)
		protected.POST("/viewbuddy", hb.Users.SetViewBuddyHandler)
	}
}

// RegisterMatchRoutes registers buddy matching endpoints.
func RegisterMatchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/matches")
	{
		api.Use(middleware.AuthMiddleware(hb.Sessions))
		api.GET("/buddies", hb.Matches.BuddiesHandler)
		api.GET("/matched", hb.Matches.MatchedHandler)
		api.GET("/candidates", hb.Matches.CandidatesHandler)
		api.POST("/match", hb.Matches.MatchHandler)
		api.DELETE("/unmatch", hb.Matches.UnmatchHandler)
	}
}

// RegisterSchedulingRoutes registers availability, session and course endpoints.
func RegisterSchedulingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/scheduling")
	{
		api.Use(middleware.AuthMiddleware(hb.Sessions))
		api.GET("/availability", hb.Scheduling.GetAvailabilityHandler)
		api.POST("/availability", hb.Scheduling.UpdateAvailabilityHandler)
		api.POST("/suggest-times", hb.Scheduling.SuggestTimesHandler)

		api.GET("/sessions", hb.Scheduling.ListSessionsHandler)
		api.POST("/sessions", hb.Scheduling.CreateSessionHandler)
		api.GET("/sessions/:id", hb.Scheduling.GetSessionHandler)
		api.POST("/sessions/:id/respond", hb.Scheduling.RespondHandler)
		api.PATCH("/sessions/:id/status", hb.Scheduling.UpdateStatusHandler)

		api.GET("/courses", hb.Scheduling.ListCoursesHandler)
		api.POST("/courses", hb.Scheduling.UpsertCourseHandler)
		api.GET("/find-partners/:courseId", hb.Scheduling.FindPartnersHandler)
	}
}

// RegisterChatRoutes registers chatroom endpoints and the websocket namespaces.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/chats")
	{
		api.Use(middleware.AuthMiddleware(hb.Sessions))
		api.GET("", hb.Chats.ListRoomsHandler)
		api.POST("", hb.Chats.CreateRoomHandler)
		api.GET("/:id/messages", hb.Chats.MessagesHandler)
	}
	ws := r.Group("/ws")
	{
		ws.Use(middleware.AuthMiddleware(hb.Sessions))
		ws.GET("/chat", hb.Sockets.ChatSocketHandler)
		ws.GET("/meet-up", hb.Sockets.MeetupSocketHandler)
	}
}

// RegisterHealthRoutes registers health-check, status page and metrics endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle, metrics prometheus.Gatherer) {
	r.SetHTMLTemplate(handlers.StatusTemplate)
	r.GET("/health", hb.Health.HealthHandler)
	r.GET("/healthz", hb.Health.LivenessHandler)
	r.GET("/readyz", hb.Health.ReadinessHandler)
	r.GET("/status", hb.Health.StatusPageHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r.Use(middleware.NewHTTPMetrics(registry, true).Middleware())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(middleware.RateLimitMiddleware(opts.RequestsPerMin))

	RegisterUserRoutes(r, hb, opts)
	RegisterMatchRoutes(r, hb)
	RegisterSchedulingRoutes(r, hb)
	RegisterChatRoutes(r, hb)
	RegisterHealthRoutes(r, hb, registry)
}

// corsConfig allows the given origins; none or "*" allows any origin.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		// Reflect the caller's origin so credentialed requests keep working.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
