package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/handler"
	"github.com/stemsi/classroom-backend/internal/metrics"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/observability"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
)

// photoMaxAge is how long browsers may reuse a profile picture, in seconds.
const photoMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Student    *handler.StudentHandler
	Class      *handler.ClassHandler
	Request    *handler.ClassRequestHandler
	Attendance *handler.AttendanceHandler
	User       *handler.UserHandler
	WS         *handler.WSHandler
	Activity   *handler.ActivityHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// loginLimiter throttles POST /auth/login; the caller owns its lifetime.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	loginLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		middleware.AccessLog(log),
		middleware.Metrics(),
		observability.CaptureErrors(log),
		middleware.Brotli(),
	)

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.RequireAuth(authService)
	adminOnly := middleware.RequireAdmin()
	selfOrAdmin := middleware.RequireSelfOrAdmin("studentId")

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
		auth.GET("/me", requireAuth, handlers.Auth.Me)
	}

	api := router.Group("/api/v1")
	api.Use(requireAuth)

	// ─── 2. Students ───────────────────────────────────────────────────
	students := api.Group("/students")
	{
		students.GET("", adminOnly, handlers.Student.ListStudents)
		students.POST("", adminOnly, handlers.Student.CreateStudent)
		students.GET("/:id", middleware.RequireSelfOrAdmin("id"), handlers.Student.GetStudent)
		students.PUT("/:id", adminOnly, handlers.Student.UpdateStudent)
		students.DELETE("/:id", adminOnly, handlers.Student.DeleteStudent)
		students.GET("/:id/photo",
			middleware.RequireSelfOrAdmin("id"),
			middleware.PrivateCache(photoMaxAge),
			handlers.Student.GetStudentPhoto,
		)
	}

	// ─── 3. Classes ────────────────────────────────────────────────────
	classes := api.Group("/classes")
	{
		classes.GET("", handlers.Class.ListClasses)
		classes.GET("/:id", handlers.Class.GetClass)
		classes.POST("", adminOnly, handlers.Class.CreateClass)
		classes.PUT("/:id", adminOnly, handlers.Class.UpdateClass)
		classes.DELETE("/:id", adminOnly, handlers.Class.DeleteClass)

		classes.GET("/:id/students", adminOnly, handlers.Class.ListClassStudents)
		classes.POST("/:id/students/:studentId", adminOnly, handlers.Class.AddStudent)
		classes.DELETE("/:id/students/:studentId", adminOnly, handlers.Class.RemoveStudent)

		classes.GET("/student/:studentId", selfOrAdmin, handlers.Class.ListStudentClasses)
		classes.GET("/student/:studentId/available", selfOrAdmin, handlers.Class.ListAvailableClasses)
	}

	// ─── 4. Enrollment Requests ────────────────────────────────────────
	requests := api.Group("/requests")
	{
		// Ownership of the body's studentId is checked in the handler.
		requests.POST("", handlers.Request.CreateRequest)

		requests.GET("", adminOnly, handlers.Request.ListRequests)
		requests.GET("/pending", adminOnly, handlers.Request.ListPendingRequests)
		requests.GET("/:id", adminOnly, handlers.Request.GetRequest)
		requests.GET("/class/:classId", adminOnly, handlers.Request.ListClassRequests)
		requests.PUT("/:id/approve", adminOnly, handlers.Request.ApproveRequest)
		requests.PUT("/:id/reject", adminOnly, handlers.Request.RejectRequest)

		requests.GET("/student/:studentId", selfOrAdmin, handlers.Request.ListStudentRequests)
		requests.GET("/student/:studentId/class/:classId/pending", selfOrAdmin, handlers.Request.HasPendingRequest)
	}

	// ─── 5. Attendance ─────────────────────────────────────────────────
	attendance := api.Group("/attendance")
	{
		attendance.GET("", adminOnly, handlers.Attendance.ListAttendance)
		attendance.POST("", adminOnly, handlers.Attendance.CreateAttendance)
		attendance.POST("/mark", adminOnly, handlers.Attendance.MarkAttendance)
		attendance.GET("/date", adminOnly, handlers.Attendance.ListDateAttendance)
		attendance.GET("/:id", adminOnly, handlers.Attendance.GetAttendance)
		attendance.PUT("/:id", adminOnly, handlers.Attendance.UpdateAttendance)
		attendance.DELETE("/:id", adminOnly, handlers.Attendance.DeleteAttendance)

		attendance.GET("/class/:classId", adminOnly, handlers.Attendance.ListClassAttendance)
		attendance.GET("/class/:classId/date", adminOnly, handlers.Attendance.ListSessionAttendance)
		attendance.GET("/class/:classId/export", adminOnly, handlers.Attendance.ExportClassAttendance)

		attendance.GET("/student/:studentId", selfOrAdmin, handlers.Attendance.ListStudentAttendance)
		attendance.GET("/student/:studentId/class/:classId", selfOrAdmin, handlers.Attendance.ListStudentClassAttendance)
		attendance.GET("/student/:studentId/percentage", selfOrAdmin, handlers.Attendance.GetPercentages)
	}

	// ─── 6. Users ──────────────────────────────────────────────────────
	users := api.Group("/users")
	users.Use(adminOnly)
	{
		users.GET("", handlers.User.ListUsers)
		users.POST("", handlers.User.CreateUser)
		users.GET("/:id", handlers.User.GetUser)
		users.PUT("/:id", handlers.User.UpdateUser)
		users.DELETE("/:id", handlers.User.DeleteUser)
	}

	// ─── 7. Activity ──────────────────────────────────────────────────
	api.GET("/activity", adminOnly, handlers.Activity.ListActivity)

	// ─── 8. WebSocket ──────────────────────────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(requireAuth, adminOnly)
	{
		wsGroup.GET("/events", handlers.WS.EventStream)
	}

	return router
}
