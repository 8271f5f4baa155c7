package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/craftbase/site-provisioner/internal/config"
)

// RateLimiter is a simple in-memory sliding-window rate limiter.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether another request is permitted for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// RateLimitMiddleware limits per user, falling back to client IP for
// unauthenticated requests.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userID")
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

type Server struct {
	router  *gin.Engine
	handler *Handler
	cfg     *config.Config
	db      *pgxpool.Pool
}

// Per-user API rate limit: 30 requests per minute.
var userRateLimiter = NewRateLimiter(30, time.Minute)

// Provisioning limit: each run creates a bucket, a repository, a trigger and
// a Cloud Run service, so creation is kept rare. 5 per user per hour covers
// retries after failed runs.
var createRateLimiter = NewRateLimiter(5, time.Hour)

// Session limit: each session runs a full container build. 10 per user per
// hour keeps a single editor from monopolizing the build pool.
var sessionRateLimiter = NewRateLimiter(10, time.Hour)

func NewServer(cfg *config.Config, db *pgxpool.Pool, handler *Handler) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		handler: handler,
		cfg:     cfg,
		db:      db,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "site-provisioner",
		})
	})

	// User API - requires JWT authentication
	user := s.router.Group("/api/v1")
	user.Use(JWTAuthMiddleware(s.cfg.JWT.SecretKey))
	user.Use(RateLimitMiddleware(userRateLimiter))
	{
		// Website provisioning and queries
		user.POST("/websites", RateLimitMiddleware(createRateLimiter), s.handler.CreateWebsite)
		user.GET("/websites/:id", s.handler.GetWebsite)
		user.GET("/projects/:project_id/websites", s.handler.ListProjectWebsites)

		// Live-editing sessions
		user.POST("/editor/start", RateLimitMiddleware(sessionRateLimiter), s.handler.StartSession)
		user.GET("/editor/sessions", s.handler.ListRepoSessions)
	}

	// Internal API - called by the project dashboard backend
	internal := s.router.Group("/api/internal")
	internal.Use(InternalAuthMiddleware(s.cfg.InternalSecret))
	{
		internal.POST("/websites", s.handler.CreateWebsite)
		internal.GET("/websites/:id", s.handler.GetWebsite)
		internal.GET("/projects/:project_id/websites", s.handler.ListProjectWebsites)
		internal.POST("/editor/start", s.handler.StartSession)
	}
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
