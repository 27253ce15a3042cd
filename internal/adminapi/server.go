// Package adminapi is the optional HTTP control plane for operating a
// running intervaldb process: tenant listing, health, stats, a
// Prometheus endpoint, and a debug WebSocket bridge onto a tenant's
// NotifyHub. None of this is the wire protocol the engine actually serves
// reservation traffic over; it's purely an operational side-channel.
package adminapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/intervaldb/intervaldb/internal/adminapi/authtoken"
	"github.com/intervaldb/intervaldb/internal/authsecret"
	"github.com/intervaldb/intervaldb/internal/metrics"
	"github.com/intervaldb/intervaldb/internal/tenant"
)

// Server is the admin HTTP API: a gin router over the tenant manager, a
// prometheus registry, and an auth token service.
type Server struct {
	addr         string
	logger       *slog.Logger
	tenants      *tenant.Manager
	tokens       *authtoken.Service
	passwordHash string
	metrics      *metrics.Registry
	http         *http.Server
	router       *gin.Engine
	limiter      *ipRateLimiter
}

// NewServer builds the admin API's router. tokens may be nil, in which
// case the protected routes are disabled (a bare health/metrics surface).
// passwordHash is the bcrypt hash of the configured startup password;
// when it is empty /auth/login answers 503 Service Unavailable, since there
// is nothing to verify credentials against.
func NewServer(addr string, tenants *tenant.Manager, tokens *authtoken.Service, passwordHash string, reg *metrics.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	s := &Server{
		addr:         addr,
		logger:       logger,
		tenants:      tenants,
		tokens:       tokens,
		passwordHash: passwordHash,
		metrics:      reg,
		router:       router,
		limiter:      newIPRateLimiter(10, 20),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(rateLimitMiddleware(s.limiter))
	s.router.GET("/healthz", s.handleHealth)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Gatherer, promhttp.HandlerOpts{})))
	}

	if s.tokens != nil {
		s.router.POST("/auth/login", s.handleLogin)

		protected := s.router.Group("/", s.requireAuth)
		protected.GET("/tenants", s.handleListTenants)
		protected.GET("/tenants/:name/stats", s.handleTenantStats)
		protected.GET("/tenants/:name/events", s.handleEventBridge)
	}
}

// Start runs the HTTP server until Stop is called or it errors.
func (s *Server) Start() error {
	s.http = &http.Server{Addr: s.addr, Handler: s.router}
	s.logger.Info("admin api listening", "addr", s.addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handleListTenants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tenants": s.tenants.Tenants()})
}

func (s *Server) handleTenantStats(c *gin.Context) {
	name := c.Param("name")
	eng, err := s.tenants.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant":                   name,
		"resources":                len(eng.ListResources(nil)),
		"wal_appends_since_compact": eng.WalAppendsSinceCompact(),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Subject  string `json:"subject" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.passwordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password authentication not configured"})
		return
	}
	if !authsecret.Verify(s.passwordHash, body.Password) {
		s.logger.Warn("admin login rejected", "subject", body.Subject, "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, err := s.tokens.Issue(body.Subject, "operator")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	if _, err := s.tokens.Validate(header[len(prefix):]); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}
