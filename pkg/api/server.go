// Package api exposes the agent over HTTP: a health endpoint and an
// analyze endpoint that runs one investigation per request.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/awb-bank/audit-agent/pkg/agent"
)

// Runner executes one investigation for a question.
type Runner interface {
	Run(ctx context.Context, question string) (*agent.RunResult, error)
}

// Pinger reports database connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the HTTP API.
type Server struct {
	runner Runner
	pinger Pinger
	http   *http.Server
}

// NewServer wires the routes and returns a server listening on addr.
func NewServer(addr string, runner Runner, pinger Pinger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		runner: runner,
		pinger: pinger,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.GET("/health", s.health)
	v1 := router.Group("/api/v1")
	v1.POST("/analyze", s.analyze)

	return s
}

// requestLogger logs one line per request with method, path, status, and
// latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Question string `json:"question" binding:"required"`
}

// AnalyzeResponse is the terminal result of one investigation.
type AnalyzeResponse struct {
	SessionID string             `json:"session_id"`
	Thought   string             `json:"thought,omitempty"`
	Answer    string             `json:"answer"`
	Steps     []agent.StepRecord `json:"steps"`
}

func (s *Server) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	sessionID := uuid.NewString()
	slog.Info("starting analysis", "session_id", sessionID)

	result, err := s.runner.Run(c.Request.Context(), req.Question)
	if err != nil {
		slog.Error("analysis failed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	steps := result.Steps
	if steps == nil {
		steps = []agent.StepRecord{}
	}
	c.JSON(http.StatusOK, AnalyzeResponse{
		SessionID: sessionID,
		Thought:   result.Thought,
		Answer:    result.Answer,
		Steps:     steps,
	})
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	slog.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
