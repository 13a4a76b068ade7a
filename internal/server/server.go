package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"donna/internal/agent"
	"donna/internal/agent/ports"
	"donna/internal/logging"
)

// EngineAPI is the session control surface the server exposes over HTTP.
type EngineAPI interface {
	Submit(ctx context.Context, sessionID, text string) (*agent.TurnOutcome, error)
	PendingApproval(ctx context.Context, sessionID string) (*ports.PendingApproval, error)
	ResolveApproval(ctx context.Context, sessionID string, approved bool) (*agent.TurnOutcome, error)
	LatestReply(ctx context.Context, sessionID string) (string, error)
}

// Server bridges HTTP and WebSocket clients to the session engine.
type Server struct {
	engine EngineAPI
	store  ports.SessionStore
	logger logging.Logger
}

// Config carries the server options.
type Config struct {
	AllowedOrigins []string
}

func New(engine EngineAPI, store ports.SessionStore, logger logging.Logger) *Server {
	return &Server{engine: engine, store: store, logger: logging.OrNop(logger)}
}

// Router builds the gin handler tree.
func (s *Server) Router(config Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/sessions", s.createSession)
		api.GET("/sessions", s.listSessions)
		api.DELETE("/sessions/:id", s.deleteSession)
		api.POST("/sessions/:id/messages", s.submitMessage)
		api.GET("/sessions/:id/approval", s.getApproval)
		api.POST("/sessions/:id/approval", s.resolveApproval)
		api.GET("/sessions/:id/reply", s.latestReply)
		api.GET("/sessions/:id/ws", s.websocket)
	}
	return router
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

type approvalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// outcomeResponse is the wire form of one turn outcome.
type outcomeResponse struct {
	SessionID string                 `json:"session_id"`
	Reply     string                 `json:"reply,omitempty"`
	Pending   *ports.PendingApproval `json:"pending_approval,omitempty"`
}

func toOutcomeResponse(outcome *agent.TurnOutcome) outcomeResponse {
	return outcomeResponse{
		SessionID: outcome.SessionID,
		Reply:     outcome.Reply,
		Pending:   outcome.Pending,
	}
}

func (s *Server) createSession(c *gin.Context) {
	session, err := s.store.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID})
}

func (s *Server) listSessions(c *gin.Context) {
	ids, err := s.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) submitMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	started := time.Now()
	outcome, err := s.engine.Submit(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		recordTurn("error", time.Since(started).Seconds())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if outcome.Pending != nil {
		recordTurn("pending", time.Since(started).Seconds())
	} else {
		recordTurn("reply", time.Since(started).Seconds())
	}
	c.JSON(http.StatusOK, toOutcomeResponse(outcome))
}

func (s *Server) getApproval(c *gin.Context) {
	pending, err := s.engine.PendingApproval(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending_approval": pending})
}

func (s *Server) resolveApproval(c *gin.Context) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approved == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "approved is required"})
		return
	}

	recordApproval(*req.Approved)
	outcome, err := s.engine.ResolveApproval(c.Request.Context(), c.Param("id"), *req.Approved)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOutcomeResponse(outcome))
}

func (s *Server) latestReply(c *gin.Context) {
	reply, err := s.engine.LatestReply(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
