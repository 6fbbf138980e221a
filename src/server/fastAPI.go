package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/models"
	"order-server/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	broadcastQueueSize = 256
	recentEventCount   = 50
	shutdownTimeout    = 5 * time.Second
)

// -----------------------------------------------------------------------------
// FastAPIServer serves the ops API and the websocket activity feed.
// It never sees order content.
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	engine     *gin.Engine
	stats      interfaces.IStatsProvider
	httpServer *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MActivityEvent
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	hubOnce    sync.Once
	stopOnce   sync.Once

	// Replayed to new listeners
	recent     *utils.RingBuffer[models.MActivityEvent]
	stateMutex sync.RWMutex
}

var _ interfaces.IDataExchanger = (*FastAPIServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *models.MConfig, logger *logger.Logger) *FastAPIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:     cfg,
		Logger:     logger,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.MActivityEvent, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		recent:     utils.NewRingBuffer[models.MActivityEvent](recentEventCount),
	}

	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/stats", s.getStats)
	s.engine.GET("/api/clients/:id", s.getClient)

	// Prometheus
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// SetStatsProvider binds the server whose counters the API reports
func (s *FastAPIServer) SetStatsProvider(stats interfaces.IStatsProvider) {
	s.stateMutex.Lock()
	s.stats = stats
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) statsProvider(c *gin.Context) (interfaces.IStatsProvider, bool) {
	s.stateMutex.RLock()
	stats := s.stats
	s.stateMutex.RUnlock()

	if stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order server not attached"})
		return nil, false
	}
	return stats, true
}

// -----------------------------------------------------------------------------

// Handler exposes the router
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Stop is called
func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.startHub()

	s.stateMutex.Lock()
	select {
	case <-s.quit:
		s.stateMutex.Unlock()
		return nil
	default:
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	srv := s.httpServer
	s.stateMutex.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) startHub() {
	s.hubOnce.Do(func() { go s.handleWebsockets() })
}

// -----------------------------------------------------------------------------

// Stop shuts the HTTP listener down and disconnects every listener
func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)

		s.stateMutex.RLock()
		srv := s.httpServer
		s.stateMutex.RUnlock()

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = srv.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	provider, ok := s.statsProvider(c)
	if !ok {
		return
	}
	stats := provider.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"connections":        s.ConnectionCount(),
		"registered_clients": stats.RegisteredClients,
		"accepting":          stats.Accepting,
	})
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getStats(c *gin.Context) {
	provider, ok := s.statsProvider(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, provider.Stats())
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getClient(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client id must be an integer"})
		return
	}

	provider, ok := s.statsProvider(c)
	if !ok {
		return
	}

	status, ok := provider.ClientStatus(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown client"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// -----------------------------------------------------------------------------

// ConnectionCount returns the number of websocket listeners
func (s *FastAPIServer) ConnectionCount() int {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return len(s.clients)
}
