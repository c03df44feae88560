package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
	"series-explorer/src/orchestrator"
	"series-explorer/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// ExplorerServer
// -----------------------------------------------------------------------------

// ExplorerServer exposes the orchestrator's presentation state over REST and
// pushes every new snapshot to websocket clients.
type ExplorerServer struct {
	Config       *models.MExplorerConfig
	Orchestrator *orchestrator.Orchestrator
	Catalogue    interfaces.ISeriesSource
	History      *utils.RingBuffer[models.MFetchMetrics]
	Logger       *logger.Logger
	engine       *gin.Engine
	httpServer   *http.Server

	// WebSocket clients, owned by the hub loop
	clients     map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	direct      chan directMessage
	notify      chan struct{}
	done        chan struct{}
	connections atomic.Int64
	stopOnce    sync.Once
	unsubscribe func()

	// Local cache of the latest snapshot
	latestState models.MPresentationState
	stateMutex  sync.RWMutex
}

var _ interfaces.IDataExchanger = (*ExplorerServer)(nil)

type directMessage struct {
	client  *Client
	message *models.MStateMessage
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewExplorerServer(
	cfg *models.MExplorerConfig,
	orch *orchestrator.Orchestrator,
	catalogue interfaces.ISeriesSource,
	history *utils.RingBuffer[models.MFetchMetrics],
	log *logger.Logger,
) *ExplorerServer {
	s := &ExplorerServer{
		Config:       cfg,
		Orchestrator: orch,
		Catalogue:    catalogue,
		History:      history,
		Logger:       log,
		engine:       gin.New(),
		clients:      make(map[*Client]struct{}),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		direct:       make(chan directMessage),
		// Capacity 1: bursts of snapshots collapse into one pending notification
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		latestState: orch.State(),
	}

	s.engine.Use(gin.Recovery(), corsMiddleware())
	s.setupRoutes()

	go s.handleWebsockets()
	s.unsubscribe = orch.Subscribe(s.Publish)
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ExplorerServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/catalogue", s.getCatalogue)
	api.POST("/catalogue/reload", s.reloadCatalogue)
	api.GET("/state", s.getState)
	api.POST("/selection/toggle", s.toggleSeries)
	api.PUT("/selection", s.putSelection)
	api.PUT("/filters", s.putFilters)
	api.POST("/refresh", s.refresh)
	api.GET("/metrics", s.getMetrics)

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)

	if s.Config.StaticDir != "" {
		s.engine.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.Config.StaticDir))))
	}
}

// Handler returns the HTTP handler, for mounting in tests.
func (s *ExplorerServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ExplorerServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("Starting explorer server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop detaches from the orchestrator, closes every websocket client and
// shuts the HTTP server down.
func (s *ExplorerServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.unsubscribe()
		close(s.done)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Publish stores the snapshot and wakes the hub. It never blocks, so it is
// safe to call with the orchestrator lock held.
func (s *ExplorerServer) Publish(state models.MPresentationState) {
	s.stateMutex.Lock()
	s.latestState = state
	s.stateMutex.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// LatestState returns the last published snapshot.
func (s *ExplorerServer) LatestState() models.MPresentationState {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.latestState
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ExplorerServer) getHealth(c *gin.Context) {
	state := s.LatestState()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   s.connections.Load(),
		"epoch":         state.Epoch,
		"phase":         state.Phase,
		"latest_update": state.UpdatedAt,
	})
}

// -----------------------------------------------------------------------------

func (s *ExplorerServer) getCatalogue(c *gin.Context) {
	state := s.LatestState()
	if len(state.Catalogue) == 0 && state.CatalogueError == "" {
		s.reloadCatalogue(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"catalogue": state.Catalogue,
		"error":     state.CatalogueError,
	})
}

func (s *ExplorerServer) reloadCatalogue(c *gin.Context) {
	if err := s.Orchestrator.LoadCatalogue(c.Request.Context(), s.Catalogue); err != nil {
		s.Logger.Warning("Catalogue reload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalogue": s.Orchestrator.State().Catalogue})
}

// -----------------------------------------------------------------------------

func (s *ExplorerServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.Orchestrator.State())
}

// -----------------------------------------------------------------------------

type toggleRequest struct {
	Series string `json:"series"`
}

func (s *ExplorerServer) toggleSeries(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Series) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"series\": \"<id>\"}"})
		return
	}
	s.Orchestrator.Toggle(strings.TrimSpace(req.Series))
	c.JSON(http.StatusAccepted, s.Orchestrator.State())
}

type selectionRequest struct {
	Series []string `json:"series"`
}

func (s *ExplorerServer) putSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"series\": [\"<id>\", ...]}"})
		return
	}
	s.Orchestrator.Select(req.Series...)
	c.JSON(http.StatusAccepted, s.Orchestrator.State())
}

func (s *ExplorerServer) putFilters(c *gin.Context) {
	var filters models.MFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Orchestrator.SetFilters(filters)
	c.JSON(http.StatusAccepted, s.Orchestrator.State())
}

// refresh reloads the current selection, the way to retry a failed load.
func (s *ExplorerServer) refresh(c *gin.Context) {
	s.Orchestrator.Refresh()
	c.JSON(http.StatusAccepted, s.Orchestrator.State())
}

// -----------------------------------------------------------------------------

func (s *ExplorerServer) getMetrics(c *gin.Context) {
	history := []models.MFetchMetrics{}
	if s.History != nil {
		history = append(history, s.History.GetAll()...)
	}
	c.JSON(http.StatusOK, gin.H{"cycles": history})
}
