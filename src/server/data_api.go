package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"series-explorer/src/analysis"
	"series-explorer/src/helpers"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultCorrelationWindow = 30

// -----------------------------------------------------------------------------
// DataServer
// -----------------------------------------------------------------------------

// DataServer serves the catalogue and series of a store over REST.
type DataServer struct {
	Config     *models.MDataServiceConfig
	Store      interfaces.ISeriesStore
	Analyzer   *analysis.AnalysisFacade
	Logger     *logger.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// -----------------------------------------------------------------------------

func NewDataServer(cfg *models.MDataServiceConfig, store interfaces.ISeriesStore, analyzer *analysis.AnalysisFacade, log *logger.Logger) *DataServer {
	s := &DataServer{
		Config:   cfg,
		Store:    store,
		Analyzer: analyzer,
		Logger:   log,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), corsMiddleware(), requestMetrics())

	api := s.engine.Group("/api")
	api.GET("/healthz", s.getHealthz)
	api.GET("/datasets", s.getDatasets)
	api.GET("/data/:id", s.getSeries)
	api.GET("/correlation", s.getCorrelation)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the HTTP handler, for mounting in tests.
func (s *DataServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func (s *DataServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("Starting data service on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *DataServer) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (s *DataServer) getHealthz(c *gin.Context) {
	if err := s.Store.Ping(c.Request.Context()); err != nil {
		s.Logger.Error("Health check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// -----------------------------------------------------------------------------

func (s *DataServer) getDatasets(c *gin.Context) {
	names, err := s.Store.ListSeries()
	if err != nil {
		s.Logger.Error("Failed to list datasets: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list datasets"})
		return
	}
	c.JSON(http.StatusOK, names)
}

// -----------------------------------------------------------------------------

// getSeries answers a known series with its observations in range. A range
// that holds no observations is 200 with an empty array rather than 404, so
// clients can tell an empty window from a missing series.
func (s *DataServer) getSeries(c *gin.Context) {
	id := c.Param("id")

	start, end, ok := s.dateRange(c, "start", "end")
	if !ok {
		return
	}

	frequency := models.FrequencyNone
	if raw := strings.TrimSpace(c.Query("frequency")); raw != "" {
		f, known := models.ParseFrequency(raw)
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid frequency %q", raw)})
			return
		}
		frequency = f
	}
	transform, _ := models.ParseTransform(c.Query("transform"))

	if !s.exists(c, id) {
		return
	}

	observations, err := s.Store.GetObservations(id, start, end)
	if err != nil {
		s.Logger.Error("Failed to read %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read series"})
		return
	}

	q := models.MQueryDescriptor{Start: start, End: end, Frequency: frequency, Transform: transform}
	prepared, err := s.Analyzer.Prepare(id, observations, q)
	if err != nil {
		var validation *helpers.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.records(id, prepared))
}

// -----------------------------------------------------------------------------

func (s *DataServer) getCorrelation(c *gin.Context) {
	first := strings.TrimSpace(c.Query("series1"))
	second := strings.TrimSpace(c.Query("series2"))
	if first == "" || second == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "series1 and series2 are required"})
		return
	}

	window := defaultCorrelationWindow
	if raw := strings.TrimSpace(c.Query("window")); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be an integer"})
			return
		}
		window = w
	}
	if window <= 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be greater than 1"})
		return
	}

	series := make([][]models.MObservation, 0, 2)
	for _, id := range []string{first, second} {
		if !s.exists(c, id) {
			return
		}
		observations, err := s.Store.GetObservations(id, "", "")
		if err != nil {
			s.Logger.Error("Failed to read %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read series"})
			return
		}
		if len(observations) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Series %s has no data", id)})
			return
		}
		series = append(series, observations)
	}

	result, err := s.Analyzer.Correlate(series[0], series[1], window)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(result) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Correlation could not be computed for the overlapping dates"})
		return
	}

	out := make([]gin.H, 0, len(result))
	for _, o := range result {
		out = append(out, gin.H{"date": o.Date.String(), "correlation": o.Value})
	}
	c.JSON(http.StatusOK, out)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// dateRange validates the optional bounds and returns them in canonical form.
func (s *DataServer) dateRange(c *gin.Context, startKey, endKey string) (string, string, bool) {
	bounds := make([]string, 2)
	for i, key := range []string{startKey, endKey} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s date %q", key, raw)})
			return "", "", false
		}
		bounds[i] = d.String()
	}
	return bounds[0], bounds[1], true
}

// exists writes a 404 (or 500) and returns false when id is not catalogued.
func (s *DataServer) exists(c *gin.Context, id string) bool {
	found, err := s.Store.HasSeries(id)
	if err != nil {
		s.Logger.Error("Catalogue lookup for %s failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalogue lookup failed"})
		return false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Series %s not found", id)})
		return false
	}
	return true
}

// records renders observations with the configured value key.
func (s *DataServer) records(id string, observations []models.MObservation) []gin.H {
	key := "value"
	if s.Config.LegacyValueKey {
		key = id
	}
	out := make([]gin.H, 0, len(observations))
	for _, o := range observations {
		out = append(out, gin.H{"date": o.Date.String(), key: o.Value})
	}
	return out
}
