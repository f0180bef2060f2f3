// Package report is the read-only reporting surface: run history, corpus
// stats, and current bias weights over HTTP, plus a websocket live channel
// fed by the orchestrator.
package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"specforge/internal/bias"
	"specforge/internal/corpus"
	"specforge/internal/logging"
	"specforge/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the reporting API. It never writes to the corpus, the bias
// file, or the run log.
type Server struct {
	runLog       *orchestrator.RunLog
	store        *corpus.Store
	adapter      *bias.Adapter
	hub          *Hub
	historyLimit int
	engine       *gin.Engine
}

// NewServer wires the API routes. historyLimit bounds the default /api/runs
// page size.
func NewServer(runLog *orchestrator.RunLog, store *corpus.Store, adapter *bias.Adapter, historyLimit int) *Server {
	if historyLimit <= 0 {
		historyLimit = 50
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		runLog:       runLog,
		store:        store,
		adapter:      adapter,
		hub:          NewHub(),
		historyLimit: historyLimit,
		engine:       engine,
	}

	engine.GET("/healthz", s.handleHealth)
	api := engine.Group("/api")
	{
		api.GET("/runs", s.handleRuns)
		api.GET("/runs/latest", s.handleLatestRun)
		api.GET("/stats", s.handleStats)
		api.GET("/bias", s.handleBias)
		api.GET("/live", s.handleLive)
	}
	return s
}

// Publish pushes a completed run record to every live client. The
// orchestrator's Deps.Publish hook points here.
func (s *Server) Publish(rec orchestrator.RunRecord) {
	s.hub.Broadcast(rec)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// ClientCount reports the number of connected live clients.
func (s *Server) ClientCount() int { return s.hub.ClientCount() }

// Run serves until the context is cancelled, then drains live clients and
// shuts down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Report("reporting API listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRuns(c *gin.Context) {
	limit := s.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.runLog.Tail(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []orchestrator.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": records, "count": len(records)})
}

func (s *Server) handleLatestRun(c *gin.Context) {
	rec, err := s.runLog.Latest()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no runs recorded yet"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleBias(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"weights": s.adapter.Snapshot()})
}

// handleLive upgrades to a websocket and streams run records until the
// client disconnects. Reads are drained only to detect the close.
func (s *Server) handleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Report("websocket upgrade failed: %v", err)
		return
	}
	s.hub.Register(conn)

	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
