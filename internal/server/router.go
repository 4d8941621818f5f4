// Package server exposes a read-only HTTP view of the worker: current
// process-table matches, lock-file state, recent restart sessions, and
// prometheus metrics. It never starts a session itself; restarts stay
// an operator action.
package server

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teleops/respawn/internal/config"
	"github.com/teleops/respawn/internal/history"
	"github.com/teleops/respawn/internal/metrics"
	"github.com/teleops/respawn/internal/proctable"
)

type Router struct {
	cfg      config.Config
	locator  *proctable.Locator
	hist     history.Store
	basePath string
}

// NewRouter constructs a Router. hist may be nil when history is
// disabled. basePath may be empty or start with '/'; no trailing slash.
func NewRouter(cfg config.Config, table proctable.Table, hist history.Store, basePath string) *Router {
	return &Router{
		cfg:      cfg,
		locator:  proctable.NewLocator(table),
		hist:     hist,
		basePath: sanitizeBase(basePath),
	}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/sessions", r.handleSessions)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// The returned channel carries the terminal ListenAndServe error; after
// a graceful Shutdown it receives http.ErrServerClosed.
func NewServer(addr string, r *Router) (*http.Server, <-chan error) {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	ch := make(chan error, 1)
	go func() { ch <- server.ListenAndServe() }()
	return server, ch
}

type statusResponse struct {
	Signature  string           `json:"signature"`
	Processes  []proctable.Proc `json:"processes"`
	LockExists bool             `json:"lock_exists"`
}

func (r *Router) handleStatus(c *gin.Context) {
	procs, err := r.locator.Locate(r.cfg.Worker.Signature)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if procs == nil {
		procs = []proctable.Proc{}
	}
	lock := false
	if r.cfg.Worker.LockFile != "" {
		if _, err := os.Stat(r.cfg.Worker.LockFile); err == nil {
			lock = true
		}
	}
	c.JSON(http.StatusOK, statusResponse{
		Signature:  r.cfg.Worker.Signature,
		Processes:  procs,
		LockExists: lock,
	})
}

func (r *Router) handleSessions(c *gin.Context) {
	if r.hist == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}
	limit := 20
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	recs, err := r.hist.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

// handleHealthz is green only when exactly one worker instance matches
// the signature.
func (r *Router) handleHealthz(c *gin.Context) {
	procs, err := r.locator.Locate(r.cfg.Worker.Signature)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(procs) == 1 {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "pid": procs[0].PID})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "instances": len(procs)})
}

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimSuffix(bp, "/")
}
