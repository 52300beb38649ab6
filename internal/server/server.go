// Package server hosts the DataScope HTTP application: dataset upload and
// inspection, statistics, cleaning, model recommendations, figures, reports
// and AI enhancement, all scoped to an explicit per-session state.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/datascopehq/datascope-cli/internal/appstate"
	"github.com/datascopehq/datascope-cli/internal/config"
	"github.com/datascopehq/datascope-cli/internal/dataset"
)

const appName = "DataScope"

const shutdownTimeout = 10 * time.Second

// Options configures the app server beyond what config.Global carries.
type Options struct {
	// Version is the app version shown on the landing page and /api/version.
	Version string
	// Root is the app root; uploads, figures and reports land under it.
	// Empty means the current directory.
	Root string
}

// Server is the echo application with its persistent store and a cache of
// loaded tables keyed by dataset id.
type Server struct {
	cfg   *config.Global
	store *appstate.Store
	opts  Options
	e     *echo.Echo

	uploadsDir string
	figuresDir string
	reportsDir string

	mu     sync.Mutex
	tables map[string]*dataset.Table
}

// New assembles the server: sonic JSON codec, recovery and request logging
// middleware, and the API routes. Session resolution applies to the landing
// page and every route that touches datasets.
func New(cfg *config.Global, store *appstate.Store, opts Options) *Server {
	s := &Server{
		cfg:        cfg,
		store:      store,
		opts:       opts,
		uploadsDir: filepath.Join(opts.Root, "data", "uploads"),
		figuresDir: filepath.Join(opts.Root, "temp", "figures"),
		reportsDir: filepath.Join(opts.Root, "temp", "reports"),
		tables:     map[string]*dataset.Table{},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	e.GET("/", s.handleLanding, s.withSession)
	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/version", s.handleVersion)

	data := api.Group("", s.withSession)
	data.POST("/datasets", s.handleUpload)
	data.GET("/datasets", s.handleListDatasets)
	data.GET("/datasets/:id", s.handleGetDataset)
	data.DELETE("/datasets/:id", s.handleDeleteDataset)
	data.GET("/datasets/:id/stats", s.handleStats)
	data.GET("/datasets/:id/correlations", s.handleCorrelations)
	data.GET("/datasets/:id/contrast", s.handleContrast)
	data.GET("/datasets/:id/reliability", s.handleReliability)
	data.GET("/datasets/:id/factors", s.handleFactors)
	data.GET("/datasets/:id/validity", s.handleValidity)
	data.POST("/datasets/:id/clean", s.handleClean)
	data.GET("/datasets/:id/models", s.handleModels)
	data.GET("/datasets/:id/charts", s.handleCharts)
	data.POST("/datasets/:id/figures", s.handleFigure)
	data.POST("/datasets/:id/report", s.handleReport)
	data.POST("/enhance", s.handleEnhance)
	data.GET("/results", s.handleListResults)
	data.GET("/results/:id", s.handleGetResult)
	data.DELETE("/results/:id", s.handleDeleteResult)
	data.GET("/sessions", s.handleListSessions)
	data.DELETE("/sessions/:id", s.handleDeleteSession)

	s.e = e
	return s
}

// Start runs the server until the context is canceled or SIGINT/SIGTERM
// arrives, then drains connections for up to ten seconds.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.cfg.UsageStats {
		if n, err := s.store.IncrementRunCount(); err == nil {
			log.Info().Uint64("runs", n).Msg("usage stats: local run counter only, nothing leaves this machine")
		}
	}

	addr := net.JoinHostPort(s.cfg.ServerHost, strconv.Itoa(s.cfg.ServerPort))
	url := "http://" + addr
	log.Info().Str("url", url).Msg("starting app server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(addr)
	}()

	if s.cfg.OpenBrowser {
		go OpenBrowser(ctx, url)
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	drain, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.e.Shutdown(drain); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// table returns the dataset's record and its loaded table, reloading from
// the stored path when the cache has no entry.
func (s *Server) table(id string) (*dataset.Table, *appstate.DatasetRecord, error) {
	rec, err := s.store.GetDataset(id)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	t := s.tables[id]
	s.mu.Unlock()
	if t != nil {
		return t, rec, nil
	}
	t, err = dataset.Load(rec.Path, s.loadOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("reload dataset %s: %w", id, err)
	}
	s.cacheTable(id, t)
	return t, rec, nil
}

func (s *Server) cacheTable(id string, t *dataset.Table) {
	s.mu.Lock()
	s.tables[id] = t
	s.mu.Unlock()
}

func (s *Server) dropTable(id string) {
	s.mu.Lock()
	delete(s.tables, id)
	s.mu.Unlock()
}

func (s *Server) loadOptions() dataset.LoadOptions {
	opt := dataset.DefaultLoadOptions()
	if s.cfg.AnalysisMaxRows > 0 {
		opt.MaxRows = s.cfg.AnalysisMaxRows
	}
	if s.cfg.AnalysisMaxFileMB > 0 {
		opt.MaxBytes = int64(s.cfg.AnalysisMaxFileMB) << 20
	}
	return opt
}

// Swappable for tests.
var runOpen = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// OpenBrowser points the system browser at url. Best effort: failures log
// at debug level and nothing else happens.
func OpenBrowser(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	name, args := "xdg-open", []string{url}
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	}
	if err := runOpen(ctx, name, args...); err != nil {
		log.Debug().Err(err).Str("url", url).Msg("open browser failed")
	}
}
