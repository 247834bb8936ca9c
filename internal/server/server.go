package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/tallbag"
	"github.com/danmuck/tallbag/internal/config"
	"github.com/danmuck/tallbag/internal/logging"
	"github.com/danmuck/tallbag/internal/observability"
	"github.com/danmuck/tallbag/internal/pipeline"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Server is the admin surface: health, metrics and on-demand pipeline runs.
type Server struct {
	router   *gin.Engine
	appeared time.Time

	mu   sync.RWMutex
	cfg  config.Config
	last *pipeline.Report
	runs int
}

func New(cfg config.Config) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.Middleware(cfg.Name, log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		router:   r,
		appeared: time.Now(),
		cfg:      cfg,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig swaps the pipeline settings and log level used by later
// requests. The listen address and CORS origins only change on restart.
func (s *Server) SetConfig(cfg config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		logging.SetLevel(lvl)
	}
	log.Info().Str("mode", cfg.Pipeline.Mode).Str("level", cfg.Log.Level).Msg("admin config updated")
}

// Serve listens on the configured admin address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	addr := s.Config().AdminAddr
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", addr).Msg("admin server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Run executes one pipeline run and keeps its report as the last run.
func (s *Server) Run(ctx context.Context, p config.PipelineConfig) (pipeline.Report, error) {
	name := s.Config().Name
	report, err := pipeline.Run(ctx, p, tallbag.WithName(name))
	if err != nil {
		return pipeline.Report{}, err
	}
	s.mu.Lock()
	s.last = &report
	s.runs++
	s.mu.Unlock()
	return report, nil
}

func (s *Server) LastRun() (pipeline.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return pipeline.Report{}, false
	}
	return *s.last, true
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
