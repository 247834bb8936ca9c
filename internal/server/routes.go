package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/tallbag/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// runRequest overrides fields of the configured pipeline for one run.
type runRequest struct {
	Mode    *string  `json:"mode"`
	Values  []string `json:"values"`
	Fail    *string  `json:"fail"`
	Take    *int     `json:"take"`
	Upper   *bool    `json:"upper"`
	Timeout *string  `json:"timeout"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.Config().Name,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		s.mu.RLock()
		runs := s.runs
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.appeared).String(),
			"service": s.Config().Name,
			"runs":    runs,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/runs", func(c *gin.Context) {
		p := s.Config().Pipeline
		if c.Request.ContentLength != 0 {
			var req runRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var err error
			if p, err = req.apply(p); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		report, err := s.Run(c.Request.Context(), p)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, config.ErrInvalid) {
				status = http.StatusBadRequest
			}
			log.Warn().Err(err).Msg("pipeline run rejected")
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	s.router.GET("/runs/last", func(c *gin.Context) {
		report, ok := s.LastRun()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runs yet"})
			return
		}
		c.JSON(http.StatusOK, report)
	})
}

func (r runRequest) apply(p config.PipelineConfig) (config.PipelineConfig, error) {
	if r.Mode != nil {
		p.Mode = strings.ToLower(strings.TrimSpace(*r.Mode))
	}
	if r.Values != nil {
		p.Values = r.Values
	}
	if r.Fail != nil {
		p.Fail = strings.TrimSpace(*r.Fail)
	}
	if r.Take != nil {
		p.Take = *r.Take
	}
	if r.Upper != nil {
		p.Upper = *r.Upper
	}
	if r.Timeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*r.Timeout))
		if err != nil {
			return p, err
		}
		p.Timeout = d
	}
	// Trace files are a local concern; remote runs never write them.
	p.TraceFile = ""
	return p, nil
}
