// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the manifest pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/ocr"
	"github.com/clenio77/rota-facil/route"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server serves the HTTP API. Only the parser is required: endpoints whose
// component is nil answer 503.
type Server struct {
	parser        *manifest.Parser
	repo          manifest.Repository
	enricher      *geocoding.Enricher
	ocr           ocr.Provider
	planner       *route.Planner
	maxUploadSize int64
}

// Options holds the components of a Server.
type Options struct {
	Parser        *manifest.Parser
	Repository    manifest.Repository
	Enricher      *geocoding.Enricher
	OCR           ocr.Provider
	Planner       *route.Planner
	MaxUploadSize int64 // ocr.MaxImageSize when zero
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		parser:        opts.Parser,
		repo:          opts.Repository,
		enricher:      opts.Enricher,
		ocr:           opts.OCR,
		planner:       opts.Planner,
		maxUploadSize: opts.MaxUploadSize,
	}

	if s.parser == nil {
		s.parser = manifest.NewParser(manifest.ParserOptions{})
	}

	if s.planner == nil {
		s.planner = &route.Planner{}
	}

	if s.maxUploadSize == 0 {
		s.maxUploadSize = ocr.MaxImageSize
	}

	return s
}

// requestLogger logs every request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		evt := log.Info()
		if ctx.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		}

		evt.Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	api := r.Group("/api")
	api.POST("/manifests/parse", s.parseManifest)
	api.POST("/manifests/scan", s.scanManifest)
	api.GET("/manifests", s.listManifests)
	api.GET("/manifests/:id", s.getManifest)
	api.POST("/manifests/:id/geocode", s.geocodeManifest)
	api.POST("/geocode", s.geocodeItems)
	api.POST("/route", s.planRoute)
	api.GET("/states/:name", s.lookupState)

	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
