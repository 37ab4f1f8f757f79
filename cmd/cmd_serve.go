// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/clenio77/rota-facil/ocr"
	"github.com/clenio77/rota-facil/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a API HTTP",
	Long: `Serve a API HTTP de leitura, geocodificação e roteirização de listas.
Geocodificação e OCR sem credenciais ficam indisponíveis (503) sem impedir o
resto da API.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !rootOptions.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		var enricher *geocoding.Enricher

		if e, closeCache, err := newEnricher(ctx); err != nil {
			log.Warn().Err(err).Msg("geocoding disabled")
		} else {
			defer closeCache()

			e.Progress = false
			enricher = e
		}

		var provider ocr.Provider

		if fb, closeOCR, err := cfg.NewOCR(ctx, traceWriter()); err != nil {
			log.Warn().Err(err).Msg("OCR disabled")
		} else {
			defer closeOCR()

			provider = fb
		}

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		s := server.New(server.Options{
			Parser:        cfg.NewParser(),
			Repository:    repo,
			Enricher:      enricher,
			OCR:           provider,
			Planner:       cfg.NewPlanner(traceWriter()),
			MaxUploadSize: cfg.Server.MaxUploadSize,
		})

		return s.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "endereço de escuta (padrão: server.addr)")

	rootCmd.AddCommand(serveCmd)
}
