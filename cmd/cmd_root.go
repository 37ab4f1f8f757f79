// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/clenio77/rota-facil/config"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootOptions struct {
	ConfigPath string
	LogJSON    bool
	Verbose    bool
	Trace      bool
	DBPath     string
	City       string
	State      string
}

// cfg is loaded before any subcommand runs.
var cfg *config.Config

// setupLogging points the global zerolog logger at w: a console writer with
// the local timestamp, or JSON lines.
func setupLogging(w io.Writer, jsonOutput, verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	if jsonOutput {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()

		return
	}

	f, ok := w.(*os.File)
	color := ok && isatty.IsTerminal(f.Fd())

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !color,
	}).With().Timestamp().Logger()
}

// loadConfig reads .env, the config file and the environment, then applies
// the persistent flags.
func loadConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	path := rootOptions.ConfigPath
	if path == "" {
		path = os.Getenv("ROTA_CONFIG")
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = rootOptions.DBPath
	}

	if flags.Changed("city") {
		c.Location.City = rootOptions.City
	}

	if flags.Changed("state") {
		c.Location.State = rootOptions.State
	}

	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c

	return nil
}

// traceWriter is where the HTTP clients dump their traffic.
func traceWriter() io.Writer {
	if rootOptions.Trace {
		return os.Stderr
	}

	return nil
}

var rootCmd = &cobra.Command{
	Use:   "rota",
	Short: "listas de entrega dos Correios em rotas geocodificadas",
	Long: `
rota lê o texto (ou a foto) de uma lista de entrega da ECT, extrai os objetos
com seus endereços e CEPs, geocodifica cada endereço e ordena as paradas para
o carteiro.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		setupLogging(os.Stderr, rootOptions.LogJSON, rootOptions.Verbose)

		return loadConfig(cmd)
	},
}

var Version = "dev"

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.ConfigPath, "config", "", "arquivo de configuração YAML (padrão: $ROTA_CONFIG)")
	flags.BoolVar(&rootOptions.LogJSON, "log-json", false, "log em JSON")
	flags.BoolVarP(&rootOptions.Verbose, "verbose", "v", false, "log de depuração")
	flags.BoolVar(&rootOptions.Trace, "trace", false, "imprime as requisições HTTP em stderr")
	flags.StringVar(&rootOptions.DBPath, "db", "", "banco DuckDB das listas")
	flags.StringVar(&rootOptions.City, "city", "", "cidade usada quando a lista não informa")
	flags.StringVar(&rootOptions.State, "state", "", "UF ou nome do estado usado quando a lista não informa")
}

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
