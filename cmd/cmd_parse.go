// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/clenio77/rota-facil/ocr"
	"github.com/clenio77/rota-facil/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	parseOptions = &pipelineOptions{}
	scanOptions  = &pipelineOptions{}
	scanOCROnly  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extrai os objetos do texto OCR de uma lista de entrega",
	Long: `Lê o texto de uma lista de entrega de um arquivo ou da entrada padrão e
imprime os objetos extraídos, na ordem da lista.

Exemplos:
  rota parse lista.txt
  cat lista.txt | rota parse --geocode --save --format tsv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		return runPipeline(cmd.Context(), cmd.OutOrStdout(), parseOptions, text, nil)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <image>...",
	Short: "Lê as fotos das páginas de uma lista de entrega",
	Long: `Reconhece o texto de cada página (OCR) e os códigos de barras dos objetos,
que corrigem os códigos lidos com erro, e extrai os objetos da lista.

Exemplo:
  rota scan pagina1.jpg pagina2.jpg --geocode`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		provider, closeOCR, err := cfg.NewOCR(ctx, traceWriter())
		if err != nil {
			return err
		}
		defer closeOCR()

		var (
			texts      []string
			providers  []string
			confidence float64
		)

		opts := *scanOptions

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			res, err := provider.Recognize(ctx, data)
			switch {
			case errors.Is(err, ocr.ErrNoText):
				log.Warn().Str("file", path).Msg("no text recognized, skipping page")

				continue
			case err != nil:
				return fmt.Errorf("recognizing %s: %w", path, err)
			}

			log.Debug().Str("file", path).Str("provider", res.Provider).Dur("duration", res.Duration).Msg("page recognized")

			texts = append(texts, res.Text)
			providers = append(providers, res.Provider)
			confidence += res.Confidence

			codes, err := ocr.ScanObjectCodes(data)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("barcode scan failed")
			}

			opts.Scanned = append(opts.Scanned, codes...)
		}

		if len(texts) == 0 {
			return ocr.ErrNoText
		}

		text := strings.Join(texts, "\n")

		if scanOCROnly {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)

			return err
		}

		info := &server.OCRInfo{
			Provider:   strings.Join(providers, ","),
			Confidence: confidence / float64(len(texts)),
			Barcodes:   opts.Scanned,
		}

		return runPipeline(ctx, cmd.OutOrStdout(), &opts, text, info)
	},
}

func addPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().BoolVar(&opts.Geocode, "geocode", false, "geocodifica os endereços")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "salva a lista no banco")
	cmd.Flags().StringVar(&opts.Format, "format", formatJSON, "formato da saída: json ou tsv")
}

func init() {
	addPipelineFlags(parseCmd, parseOptions)
	parseCmd.Flags().StringSliceVar(&parseOptions.Scanned, "scanned", nil,
		"códigos de objeto lidos dos códigos de barras, para corrigir o OCR")

	addPipelineFlags(scanCmd, scanOptions)
	scanCmd.Flags().BoolVar(&scanOCROnly, "ocr-only", false, "imprime só o texto reconhecido")

	rootCmd.AddCommand(parseCmd, scanCmd)
}
