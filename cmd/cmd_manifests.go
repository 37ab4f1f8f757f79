// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const formatTable = "table"

var manifestsFormat string

var manifestsCmd = &cobra.Command{
	Use:   "manifests",
	Short: "Listas salvas no banco",
}

func printSummaries(w io.Writer, summaries []*manifest.Summary) error {
	a, b, c, d := strings.Repeat("─", 36), strings.Repeat("─", 16), strings.Repeat("─", 24), strings.Repeat("─", 17)

	lines := []string{
		fmt.Sprintf("╭─%s─┬─%s─┬─%s─┬─%s─╮", a, b, c, d),
		fmt.Sprintf("│ %-36s │ %-16s │ %-24s │ %5s %5s %5s │", "Id", "Criada", "Lista / Cidade", "Obj.", "Geo.", "Rev."),
		fmt.Sprintf("├─%s─┼─%s─┼─%s─┼─%s─┤", a, b, c, d),
	}

	for _, s := range summaries {
		where := strings.TrimSpace(s.Header.ListNumber + " " + s.Header.City)
		if len([]rune(where)) > 24 {
			where = string([]rune(where)[:23]) + "…"
		}

		lines = append(lines, fmt.Sprintf("│ %-36s │ %-16s │ %-24s │ %5d %5d %5d │",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), where, s.Items, s.Geocoded, s.Flagged))
	}

	lines = append(lines, fmt.Sprintf("╰─%s─┴─%s─┴─%s─┴─%s─╯", a, b, c, d))

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))

	return err
}

var manifestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista as listas salvas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		summaries, err := repo.ListManifests()
		if err != nil {
			return err
		}

		if manifestsFormat == formatJSON {
			return printJSON(cmd.OutOrStdout(), summaries)
		}

		return printSummaries(cmd.OutOrStdout(), summaries)
	},
}

var manifestsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Mostra os objetos de uma lista salva",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		m, err := repo.GetManifest(args[0])
		if err != nil {
			return err
		}

		format := manifestsFormat
		if format == formatTable {
			format = formatTSV
		}

		return printManifest(cmd.OutOrStdout(), format, &server.ManifestResponse{Manifest: m})
	},
}

var manifestsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Exporta todas as listas para um arquivo JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := manifest.ExportToJSON(repo, args[0])
		if err != nil {
			return err
		}

		log.Info().Int("manifests", n).Str("file", args[0]).Msg("exported")

		return nil
	},
}

var manifestsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Importa as listas de um arquivo JSON exportado",
	Long: `Importa as listas de um arquivo gerado por 'rota manifests export'. Listas
com o mesmo id são substituídas.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := manifest.ImportFromJSON(repo, args[0])
		if err != nil {
			return fmt.Errorf("imported %d manifests before failing: %w", n, err)
		}

		total, err := repo.CountManifests()
		if err != nil {
			return err
		}

		log.Info().Int("imported", n).Int("total", total).Msg("imported")

		return nil
	},
}

func init() {
	manifestsCmd.PersistentFlags().StringVar(&manifestsFormat, "format", formatTable,
		"formato da saída: table ou json (list), json ou tsv (show)")

	manifestsCmd.AddCommand(manifestsListCmd, manifestsShowCmd, manifestsExportCmd, manifestsImportCmd)
	rootCmd.AddCommand(manifestsCmd)
}
