// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Ferramentas de desenvolvimento",
}

var debugEstadosCmd = &cobra.Command{
	Use:   "estados",
	Short: "Interage com a normalização de nomes de estados",
	Long: `Lê um nome de estado por linha e imprime a UF reconhecida, ou os estados
mais próximos quando o nome não é reconhecido.

$ echo "minas gerals" | rota debug estados
minas gerals	MG	Minas Gerais
	`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input := cmd.InOrStdin()
		if f, ok := input.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			fmt.Fprintln(os.Stderr, "Digite os estados a analisar, um por linha…")
		}

		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(input)

		for scanner.Scan() {
			name := scanner.Text()

			if uf, ok := geocoding.NormalizeState(name); ok {
				full, _ := geocoding.StateName(uf)
				fmt.Fprintf(out, "%s\t%s\t%s\n", name, uf, full)

				continue
			}

			fmt.Fprintf(out, "%s\t?", name)

			for _, m := range geocoding.SearchStates(name)[:3] {
				fmt.Fprintf(out, "\t%s(%d)", m.UF, m.Distance)
			}

			fmt.Fprintln(out)
		}

		return scanner.Err()
	},
}

var debugLinhasCmd = &cobra.Command{
	Use:   "linhas [file]",
	Short: "Mostra como cada linha de uma lista é classificada",
	Long: `Lê o texto de uma lista de um arquivo ou da entrada padrão e imprime, para
cada linha, a regra que o extrator aplica: início de objeto (com o padrão que
reconheceu o código), endereço, CEP, destino ou outra.

Exemplos:
  rota debug linhas lista.txt
  rota debug linhas --format json < lista.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		lines := cfg.NewParser().ClassifyLines(text)

		switch debugFormat {
		case formatJSON:
			return printJSON(cmd.OutOrStdout(), lines)
		case formatTSV:
		default:
			return errFormat
		}

		out := cmd.OutOrStdout()
		for _, l := range lines {
			if _, err := fmt.Fprintf(out, "%d\t%-11s\t%-11s\t%-17s\t%-8s\t%s\n",
				l.Index+1, l.Kind, l.Pattern, l.ObjectCode, l.CEP, l.Text,
			); err != nil {
				return err
			}
		}

		return nil
	},
}

var debugFormat string

func init() {
	debugLinhasCmd.Flags().StringVar(&debugFormat, "format", formatTSV, "formato da saída: json ou tsv")

	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugEstadosCmd, debugLinhasCmd)
}
