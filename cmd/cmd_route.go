// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clenio77/rota-facil/route"
	"github.com/clenio77/rota-facil/spatial"
	"github.com/spf13/cobra"
)

var routeOptions struct {
	Start  string
	Format string
}

// parseStart reads 'lat,lng'.
func parseStart(s string) (*spatial.Point, error) {
	if s == "" {
		return nil, nil
	}

	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("start %q: want lat,lng", s)
	}

	p := &spatial.Point{}

	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return nil, fmt.Errorf("start latitude: %w", err)
	}

	if p.Lng, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return nil, fmt.Errorf("start longitude: %w", err)
	}

	if !spatial.BrazilBounds.Contains(*p) {
		return nil, fmt.Errorf("start %s is outside Brazil", p)
	}

	return p, nil
}

// printPlanTSV prints one stop per line: order, coordinates, sequences and
// object codes; the unlocated items follow.
func printPlanTSV(w io.Writer, plan *route.Plan) error {
	for i, stop := range plan.Stops {
		seqs := make([]string, len(stop.Items))
		codes := make([]string, len(stop.Items))

		for j, item := range stop.Items {
			seqs[j] = strconv.Itoa(item.Sequence)
			codes[j] = item.ObjectCode
		}

		if _, err := fmt.Fprintf(w, "%d\t%.6f,%.6f\t%s\t%s\n",
			i+1, stop.Point.Lat, stop.Point.Lng, strings.Join(seqs, ","), strings.Join(codes, ","),
		); err != nil {
			return err
		}
	}

	for _, item := range plan.Unlocated {
		if _, err := fmt.Fprintf(w, "-\t-\t%d\t%s\t%s\n", item.Sequence, item.ObjectCode, item.GeocodingError); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "# %d paradas, %.1f km\n", len(plan.Stops), plan.Distance/1000)

	return err
}

var routeCmd = &cobra.Command{
	Use:   "route <manifest-id>",
	Short: "Ordena as paradas de uma lista geocodificada",
	Long: `Agrupa os objetos geocodificados de uma lista salva em paradas e as ordena pelo
vizinho mais próximo a partir de --start. Com routing.osrm_url configurado, a
distância é a do trajeto pelas ruas.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseStart(routeOptions.Start)
		if err != nil {
			return err
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		m, err := repo.GetManifest(args[0])
		if err != nil {
			return err
		}

		plan := cfg.NewPlanner(traceWriter()).Plan(cmd.Context(), start, m.Items)

		switch routeOptions.Format {
		case formatJSON:
			return printJSON(cmd.OutOrStdout(), plan)
		case formatTSV:
			return printPlanTSV(cmd.OutOrStdout(), plan)
		}

		return errFormat
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeOptions.Start, "start", "", "ponto de partida, lat,lng")
	routeCmd.Flags().StringVar(&routeOptions.Format, "format", formatTSV, "formato da saída: json ou tsv")

	rootCmd.AddCommand(routeCmd)
}
