// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/server"
	"github.com/spf13/cobra"
)

var geocodeOptions struct {
	Address string
	CEP     string
	Format  string
}

var errGeocodeArgs = errors.New("give a manifest id or --address")

// addressItem wraps a free address so it goes through the same query builder
// as the manifest items.
func addressItem(address, cep string) *manifest.DeliveryItem {
	item := &manifest.DeliveryItem{RawAddressLine: address, CEP: manifest.CEPUnknown}
	if c, ok := manifest.ExtractCEP(cep); ok {
		item.CEP = c
	}

	return item
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode [manifest-id]",
	Short: "Geocodifica uma lista salva ou um endereço avulso",
	Long: `Geocodifica os objetos de uma lista salva e grava as coordenadas no banco,
ou um único endereço com --address.

Exemplos:
  rota geocode 0b6f7a52-3c1e-4d8a-9f0e-2a1b3c4d5e6f
  rota geocode --address "Avenida Amazonas, 232" --cep 38400-734 --city Uberlândia --state MG`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (geocodeOptions.Address == "") {
			return errGeocodeArgs
		}

		ctx := cmd.Context()

		enricher, closeCache, err := newEnricher(ctx)
		if err != nil {
			return err
		}
		defer closeCache()

		if geocodeOptions.Address != "" {
			items := []*manifest.DeliveryItem{addressItem(geocodeOptions.Address, geocodeOptions.CEP)}

			metrics, err := enricher.Enrich(ctx, items, &cfg.Location)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), &server.GeocodeResponse{Items: items, Geocoding: metrics})
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

		metrics, err := enricher.Enrich(ctx, m.Items, locationFor(m.Header))
		if err != nil {
			return err
		}

		if err := repo.UpdateGeocoding(m.ID, m.Items); err != nil {
			return err
		}

		return printManifest(cmd.OutOrStdout(), geocodeOptions.Format, &server.ManifestResponse{Manifest: m, Geocoding: metrics})
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeOptions.Address, "address", "", "endereço avulso a geocodificar")
	geocodeCmd.Flags().StringVar(&geocodeOptions.CEP, "cep", "", "CEP do endereço avulso")
	geocodeCmd.Flags().StringVar(&geocodeOptions.Format, "format", formatTSV, "formato da saída: json ou tsv")

	rootCmd.AddCommand(geocodeCmd)
}
