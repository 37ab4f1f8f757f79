// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clenio77/rota-facil/spatial"
)

const maxQueryLength = 500

var errEmptyQuery = &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "consulta vazia"}

// validateCoordinates verifica se as coordenadas são válidas e caem no
// território brasileiro.
func validateCoordinates(lat, lng float64) error {
	// Limites globais
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude deve estar entre -90 e 90 (recebido: %f)", lat)
	}

	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude deve estar entre -180 e 180 (recebido: %f)", lng)
	}

	// (0, 0) é o que alguns provedores devolvem quando falham
	if lat == 0 && lng == 0 {
		return errors.New("coordenadas nulas")
	}

	b := spatial.BrazilBounds
	if !b.Contains(spatial.Point{Lat: lat, Lng: lng}) {
		return fmt.Errorf(
			"(%f, %f) fora dos limites do Brasil (%.1f a %.1f, %.1f a %.1f)",
			lat, lng, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng,
		)
	}

	return nil
}

// validateResult verifica um resultado devolvido por um provedor.
func validateResult(r *Result) error {
	if r == nil {
		return &GeocodingError{Type: ErrorTypeNotFound, Message: "resultado vazio"}
	}

	if err := validateCoordinates(r.Lat, r.Lng); err != nil {
		return &GeocodingError{Type: ErrorTypeOutOfBounds, Message: r.Provider + ": resultado inválido", Err: err}
	}

	if r.Confidence < 0 || r.Confidence > 1 {
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: fmt.Sprintf("%s: confiança inválida: %f", r.Provider, r.Confidence),
		}
	}

	return nil
}

// sanitizeQuery limpa e limita o tamanho da consulta.
func sanitizeQuery(q string) (string, error) {
	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return "", errEmptyQuery
	}

	if len(q) > maxQueryLength {
		q = q[:maxQueryLength]
	}

	return q, nil
}
