// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package ocr reads the text and the object-code barcodes of a photographed
// courier manifest.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Provider names.
const (
	ProviderOCRSpace  = "ocr_space"
	ProviderVision    = "google_vision"
	ProviderTesseract = "tesseract"
)

var (
	// ErrNoText is returned when a provider reads no text at all.
	ErrNoText = errors.New("no text recognized")
	// ErrOCRNotEnabled is returned by Tesseract when the binary was built
	// without the 'ocr' tag.
	ErrOCRNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags ocr")
)

// Result is the text read from one image.
type Result struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"` // 0 to 1, 0 when the provider does not tell
	Provider   string        `json:"provider"`
	Duration   time.Duration `json:"duration"`
}

// Provider recognizes the text of an encoded image.
type Provider interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (*Result, error)
}

// Fallback tries its providers in order; the first one returning text wins.
type Fallback struct {
	Providers []Provider
}

// Name implements Provider.
func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.Providers))
	for _, p := range f.Providers {
		names = append(names, p.Name())
	}

	return strings.Join(names, ",")
}

// Recognize implements Provider.
func (f *Fallback) Recognize(ctx context.Context, image []byte) (*Result, error) {
	var errs []error

	for _, p := range f.Providers {
		start := time.Now()

		r, err := p.Recognize(ctx, image)
		if err == nil && strings.TrimSpace(r.Text) == "" {
			err = ErrNoText
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			log.Warn().Err(err).Str("provider", p.Name()).Msg("OCR failed, trying next provider")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))

			continue
		}

		if r.Duration == 0 {
			r.Duration = time.Since(start)
		}

		return r, nil
	}

	if len(errs) == 0 {
		return nil, errors.New("no OCR provider configured")
	}

	return nil, errors.Join(errs...)
}
