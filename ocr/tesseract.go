// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clenio77/rota-facil/utils/textutils"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs the local Tesseract engine. It needs libtesseract and the
// 'por' traineddata installed.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a Tesseract provider for the given languages.
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"por"}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("setting language: %w", err)
	}

	// manifests are a single column of lines
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_COLUMN); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// Name implements Provider.
func (t *Tesseract) Name() string {
	return ProviderTesseract
}

// Close releases the engine.
func (t *Tesseract) Close() error {
	if t == nil || t.client == nil {
		return nil
	}

	return t.client.Close()
}

// Recognize implements Provider. Tesseract is asked for hOCR so that line
// boundaries survive multi-column layouts.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if err := checkImage(image); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()

	if err := t.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	hocr, err := t.client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	text, err := textutils.HOCRToText(strings.NewReader(hocr))
	if err != nil {
		return nil, fmt.Errorf("reading hOCR: %w", err)
	}

	return &Result{
		Text:     text,
		Provider: ProviderTesseract,
		Duration: time.Since(start),
	}, nil
}
