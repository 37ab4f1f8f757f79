// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !ocr

package ocr

import "context"

// Tesseract is the stub used when the 'ocr' build tag is not set. Rebuild
// with -tags ocr to enable it.
type Tesseract struct{}

// NewTesseract returns ErrOCRNotEnabled.
func NewTesseract(_ ...string) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Name implements Provider.
func (t *Tesseract) Name() string {
	return ProviderTesseract
}

// Close is a no-op. It is safe to call on a nil provider.
func (t *Tesseract) Close() error {
	return nil
}

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(_ context.Context, _ []byte) (*Result, error) {
	return nil, ErrOCRNotEnabled
}
