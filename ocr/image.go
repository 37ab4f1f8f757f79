// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/http"

	_ "golang.org/x/image/webp" // phone browsers upload webp
)

// MaxImageSize is the largest accepted upload, in bytes. OCR.space free keys
// reject files above 1 MB; the other providers take larger files.
const MaxImageSize = 10 << 20

// Upload errors.
var (
	ErrEmptyImage    = errors.New("empty image")
	ErrImageTooLarge = fmt.Errorf("image larger than %d bytes", MaxImageSize)
)

// DecodeImage decodes a JPEG, PNG, GIF or WebP image.
func DecodeImage(data []byte) (image.Image, string, error) {
	if err := checkImage(data); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s image: %w", http.DetectContentType(data), err)
	}

	return img, format, nil
}

func checkImage(data []byte) error {
	switch {
	case len(data) == 0:
		return ErrEmptyImage
	case len(data) > MaxImageSize:
		return ErrImageTooLarge
	}

	return nil
}
