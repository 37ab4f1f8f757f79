// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"
)

// Vision uses Google Cloud Vision document text detection.
type Vision struct {
	svc           *vision.Service
	LanguageHints []string
}

// NewVision creates a Cloud Vision client. Without an API key the
// Application Default Credentials are used.
func NewVision(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Vision, error) {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision service: %w", err)
	}

	return &Vision{svc: svc, LanguageHints: []string{"pt"}}, nil
}

// Name implements Provider.
func (v *Vision) Name() string {
	return ProviderVision
}

// Recognize implements Provider. The confidence is the mean of the page
// confidences.
func (v *Vision) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if err := checkImage(image); err != nil {
		return nil, err
	}

	start := time.Now()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:        &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features:     []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			ImageContext: &vision.ImageContext{LanguageHints: v.LanguageHints},
		}},
	}

	resp, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("vision annotate: %w", err)
	}

	if len(resp.Responses) == 0 {
		return nil, ErrNoText
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("vision error %d: %s", r.Error.Code, r.Error.Message)
	}

	if r.FullTextAnnotation == nil || r.FullTextAnnotation.Text == "" {
		return nil, ErrNoText
	}

	var confidence float64
	if pages := r.FullTextAnnotation.Pages; len(pages) > 0 {
		for _, p := range pages {
			confidence += p.Confidence
		}

		confidence /= float64(len(pages))
	}

	return &Result{
		Text:       r.FullTextAnnotation.Text,
		Confidence: confidence,
		Provider:   ProviderVision,
		Duration:   time.Since(start),
	}, nil
}
