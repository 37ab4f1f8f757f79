// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/clenio77/rota-facil/utils/httputils"
)

// OCRSpace uses the OCR.space parse API.
type OCRSpace struct {
	BaseURL    string
	Language   string // 'por' for Portuguese
	Engine     string // '1', '2' or '3'
	apiKey     string
	httpClient *http.Client
}

// NewOCRSpace creates an OCR.space client.
func NewOCRSpace(apiKey string, trace io.Writer) *OCRSpace {
	return &OCRSpace{
		BaseURL:  "https://api.ocr.space/parse/image",
		Language: "por",
		Engine:   "2",
		apiKey:   apiKey,
		httpClient: httputils.NewClient(httputils.ClientOptions{
			Timeout: 60 * time.Second,
			Headers: map[string]string{"apikey": apiKey},
			Trace:   trace,
		}),
	}
}

// Name implements Provider.
func (c *OCRSpace) Name() string {
	return ProviderOCRSpace
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode int    `json:"FileParseExitCode"`
		ErrorMessage      string `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int             `json:"OCRExitCode"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"` // a string or a list of strings
}

// errorMessage flattens the ErrorMessage field.
func (r *ocrSpaceResponse) errorMessage() string {
	var list []string
	if err := json.Unmarshal(r.ErrorMessage, &list); err == nil {
		return strings.Join(list, "; ")
	}

	var s string
	if err := json.Unmarshal(r.ErrorMessage, &s); err == nil {
		return s
	}

	return string(r.ErrorMessage)
}

func (c *OCRSpace) newRequest(ctx context.Context, image []byte) (*http.Request, error) {
	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	for _, f := range [][2]string{
		{"language", c.Language},
		{"OCREngine", c.Engine},
		{"scale", "true"},
		{"detectOrientation", "true"},
		{"isTable", "true"},
	} {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	_, format, err := DecodeImage(image)
	if err != nil {
		return nil, err
	}

	part, err := w.CreateFormFile("file", "manifest."+format)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}

	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("writing image: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	return req, nil
}

// Recognize implements Provider.
func (c *OCRSpace) Recognize(ctx context.Context, image []byte) (*Result, error) {
	start := time.Now()

	req, err := c.newRequest(ctx, image)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr.space request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr.space returned status %d", resp.StatusCode)
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		return nil, fmt.Errorf("ocr.space exit code %d: %s", parsed.OCRExitCode, parsed.errorMessage())
	}

	var pages []string

	for _, r := range parsed.ParsedResults {
		if r.FileParseExitCode != 1 && r.ErrorMessage != "" {
			return nil, fmt.Errorf("ocr.space page error: %s", r.ErrorMessage)
		}

		pages = append(pages, r.ParsedText)
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return nil, ErrNoText
	}

	return &Result{
		Text:     text,
		Provider: ProviderOCRSpace,
		Duration: time.Since(start),
	}, nil
}
