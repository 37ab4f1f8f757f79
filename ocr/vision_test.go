// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestVision(t *testing.T, body string) *Vision {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)

		req, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(req), "DOCUMENT_TEXT_DETECTION")
		assert.Contains(t, string(req), `"languageHints":["pt"]`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	v, err := NewVision(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return v
}

func TestVision(t *testing.T) {
	v := newTestVision(t, `{"responses": [{
		"fullTextAnnotation": {
			"text": "001 AC 973 482 100 BR 1-\nRua Goiás, 100\n",
			"pages": [{"confidence": 0.9}, {"confidence": 0.7}]
		}
	}]}`)

	got, err := v.Recognize(context.Background(), []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "001 AC 973 482 100 BR 1-\nRua Goiás, 100\n", got.Text)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.Equal(t, ProviderVision, got.Provider)
}

func TestVisionErrors(t *testing.T) {
	v := newTestVision(t, `{"responses": [{"error": {"code": 3, "message": "Bad image data."}}]}`)

	_, err := v.Recognize(context.Background(), []byte("jpeg bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad image data.")

	v = newTestVision(t, `{"responses": [{}]}`)

	_, err = v.Recognize(context.Background(), []byte("jpeg bytes"))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = v.Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}
