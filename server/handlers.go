// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/clenio77/rota-facil/geocoding"
	"github.com/clenio77/rota-facil/manifest"
	"github.com/clenio77/rota-facil/ocr"
	"github.com/clenio77/rota-facil/spatial"
	"github.com/clenio77/rota-facil/utils/textutils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type parseRequest struct {
	Text     string              `json:"text"`
	Scanned  []string            `json:"scanned_codes,omitempty"`
	Location *geocoding.Location `json:"location,omitempty"`
	Geocode  bool                `json:"geocode"`
	Save     bool                `json:"save"`
}

// OCRInfo describes the recognition behind a scanned manifest.
type OCRInfo struct {
	Provider   string   `json:"provider"`
	Confidence float64  `json:"confidence"`
	Barcodes   []string `json:"barcodes,omitempty"`
}

// ManifestResponse is the answer of the parse, scan and geocode endpoints.
type ManifestResponse struct {
	Manifest  *manifest.Manifest       `json:"manifest"`
	Metrics   *manifest.ParseMetrics   `json:"metrics,omitempty"`
	Geocoding *geocoding.EnrichMetrics `json:"geocoding,omitempty"`
	OCR       *OCRInfo                 `json:"ocr,omitempty"`
}

func abort(ctx *gin.Context, status int, err error) {
	ctx.JSON(status, gin.H{"error": err.Error()})
}

var errUnavailable = errors.New("not configured")

func unavailable(ctx *gin.Context, what string) {
	abort(ctx, http.StatusServiceUnavailable, fmt.Errorf("%s %w", what, errUnavailable))
}

// locationFromQuery reads the optional city and state of a plain-text or
// multipart request.
func locationFromQuery(city, state string) *geocoding.Location {
	if city == "" {
		return nil
	}

	return &geocoding.Location{City: city, State: state}
}

func isTrue(v string) bool {
	b, _ := strconv.ParseBool(v)

	return b
}

// bindParseRequest accepts a JSON body or a plain-text body in any charset,
// with the options in the query string.
func bindParseRequest(ctx *gin.Context, req *parseRequest) error {
	if ctx.ContentType() != "text/plain" {
		return ctx.ShouldBindJSON(req)
	}

	text, err := textutils.ReadText(ctx.Request.Body, ctx.GetHeader("Content-Type"))
	if errors.Is(err, textutils.ErrCharsetMismatch) {
		log.Warn().Err(err).Msg("manifest text has undecodable characters")
	} else if err != nil {
		return err
	}

	req.Text = text
	req.Location = locationFromQuery(ctx.Query("city"), ctx.Query("state"))
	req.Geocode = isTrue(ctx.Query("geocode"))
	req.Save = isTrue(ctx.Query("save"))

	return nil
}

func (s *Server) parseManifest(ctx *gin.Context) {
	var req parseRequest
	if err := bindParseRequest(ctx, &req); err != nil {
		abort(ctx, http.StatusBadRequest, err)

		return
	}

	s.process(ctx, &req, nil)
}

// process parses, optionally geocodes and stores a manifest. Unrecognized
// texts answer 422; flagged items are always returned.
func (s *Server) process(ctx *gin.Context, req *parseRequest, info *OCRInfo) {
	if req.Geocode && s.enricher == nil {
		unavailable(ctx, "geocoding")

		return
	}

	if req.Save && s.repo == nil {
		unavailable(ctx, "storage")

		return
	}

	m, metrics := s.parser.ParseWithMetrics(req.Text, req.Scanned)
	if !m.Recognized() {
		abort(ctx, http.StatusUnprocessableEntity, manifest.ErrUnrecognizedManifest)

		return
	}

	resp := &ManifestResponse{Manifest: m, Metrics: metrics, OCR: info}

	if req.Geocode {
		loc := req.Location
		if loc == nil {
			loc = geocoding.HeaderLocation(m.Header)
		}

		em, err := s.enricher.Enrich(ctx.Request.Context(), m.Items, loc)
		if err != nil {
			abort(ctx, http.StatusServiceUnavailable, err)

			return
		}

		resp.Geocoding = em
	}

	if req.Save {
		if _, err := s.repo.SaveManifest(m); err != nil {
			abort(ctx, http.StatusInternalServerError, err)

			return
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

func ocrStatus(err error) int {
	switch {
	case errors.Is(err, ocr.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ocr.ErrEmptyImage):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrNoText):
		return http.StatusUnprocessableEntity
	}

	return http.StatusBadGateway
}

func (s *Server) scanManifest(ctx *gin.Context) {
	if s.ocr == nil {
		unavailable(ctx, "OCR")

		return
	}

	// room for the multipart envelope and the other fields
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, s.maxUploadSize+1<<20)

	fh, err := ctx.FormFile("image")
	if err != nil {
		abort(ctx, http.StatusBadRequest, fmt.Errorf("image: %w", err))

		return
	}

	if fh.Size > s.maxUploadSize {
		abort(ctx, http.StatusRequestEntityTooLarge, ocr.ErrImageTooLarge)

		return
	}

	f, err := fh.Open()
	if err != nil {
		abort(ctx, http.StatusBadRequest, err)

		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		abort(ctx, http.StatusBadRequest, err)

		return
	}

	res, err := s.ocr.Recognize(ctx.Request.Context(), data)
	if err != nil {
		log.Warn().Err(err).Str("file", fh.Filename).Msg("OCR failed")
		abort(ctx, ocrStatus(err), err)

		return
	}

	codes, err := ocr.ScanObjectCodes(data)
	if err != nil {
		log.Warn().Err(err).Str("file", fh.Filename).Msg("barcode scan failed")
	}

	req := &parseRequest{
		Text:     res.Text,
		Scanned:  codes,
		Location: locationFromQuery(ctx.PostForm("city"), ctx.PostForm("state")),
		Geocode:  isTrue(ctx.PostForm("geocode")),
		Save:     isTrue(ctx.PostForm("save")),
	}

	s.process(ctx, req, &OCRInfo{Provider: res.Provider, Confidence: res.Confidence, Barcodes: codes})
}

func (s *Server) listManifests(ctx *gin.Context) {
	if s.repo == nil {
		unavailable(ctx, "storage")

		return
	}

	summaries, err := s.repo.ListManifests()
	if err != nil {
		abort(ctx, http.StatusInternalServerError, err)

		return
	}

	if summaries == nil {
		summaries = []*manifest.Summary{}
	}

	ctx.JSON(http.StatusOK, summaries)
}

// loadManifest writes the error response itself and returns nil on failure.
func (s *Server) loadManifest(ctx *gin.Context, id string) *manifest.Manifest {
	if s.repo == nil {
		unavailable(ctx, "storage")

		return nil
	}

	m, err := s.repo.GetManifest(id)
	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		abort(ctx, http.StatusNotFound, err)

		return nil
	case err != nil:
		abort(ctx, http.StatusInternalServerError, err)

		return nil
	}

	return m
}

func (s *Server) getManifest(ctx *gin.Context) {
	if m := s.loadManifest(ctx, ctx.Param("id")); m != nil {
		ctx.JSON(http.StatusOK, m)
	}
}

type locationRequest struct {
	Location *geocoding.Location `json:"location,omitempty"`
}

// geocodeManifest geocodes a stored manifest again and stores the outcome.
func (s *Server) geocodeManifest(ctx *gin.Context) {
	if s.enricher == nil {
		unavailable(ctx, "geocoding")

		return
	}

	var req locationRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			abort(ctx, http.StatusBadRequest, err)

			return
		}
	}

	m := s.loadManifest(ctx, ctx.Param("id"))
	if m == nil {
		return
	}

	loc := req.Location
	if loc == nil {
		loc = geocoding.HeaderLocation(m.Header)
	}

	em, err := s.enricher.Enrich(ctx.Request.Context(), m.Items, loc)
	if err != nil {
		abort(ctx, http.StatusServiceUnavailable, err)

		return
	}

	if err := s.repo.UpdateGeocoding(m.ID, m.Items); err != nil {
		abort(ctx, http.StatusInternalServerError, err)

		return
	}

	ctx.JSON(http.StatusOK, &ManifestResponse{Manifest: m, Geocoding: em})
}

type geocodeRequest struct {
	Items    []*manifest.DeliveryItem `json:"items"`
	Address  string                   `json:"address"`
	CEP      string                   `json:"cep"`
	Location *geocoding.Location      `json:"location,omitempty"`
}

// GeocodeResponse is the answer of POST /api/geocode.
type GeocodeResponse struct {
	Items     []*manifest.DeliveryItem `json:"items"`
	Geocoding *geocoding.EnrichMetrics `json:"geocoding"`
}

var (
	errNoItems  = errors.New("items or address is required")
	nonDigitCEP = strings.NewReplacer(".", "", "-", "", " ", "")
)

// addressItem wraps a free address in an item so it goes through the same
// query builder as the manifest items.
func addressItem(address, cep string) *manifest.DeliveryItem {
	item := &manifest.DeliveryItem{RawAddressLine: address, CEP: manifest.CEPUnknown}
	if cep = nonDigitCEP.Replace(cep); len(cep) == 8 {
		item.CEP = cep
	}

	return item
}

func (s *Server) geocodeItems(ctx *gin.Context) {
	if s.enricher == nil {
		unavailable(ctx, "geocoding")

		return
	}

	var req geocodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abort(ctx, http.StatusBadRequest, err)

		return
	}

	if strings.TrimSpace(req.Address) != "" {
		req.Items = append(req.Items, addressItem(req.Address, req.CEP))
	}

	if len(req.Items) == 0 {
		abort(ctx, http.StatusBadRequest, errNoItems)

		return
	}

	em, err := s.enricher.Enrich(ctx.Request.Context(), req.Items, req.Location)
	if err != nil {
		abort(ctx, http.StatusServiceUnavailable, err)

		return
	}

	ctx.JSON(http.StatusOK, &GeocodeResponse{Items: req.Items, Geocoding: em})
}

type routeRequest struct {
	ManifestID string                   `json:"manifest_id"`
	Items      []*manifest.DeliveryItem `json:"items"`
	Start      *spatial.Point           `json:"start,omitempty"`
}

func (s *Server) planRoute(ctx *gin.Context) {
	var req routeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abort(ctx, http.StatusBadRequest, err)

		return
	}

	if req.ManifestID != "" {
		m := s.loadManifest(ctx, req.ManifestID)
		if m == nil {
			return
		}

		req.Items = m.Items
	}

	if len(req.Items) == 0 {
		abort(ctx, http.StatusBadRequest, errors.New("items or manifest_id is required"))

		return
	}

	ctx.JSON(http.StatusOK, s.planner.Plan(ctx.Request.Context(), req.Start, req.Items))
}

func (s *Server) lookupState(ctx *gin.Context) {
	name := ctx.Param("name")

	uf, ok := geocoding.NormalizeState(name)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":       fmt.Sprintf("unknown state %q", name),
			"suggestions": geocoding.SearchStates(name)[:3],
		})

		return
	}

	full, _ := geocoding.StateName(uf)
	ctx.JSON(http.StatusOK, geocoding.State{UF: uf, Name: full})
}
