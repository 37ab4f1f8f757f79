// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// GeocodingError representa erros específicos de geocodificação.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType define os tipos de erro de geocodificação.
type ErrorType int

const (
	// ErrorTypeUnknown erro desconhecido.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit limite de requisições atingido.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded cota excedida.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout tempo de conexão esgotado.
	ErrorTypeTimeout
	// ErrorTypeNotFound endereço não encontrado.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest requisição inválida.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError erro de rede.
	ErrorTypeNetworkError
	// ErrorTypeOutOfBounds coordenadas fora do Brasil.
	ErrorTypeOutOfBounds
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetworkError:
		return "network_error"
	case ErrorTypeOutOfBounds:
		return "out_of_bounds"
	}

	return "unknown"
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// errorType devolve o tipo de err, ou ErrorTypeUnknown se não for um
// GeocodingError.
func errorType(err error) ErrorType {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type
	}

	return ErrorTypeUnknown
}

// IsRateLimitError verifica se o erro é por limite de requisições.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	// Detectar pela mensagem
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError verifica se o erro é por cota excedida.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	// Mensagens do Google Maps
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError verifica se o erro é por tempo esgotado.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError verifica se o provedor não encontrou o endereço.
func IsNotFoundError(err error) bool {
	return errorType(err) == ErrorTypeNotFound
}

// ClassifyHTTPError classifica um status HTTP em um tipo de erro de
// geocodificação.
func ClassifyHTTPError(statusCode int, provider string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: provider + ": limite de requisições atingido",
		}
	case http.StatusForbidden, http.StatusUnauthorized, http.StatusPaymentRequired:
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: provider + ": cota excedida ou acesso negado",
		}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: provider + ": requisição inválida",
		}
	case http.StatusNotFound: // 404
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: provider + ": endereço não encontrado",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("%s: serviço indisponível (código %d)", provider, statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("%s: erro HTTP %d", provider, statusCode),
		}
	}
}

// classifyTransportError envolve um erro do http.Client.
func classifyTransportError(err error, provider string) *GeocodingError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &GeocodingError{Type: ErrorTypeTimeout, Message: provider + ": tempo esgotado", Err: err}
	}

	return &GeocodingError{Type: ErrorTypeNetworkError, Message: provider + ": falha na requisição", Err: err}
}

func notFound(provider, query string) *GeocodingError {
	return &GeocodingError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s: nenhum resultado para %q", provider, query),
	}
}
