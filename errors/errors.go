// Package errors define la taxonomía de errores del cliente AS2aaS.
//
// Todos los errores tipados son *AppError con un Kind. Los prototipos
// (ErrNotFound, ErrValidation, ...) sirven como target de errors.Is y como
// base para los builders, que siempre devuelven una copia.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind clasifica un AppError.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
	KindRateLimit      Kind = "rate_limit"
	KindNetwork        Kind = "network"
	KindAPI            Kind = "api"
	KindPartner        Kind = "partner"
	KindNotFound       Kind = "not_found"
)

// DefaultRetryAfter son los segundos asumidos cuando un 429 no trae Retry-After.
const DefaultRetryAfter = 60

// AppError es el error estándar del cliente.
type AppError struct {
	Kind    Kind                `json:"kind"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Status  int                 `json:"status,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
	// RetryAfter en segundos, solo para KindRateLimit.
	RetryAfter int   `json:"retry_after,omitempty"`
	Retryable  bool  `json:"-"`
	Err        error `json:"-"`
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + formatDetails(e.Details) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Is compara por Kind, así errors.Is(err, ErrNotFound) funciona con cualquier
// NotFound construido a partir del prototipo.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithCause devuelve una COPIA con la causa dada.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// WithDetail devuelve una COPIA con un detalle agregado al campo dado.
func (e *AppError) WithDetail(field, detail string) *AppError {
	c := *e
	c.Details = make(map[string][]string, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = append([]string(nil), v...)
	}
	c.Details[field] = append(c.Details[field], detail)
	return &c
}

// WithCode devuelve una COPIA con otro código.
func (e *AppError) WithCode(code string) *AppError {
	c := *e
	c.Code = code
	return &c
}

// WithMessage devuelve una COPIA con otro mensaje.
func (e *AppError) WithMessage(msg string) *AppError {
	c := *e
	c.Message = msg
	return &c
}

func formatDetails(d map[string][]string) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(d[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// =================================================================================
// PROTOTIPOS
// =================================================================================

var (
	ErrAuthentication = &AppError{
		Kind:    KindAuthentication,
		Code:    "AUTHENTICATION_ERROR",
		Message: "Authentication failed",
		Status:  http.StatusUnauthorized,
	}

	ErrValidation = &AppError{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Status:  http.StatusUnprocessableEntity,
	}

	ErrRateLimit = &AppError{
		Kind:       KindRateLimit,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded",
		Status:     http.StatusTooManyRequests,
		RetryAfter: DefaultRetryAfter,
		Retryable:  true,
	}

	ErrNetwork = &AppError{
		Kind:      KindNetwork,
		Code:      "NETWORK_ERROR",
		Message:   "Network error",
		Retryable: true,
	}

	ErrAPI = &AppError{
		Kind:    KindAPI,
		Code:    "API_ERROR",
		Message: "API error",
		Status:  http.StatusInternalServerError,
	}

	ErrPartner = &AppError{
		Kind:    KindPartner,
		Code:    "PARTNER_ERROR",
		Message: "Partner error",
	}

	ErrNotFound = &AppError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}
)

// =================================================================================
// CONSTRUCTORES
// =================================================================================

// Authentication crea un error de credencial inválida o ausente.
func Authentication(msg string) *AppError {
	return ErrAuthentication.WithMessage(msg)
}

// Validation crea un error de validación con detalles por campo.
func Validation(msg, code string, details map[string][]string) *AppError {
	e := ErrValidation.WithMessage(msg)
	if code != "" {
		e.Code = code
	}
	e.Details = details
	return e
}

// RateLimit crea un error 429. retryAfter <= 0 usa DefaultRetryAfter.
func RateLimit(msg, code string, retryAfter int) *AppError {
	e := ErrRateLimit.WithMessage(msg)
	if code != "" {
		e.Code = code
	}
	if retryAfter > 0 {
		e.RetryAfter = retryAfter
	}
	return e
}

// Network envuelve una falla de conexión.
func Network(msg string, cause error) *AppError {
	return ErrNetwork.WithMessage(msg).WithCause(cause)
}

// API crea un error genérico del servidor. Solo los 5xx son reintentables.
func API(msg, code string, status int) *AppError {
	e := ErrAPI.WithMessage(msg)
	if code != "" {
		e.Code = code
	}
	e.Status = status
	e.Retryable = status >= 500
	return e
}

// Partner crea un error de dominio sobre partners.
func Partner(msg, code string) *AppError {
	e := ErrPartner.WithMessage(msg)
	if code != "" {
		e.Code = code
	}
	return e
}

// NotFound crea un error de lookup: NotFound("partner", "prt_001").
func NotFound(resource, id string) *AppError {
	msg := resource + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s %q not found", resource, id)
	}
	e := ErrNotFound.WithMessage(msg)
	e.Code = strings.ToUpper(strings.ReplaceAll(resource, " ", "_")) + "_NOT_FOUND"
	return e
}

// =================================================================================
// PREDICADOS
// =================================================================================

// As extrae el *AppError de la cadena, si hay uno.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind indica si err contiene un AppError del kind dado.
func IsKind(err error, k Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == k
}

func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsRetryable indica si el error puede reintentarse (red, 5xx, 429).
func IsRetryable(err error) bool {
	ae, ok := As(err)
	return ok && ae.Retryable
}
