package fakeapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	as2err "github.com/dropDatabas3/as2aas/errors"
)

// errorBody es el cuerpo de error de la API.
type errorBody struct {
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type list[T any] struct {
	Data []T `json:"data"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, list[T]{Data: items})
}

// statusFor traduce el tipo de error a status HTTP.
func statusFor(e *as2err.AppError) int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case as2err.KindPartner:
		return http.StatusBadRequest
	case as2err.KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	e, ok := as2err.As(err)
	if !ok {
		e = as2err.API("Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError).WithCause(err)
	}
	writeJSON(w, statusFor(e), errorBody{Message: e.Message, Code: e.Code, Details: e.Details})
}

var errBadJSON = as2err.Validation("Invalid JSON body", "INVALID_JSON", nil)

// decode lee el cuerpo JSON. Un cuerpo vacío deja v intacto.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 10<<20)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errBadJSON.WithCause(err)
}

// decodeBase64 acepta el contenido en base64 estándar; si no lo es, lo toma literal.
func decodeBase64(s string) string {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return string(b)
	}
	return s
}
