package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	as2err "github.com/dropDatabas3/as2aas/errors"
)

// errorBody es el cuerpo de error del servidor.
type errorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

// mapStatus traduce una respuesta >= 400 en un AppError tipado.
func mapStatus(status int, h http.Header, body []byte) *as2err.AppError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
	}

	switch {
	case status == http.StatusUnauthorized:
		e := as2err.Authentication(msg)
		if eb.Code != "" {
			e.Code = eb.Code
		}
		return e
	case status == http.StatusNotFound:
		e := as2err.ErrNotFound.WithMessage(msg)
		if eb.Code != "" {
			e.Code = eb.Code
		}
		return e
	case status == http.StatusUnprocessableEntity:
		return as2err.Validation(msg, eb.Code, parseDetails(eb.Details))
	case status == http.StatusTooManyRequests:
		return as2err.RateLimit(msg, eb.Code, parseRetryAfter(h.Get(HeaderRetryAfter)))
	default:
		return as2err.API(msg, eb.Code, status)
	}
}

// parseRetryAfter acepta solo segundos; cualquier otra cosa => default.
func parseRetryAfter(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return as2err.DefaultRetryAfter
	}
	return n
}

// parseDetails admite {"campo": "msg"} y {"campo": ["msg", ...]}.
func parseDetails(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case string:
			out[k] = []string{t}
		case []any:
			for _, item := range t {
				out[k] = append(out[k], fmt.Sprint(item))
			}
		default:
			out[k] = []string{fmt.Sprint(t)}
		}
	}
	return out
}
