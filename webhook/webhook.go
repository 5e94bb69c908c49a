// Package webhook firma y verifica entregas de eventos y las despacha a handlers.
//
// La firma es "sha256=" + hex(HMAC-SHA256(body, secret)) y viaja en el header
// X-AS2aaS-Signature.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

const (
	HeaderSignature = "X-AS2aaS-Signature"
	signaturePrefix = "sha256="

	// DefaultTolerance es la antigüedad máxima aceptada de un evento.
	DefaultTolerance = 300 * time.Second
	// MaxBodyBytes limita el cuerpo que lee el Receiver.
	MaxBodyBytes = 1 << 20
)

// Sign calcula la firma de payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compara en tiempo constante.
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}

// Event es un evento entregado por el servicio.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// Handler procesa un evento.
type Handler func(Event) error

// Handlers mapea tipo de evento a handler. "*" es el catch-all.
type Handlers map[string]Handler

// Dispatch invoca el handler del tipo exacto; si no hay, el catch-all; si
// tampoco, no hace nada. Un tipo vacío se trata como "unknown".
func Dispatch(ev Event, hs Handlers) error {
	if ev.Type == "" {
		ev.Type = "unknown"
	}
	if h, ok := hs[ev.Type]; ok && h != nil {
		return h(ev)
	}
	if h, ok := hs["*"]; ok && h != nil {
		return h(ev)
	}
	return nil
}
