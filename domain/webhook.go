package domain

import (
	"strings"
	"time"

	as2err "github.com/dropDatabas3/as2aas/errors"
)

// Eventos conocidos del servicio.
const (
	EventMessageSent      = "message.sent"
	EventMessageDelivered = "message.delivered"
	EventMessageFailed    = "message.failed"
	EventMessageReceived  = "message.received"
	EventPartnerCreated   = "partner.created"
	EventCertExpiring     = "certificate.expiring"
)

// WebhookEndpoint es un destino de eventos registrado por un tenant.
type WebhookEndpoint struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Events      []string   `json:"events"`
	Secret      string     `json:"secret,omitempty"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	TenantID    string     `json:"tenant_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Subscribes indica si el endpoint recibe el tipo de evento dado.
func (w WebhookEndpoint) Subscribes(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType || e == "*" {
			return true
		}
	}
	return false
}

// WebhookInput crea o actualiza un endpoint.
type WebhookInput struct {
	URL         string   `json:"url,omitempty"`
	Events      []string `json:"events,omitempty"`
	Secret      string   `json:"secret,omitempty"`
	Description string   `json:"description,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// Validate aplica las reglas del alta: url y al menos un evento.
func (in WebhookInput) Validate() error {
	if strings.TrimSpace(in.URL) == "" {
		return as2err.Validation("Webhook URL is required", "", map[string][]string{"url": {"is required"}})
	}
	if len(in.Events) == 0 {
		return as2err.Validation("At least one event type is required", "", map[string][]string{"events": {"is required"}})
	}
	return nil
}
