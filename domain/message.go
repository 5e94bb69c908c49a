package domain

import "time"

type MessageStatus string

const (
	StatusQueued     MessageStatus = "queued"
	StatusProcessing MessageStatus = "processing"
	StatusSent       MessageStatus = "sent"
	StatusDelivered  MessageStatus = "delivered"
	StatusFailed     MessageStatus = "failed"
	StatusReceived   MessageStatus = "received"
)

var statusDescriptions = map[MessageStatus]string{
	StatusQueued:     "Message is queued for processing",
	StatusProcessing: "Message is being processed",
	StatusSent:       "Message has been sent to partner",
	StatusDelivered:  "Message delivery confirmed by partner",
	StatusFailed:     "Message delivery failed",
	StatusReceived:   "Message received from partner",
}

type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// MessageError es el detalle de falla que acompaña a un mensaje failed.
type MessageError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Message es un mensaje AS2 enviado o recibido.
type Message struct {
	ID          string            `json:"id"`
	MessageID   string            `json:"message_id,omitempty"`
	PartnerID   string            `json:"partner_id,omitempty"`
	Partner     *Partner          `json:"partner,omitempty"`
	TenantID    string            `json:"tenant_id,omitempty"`
	Status      MessageStatus     `json:"status"`
	Direction   Direction         `json:"direction,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	Bytes       int64             `json:"bytes,omitempty"`
	MDN         map[string]any    `json:"mdn,omitempty"`
	Error       *MessageError     `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
	SentAt      *time.Time        `json:"sent_at,omitempty"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}

func (m Message) IsDelivered() bool { return m.Status == StatusDelivered }
func (m Message) IsFailed() bool    { return m.Status == StatusFailed }

// IsPending: queued, processing o sent.
func (m Message) IsPending() bool {
	switch m.Status {
	case StatusQueued, StatusProcessing, StatusSent:
		return true
	}
	return false
}

func (m Message) HasMDN() bool { return len(m.MDN) > 0 }

// ErrorMessage devuelve el mensaje de falla, "" si no hay.
func (m Message) ErrorMessage() string {
	if m.Error == nil {
		return ""
	}
	return m.Error.Message
}

// StatusDescription devuelve un texto legible para el estado.
func (m Message) StatusDescription() string {
	if d, ok := statusDescriptions[m.Status]; ok {
		return d
	}
	return "Unknown status"
}

// Payload es el contenido codificado de un envío.
type Payload struct {
	Content string `json:"content"`
}

// SendMessageRequest es el cuerpo de POST messages.
type SendMessageRequest struct {
	PartnerID   string            `json:"partner_id"`
	Subject     string            `json:"subject"`
	Payload     Payload           `json:"payload"`
	ContentType string            `json:"content_type"`
	Priority    string            `json:"priority,omitempty"`
	Compress    *bool             `json:"compress,omitempty"`
	Encrypt     *bool             `json:"encrypt,omitempty"`
	Sign        *bool             `json:"sign,omitempty"`
	ScheduledAt *time.Time        `json:"scheduledAt,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SendOptions son los opcionales de Messages.Send.
type SendOptions struct {
	ContentType string
	Priority    string
	Compress    *bool
	Encrypt     *bool
	Sign        *bool
	ScheduledAt *time.Time
	Metadata    map[string]string
}

// MessagePage es una página de Messages.List.
type MessagePage struct {
	Data    []Message `json:"data"`
	Total   int       `json:"total"`
	HasMore bool      `json:"hasMore"`
}

// BatchMessage es un elemento de Messages.SendBatch.
type BatchMessage struct {
	PartnerID string
	Content   string
	Subject   string
	Options   SendOptions
}

// BatchResult resume un envío en lote.
type BatchResult struct {
	Successful []Message        `json:"successful"`
	Failed     []map[string]any `json:"failed"`
	Total      int              `json:"total"`
}

// ValidationResult es la respuesta de messages/validate y utils/validate-edi.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Format  string         `json:"format,omitempty"`
	Issues  []any          `json:"issues"`
	Details map[string]any `json:"details,omitempty"`
}
