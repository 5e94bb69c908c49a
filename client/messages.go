package client

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
	"github.com/dropDatabas3/as2aas/internal/transport"
	"github.com/dropDatabas3/as2aas/internal/util"
	"github.com/dropDatabas3/as2aas/internal/util/atomicwrite"
)

type Messages struct{ c *Client }

// PayloadOptions configura Messages.Payload.
type PayloadOptions struct {
	// Encoding "base64" devuelve el contenido codificado.
	Encoding string
	// SaveTo escribe el payload en ese path (atómico).
	SaveTo string
}

// WaitOptions configura el polling de WaitForDelivery.
type WaitOptions struct {
	Interval time.Duration
}

// ValidateOptions configura Messages.Validate.
type ValidateOptions struct {
	Format string
	Strict bool
}

const (
	// DefaultWaitInterval es el intervalo de polling de WaitForDelivery.
	DefaultWaitInterval = 5 * time.Second
	// DefaultWaitTimeout acota WaitForDelivery cuando el timeout es <= 0.
	DefaultWaitTimeout = 5 * time.Minute

	CodeDeliveryTimeout = "DELIVERY_TIMEOUT"
)

// request arma el cuerpo de un envío: base64, content type detectado y los
// defaults de firma y cifrado del cliente.
func (m *Messages) request(partnerID, content, subject string, opts domain.SendOptions) domain.SendMessageRequest {
	ct := opts.ContentType
	if ct == "" {
		ct = util.DetectContentType(content, "")
	}
	sign, encrypt := opts.Sign, opts.Encrypt
	if sign == nil {
		sign = domain.Ptr(m.c.cfg.signing())
	}
	if encrypt == nil {
		encrypt = domain.Ptr(m.c.cfg.encryption())
	}
	return domain.SendMessageRequest{
		PartnerID:   partnerID,
		Subject:     subject,
		Payload:     domain.Payload{Content: base64.StdEncoding.EncodeToString([]byte(content))},
		ContentType: ct,
		Priority:    opts.Priority,
		Compress:    opts.Compress,
		Encrypt:     encrypt,
		Sign:        sign,
		ScheduledAt: opts.ScheduledAt,
		Metadata:    opts.Metadata,
	}
}

func isEDI(contentType string) bool {
	return contentType == util.ContentTypeX12 || contentType == util.ContentTypeEDIFACT
}

// Send envía content al partner. El POST lleva un Idempotency-Key que se
// repite en cada reintento.
func (m *Messages) Send(ctx context.Context, partnerID, content, subject string, opts domain.SendOptions) (domain.Message, error) {
	details := map[string][]string{}
	if partnerID == "" {
		details["partner_id"] = []string{"is required"}
	}
	if content == "" {
		details["content"] = []string{"is required"}
	}
	if len(details) > 0 {
		return domain.Message{}, as2err.Validation("Partner ID and content are required", "", details)
	}
	req := m.request(partnerID, content, subject, opts)
	if m.c.cfg.AutoValidateEDI && isEDI(req.ContentType) {
		res, err := m.Validate(ctx, content, ValidateOptions{})
		if err != nil {
			return domain.Message{}, err
		}
		if !res.Valid {
			return domain.Message{}, as2err.Validation("EDI content failed validation", "INVALID_EDI", map[string][]string{"content": {"is not valid EDI"}})
		}
	}
	msg, err := sendOneIdempotent[domain.Message](ctx, m.c, "messages", req)
	if err != nil {
		return domain.Message{}, err
	}
	logger.From(ctx, m.c.log).Debug("message sent", logger.MessageID(msg.ID), logger.PartnerID(partnerID))
	return msg, nil
}

// SendFile lee path y lo envía; el content type sale de la extensión.
func (m *Messages) SendFile(ctx context.Context, partnerID, path, subject string, opts domain.SendOptions) (domain.Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Message{}, as2err.Validation("File not readable: "+path, "FILE_NOT_FOUND", map[string][]string{"file": {err.Error()}}).WithCause(err)
	}
	if opts.ContentType == "" {
		opts.ContentType = util.DetectContentType(string(b), filepath.Base(path))
	}
	if subject == "" {
		subject = filepath.Base(path)
	}
	return m.Send(ctx, partnerID, string(b), subject, opts)
}

// SendBatch envía varios mensajes en un solo request.
func (m *Messages) SendBatch(ctx context.Context, batch []domain.BatchMessage) (domain.BatchResult, error) {
	reqs := make([]domain.SendMessageRequest, 0, len(batch))
	for _, b := range batch {
		reqs = append(reqs, m.request(b.PartnerID, b.Content, b.Subject, b.Options))
	}
	return sendOneIdempotent[domain.BatchResult](ctx, m.c, "messages/batch", map[string]any{"messages": reqs})
}

func (m *Messages) Get(ctx context.Context, id string) (domain.Message, error) {
	return getOne[domain.Message](ctx, m.c, "messages/"+id, nil)
}

// List pagina los mensajes; Limit 0 usa 20.
func (m *Messages) List(ctx context.Context, f domain.MessageFilter) (domain.MessagePage, error) {
	res, err := m.c.get(ctx, "messages", f.Query())
	if err != nil {
		return domain.MessagePage{}, err
	}
	var page domain.MessagePage
	if err := res.Decode(&page); err != nil {
		return domain.MessagePage{}, err
	}
	if page.Data == nil {
		page.Data = []domain.Message{}
	}
	return page, nil
}

// Payload descarga el contenido crudo del mensaje.
func (m *Messages) Payload(ctx context.Context, id string, opts PayloadOptions) ([]byte, error) {
	q := url.Values{}
	if opts.Encoding != "" {
		q.Set("encoding", opts.Encoding)
	}
	res, err := m.c.do(ctx, transport.Request{Method: http.MethodGet, Path: "messages/" + id + "/payload", Query: q})
	if err != nil {
		return nil, err
	}
	b := res.Body
	if opts.Encoding == "base64" {
		b = []byte(base64.StdEncoding.EncodeToString(b))
	}
	if opts.SaveTo != "" {
		if err := atomicwrite.WriteFile(opts.SaveTo, b, 0o644); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// WaitForDelivery consulta el mensaje cada Interval hasta que se entrega,
// falla o vence timeout (DefaultWaitTimeout si es <= 0). Un mensaje failed
// devuelve PartnerError; vencer el timeout devuelve PartnerError con código
// DELIVERY_TIMEOUT y el error del ctx como causa.
func (m *Messages) WaitForDelivery(ctx context.Context, id string, timeout time.Duration, opts WaitOptions) (domain.Message, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultWaitInterval
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	for {
		msg, err := m.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Message{}, waitTimeout(id, timeout, ctx.Err())
			}
			return domain.Message{}, err
		}
		switch {
		case msg.IsDelivered():
			return msg, nil
		case msg.IsFailed():
			return msg, as2err.Partner("Message delivery failed: "+msg.ErrorMessage(), "MESSAGE_FAILED")
		}
		select {
		case <-ctx.Done():
			return msg, waitTimeout(id, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// waitTimeout no es reintentable. cause distingue el vencimiento
// (DeadlineExceeded) de la cancelación del caller (Canceled).
func waitTimeout(id string, timeout time.Duration, cause error) error {
	msg := "Timeout waiting for delivery of message " + id + " after " + timeout.String()
	if errors.Is(cause, context.Canceled) {
		msg = "Wait for delivery of message " + id + " canceled"
	}
	return as2err.Partner(msg, CodeDeliveryTimeout).WithCause(cause)
}

// Validate chequea el formato EDI del contenido en el servidor.
func (m *Messages) Validate(ctx context.Context, content string, opts ValidateOptions) (domain.ValidationResult, error) {
	body := map[string]any{"content": base64.StdEncoding.EncodeToString([]byte(content))}
	if opts.Format != "" {
		body["format"] = opts.Format
	}
	if opts.Strict {
		body["strict"] = true
	}
	return sendOne[domain.ValidationResult](ctx, m.c, http.MethodPost, "messages/validate", body)
}

// SendTest envía un documento de muestra del tipo dado (x12, edifact, xml, json).
func (m *Messages) SendTest(ctx context.Context, partnerID, messageType string) (domain.Message, error) {
	if messageType == "" {
		messageType = "x12"
	}
	body := map[string]any{
		"partner_id":  partnerID,
		"messageType": messageType,
		"encrypt":     m.c.cfg.encryption(),
		"sign":        m.c.cfg.signing(),
	}
	return sendOneIdempotent[domain.Message](ctx, m.c, "messages/test", body)
}
