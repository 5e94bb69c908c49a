package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/partnerview"
	"github.com/dropDatabas3/as2aas/internal/util"
)

// Messages simula envíos: todo mensaje enviado queda delivered al instante.
type Messages struct{ c *Client }

// Send valida el partner contra la vista del tenant y registra el mensaje.
func (m *Messages) Send(_ context.Context, partnerID, content, subject string, opts domain.SendOptions) (domain.Message, error) {
	p, err := partnerview.FindByID(m.c.store.Partners(), m.c.tenant, partnerID)
	if err != nil {
		return domain.Message{}, err
	}
	if !p.Active {
		return domain.Message{}, as2err.Partner("Partner '"+p.Name+"' is not active", "PARTNER_INACTIVE")
	}
	ct := opts.ContentType
	if ct == "" {
		ct = util.DetectContentType(content, "")
	}
	now := m.c.now()
	msg := domain.Message{
		ID:          m.c.store.NextID("msg"),
		MessageID:   fmt.Sprintf("MOCK-%s@as2aas.com", strings.ToUpper(util.RandomHex(8))),
		PartnerID:   p.ID,
		Partner:     &p,
		TenantID:    m.c.tenant,
		Status:      domain.StatusDelivered,
		Direction:   domain.Outbound,
		Subject:     subject,
		ContentType: ct,
		Bytes:       int64(len(content)),
		MDN:         map[string]any{"status": "received", "mode": string(p.MDNMode)},
		Metadata:    opts.Metadata,
		CreatedAt:   &now,
		SentAt:      &now,
		DeliveredAt: &now,
	}
	m.c.store.PutMessage(msg, []byte(content))

	p.UsageCount++
	m.c.store.PutPartner(p)
	return msg, nil
}

// SendBatch envía cada elemento; los errores no cortan el lote.
func (m *Messages) SendBatch(ctx context.Context, batch []domain.BatchMessage) (domain.BatchResult, error) {
	res := domain.BatchResult{Successful: []domain.Message{}, Failed: []map[string]any{}, Total: len(batch)}
	for i, b := range batch {
		msg, err := m.Send(ctx, b.PartnerID, b.Content, b.Subject, b.Options)
		if err != nil {
			res.Failed = append(res.Failed, map[string]any{"index": i, "partner_id": b.PartnerID, "error": err.Error()})
			continue
		}
		res.Successful = append(res.Successful, msg)
	}
	return res, nil
}

// Receive registra un mensaje entrante (sandbox/simulate-incoming).
func (m *Messages) Receive(_ context.Context, partnerID, content, subject string) (domain.Message, error) {
	p, err := partnerview.FindByID(m.c.store.Partners(), m.c.tenant, partnerID)
	if err != nil {
		return domain.Message{}, err
	}
	now := m.c.now()
	msg := domain.Message{
		ID:          m.c.store.NextID("msg"),
		MessageID:   fmt.Sprintf("MOCK-IN-%s@as2aas.com", strings.ToUpper(util.RandomHex(8))),
		PartnerID:   p.ID,
		TenantID:    m.c.tenant,
		Status:      domain.StatusReceived,
		Direction:   domain.Inbound,
		Subject:     subject,
		ContentType: util.DetectContentType(content, ""),
		Bytes:       int64(len(content)),
		CreatedAt:   &now,
	}
	m.c.store.PutMessage(msg, []byte(content))
	return msg, nil
}

func (m *Messages) visible(msg domain.Message) bool {
	return m.c.tenant == "" || msg.TenantID == m.c.tenant
}

func (m *Messages) Get(_ context.Context, id string) (domain.Message, error) {
	for _, msg := range m.c.store.messages {
		if msg.ID == id && m.visible(msg) {
			return msg, nil
		}
	}
	return domain.Message{}, as2err.NotFound("message", id)
}

// List pagina sobre los mensajes visibles, en orden de alta.
func (m *Messages) List(_ context.Context, f domain.MessageFilter) (domain.MessagePage, error) {
	var all []domain.Message
	for _, msg := range m.c.store.messages {
		if m.visible(msg) && f.Matches(msg) {
			all = append(all, msg)
		}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = domain.DefaultMessageLimit
	}
	start := min(max(f.Offset, 0), len(all))
	end := min(start+limit, len(all))
	return domain.MessagePage{
		Data:    append([]domain.Message{}, all[start:end]...),
		Total:   len(all),
		HasMore: end < len(all),
	}, nil
}

// Payload devuelve el contenido enviado.
func (m *Messages) Payload(ctx context.Context, id string) ([]byte, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	b, _ := m.c.store.Payload(id)
	return b, nil
}

// WaitForDelivery no espera: los envíos del mock ya están resueltos.
func (m *Messages) WaitForDelivery(ctx context.Context, id string, _ time.Duration) (domain.Message, error) {
	msg, err := m.Get(ctx, id)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.IsFailed() {
		return msg, as2err.Partner("Message delivery failed: "+msg.ErrorMessage(), "MESSAGE_FAILED")
	}
	return msg, nil
}

// Validate chequea el formato como lo haría messages/validate.
func (m *Messages) Validate(_ context.Context, content string) (domain.ValidationResult, error) {
	return Utils{}.validateEDI(content), nil
}

// Fail marca un mensaje como fallido (fixture).
func (m *Messages) Fail(id, code, reason string) error {
	for _, msg := range m.c.store.messages {
		if msg.ID == id {
			msg.Status = domain.StatusFailed
			msg.DeliveredAt = nil
			msg.Error = &domain.MessageError{Code: code, Message: reason}
			m.c.store.PutMessage(msg, nil)
			return nil
		}
	}
	return as2err.NotFound("message", id)
}
