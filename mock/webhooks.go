package mock

import (
	"context"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/util"
	"github.com/dropDatabas3/as2aas/webhook"
)

type Webhooks struct{ c *Client }

func (m *Webhooks) Create(_ context.Context, in domain.WebhookInput) (domain.WebhookEndpoint, error) {
	if err := in.Validate(); err != nil {
		return domain.WebhookEndpoint{}, err
	}
	now := m.c.now()
	w := domain.WebhookEndpoint{
		ID:          m.c.store.NextID("whe"),
		URL:         in.URL,
		Events:      append([]string(nil), in.Events...),
		Secret:      in.Secret,
		Description: in.Description,
		Active:      true,
		TenantID:    m.c.tenant,
		CreatedAt:   &now,
	}
	if w.Secret == "" {
		w.Secret = util.RandomHex(32)
	}
	if in.Active != nil {
		w.Active = *in.Active
	}
	m.c.store.PutWebhook(w)
	return w, nil
}

func (m *Webhooks) visible(w domain.WebhookEndpoint) bool {
	return m.c.tenant == "" || w.TenantID == m.c.tenant
}

func (m *Webhooks) List(context.Context) ([]domain.WebhookEndpoint, error) {
	out := []domain.WebhookEndpoint{}
	for _, w := range m.c.store.webhooks {
		if m.visible(w) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *Webhooks) Get(_ context.Context, id string) (domain.WebhookEndpoint, error) {
	for _, w := range m.c.store.webhooks {
		if w.ID == id && m.visible(w) {
			return w, nil
		}
	}
	return domain.WebhookEndpoint{}, as2err.NotFound("webhook endpoint", id)
}

func (m *Webhooks) Update(ctx context.Context, id string, in domain.WebhookInput) (domain.WebhookEndpoint, error) {
	w, err := m.Get(ctx, id)
	if err != nil {
		return domain.WebhookEndpoint{}, err
	}
	if in.URL != "" {
		w.URL = in.URL
	}
	if len(in.Events) > 0 {
		w.Events = append([]string(nil), in.Events...)
	}
	if in.Secret != "" {
		w.Secret = in.Secret
	}
	if in.Description != "" {
		w.Description = in.Description
	}
	if in.Active != nil {
		w.Active = *in.Active
	}
	m.c.store.PutWebhook(w)
	return w, nil
}

func (m *Webhooks) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.c.store.DeleteWebhook(id)
	return nil
}

// Test simula una entrega exitosa.
func (m *Webhooks) Test(ctx context.Context, id string) (domain.Document, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return domain.Document{"success": true, "response_time": 150, "status_code": 200}, nil
}

func (m *Webhooks) Stats(ctx context.Context) (domain.Document, error) {
	ws, _ := m.List(ctx)
	active := 0
	for _, w := range ws {
		if w.Active {
			active++
		}
	}
	return domain.Document{"total_webhooks": len(ws), "active_webhooks": active}, nil
}

func (m *Webhooks) VerifySignature(payload []byte, signature, secret string) bool {
	return webhook.VerifySignature(payload, signature, secret)
}

func (m *Webhooks) HandleEvent(ev webhook.Event, hs webhook.Handlers) error {
	return webhook.Dispatch(ev, hs)
}
