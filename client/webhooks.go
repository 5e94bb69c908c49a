package client

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/util"
	"github.com/dropDatabas3/as2aas/webhook"
)

type Webhooks struct{ c *Client }

// Create registra un endpoint. Sin secret se genera uno de 64 caracteres hex.
func (m *Webhooks) Create(ctx context.Context, in domain.WebhookInput) (domain.WebhookEndpoint, error) {
	if err := in.Validate(); err != nil {
		return domain.WebhookEndpoint{}, err
	}
	if in.Secret == "" {
		in.Secret = util.RandomHex(32)
	}
	return sendOneIdempotent[domain.WebhookEndpoint](ctx, m.c, "webhook-endpoints", in)
}

func (m *Webhooks) List(ctx context.Context) ([]domain.WebhookEndpoint, error) {
	return getList[domain.WebhookEndpoint](ctx, m.c, "webhook-endpoints", nil)
}

func (m *Webhooks) Get(ctx context.Context, id string) (domain.WebhookEndpoint, error) {
	return getOne[domain.WebhookEndpoint](ctx, m.c, "webhook-endpoints/"+id, nil)
}

func (m *Webhooks) Update(ctx context.Context, id string, in domain.WebhookInput) (domain.WebhookEndpoint, error) {
	return sendOne[domain.WebhookEndpoint](ctx, m.c, http.MethodPatch, "webhook-endpoints/"+id, in)
}

func (m *Webhooks) Delete(ctx context.Context, id string) error {
	_, err := m.c.send(ctx, http.MethodDelete, "webhook-endpoints/"+id, nil)
	return err
}

// Test pide al servidor una entrega de prueba al endpoint.
func (m *Webhooks) Test(ctx context.Context, id string) (domain.Document, error) {
	return sendOne[domain.Document](ctx, m.c, http.MethodPost, "webhook-endpoints/"+id+"/test", nil)
}

func (m *Webhooks) Stats(ctx context.Context) (domain.Document, error) {
	return getOne[domain.Document](ctx, m.c, "webhook-endpoints-stats", nil)
}

// VerifySignature chequea la firma HMAC-SHA256 de un payload recibido.
func (m *Webhooks) VerifySignature(payload []byte, signature, secret string) bool {
	return webhook.VerifySignature(payload, signature, secret)
}

// HandleEvent despacha ev al handler de su tipo o al comodín "*".
func (m *Webhooks) HandleEvent(ev webhook.Event, hs webhook.Handlers) error {
	return webhook.Dispatch(ev, hs)
}
