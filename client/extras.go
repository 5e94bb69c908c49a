package client

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/util"
)

// =================================================================================
// BILLING
// =================================================================================

type Billing struct{ c *Client }

func (m *Billing) Plans(ctx context.Context) ([]domain.Document, error) {
	return getList[domain.Document](ctx, m.c, "billing/plans", nil)
}

// AccountBilling devuelve la facturación de accountID; "" usa la cuenta de la key.
func (m *Billing) AccountBilling(ctx context.Context, accountID string) (domain.Document, error) {
	path := "accounts/billing"
	if accountID != "" {
		path = "accounts/" + accountID + "/billing"
	}
	return getOne[domain.Document](ctx, m.c, path, nil)
}

func (m *Billing) Subscribe(ctx context.Context, planType string, paymentMethod domain.Document) (domain.Document, error) {
	body := domain.Document{"plan_type": planType}
	if paymentMethod != nil {
		body["payment_method"] = paymentMethod
	}
	return sendOneIdempotent[domain.Document](ctx, m.c, "accounts/billing/subscribe", body)
}

func (m *Billing) AddPaymentMethod(ctx context.Context, pm domain.Document) (domain.Document, error) {
	return sendOneIdempotent[domain.Document](ctx, m.c, "accounts/billing/payment-method", pm)
}

// Usage devuelve el consumo del período ("" = actual).
func (m *Billing) Usage(ctx context.Context, period string) (domain.Document, error) {
	var q url.Values
	if period != "" {
		q = url.Values{"period": {period}}
	}
	return getOne[domain.Document](ctx, m.c, "accounts/billing/usage", q)
}

func (m *Billing) Transactions(ctx context.Context) ([]domain.Document, error) {
	return getList[domain.Document](ctx, m.c, "accounts/billing/transactions", nil)
}

// =================================================================================
// SANDBOX
// =================================================================================

// Sandbox solo funciona con keys de test.
type Sandbox struct{ c *Client }

func (m *Sandbox) Info(ctx context.Context) (domain.Document, error) {
	return getOne[domain.Document](ctx, m.c, "sandbox/info", nil)
}

func (m *Sandbox) Messages(ctx context.Context) ([]domain.Message, error) {
	return getList[domain.Message](ctx, m.c, "sandbox/messages", nil)
}

// SimulateIncoming registra un mensaje entrante desde partnerID.
func (m *Sandbox) SimulateIncoming(ctx context.Context, partnerID, content, subject string) (domain.Message, error) {
	body := map[string]string{
		"partnerId":   partnerID,
		"content":     base64.StdEncoding.EncodeToString([]byte(content)),
		"contentType": util.DetectContentType(content, ""),
		"subject":     subject,
	}
	return sendOne[domain.Message](ctx, m.c, http.MethodPost, "sandbox/simulate-incoming", body)
}

// Sample devuelve el documento de ejemplo de un tipo (x12, edifact, xml, json).
func (m *Sandbox) Sample(ctx context.Context, kind string) (string, error) {
	doc, err := getOne[struct {
		Content string `json:"content"`
	}](ctx, m.c, "sandbox/samples/"+kind, nil)
	return doc.Content, err
}

func (m *Sandbox) Clear(ctx context.Context) error {
	_, err := m.c.send(ctx, http.MethodPost, "sandbox/clear", nil)
	return err
}

// =================================================================================
// PARTNERSHIPS
// =================================================================================

type Partnerships struct{ c *Client }

// InitiateOnboarding crea el partner y arranca el onboarding.
func (m *Partnerships) InitiateOnboarding(ctx context.Context, in domain.PartnerPatch) (domain.Document, error) {
	return sendOneIdempotent[domain.Document](ctx, m.c, "partnerships/onboarding", m.c.withDefaults(in))
}

func (m *Partnerships) HealthDashboard(ctx context.Context) (domain.Document, error) {
	return getOne[domain.Document](ctx, m.c, "partnerships/health", nil)
}

func (m *Partnerships) InitiateCertificateExchange(ctx context.Context, partnerID string) (domain.Document, error) {
	return sendOne[domain.Document](ctx, m.c, http.MethodPost, "partnerships/"+partnerID+"/certificate-exchange", nil)
}

// =================================================================================
// UTILS
// =================================================================================

// Utils: ValidateEDI va al servidor; el resto es local.
type Utils struct{ c *Client }

func (m *Utils) ValidateEDI(ctx context.Context, content string, strict bool) (domain.ValidationResult, error) {
	body := map[string]any{"content": base64.StdEncoding.EncodeToString([]byte(content)), "strict": strict}
	return sendOne[domain.ValidationResult](ctx, m.c, http.MethodPost, "utils/validate-edi", body)
}

func (m *Utils) DetectContentType(content, filename string) string {
	return util.DetectContentType(content, filename)
}

func (m *Utils) FormatFileSize(bytes int64) string { return util.FormatFileSize(bytes) }

func (m *Utils) GenerateAS2ID(company string) string { return util.GenerateAS2ID(company) }
