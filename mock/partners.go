package mock

import (
	"context"
	"math/rand/v2"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/inheritance"
	"github.com/dropDatabas3/as2aas/internal/partnerview"
)

// Partners resuelve sobre la vista del tenant actual. En scope de cuenta la
// vista son los master.
type Partners struct{ c *Client }

func (m *Partners) visible() []domain.Partner {
	return partnerview.Visible(m.c.store.Partners(), m.c.tenant)
}

func (m *Partners) List(_ context.Context, f domain.PartnerFilter) ([]domain.Partner, error) {
	return partnerview.Filter(m.visible(), f), nil
}

// Search es List con filtro de texto.
func (m *Partners) Search(ctx context.Context, q string) ([]domain.Partner, error) {
	return m.List(ctx, domain.PartnerFilter{Search: q})
}

func (m *Partners) Get(_ context.Context, id string) (domain.Partner, error) {
	return partnerview.FindByID(m.c.store.Partners(), m.c.tenant, id)
}

func (m *Partners) GetByAS2ID(_ context.Context, as2ID string) (domain.Partner, error) {
	return partnerview.FindByAS2ID(m.c.store.Partners(), m.c.tenant, as2ID)
}

func (m *Partners) GetByName(_ context.Context, name string) (domain.Partner, error) {
	return partnerview.FindByName(m.visible(), name)
}

// Create da de alta un partner del tenant actual.
func (m *Partners) Create(_ context.Context, in domain.PartnerPatch) (domain.Partner, error) {
	if m.c.tenant == "" {
		return domain.Partner{}, as2err.Validation("Tenant context is required to create partners", "TENANT_REQUIRED", nil)
	}
	if err := inheritance.ValidateNew(in); err != nil {
		return domain.Partner{}, err
	}
	p, err := domain.NewTenantPartner(m.c.store.NextID("prt"), m.c.tenant, in.Apply(inheritance.DefaultSettings()))
	if err != nil {
		return domain.Partner{}, err
	}
	p.HealthStatus = "excellent"
	p.HealthScore = 100
	p.CreatedAt = m.c.now()
	p.UpdatedAt = p.CreatedAt
	m.c.store.PutPartner(p)
	return p, nil
}

// Update aplica patch. Sobre una proyección heredada los campos pasan a ser
// overrides de la relación; sobre un master propaga a los tenants.
func (m *Partners) Update(ctx context.Context, id string, patch domain.PartnerPatch) (domain.Partner, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return domain.Partner{}, err
	}
	switch p.Kind() {
	case domain.KindInherited:
		return m.c.engine.OverrideProjection(id, patch)
	case domain.KindMaster:
		return m.c.engine.UpdateMaster(id, patch)
	}
	if err := inheritance.ValidatePatch(patch); err != nil {
		return domain.Partner{}, err
	}
	p.PartnerSettings = patch.Apply(p.PartnerSettings)
	p.UpdatedAt = m.c.now()
	m.c.store.PutPartner(p)
	return p, nil
}

func (m *Partners) Delete(ctx context.Context, id string) error {
	p, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	switch p.Kind() {
	case domain.KindInherited:
		return m.c.engine.DetachProjection(id)
	case domain.KindMaster:
		return m.c.engine.DeleteMaster(id)
	}
	m.c.store.DeletePartner(id)
	return nil
}

// Test simula un ping al endpoint AS2 del partner.
func (m *Partners) Test(ctx context.Context, id string) (domain.Document, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.Document{
		"success":       true,
		"partner_id":    p.ID,
		"type":          "ping",
		"response_time": 100 + rand.IntN(400),
		"message":       "Connection test successful",
	}, nil
}

// Health devuelve la salud registrada del partner.
func (m *Partners) Health(ctx context.Context, id string) (domain.Document, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.Document{
		"partner_id":    p.ID,
		"health_status": p.HealthStatus,
		"health_score":  p.HealthScore,
		"usage_count":   p.UsageCount,
	}, nil
}

// Certificates lista los certificados asociados al partner.
func (m *Partners) Certificates(ctx context.Context, id string) ([]domain.Certificate, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.c.Certificates().List(ctx, domain.CertificateFilter{PartnerID: id})
}

// SendMessage delega en Messages.Send.
func (m *Partners) SendMessage(ctx context.Context, id, content, subject string, opts domain.SendOptions) (domain.Message, error) {
	return m.c.Messages().Send(ctx, id, content, subject, opts)
}
