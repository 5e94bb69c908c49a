package mock

import (
	"context"
	"strconv"
	"strings"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/util"
)

type Accounts struct{ c *Client }

// Get devuelve la cuenta del store; si no hay ninguna crea una por defecto.
func (m *Accounts) Get(context.Context) (domain.Account, error) {
	if len(m.c.store.accounts) == 0 {
		m.c.store.PutAccount(domain.Account{ID: "1", Name: "Mock Account", PlanType: "startup", Status: "active"})
	}
	return m.c.store.accounts[0], nil
}

func (m *Accounts) Update(ctx context.Context, in domain.AccountUpdate) (domain.Account, error) {
	acc, _ := m.Get(ctx)
	if in.Name != "" {
		acc.Name = in.Name
	}
	m.c.store.PutAccount(acc)
	return acc, nil
}

func (m *Accounts) ListTenants(context.Context) ([]domain.Tenant, error) {
	return m.c.store.Tenants(), nil
}

// CreateTenant asigna el próximo id numérico y genera el slug si falta.
func (m *Accounts) CreateTenant(ctx context.Context, in domain.TenantInput) (domain.Tenant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Tenant{}, as2err.Validation("Tenant name is required", "", map[string][]string{"name": {"is required"}})
	}
	acc, _ := m.Get(ctx)
	next := 0
	for _, t := range m.c.store.tenants {
		if n, err := strconv.Atoi(string(t.ID)); err == nil && n > next {
			next = n
		}
	}
	now := m.c.now()
	t := domain.Tenant{
		ID:        domain.FlexString(strconv.Itoa(next + 1)),
		AccountID: acc.ID,
		Name:      in.Name,
		Slug:      in.Slug,
		Status:    "active",
		CreatedAt: &now,
	}
	if t.Slug == "" {
		t.Slug = util.UniqueSlug(in.Name)
	}
	m.c.store.PutTenant(t)
	acc.TenantsCount = len(m.c.store.tenants)
	m.c.store.PutAccount(acc)
	return t, nil
}

func (m *Accounts) MasterPartners() *MasterPartners { return m.c.MasterPartners() }

// Tenants. Switch muta el tenant del cliente sobre el que se creó el módulo.
type Tenants struct{ c *Client }

func (m *Tenants) Switch(ctx context.Context, id string) (domain.Tenant, error) {
	t, err := m.Get(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}
	m.c.SetTenant(id)
	return t, nil
}

// Current devuelve el tenant actual, o el primero si no hay ninguno fijado.
func (m *Tenants) Current(ctx context.Context) (domain.Tenant, error) {
	if m.c.tenant == "" {
		if len(m.c.store.tenants) == 0 {
			return domain.Tenant{}, as2err.NotFound("tenant", "")
		}
		return m.c.store.tenants[0], nil
	}
	return m.Get(ctx, m.c.tenant)
}

func (m *Tenants) Get(_ context.Context, id string) (domain.Tenant, error) {
	for _, t := range m.c.store.tenants {
		if string(t.ID) == id {
			return t, nil
		}
	}
	return domain.Tenant{}, as2err.NotFound("tenant", id)
}

func (m *Tenants) List(context.Context) ([]domain.Tenant, error) {
	return m.c.store.Tenants(), nil
}

func (m *Tenants) Update(ctx context.Context, id string, in domain.TenantInput) (domain.Tenant, error) {
	t, err := m.Get(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}
	if in.Name != "" {
		t.Name = in.Name
	}
	if in.Slug != "" {
		t.Slug = in.Slug
	}
	if in.Status != "" {
		t.Status = in.Status
	}
	m.c.store.PutTenant(t)
	return t, nil
}

func (m *Tenants) Delete(_ context.Context, id string) error {
	if !m.c.store.DeleteTenant(id) {
		return as2err.NotFound("tenant", id)
	}
	return nil
}

// InheritMasterPartner hereda un master en un solo tenant.
func (m *Tenants) InheritMasterPartner(_ context.Context, tenantID, masterID string, overrides domain.PartnerPatch) (domain.InheritResult, error) {
	return m.c.engine.Inherit(masterID, domain.InheritRequest{TenantIDs: []string{tenantID}, Overrides: overrides})
}
