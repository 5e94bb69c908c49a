package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/util"
)

// Accounts opera en scope de cuenta: nunca lleva X-Tenant-ID.
type Accounts struct{ c *Client }

// Get devuelve la cuenta de la API key: meta.current_account o, si falta,
// el primer elemento de data.
func (m *Accounts) Get(ctx context.Context) (domain.Account, error) {
	res, err := m.c.get(ctx, "accounts", nil)
	if err != nil {
		return domain.Account{}, err
	}
	var body struct {
		Data []domain.Account `json:"data"`
		Meta struct {
			CurrentAccount *domain.Account `json:"current_account"`
		} `json:"meta"`
	}
	if err := res.Decode(&body); err != nil {
		return domain.Account{}, err
	}
	switch {
	case body.Meta.CurrentAccount != nil && body.Meta.CurrentAccount.ID != "":
		return *body.Meta.CurrentAccount, nil
	case len(body.Data) > 0:
		return body.Data[0], nil
	}
	return domain.Account{}, as2err.API("No account information found", "NO_ACCOUNT", res.Status)
}

func (m *Accounts) Update(ctx context.Context, in domain.AccountUpdate) (domain.Account, error) {
	return sendOne[domain.Account](ctx, m.c, http.MethodPut, "accounts", in)
}

func (m *Accounts) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return getList[domain.Tenant](ctx, m.c, "tenants", nil)
}

// CreateTenant crea un tenant; sin slug se genera name en kebab + 6 hex.
func (m *Accounts) CreateTenant(ctx context.Context, in domain.TenantInput) (domain.Tenant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Tenant{}, as2err.Validation("Tenant name is required", "", map[string][]string{"name": {"is required"}})
	}
	if in.Slug == "" {
		in.Slug = util.UniqueSlug(in.Name)
	}
	return sendOneIdempotent[domain.Tenant](ctx, m.c, "tenants", in)
}

func (m *Accounts) MasterPartners() *MasterPartners { return m.c.MasterPartners() }

// Tenants. Switch cambia el tenant del cliente que creó el módulo.
type Tenants struct{ c *Client }

// Switch fija id como tenant actual y devuelve el tenant. Si el tenant no
// existe el scope vuelve al anterior.
func (m *Tenants) Switch(ctx context.Context, id string) (domain.Tenant, error) {
	prev, _ := m.c.CurrentTenant()
	m.c.SetTenant(id)
	t, err := m.Get(ctx, id)
	if err != nil {
		m.c.SetTenant(prev)
		return domain.Tenant{}, err
	}
	return t, nil
}

// Current devuelve el tenant en scope o, sin scope, el que informa el servidor.
func (m *Tenants) Current(ctx context.Context) (domain.Tenant, error) {
	if id := m.c.tenantFor(ctx); id != "" {
		return m.Get(ctx, id)
	}
	return getOne[domain.Tenant](ctx, m.c, "tenants/current", nil)
}

func (m *Tenants) Get(ctx context.Context, id string) (domain.Tenant, error) {
	return getOne[domain.Tenant](ctx, m.c, "tenants/"+id, nil)
}

func (m *Tenants) List(ctx context.Context) ([]domain.Tenant, error) {
	return m.c.Accounts().ListTenants(ctx)
}

func (m *Tenants) Update(ctx context.Context, id string, in domain.TenantInput) (domain.Tenant, error) {
	return sendOne[domain.Tenant](ctx, m.c, http.MethodPut, "tenants/"+id, in)
}

func (m *Tenants) Delete(ctx context.Context, id string) error {
	_, err := m.c.send(ctx, http.MethodDelete, "tenants/"+id, nil)
	return err
}

// InheritMasterPartner hereda masterID en tenantID con los overrides dados.
func (m *Tenants) InheritMasterPartner(ctx context.Context, tenantID, masterID string, overrides domain.PartnerPatch) (domain.InheritResult, error) {
	return m.c.MasterPartners().Inherit(ctx, masterID, domain.InheritRequest{TenantIDs: []string{tenantID}, Overrides: overrides})
}
