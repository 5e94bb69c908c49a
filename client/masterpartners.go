package client

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/inheritance"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
)

// MasterPartners opera sobre accounts/{accountId}/partners. Nunca lleva
// X-Tenant-ID, aunque el cliente tenga un tenant en scope.
type MasterPartners struct{ c *Client }

// accountID resuelve el id de la cuenta una sola vez por cliente. Llamados
// concurrentes comparten el mismo GET accounts.
func (c *Client) accountID(ctx context.Context) (string, error) {
	c.account.mu.Lock()
	id := c.account.id
	c.account.mu.Unlock()
	if id != "" {
		return id, nil
	}
	v, err, _ := c.account.sf.Do("account", func() (any, error) {
		acc, err := c.Accounts().Get(ctx)
		if err != nil {
			return "", err
		}
		c.account.mu.Lock()
		c.account.id = string(acc.ID)
		c.account.mu.Unlock()
		c.log.Debug("account resolved", logger.AccountID(string(acc.ID)))
		return string(acc.ID), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *MasterPartners) base(ctx context.Context) (string, error) {
	id, err := m.c.accountID(ctx)
	if err != nil {
		return "", err
	}
	return "accounts/" + id + "/", nil
}

func (m *MasterPartners) List(ctx context.Context) ([]domain.Partner, error) {
	base, err := m.base(ctx)
	if err != nil {
		return nil, err
	}
	return getList[domain.Partner](ctx, m.c, base+"partners", nil)
}

func (m *MasterPartners) Get(ctx context.Context, id string) (domain.Partner, error) {
	base, err := m.base(ctx)
	if err != nil {
		return domain.Partner{}, err
	}
	return getOne[domain.Partner](ctx, m.c, base+"partners/"+id, nil)
}

func (m *MasterPartners) Create(ctx context.Context, in domain.PartnerPatch) (domain.Partner, error) {
	if err := inheritance.ValidateNew(in); err != nil {
		return domain.Partner{}, err
	}
	base, err := m.base(ctx)
	if err != nil {
		return domain.Partner{}, err
	}
	return sendOneIdempotent[domain.Partner](ctx, m.c, base+"partners", m.c.withDefaults(in))
}

// Update cambia el master; el servidor propaga a las proyecciones salvo en
// los campos que cada tenant tiene overrideados.
func (m *MasterPartners) Update(ctx context.Context, id string, patch domain.PartnerPatch) (domain.Partner, error) {
	if err := inheritance.ValidatePatch(patch); err != nil {
		return domain.Partner{}, err
	}
	base, err := m.base(ctx)
	if err != nil {
		return domain.Partner{}, err
	}
	return sendOne[domain.Partner](ctx, m.c, http.MethodPut, base+"partners/"+id, patch)
}

// Delete borra el master junto con sus relaciones y proyecciones.
func (m *MasterPartners) Delete(ctx context.Context, id string) error {
	base, err := m.base(ctx)
	if err != nil {
		return err
	}
	_, err = m.c.send(ctx, http.MethodDelete, base+"partners/"+id, nil)
	return err
}

// Inherit proyecta el master en cada tenant de req. Repetir un par ya
// heredado reemplaza sus overrides.
func (m *MasterPartners) Inherit(ctx context.Context, id string, req domain.InheritRequest) (domain.InheritResult, error) {
	base, err := m.base(ctx)
	if err != nil {
		return domain.InheritResult{}, err
	}
	return sendOne[domain.InheritResult](ctx, m.c, http.MethodPost, base+"partners/"+id+"/inherit", req)
}

// RemoveInheritance corta la herencia en los tenants dados y devuelve cuántas
// relaciones se borraron.
func (m *MasterPartners) RemoveInheritance(ctx context.Context, id string, tenantIDs []string) (int, error) {
	base, err := m.base(ctx)
	if err != nil {
		return 0, err
	}
	res, err := sendOne[domain.RemoveInheritanceResult](ctx, m.c, http.MethodDelete, base+"partners/"+id+"/inherit",
		domain.RemoveInheritanceRequest{TenantIDs: tenantIDs})
	if err != nil {
		return 0, err
	}
	return res.RemovedCount, nil
}

func (m *MasterPartners) InheritanceStatus(ctx context.Context, id string) (domain.InheritanceStatus, error) {
	base, err := m.base(ctx)
	if err != nil {
		return domain.InheritanceStatus{}, err
	}
	return getOne[domain.InheritanceStatus](ctx, m.c, base+"partners/"+id+"/inheritance", nil)
}

func (m *MasterPartners) Health(ctx context.Context) (domain.MasterPartnerHealth, error) {
	base, err := m.base(ctx)
	if err != nil {
		return domain.MasterPartnerHealth{}, err
	}
	return getOne[domain.MasterPartnerHealth](ctx, m.c, base+"partners-health", nil)
}
