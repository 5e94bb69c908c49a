package mock

import (
	"context"

	"github.com/dropDatabas3/as2aas/domain"
)

// MasterPartners opera en scope de cuenta; ignora el tenant del cliente.
type MasterPartners struct{ c *Client }

func (m *MasterPartners) List(context.Context) ([]domain.Partner, error) {
	return m.c.engine.Masters(), nil
}

func (m *MasterPartners) Get(_ context.Context, id string) (domain.Partner, error) {
	return m.c.engine.Master(id)
}

func (m *MasterPartners) Create(_ context.Context, in domain.PartnerPatch) (domain.Partner, error) {
	return m.c.engine.CreateMaster(m.c.store.AccountID(), in)
}

func (m *MasterPartners) Update(_ context.Context, id string, patch domain.PartnerPatch) (domain.Partner, error) {
	return m.c.engine.UpdateMaster(id, patch)
}

func (m *MasterPartners) Delete(_ context.Context, id string) error {
	return m.c.engine.DeleteMaster(id)
}

func (m *MasterPartners) Inherit(_ context.Context, id string, req domain.InheritRequest) (domain.InheritResult, error) {
	return m.c.engine.Inherit(id, req)
}

func (m *MasterPartners) RemoveInheritance(_ context.Context, id string, tenantIDs []string) (int, error) {
	return m.c.engine.RemoveInheritance(id, tenantIDs)
}

func (m *MasterPartners) InheritanceStatus(_ context.Context, id string) (domain.InheritanceStatus, error) {
	return m.c.engine.Status(id)
}

func (m *MasterPartners) Health(context.Context) (domain.MasterPartnerHealth, error) {
	return m.c.engine.Health(), nil
}
