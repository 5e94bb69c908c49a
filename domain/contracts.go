package domain

import "context"

// Los contratos siguientes los implementan tanto client como mock, así el
// código de aplicación puede testearse sin servidor.

// TenantScoper maneja el tenant actual de un cliente.
type TenantScoper interface {
	// SetTenant fija el tenant; "" vuelve al scope de cuenta.
	SetTenant(id string)
	CurrentTenant() (string, bool)
}

type PartnerService interface {
	List(ctx context.Context, f PartnerFilter) ([]Partner, error)
	Get(ctx context.Context, id string) (Partner, error)
	GetByAS2ID(ctx context.Context, as2ID string) (Partner, error)
	GetByName(ctx context.Context, name string) (Partner, error)
	Create(ctx context.Context, in PartnerPatch) (Partner, error)
	Update(ctx context.Context, id string, patch PartnerPatch) (Partner, error)
	Delete(ctx context.Context, id string) error
}

type MasterPartnerService interface {
	List(ctx context.Context) ([]Partner, error)
	Get(ctx context.Context, id string) (Partner, error)
	Create(ctx context.Context, in PartnerPatch) (Partner, error)
	Update(ctx context.Context, id string, patch PartnerPatch) (Partner, error)
	Delete(ctx context.Context, id string) error
	Inherit(ctx context.Context, id string, req InheritRequest) (InheritResult, error)
	RemoveInheritance(ctx context.Context, id string, tenantIDs []string) (int, error)
	InheritanceStatus(ctx context.Context, id string) (InheritanceStatus, error)
	Health(ctx context.Context) (MasterPartnerHealth, error)
}

type MessageService interface {
	Send(ctx context.Context, partnerID, content, subject string, opts SendOptions) (Message, error)
	Get(ctx context.Context, id string) (Message, error)
	List(ctx context.Context, f MessageFilter) (MessagePage, error)
}

type CertificateService interface {
	List(ctx context.Context, f CertificateFilter) ([]Certificate, error)
	Get(ctx context.Context, id string) (Certificate, error)
	Delete(ctx context.Context, id string) error
}

type WebhookService interface {
	Create(ctx context.Context, in WebhookInput) (WebhookEndpoint, error)
	List(ctx context.Context) ([]WebhookEndpoint, error)
	Get(ctx context.Context, id string) (WebhookEndpoint, error)
	Delete(ctx context.Context, id string) error
}

type TenantService interface {
	Get(ctx context.Context, id string) (Tenant, error)
	Current(ctx context.Context) (Tenant, error)
}
