// Package mock es un cliente AS2aaS en memoria con la misma superficie que el
// cliente HTTP. Sirve para testear código de aplicación sin servidor y es el
// backend del fake server (internal/fakeapi).
//
// El cliente no sincroniza: un mismo Store no debe usarse desde varias
// goroutines sin un lock externo.
package mock

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/inheritance"
)

// Client es el cliente mock. Las vistas creadas con WithTenant comparten
// store y motor de herencia.
type Client struct {
	store  *Store
	engine *inheritance.Engine
	log    *zap.Logger
	tenant string
}

type Option func(*Client)

// WithStore usa un store existente en vez de uno sembrado nuevo.
func WithStore(s *Store) Option { return func(c *Client) { c.store = s } }

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithInitialTenant arranca con un tenant fijado.
func WithInitialTenant(id string) Option { return func(c *Client) { c.tenant = id } }

// New crea un cliente mock con datos semilla.
func New(opts ...Option) *Client {
	c := &Client{log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	if c.store == nil {
		c.store = NewStore()
	}
	s := c.store
	c.engine = inheritance.New(s,
		inheritance.WithClock(func() time.Time { return s.now() }),
		inheritance.WithLogger(c.log),
	)
	return c
}

func (c *Client) SetTenant(id string) { c.tenant = id }

func (c *Client) CurrentTenant() (string, bool) { return c.tenant, c.tenant != "" }

// WithTenant devuelve una vista fijada a id sin tocar el receptor.
func (c *Client) WithTenant(id string) *Client {
	view := *c
	view.tenant = id
	return &view
}

// Store expone el estado para armar fixtures y hacer aserciones.
func (c *Client) Store() *Store { return c.store }

// Reset vuelve a los datos semilla.
func (c *Client) Reset() { c.store.Seed() }

func (c *Client) Partners() *Partners             { return &Partners{c} }
func (c *Client) MasterPartners() *MasterPartners { return &MasterPartners{c} }
func (c *Client) Messages() *Messages             { return &Messages{c} }
func (c *Client) Certificates() *Certificates     { return &Certificates{c} }
func (c *Client) Accounts() *Accounts             { return &Accounts{c} }
func (c *Client) Tenants() *Tenants               { return &Tenants{c} }
func (c *Client) Webhooks() *Webhooks             { return &Webhooks{c} }
func (c *Client) Utils() Utils                    { return Utils{} }

func (c *Client) now() time.Time { return c.store.now().UTC() }

var (
	_ domain.TenantScoper         = (*Client)(nil)
	_ domain.PartnerService       = (*Partners)(nil)
	_ domain.MasterPartnerService = (*MasterPartners)(nil)
	_ domain.MessageService       = (*Messages)(nil)
	_ domain.CertificateService   = (*Certificates)(nil)
	_ domain.WebhookService       = (*Webhooks)(nil)
	_ domain.TenantService        = (*Tenants)(nil)
)
