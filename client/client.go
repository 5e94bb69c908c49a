// Package client es el cliente HTTP de la API AS2aaS.
//
// Un Client guarda el tenant actual y lo inyecta como X-Tenant-ID en los
// requests a recursos con scope de tenant (partners, messages, certificates,
// webhooks...). accounts, tenants y billing nunca llevan el header. WithTenant
// devuelve una vista independiente que comparte el transporte.
//
// Concurrencia: una misma instancia de Client NO es segura para usarla desde
// varias goroutines con tenants distintos. SetTenant cambia el scope de todos
// los requests que salen después, incluidos los de otras goroutines. Para
// trabajar sobre varios tenants a la vez usar una vista por tenant
// (WithTenant) o fijar el tenant por llamada con ContextWithTenant.
package client

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/metrics"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
	"github.com/dropDatabas3/as2aas/internal/transport"
)

// EnvAPIKey es la variable que lee NewFromEnv.
const EnvAPIKey = "AS2AAS_API_KEY"

// Environment se deduce del prefijo de la API key.
type Environment string

const (
	EnvLive Environment = "live"
	EnvTest Environment = "test"
)

var keyPattern = regexp.MustCompile(`^(pk|tk)_(live|test)_[a-zA-Z0-9_]+$`)

// Config del cliente. Los ceros toman los defaults.
type Config struct {
	APIKey      string
	BaseURL     string
	Environment Environment
	Timeout     time.Duration
	// Retries < 0 desactiva los reintentos; 0 usa el default.
	Retries    int
	RetryDelay time.Duration

	// Defaults para partners nuevos y envíos.
	DefaultMDNMode    domain.MDNMode
	DefaultSigning    *bool
	DefaultEncryption *bool
	// AutoValidateEDI valida el contenido EDI antes de enviarlo.
	AutoValidateEDI bool

	// Tenant inicial; "" = scope de cuenta.
	Tenant string

	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Client

	// sleep reemplaza la espera entre reintentos en tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func (c Config) signing() bool    { return c.DefaultSigning == nil || *c.DefaultSigning }
func (c Config) encryption() bool { return c.DefaultEncryption == nil || *c.DefaultEncryption }

// detectEnvironment: pk_test_/tk_test_ => test, resto live.
func detectEnvironment(key string) Environment {
	if strings.HasPrefix(key, "pk_test_") || strings.HasPrefix(key, "tk_test_") {
		return EnvTest
	}
	return EnvLive
}

// account memoiza el id de la cuenta; lo comparten todas las vistas.
type account struct {
	sf singleflight.Group
	mu sync.Mutex
	id string
}

// Client no es seguro para uso concurrente sobre tenants distintos: el mutex
// solo protege el campo tenant, no el scope de un request en curso. Si la
// goroutine A hace SetTenant("1") y la B SetTenant("2"), el próximo List de A
// sale con tenant 2. Usar WithTenant o ContextWithTenant para cada scope.
type Client struct {
	tr      *transport.Transport
	cfg     Config
	log     *zap.Logger
	account *account

	mu     sync.RWMutex
	tenant string
}

// New valida la API key y arma el cliente.
func New(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, as2err.Authentication("API key is required")
	}
	if !keyPattern.MatchString(cfg.APIKey) {
		return nil, as2err.Authentication("Invalid API key format").WithCode("INVALID_API_KEY")
	}
	if cfg.Environment == "" {
		cfg.Environment = detectEnvironment(cfg.APIKey)
	}
	if cfg.DefaultMDNMode == "" {
		cfg.DefaultMDNMode = domain.MDNAsync
	}
	retries := cfg.Retries
	switch {
	case retries == 0:
		retries = transport.DefaultRetries
	case retries < 0:
		retries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = transport.DefaultRetryDelay
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg.Logger = log

	tr, err := transport.New(transport.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.Timeout,
		Retries:    retries,
		RetryDelay: cfg.RetryDelay,
		HTTPClient: cfg.HTTPClient,
		Logger:     log,
		Metrics:    cfg.Metrics,
		Sleep:      cfg.sleep,
	})
	if err != nil {
		return nil, as2err.Validation(err.Error(), "INVALID_CONFIG", map[string][]string{"base_url": {"is invalid"}})
	}

	c := &Client{tr: tr, cfg: cfg, log: log.Named("as2aas"), account: &account{}, tenant: cfg.Tenant}
	c.log.Debug("client ready",
		logger.APIKey(tr.MaskedKey()),
		zap.String("environment", string(cfg.Environment)),
		zap.Int("retries", tr.Retries()),
	)
	return c, nil
}

// NewFromEnv arma el cliente con la key de AS2AAS_API_KEY; cfg.APIKey se ignora.
func NewFromEnv(cfg Config) (*Client, error) {
	cfg.APIKey = os.Getenv(EnvAPIKey)
	return New(cfg)
}

// Environment devuelve el entorno de la key.
func (c *Client) Environment() Environment { return c.cfg.Environment }

// IsTest indica si la key es de test.
func (c *Client) IsTest() bool { return c.cfg.Environment == EnvTest }

// =================================================================================
// TENANT SCOPE
// =================================================================================

// SetTenant fija el tenant de los próximos requests; "" vuelve al scope de cuenta.
func (c *Client) SetTenant(id string) {
	id = strings.TrimSpace(id)
	c.mu.Lock()
	c.tenant = id
	c.mu.Unlock()
	c.log.Debug("tenant context changed", logger.TenantID(id))
}

func (c *Client) CurrentTenant() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenant, c.tenant != ""
}

// WithTenant devuelve una vista con otro tenant. Cambiar el tenant de la
// vista no afecta al original ni a otras vistas.
func (c *Client) WithTenant(id string) *Client {
	return &Client{tr: c.tr, cfg: c.cfg, log: c.log, account: c.account, tenant: strings.TrimSpace(id)}
}

type tenantKey struct{}

// ContextWithTenant fija el tenant de los llamados hechos con ctx. Gana
// sobre el tenant del cliente; "" fuerza scope de cuenta.
func ContextWithTenant(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantKey{}, strings.TrimSpace(id))
}

// TenantFromContext devuelve el tenant fijado con ContextWithTenant.
func TenantFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(tenantKey{}).(string)
	return id, ok
}

// tenantFor resuelve el scope de un llamado: ctx antes que el cliente.
func (c *Client) tenantFor(ctx context.Context) string {
	if id, ok := TenantFromContext(ctx); ok {
		return id
	}
	id, _ := c.CurrentTenant()
	return id
}

// =================================================================================
// MODULES
// =================================================================================

func (c *Client) Partners() *Partners             { return &Partners{c} }
func (c *Client) MasterPartners() *MasterPartners { return &MasterPartners{c} }
func (c *Client) Messages() *Messages             { return &Messages{c} }
func (c *Client) Certificates() *Certificates     { return &Certificates{c} }
func (c *Client) Accounts() *Accounts             { return &Accounts{c} }
func (c *Client) Tenants() *Tenants               { return &Tenants{c} }
func (c *Client) Webhooks() *Webhooks             { return &Webhooks{c} }
func (c *Client) Billing() *Billing               { return &Billing{c} }
func (c *Client) Sandbox() *Sandbox               { return &Sandbox{c} }
func (c *Client) Partnerships() *Partnerships     { return &Partnerships{c} }
func (c *Client) Utils() *Utils                   { return &Utils{c} }

var (
	_ domain.TenantScoper         = (*Client)(nil)
	_ domain.PartnerService       = (*Partners)(nil)
	_ domain.MasterPartnerService = (*MasterPartners)(nil)
	_ domain.MessageService       = (*Messages)(nil)
	_ domain.CertificateService   = (*Certificates)(nil)
	_ domain.WebhookService       = (*Webhooks)(nil)
	_ domain.TenantService        = (*Tenants)(nil)
)
