package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MDNMode es el modo de recibo AS2.
type MDNMode string

const (
	MDNAsync MDNMode = "async"
	MDNSync  MDNMode = "sync"
)

// Valid indica si el modo es conocido.
func (m MDNMode) Valid() bool { return m == MDNAsync || m == MDNSync }

// PartnerKind discrimina a quién pertenece un partner.
type PartnerKind string

const (
	KindTenant    PartnerKind = "tenant"
	KindMaster    PartnerKind = "master"
	KindInherited PartnerKind = "inherited"
)

// Owner es la unión cerrada de dueños posibles de un partner.
// Las variantes son TenantOwned, AccountOwned e InheritedFrom.
type Owner interface {
	Kind() PartnerKind
	// Tenant devuelve el tenant dueño, "" para partners master.
	Tenant() string
	isOwner()
}

// TenantOwned: partner creado directamente por un tenant.
type TenantOwned struct{ TenantID string }

// AccountOwned: partner master de la cuenta. AccountID puede venir vacío
// cuando el servidor no lo informa.
type AccountOwned struct{ AccountID string }

// InheritedFrom: proyección de un master dentro de un tenant.
type InheritedFrom struct {
	MasterID string
	TenantID string
}

func (TenantOwned) Kind() PartnerKind   { return KindTenant }
func (AccountOwned) Kind() PartnerKind  { return KindMaster }
func (InheritedFrom) Kind() PartnerKind { return KindInherited }

func (o TenantOwned) Tenant() string   { return o.TenantID }
func (AccountOwned) Tenant() string    { return "" }
func (o InheritedFrom) Tenant() string { return o.TenantID }

func (TenantOwned) isOwner()   {}
func (AccountOwned) isOwner()  {}
func (InheritedFrom) isOwner() {}

// Partner es un endpoint AS2 de un trading partner.
type Partner struct {
	ID string
	PartnerSettings

	HealthStatus string
	HealthScore  float64
	UsageCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	owner Owner
}

// NewTenantPartner arma un partner propio de tenantID.
func NewTenantPartner(id, tenantID string, s PartnerSettings) (Partner, error) {
	if strings.TrimSpace(tenantID) == "" {
		return Partner{}, fmt.Errorf("domain: tenant partner %q requires a tenant id", id)
	}
	return Partner{ID: id, PartnerSettings: s, owner: TenantOwned{TenantID: tenantID}}, nil
}

// NewMasterPartner arma un partner master de la cuenta.
func NewMasterPartner(id, accountID string, s PartnerSettings) Partner {
	return Partner{ID: id, PartnerSettings: s, owner: AccountOwned{AccountID: accountID}}
}

// NewInheritedPartner arma la proyección de masterID en tenantID.
func NewInheritedPartner(id, masterID, tenantID string, s PartnerSettings) (Partner, error) {
	if strings.TrimSpace(masterID) == "" || strings.TrimSpace(tenantID) == "" {
		return Partner{}, fmt.Errorf("domain: inherited partner %q requires master and tenant ids", id)
	}
	return Partner{ID: id, PartnerSettings: s, owner: InheritedFrom{MasterID: masterID, TenantID: tenantID}}, nil
}

// Owner devuelve la variante de dueño. Un Partner zero-value se trata como
// master sin cuenta.
func (p Partner) Owner() Owner {
	if p.owner == nil {
		return AccountOwned{}
	}
	return p.owner
}

func (p Partner) Kind() PartnerKind { return p.Owner().Kind() }

// TenantID es el tenant dueño ("" para master).
func (p Partner) TenantID() string { return p.Owner().Tenant() }

// MasterID devuelve el master de origen para proyecciones heredadas.
func (p Partner) MasterID() (string, bool) {
	if o, ok := p.owner.(InheritedFrom); ok {
		return o.MasterID, true
	}
	return "", false
}

func (p Partner) IsMaster() bool    { return p.Kind() == KindMaster }
func (p Partner) IsInherited() bool { return p.Kind() == KindInherited }

// CanOverrideSettings: solo las proyecciones heredadas aceptan overrides.
func (p Partner) CanOverrideSettings() bool { return p.IsInherited() }

// Settings devuelve una copia de los campos configurables.
func (p Partner) Settings() PartnerSettings { return p.PartnerSettings }

// =================================================================================
// WIRE FORMAT
// =================================================================================

type partnerConfiguration struct {
	Sign     *bool   `json:"sign,omitempty"`
	Encrypt  *bool   `json:"encrypt,omitempty"`
	Compress *bool   `json:"compress,omitempty"`
	MDNMode  MDNMode `json:"mdn_mode,omitempty"`
}

type wirePartner struct {
	ID              FlexString            `json:"id"`
	Name            string                `json:"name"`
	AS2ID           string                `json:"as2_id"`
	URL             string                `json:"url"`
	Type            PartnerKind           `json:"type"`
	MDNMode         MDNMode               `json:"mdn_mode,omitempty"`
	Sign            *bool                 `json:"sign,omitempty"`
	Encrypt         *bool                 `json:"encrypt,omitempty"`
	Compress        *bool                 `json:"compress,omitempty"`
	Active          *bool                 `json:"active,omitempty"`
	TenantID        FlexString            `json:"tenant_id,omitempty"`
	AccountID       FlexString            `json:"account_id,omitempty"`
	MasterPartnerID FlexString            `json:"master_partner_id,omitempty"`
	Configuration   *partnerConfiguration `json:"configuration,omitempty"`
	HealthStatus    string                `json:"health_status,omitempty"`
	HealthScore     float64               `json:"health_score,omitempty"`
	UsageCount      int                   `json:"usage_count,omitempty"`
	CreatedAt       *time.Time            `json:"created_at,omitempty"`
	UpdatedAt       *time.Time            `json:"updated_at,omitempty"`
}

// MarshalJSON emite el formato plano; los masters además llevan configuration.
func (p Partner) MarshalJSON() ([]byte, error) {
	s := p.PartnerSettings
	w := wirePartner{
		ID:           FlexString(p.ID),
		Name:         s.Name,
		AS2ID:        s.AS2ID,
		URL:          s.URL,
		Type:         p.Kind(),
		MDNMode:      s.MDNMode,
		Sign:         Ptr(s.Sign),
		Encrypt:      Ptr(s.Encrypt),
		Compress:     Ptr(s.Compress),
		Active:       Ptr(s.Active),
		HealthStatus: p.HealthStatus,
		HealthScore:  p.HealthScore,
		UsageCount:   p.UsageCount,
	}
	switch o := p.Owner().(type) {
	case TenantOwned:
		w.TenantID = FlexString(o.TenantID)
	case AccountOwned:
		w.AccountID = FlexString(o.AccountID)
		w.Configuration = &partnerConfiguration{Sign: w.Sign, Encrypt: w.Encrypt, Compress: w.Compress, MDNMode: s.MDNMode}
	case InheritedFrom:
		w.TenantID = FlexString(o.TenantID)
		w.MasterPartnerID = FlexString(o.MasterID)
	}
	if !p.CreatedAt.IsZero() {
		w.CreatedAt = Ptr(p.CreatedAt)
	}
	if !p.UpdatedAt.IsZero() {
		w.UpdatedAt = Ptr(p.UpdatedAt)
	}
	return json.Marshal(w)
}

// UnmarshalJSON resuelve una sola vez "configuration primero, si no el campo
// plano" y valida la variante de dueño.
func (p *Partner) UnmarshalJSON(b []byte) error {
	var w wirePartner
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s := PartnerSettings{
		Name:     w.Name,
		AS2ID:    w.AS2ID,
		URL:      w.URL,
		Sign:     boolOr(w.Sign, true),
		Encrypt:  boolOr(w.Encrypt, true),
		Compress: boolOr(w.Compress, false),
		MDNMode:  w.MDNMode,
		Active:   boolOr(w.Active, true),
	}
	if c := w.Configuration; c != nil {
		if c.Sign != nil {
			s.Sign = *c.Sign
		}
		if c.Encrypt != nil {
			s.Encrypt = *c.Encrypt
		}
		if c.Compress != nil {
			s.Compress = *c.Compress
		}
		if c.MDNMode != "" {
			s.MDNMode = c.MDNMode
		}
	}
	if s.MDNMode == "" {
		s.MDNMode = MDNAsync
	}

	var (
		out Partner
		err error
	)
	switch w.Type {
	case KindMaster:
		out = NewMasterPartner(string(w.ID), string(w.AccountID), s)
	case KindInherited:
		out, err = NewInheritedPartner(string(w.ID), string(w.MasterPartnerID), string(w.TenantID), s)
	case KindTenant, "":
		out, err = NewTenantPartner(string(w.ID), string(w.TenantID), s)
	default:
		err = fmt.Errorf("domain: unknown partner type %q", w.Type)
	}
	if err != nil {
		return err
	}
	out.HealthStatus = w.HealthStatus
	out.HealthScore = w.HealthScore
	out.UsageCount = w.UsageCount
	if w.CreatedAt != nil {
		out.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		out.UpdatedAt = *w.UpdatedAt
	}
	*p = out
	return nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
