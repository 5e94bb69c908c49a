package domain

import (
	"math"
	"strings"
	"time"

	as2err "github.com/dropDatabas3/as2aas/errors"
)

type CertificateType string

const (
	CertIdentity CertificateType = "identity"
	CertPartner  CertificateType = "partner"
	CertCA       CertificateType = "ca"
	CertSSL      CertificateType = "ssl"
)

// Certificate es un certificado administrado por el servicio. El wire usa camelCase.
type Certificate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        CertificateType `json:"type"`
	Usage       string          `json:"usage,omitempty"`
	Subject     string          `json:"subject,omitempty"`
	Issuer      string          `json:"issuer,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Active      bool            `json:"active"`
	PartnerID   string          `json:"partnerId,omitempty"`
	TenantID    string          `json:"tenantId,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// IsExpired indica si el certificado venció respecto de now.
func (c Certificate) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IsExpiringSoon indica si vence dentro de los próximos days días.
func (c Certificate) IsExpiringSoon(now time.Time, days int) bool {
	if c.ExpiresAt == nil || c.IsExpired(now) {
		return false
	}
	return c.ExpiresAt.Before(now.Add(time.Duration(days) * 24 * time.Hour))
}

// DaysUntilExpiry devuelve los días restantes (negativo si ya venció).
// Sin fecha de vencimiento devuelve math.MaxInt.
func (c Certificate) DaysUntilExpiry(now time.Time) int {
	if c.ExpiresAt == nil {
		return math.MaxInt
	}
	return int(math.Floor(c.ExpiresAt.Sub(now).Hours() / 24))
}

// CertificateUpload son los datos de un upload multipart.
type CertificateUpload struct {
	Name      string
	Type      CertificateType
	Usage     string
	PartnerID string
	Password  string
	// FileName es el nombre enviado en el part; default certificate.pem.
	FileName string
	Content  []byte
}

// IdentityRequest sirve para generate-identity y generate-csr.
type IdentityRequest struct {
	CommonName   string `json:"commonName"`
	Organization string `json:"organization"`
	Country      string `json:"country"`
	Email        string `json:"email,omitempty"`
	KeySize      int    `json:"keySize,omitempty"`
	ValidityDays int    `json:"validityDays,omitempty"`
}

// CertificateUpdate es el PATCH de un certificado.
type CertificateUpdate struct {
	Name   *string `json:"name,omitempty"`
	Usage  *string `json:"usage,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// CertificateInfo es el resultado de inspeccionar un certificado localmente.
type CertificateInfo struct {
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	SerialNumber string    `json:"serial_number"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	DNSNames     []string  `json:"dns_names,omitempty"`
	IsCA         bool      `json:"is_ca"`
	Fingerprint  string    `json:"fingerprint_sha256"`
	HasKey       bool      `json:"has_private_key"`
	Format       string    `json:"format"`
}

// Validate exige commonName, organization y country.
func (r IdentityRequest) Validate() error {
	details := map[string][]string{}
	if strings.TrimSpace(r.CommonName) == "" {
		details["commonName"] = []string{"is required"}
	}
	if strings.TrimSpace(r.Organization) == "" {
		details["organization"] = []string{"is required"}
	}
	if strings.TrimSpace(r.Country) == "" {
		details["country"] = []string{"is required"}
	}
	if len(details) > 0 {
		return as2err.Validation("Common name, organization, and country are required", "", details)
	}
	return nil
}
