package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/certs"
)

type Certificates struct{ c *Client }

// Upload registra un certificado. Si el contenido es un certificado real se
// usan sus datos; si no, se inventan subject, issuer y vencimiento a un año.
func (m *Certificates) Upload(_ context.Context, in domain.CertificateUpload) (domain.Certificate, error) {
	if strings.TrimSpace(in.Name) == "" || len(in.Content) == 0 {
		return domain.Certificate{}, as2err.Validation("Certificate name and file are required", "", nil)
	}
	now := m.c.now()
	expires := now.AddDate(1, 0, 0)
	sum := sha256.Sum256(in.Content)
	cert := domain.Certificate{
		ID:          m.c.store.NextID("cert"),
		Name:        in.Name,
		Type:        in.Type,
		Usage:       in.Usage,
		Subject:     "CN=" + in.Name,
		Issuer:      "CN=Mock CA",
		Fingerprint: hex.EncodeToString(sum[:]),
		Active:      true,
		PartnerID:   in.PartnerID,
		TenantID:    m.c.tenant,
		ExpiresAt:   &expires,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if info, err := certs.Inspect(in.Content, in.Password); err == nil {
		cert.Subject = info.Subject
		cert.Issuer = info.Issuer
		cert.Fingerprint = info.Fingerprint
		notAfter := info.NotAfter
		cert.ExpiresAt = &notAfter
	}
	if cert.Type == "" {
		cert.Type = domain.CertIdentity
	}
	if cert.Usage == "" {
		cert.Usage = "both"
	}
	m.c.store.PutCertificate(cert)
	m.c.store.PutCertificateContent(cert.ID, in.Content)
	return cert, nil
}

// Content devuelve el archivo tal como se subió.
func (m *Certificates) Content(ctx context.Context, id string) ([]byte, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	b, _ := m.c.store.Payload(id)
	return b, nil
}

func (m *Certificates) visible(cert domain.Certificate) bool {
	return m.c.tenant == "" || cert.TenantID == "" || cert.TenantID == m.c.tenant
}

func (m *Certificates) List(_ context.Context, f domain.CertificateFilter) ([]domain.Certificate, error) {
	now := m.c.now()
	out := []domain.Certificate{}
	for _, cert := range m.c.store.certificates {
		if m.visible(cert) && f.Matches(cert, now) {
			out = append(out, cert)
		}
	}
	return out, nil
}

func (m *Certificates) Get(_ context.Context, id string) (domain.Certificate, error) {
	for _, cert := range m.c.store.certificates {
		if cert.ID == id && m.visible(cert) {
			return cert, nil
		}
	}
	return domain.Certificate{}, as2err.NotFound("certificate", id)
}

func (m *Certificates) Update(ctx context.Context, id string, in domain.CertificateUpdate) (domain.Certificate, error) {
	cert, err := m.Get(ctx, id)
	if err != nil {
		return domain.Certificate{}, err
	}
	if in.Name != nil {
		cert.Name = *in.Name
	}
	if in.Usage != nil {
		cert.Usage = *in.Usage
	}
	if in.Active != nil {
		cert.Active = *in.Active
	}
	now := m.c.now()
	cert.UpdatedAt = &now
	m.c.store.PutCertificate(cert)
	return cert, nil
}

func (m *Certificates) Activate(ctx context.Context, id string) (domain.Certificate, error) {
	return m.Update(ctx, id, domain.CertificateUpdate{Active: domain.Ptr(true)})
}

func (m *Certificates) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.c.store.DeleteCertificate(id)
	return nil
}

// Validate informa vencimiento.
func (m *Certificates) Validate(ctx context.Context, id string) (domain.ValidationResult, error) {
	cert, err := m.Get(ctx, id)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	now := m.c.now()
	res := domain.ValidationResult{Valid: !cert.IsExpired(now), Issues: []any{}, Details: map[string]any{}}
	if cert.IsExpired(now) {
		res.Issues = append(res.Issues, "Certificate expired")
	}
	if cert.ExpiresAt != nil {
		res.Details["expires_at"] = cert.ExpiresAt.Format(time.RFC3339)
		res.Details["days_until_expiry"] = cert.DaysUntilExpiry(now)
	}
	return res, nil
}

// GenerateIdentity crea un certificado de identidad ficticio.
func (m *Certificates) GenerateIdentity(ctx context.Context, req domain.IdentityRequest) (domain.Certificate, error) {
	if err := req.Validate(); err != nil {
		return domain.Certificate{}, err
	}
	days := req.ValidityDays
	if days <= 0 {
		days = 365
	}
	cert, err := m.Upload(ctx, domain.CertificateUpload{
		Name:    req.CommonName,
		Type:    domain.CertIdentity,
		Usage:   "both",
		Content: []byte("identity:" + req.CommonName + ":" + req.Organization),
	})
	if err != nil {
		return domain.Certificate{}, err
	}
	expires := cert.CreatedAt.AddDate(0, 0, days)
	cert.ExpiresAt = &expires
	cert.Subject = "CN=" + req.CommonName + ", O=" + req.Organization + ", C=" + req.Country
	cert.Issuer = cert.Subject
	m.c.store.PutCertificate(cert)
	return cert, nil
}
