package client

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/certs"
	"github.com/dropDatabas3/as2aas/internal/transport"
	"github.com/dropDatabas3/as2aas/internal/util/atomicwrite"
)

type Certificates struct{ c *Client }

// DownloadOptions configura Certificates.Download.
type DownloadOptions struct {
	// Format pem (default) o der.
	Format       string
	IncludeChain bool
	Password     string
	// SaveToDir guarda el archivo como <dir>/<id>.<format>.
	SaveToDir string
}

// CSR es la respuesta de GenerateCSR.
type CSR struct {
	CSR        string `json:"csr"`
	PrivateKey string `json:"privateKey"`
	KeySize    int    `json:"keySize"`
}

// SSLOrder es la respuesta de OrderSSL.
type SSLOrder struct {
	OrderID           string `json:"orderId"`
	Status            string `json:"status"`
	Domain            string `json:"domain"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// uploadBody arma el multipart de un upload: campos name, type, usage,
// partnerId, password y el archivo en "file".
func uploadBody(in domain.CertificateUpload) (*transport.Multipart, error) {
	details := map[string][]string{}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = []string{"is required"}
	}
	if len(in.Content) == 0 {
		details["file"] = []string{"is required"}
	}
	if len(details) > 0 {
		return nil, as2err.Validation("Certificate name and file are required", "", details)
	}
	name := in.FileName
	if name == "" {
		name = "certificate.pem"
	}
	mp := &transport.Multipart{
		Fields: []transport.Field{{Name: "name", Value: in.Name}},
		Files:  []transport.File{{Field: "file", FileName: name, Content: in.Content}},
	}
	add := func(k, v string) {
		if v != "" {
			mp.Fields = append(mp.Fields, transport.Field{Name: k, Value: v})
		}
	}
	add("type", string(in.Type))
	add("usage", in.Usage)
	add("partnerId", in.PartnerID)
	add("password", in.Password)
	return mp, nil
}

// Upload sube un certificado o bundle PKCS#12.
func (m *Certificates) Upload(ctx context.Context, in domain.CertificateUpload) (domain.Certificate, error) {
	body, err := uploadBody(in)
	if err != nil {
		return domain.Certificate{}, err
	}
	res, err := m.c.do(ctx, transport.Request{Method: http.MethodPost, Path: "certificates", Multipart: body, Idempotent: true})
	if err != nil {
		return domain.Certificate{}, err
	}
	return decodeOne[domain.Certificate](res)
}

func (m *Certificates) List(ctx context.Context, f domain.CertificateFilter) ([]domain.Certificate, error) {
	return getList[domain.Certificate](ctx, m.c, "certificates", f.Query())
}

func (m *Certificates) Get(ctx context.Context, id string) (domain.Certificate, error) {
	return getOne[domain.Certificate](ctx, m.c, "certificates/"+id, nil)
}

func (m *Certificates) Update(ctx context.Context, id string, in domain.CertificateUpdate) (domain.Certificate, error) {
	return sendOne[domain.Certificate](ctx, m.c, http.MethodPatch, "certificates/"+id, in)
}

func (m *Certificates) Delete(ctx context.Context, id string) error {
	_, err := m.c.send(ctx, http.MethodDelete, "certificates/"+id, nil)
	return err
}

// Validate pide al servidor que chequee vigencia y cadena.
func (m *Certificates) Validate(ctx context.Context, id string) (domain.ValidationResult, error) {
	return sendOne[domain.ValidationResult](ctx, m.c, http.MethodPost, "certificates/"+id+"/validate", nil)
}

func (m *Certificates) Activate(ctx context.Context, id string) (domain.Certificate, error) {
	return sendOne[domain.Certificate](ctx, m.c, http.MethodPost, "certificates/"+id+"/activate", nil)
}

// GenerateIdentity genera un certificado de identidad. keySize 2048 y
// validityDays 365 por defecto.
func (m *Certificates) GenerateIdentity(ctx context.Context, req domain.IdentityRequest) (domain.Certificate, error) {
	if err := req.Validate(); err != nil {
		return domain.Certificate{}, err
	}
	if req.KeySize <= 0 {
		req.KeySize = 2048
	}
	if req.ValidityDays <= 0 {
		req.ValidityDays = 365
	}
	return sendOneIdempotent[domain.Certificate](ctx, m.c, "certificates/generate-identity", req)
}

func (m *Certificates) GenerateCSR(ctx context.Context, req domain.IdentityRequest) (CSR, error) {
	if err := req.Validate(); err != nil {
		return CSR{}, err
	}
	if req.KeySize <= 0 {
		req.KeySize = 2048
	}
	return sendOne[CSR](ctx, m.c, http.MethodPost, "certificates/generate-csr", req)
}

func (m *Certificates) OrderSSL(ctx context.Context, domainName string) (SSLOrder, error) {
	if strings.TrimSpace(domainName) == "" {
		return SSLOrder{}, as2err.Validation("Domain is required", "", map[string][]string{"domain": {"is required"}})
	}
	return sendOneIdempotent[SSLOrder](ctx, m.c, "certificates/order-ssl", map[string]string{"domain": domainName})
}

// Download baja el certificado en el formato pedido.
func (m *Certificates) Download(ctx context.Context, id string, opts DownloadOptions) ([]byte, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = certs.FormatPEM
	}
	q := url.Values{"format": {format}}
	if opts.IncludeChain {
		q.Set("includeChain", "true")
	}
	if opts.Password != "" {
		q.Set("password", opts.Password)
	}
	res, err := m.c.do(ctx, transport.Request{Method: http.MethodGet, Path: "certificates/" + id + "/download", Query: q})
	if err != nil {
		return nil, err
	}
	if opts.SaveToDir != "" {
		if err := atomicwrite.WriteFile(filepath.Join(opts.SaveToDir, id+"."+format), res.Body, 0o600); err != nil {
			return nil, err
		}
	}
	return res.Body, nil
}

// Inspect lee un certificado local (PEM, DER o PKCS#12) sin ir al servidor.
func (m *Certificates) Inspect(data []byte, password string) (domain.CertificateInfo, error) {
	return certs.Inspect(data, password)
}
