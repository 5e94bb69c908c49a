package client

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/as2aas/domain"
	"github.com/dropDatabas3/as2aas/internal/inheritance"
	"github.com/dropDatabas3/as2aas/internal/partnerview"
	"github.com/dropDatabas3/as2aas/internal/transport"
)

// Partners opera sobre los partners visibles en el scope actual. En scope de
// tenant son los propios más las proyecciones heredadas; en scope de cuenta,
// los master.
type Partners struct{ c *Client }

// TestOptions configura Partners.Test.
type TestOptions struct {
	// Type es el tipo de prueba; default "ping".
	Type    string
	Timeout time.Duration
}

func (m *Partners) List(ctx context.Context, f domain.PartnerFilter) ([]domain.Partner, error) {
	ps, err := getList[domain.Partner](ctx, m.c, "partners", f.Query())
	if err != nil {
		return nil, err
	}
	// El servidor ya filtra; se reaplica por si ignora algún parámetro.
	return partnerview.Filter(ps, f), nil
}

func (m *Partners) Search(ctx context.Context, q string) ([]domain.Partner, error) {
	return m.List(ctx, domain.PartnerFilter{Search: q})
}

func (m *Partners) Get(ctx context.Context, id string) (domain.Partner, error) {
	return getOne[domain.Partner](ctx, m.c, "partners/"+id, nil)
}

// GetByAS2ID busca por as2_id exacto en lo que devuelve List. El scope lo
// decide el servidor (header o key de tenant), no se vuelve a filtrar acá.
func (m *Partners) GetByAS2ID(ctx context.Context, as2ID string) (domain.Partner, error) {
	ps, err := m.List(ctx, domain.PartnerFilter{Search: as2ID})
	if err != nil {
		return domain.Partner{}, err
	}
	return partnerview.MatchAS2ID(ps, as2ID)
}

// GetByName prefiere el nombre exacto sobre el primer match parcial.
func (m *Partners) GetByName(ctx context.Context, name string) (domain.Partner, error) {
	ps, err := m.List(ctx, domain.PartnerFilter{Search: name})
	if err != nil {
		return domain.Partner{}, err
	}
	return partnerview.FindByName(ps, name)
}

// withDefaults completa los campos que el alta no trae con los defaults del cliente.
func (c *Client) withDefaults(in domain.PartnerPatch) domain.PartnerPatch {
	out := in.Clone()
	if out.Sign == nil {
		out.Sign = domain.Ptr(c.cfg.signing())
	}
	if out.Encrypt == nil {
		out.Encrypt = domain.Ptr(c.cfg.encryption())
	}
	if out.Compress == nil {
		out.Compress = domain.Ptr(false)
	}
	if out.MDNMode == nil {
		out.MDNMode = domain.Ptr(c.cfg.DefaultMDNMode)
	}
	if out.Active == nil {
		out.Active = domain.Ptr(true)
	}
	return out
}

// Create da de alta un partner en el tenant actual. name, as2_id y url son
// obligatorios.
func (m *Partners) Create(ctx context.Context, in domain.PartnerPatch) (domain.Partner, error) {
	if err := inheritance.ValidateNew(in); err != nil {
		return domain.Partner{}, err
	}
	return sendOneIdempotent[domain.Partner](ctx, m.c, "partners", m.c.withDefaults(in))
}

// Update manda un PATCH. Sobre una proyección heredada el servidor registra
// los campos como overrides de la relación.
func (m *Partners) Update(ctx context.Context, id string, patch domain.PartnerPatch) (domain.Partner, error) {
	if err := inheritance.ValidatePatch(patch); err != nil {
		return domain.Partner{}, err
	}
	return sendOne[domain.Partner](ctx, m.c, http.MethodPatch, "partners/"+id, patch)
}

// Delete borra el partner. Sobre una proyección heredada borra su relación.
func (m *Partners) Delete(ctx context.Context, id string) error {
	_, err := m.c.send(ctx, http.MethodDelete, "partners/"+id, nil)
	return err
}

// Test dispara una prueba de conectividad contra el endpoint del partner.
func (m *Partners) Test(ctx context.Context, id string, opts TestOptions) (domain.Document, error) {
	if opts.Type == "" {
		opts.Type = "ping"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	body := map[string]any{"type": opts.Type, "timeout": int(opts.Timeout.Seconds())}
	return sendOne[domain.Document](ctx, m.c, http.MethodPost, "partners/"+id+"/test", body)
}

func (m *Partners) Health(ctx context.Context, id string) (domain.Document, error) {
	return getOne[domain.Document](ctx, m.c, "partners/"+id+"/health", nil)
}

func (m *Partners) Certificates(ctx context.Context, id string) ([]domain.Certificate, error) {
	return getList[domain.Certificate](ctx, m.c, "partners/"+id+"/certificates", nil)
}

// UploadCertificate sube un certificado asociado al partner.
func (m *Partners) UploadCertificate(ctx context.Context, id string, in domain.CertificateUpload) (domain.Certificate, error) {
	if in.Type == "" {
		in.Type = domain.CertPartner
	}
	body, err := uploadBody(in)
	if err != nil {
		return domain.Certificate{}, err
	}
	res, err := m.c.do(ctx, transport.Request{Method: http.MethodPost, Path: "partners/" + id + "/certificates", Multipart: body})
	if err != nil {
		return domain.Certificate{}, err
	}
	return decodeOne[domain.Certificate](res)
}

// SendMessage es Messages.Send hacia este partner.
func (m *Partners) SendMessage(ctx context.Context, id, content, subject string, opts domain.SendOptions) (domain.Message, error) {
	return m.c.Messages().Send(ctx, id, content, subject, opts)
}
