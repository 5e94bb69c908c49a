package fakeapi

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/util"
)

func (s *Server) certificateRoutes(r chi.Router) {
	r.Route("/certificates", func(r chi.Router) {
		r.Get("/", s.listCertificates)
		r.Post("/", s.uploadCertificate)
		r.Post("/generate-identity", s.generateIdentity)
		r.Post("/generate-csr", s.generateCSR)
		r.Post("/order-ssl", s.orderSSL)
		r.Get("/{id}", s.getCertificate)
		r.Patch("/{id}", s.updateCertificate)
		r.Delete("/{id}", s.deleteCertificate)
		r.Post("/{id}/validate", s.validateCertificate)
		r.Post("/{id}/activate", s.activateCertificate)
		r.Get("/{id}/download", s.downloadCertificate)
	})
}

// parseUpload lee el multipart de un upload de certificado.
func parseUpload(r *http.Request) (domain.CertificateUpload, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return domain.CertificateUpload{}, as2err.Validation("Invalid multipart body", "INVALID_MULTIPART", nil).WithCause(err)
	}
	in := domain.CertificateUpload{
		Name:      r.FormValue("name"),
		Type:      domain.CertificateType(r.FormValue("type")),
		Usage:     r.FormValue("usage"),
		PartnerID: r.FormValue("partnerId"),
		Password:  r.FormValue("password"),
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return in, nil
	}
	defer f.Close()
	in.FileName = hdr.Filename
	in.Content, err = io.ReadAll(f)
	if err != nil {
		return in, as2err.Validation("Unreadable file part", "INVALID_MULTIPART", nil).WithCause(err)
	}
	return in, nil
}

func (s *Server) uploadCertificate(w http.ResponseWriter, r *http.Request) {
	in, err := parseUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cert, err := view(r).Certificates().Upload(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cert)
}

func (s *Server) listCertificates(w http.ResponseWriter, r *http.Request) {
	cs, _ := view(r).Certificates().List(r.Context(), domain.ParseCertificateFilter(r.URL.Query()))
	writeList(w, cs)
}

func (s *Server) getCertificate(w http.ResponseWriter, r *http.Request) {
	c, err := view(r).Certificates().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCertificate(w http.ResponseWriter, r *http.Request) {
	var in domain.CertificateUpdate
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	c, err := view(r).Certificates().Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCertificate(w http.ResponseWriter, r *http.Request) {
	if err := view(r).Certificates().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateCertificate(w http.ResponseWriter, r *http.Request) {
	res, err := view(r).Certificates().Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) activateCertificate(w http.ResponseWriter, r *http.Request) {
	c, err := view(r).Certificates().Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// downloadCertificate devuelve el archivo subido; format=der decodifica el PEM.
func (s *Server) downloadCertificate(w http.ResponseWriter, r *http.Request) {
	b, err := view(r).Certificates().Content(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ct := "application/x-pem-file"
	if strings.EqualFold(r.URL.Query().Get("format"), "der") {
		if block, _ := pem.Decode(b); block != nil {
			b = block.Bytes
		}
		ct = "application/pkix-cert"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) generateIdentity(w http.ResponseWriter, r *http.Request) {
	var req domain.IdentityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := view(r).Certificates().GenerateIdentity(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// generateCSR arma un CSR real con una clave P-256 descartable.
func (s *Server) generateCSR(w http.ResponseWriter, r *http.Request) {
	var req domain.IdentityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		writeError(w, err)
		return
	}
	subj := pkix.Name{CommonName: req.CommonName, Organization: []string{req.Organization}, Country: []string{req.Country}}
	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{Subject: subj}, key)
	if err != nil {
		writeError(w, err)
		return
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		writeError(w, err)
		return
	}
	keySize := req.KeySize
	if keySize <= 0 {
		keySize = 2048
	}
	writeJSON(w, http.StatusOK, domain.Document{
		"csr":        string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der})),
		"privateKey": string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
		"keySize":    keySize,
	})
}

func (s *Server) orderSSL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Domain) == "" {
		writeError(w, as2err.Validation("Domain is required", "", map[string][]string{"domain": {"is required"}}))
		return
	}
	writeJSON(w, http.StatusOK, domain.Document{
		"orderId":           "ord_" + util.RandomHex(6),
		"status":            "pending",
		"domain":            req.Domain,
		"estimatedDelivery": time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
		"price":             0,
	})
}
