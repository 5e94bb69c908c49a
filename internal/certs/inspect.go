// Package certs inspecciona certificados localmente: PEM, DER y PKCS#12.
package certs

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
)

const (
	FormatPEM    = "pem"
	FormatDER    = "der"
	FormatPKCS12 = "pkcs12"
)

var errUnreadable = as2err.Validation("Unable to parse certificate", "INVALID_CERTIFICATE", nil)

// Inspect detecta el formato de data y devuelve los datos del primer
// certificado (el leaf). password solo aplica a PKCS#12.
func Inspect(data []byte, password string) (domain.CertificateInfo, error) {
	if bytes.Contains(data, []byte("-----BEGIN")) {
		return fromPEM(data, FormatPEM)
	}
	if cert, err := x509.ParseCertificate(data); err == nil {
		return info(cert, false, FormatDER), nil
	}
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		if err == pkcs12.ErrIncorrectPassword {
			return domain.CertificateInfo{}, as2err.Validation("Incorrect certificate password", "INVALID_PASSWORD", nil)
		}
		return domain.CertificateInfo{}, errUnreadable.WithCause(err)
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		_ = pem.Encode(&buf, b)
	}
	return fromPEM(buf.Bytes(), FormatPKCS12)
}

func fromPEM(data []byte, format string) (domain.CertificateInfo, error) {
	var leaf *x509.Certificate
	hasKey := false
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE" && leaf == nil:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return domain.CertificateInfo{}, errUnreadable.WithCause(err)
			}
			leaf = cert
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			hasKey = true
		}
	}
	if leaf == nil {
		return domain.CertificateInfo{}, errUnreadable.WithMessage("No certificate found in PEM data")
	}
	return info(leaf, hasKey, format), nil
}

func info(c *x509.Certificate, hasKey bool, format string) domain.CertificateInfo {
	return domain.CertificateInfo{
		Subject:      c.Subject.String(),
		Issuer:       c.Issuer.String(),
		SerialNumber: c.SerialNumber.String(),
		NotBefore:    c.NotBefore.UTC(),
		NotAfter:     c.NotAfter.UTC(),
		DNSNames:     c.DNSNames,
		IsCA:         c.IsCA,
		Fingerprint:  Fingerprint(c.Raw),
		HasKey:       hasKey,
		Format:       format,
	}
}

// Fingerprint es el SHA-256 en hex del DER.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}
