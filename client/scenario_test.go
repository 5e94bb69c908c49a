package client

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/certs"
	"github.com/dropDatabas3/as2aas/mock"
	"github.com/dropDatabas3/as2aas/webhook"
)

func acmePatch() domain.PartnerPatch {
	return domain.PartnerPatch{
		Name:  domain.Ptr("ACME Corp"),
		AS2ID: domain.Ptr("ACME-AS2"),
		URL:   domain.Ptr("https://as2.acme.example/receive"),
	}
}

func TestMasterPartnerInheritanceLifecycle(t *testing.T) {
	fake, c := newFake(t)
	masters := c.MasterPartners()

	// 1) alta del master en scope de cuenta
	m, err := masters.Create(ctx, acmePatch())
	require.NoError(t, err)
	assert.True(t, m.IsMaster())
	assert.True(t, m.Sign)
	assert.Equal(t, domain.MDNAsync, m.MDNMode)

	// 2) herencia: tenant 1 con override de url, tenant 2 sin overrides
	res, err := masters.Inherit(ctx, m.ID, domain.InheritRequest{
		TenantIDs: []string{"1"},
		Overrides: domain.PartnerPatch{URL: domain.Ptr("https://t1.acme.example/as2")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.InheritedCount)
	projID := res.Results[0].InheritedPartnerID
	_, err = c.Tenants().InheritMasterPartner(ctx, "2", m.ID, domain.PartnerPatch{})
	require.NoError(t, err)

	st, err := masters.InheritanceStatus(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, st.TenantIDs())

	// 3) update del master: propaga salvo la url overrideada
	_, err = masters.Update(ctx, m.ID, domain.PartnerPatch{
		URL:  domain.Ptr("https://new.acme.example/as2"),
		Sign: domain.Ptr(false),
	})
	require.NoError(t, err)

	t1 := c.WithTenant("1").Partners()
	t2 := c.WithTenant("2").Partners()
	p1, err := t1.GetByAS2ID(ctx, "ACME-AS2")
	require.NoError(t, err)
	assert.Equal(t, projID, p1.ID)
	assert.True(t, p1.IsInherited())
	assert.Equal(t, "https://t1.acme.example/as2", p1.URL)
	assert.False(t, p1.Sign)
	p2, err := t2.GetByName(ctx, "ACME Corp")
	require.NoError(t, err)
	assert.Equal(t, "https://new.acme.example/as2", p2.URL)

	// 4) PATCH del tenant sobre la proyección: override pegajoso
	_, err = t1.Update(ctx, projID, domain.PartnerPatch{Active: domain.Ptr(false)})
	require.NoError(t, err)
	_, err = masters.Update(ctx, m.ID, domain.PartnerPatch{Active: domain.Ptr(true), Name: domain.Ptr("ACME Inc")})
	require.NoError(t, err)
	p1, err = t1.Get(ctx, projID)
	require.NoError(t, err)
	assert.False(t, p1.Active)
	assert.Equal(t, "ACME Inc", p1.Name)

	// 5) baja de herencia en tenant 2
	n, err := masters.RemoveInheritance(ctx, m.ID, []string{"2", "404"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = t2.GetByAS2ID(ctx, "ACME-AS2")
	assert.True(t, as2err.IsNotFound(err))

	h, err := masters.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.TotalPartners)

	// 6) borrado en cascada
	require.NoError(t, masters.Delete(ctx, m.ID))
	_, err = t1.Get(ctx, projID)
	assert.True(t, as2err.IsNotFound(err))
	ms, err := masters.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ms)

	// la cuenta se resolvió una sola vez y ningún request de cuenta llevó tenant
	accountGets := 0
	for _, r := range fake.Requests() {
		if r.Method == "GET" && r.Path == "accounts" {
			accountGets++
		}
		if strings.HasPrefix(r.Path, "accounts") {
			assert.False(t, r.HasTenant, r.Path)
		}
	}
	assert.Equal(t, 1, accountGets)
}

func TestTenantDeleteOfProjectionRemovesRelationship(t *testing.T) {
	_, c := newFake(t)
	m, err := c.MasterPartners().Create(ctx, acmePatch())
	require.NoError(t, err)
	res, err := c.MasterPartners().Inherit(ctx, m.ID, domain.InheritRequest{TenantIDs: []string{"1"}})
	require.NoError(t, err)

	require.NoError(t, c.WithTenant("1").Partners().Delete(ctx, res.Results[0].InheritedPartnerID))
	st, err := c.MasterPartners().InheritanceStatus(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, st.InheritedByTenants)
}

func TestMessagesRoundTrip(t *testing.T) {
	fake, c := newFake(t, func(cfg *Config) { cfg.Tenant = "1" })
	msgs := c.Messages()
	edi := "ISA*00*          *00*~GS*PO~"

	first, err := msgs.Send(ctx, "prt_001", edi, "PO 1", domain.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, "application/edi-x12", first.ContentType)
	assert.True(t, first.IsDelivered())
	_, err = c.Partners().SendMessage(ctx, "prt_002", `{"po":2}`, "PO 2", domain.SendOptions{})
	require.NoError(t, err)

	page, err := msgs.List(ctx, domain.MessageFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Data, 1)

	dst := filepath.Join(t.TempDir(), "out", "po1.edi")
	b, err := msgs.Payload(ctx, first.ID, PayloadOptions{SaveTo: dst})
	require.NoError(t, err)
	assert.Equal(t, edi, string(b))
	onDisk, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, edi, string(onDisk))

	got, err := msgs.WaitForDelivery(ctx, first.ID, time.Second, WaitOptions{Interval: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	fake.Do(func(m *mock.Client) { require.NoError(t, m.Messages().Fail(first.ID, "MDN_TIMEOUT", "no MDN")) })
	_, err = msgs.WaitForDelivery(ctx, first.ID, time.Second, WaitOptions{Interval: time.Millisecond})
	require.Error(t, err)
	e, _ := as2err.As(err)
	require.NotNil(t, e)
	assert.Equal(t, as2err.KindPartner, e.Kind)

	v, err := msgs.Validate(ctx, "garbage", ValidateOptions{})
	require.NoError(t, err)
	assert.False(t, v.Valid)

	batch, err := msgs.SendBatch(ctx, []domain.BatchMessage{
		{PartnerID: "prt_001", Content: edi},
		{PartnerID: "prt_missing", Content: edi},
	})
	require.NoError(t, err)
	assert.Len(t, batch.Successful, 1)
	assert.Len(t, batch.Failed, 1)
	assert.Equal(t, 2, batch.Total)

	// el tenant 2 no ve los mensajes del 1
	_, err = c.WithTenant("2").Messages().Get(ctx, first.ID)
	assert.True(t, as2err.IsNotFound(err))
}

func TestAutoValidateEDIRejectsBrokenContent(t *testing.T) {
	fake, c := newFake(t, func(cfg *Config) { cfg.Tenant = "1"; cfg.AutoValidateEDI = true })
	_, err := c.Messages().Send(ctx, "prt_001", "UNB+broken'", "x", domain.SendOptions{})
	require.Error(t, err)
	assert.True(t, as2err.IsValidation(err))
	for _, r := range fake.Requests() {
		assert.NotEqual(t, "messages", r.Path, "no se envía")
	}
}

func selfSignedPEM(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: "as2.partner.example"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(90 * 24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestCertificatesUploadInspectDownload(t *testing.T) {
	_, c := newFake(t, func(cfg *Config) { cfg.Tenant = "1" })
	certsMod := c.Certificates()
	data := selfSignedPEM(t)

	info, err := certsMod.Inspect(data, "")
	require.NoError(t, err)
	assert.Equal(t, certs.FormatPEM, info.Format)

	cert, err := c.Partners().UploadCertificate(ctx, "prt_001", domain.CertificateUpload{Name: "McKesson signing", Content: data})
	require.NoError(t, err)
	assert.Equal(t, domain.CertPartner, cert.Type)
	assert.Equal(t, "prt_001", cert.PartnerID)
	assert.Contains(t, cert.Subject, "as2.partner.example")
	assert.Equal(t, info.Fingerprint, cert.Fingerprint)

	list, err := c.Partners().Certificates(ctx, "prt_001")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	expiring, err := certsMod.List(ctx, domain.CertificateFilter{ExpiringWithin: 30})
	require.NoError(t, err)
	assert.Empty(t, expiring)

	pemOut, err := certsMod.Download(ctx, cert.ID, DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, data, pemOut)

	dir := t.TempDir()
	derOut, err := certsMod.Download(ctx, cert.ID, DownloadOptions{Format: "DER", SaveToDir: dir})
	require.NoError(t, err)
	saved, err := os.ReadFile(filepath.Join(dir, cert.ID+".der"))
	require.NoError(t, err)
	assert.Equal(t, derOut, saved)
	derInfo, err := certs.Inspect(saved, "")
	require.NoError(t, err)
	assert.Equal(t, certs.FormatDER, derInfo.Format)

	id, err := certsMod.GenerateIdentity(ctx, domain.IdentityRequest{CommonName: "acme", Organization: "ACME", Country: "US"})
	require.NoError(t, err)
	assert.Equal(t, domain.CertIdentity, id.Type)

	csr, err := certsMod.GenerateCSR(ctx, domain.IdentityRequest{CommonName: "acme", Organization: "ACME", Country: "US"})
	require.NoError(t, err)
	assert.Contains(t, csr.CSR, "BEGIN CERTIFICATE REQUEST")

	require.NoError(t, certsMod.Delete(ctx, cert.ID))
	_, err = certsMod.Get(ctx, cert.ID)
	assert.True(t, as2err.IsNotFound(err))
}

func TestWebhooksLifecycle(t *testing.T) {
	_, c := newFake(t, func(cfg *Config) { cfg.Tenant = "1" })
	hooks := c.Webhooks()

	wh, err := hooks.Create(ctx, domain.WebhookInput{URL: "https://hooks.acme.example/as2", Events: []string{domain.EventMessageDelivered}})
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{64}$`, wh.Secret)
	assert.True(t, wh.Active)

	ls, err := hooks.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ls, 1)
	st, err := hooks.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st["total_webhooks"])

	payload := []byte(`{"id":"evt_1","type":"message.delivered","data":{}}`)
	assert.True(t, hooks.VerifySignature(payload, webhook.Sign(payload, wh.Secret), wh.Secret))
	assert.False(t, hooks.VerifySignature(payload, "sha256=00", wh.Secret))

	var seen string
	err = hooks.HandleEvent(webhook.Event{ID: "evt_1", Type: domain.EventMessageDelivered}, webhook.Handlers{
		domain.EventMessageDelivered: func(ev webhook.Event) error { seen = ev.ID; return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "evt_1", seen)

	require.NoError(t, hooks.Delete(ctx, wh.ID))
	_, err = c.WithTenant("1").Webhooks().Get(ctx, wh.ID)
	assert.True(t, as2err.IsNotFound(err))
}

func TestAccountsAndTenantSwitch(t *testing.T) {
	_, c := newFake(t)

	acc, err := c.Accounts().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("1"), acc.ID)

	tn, err := c.Accounts().CreateTenant(ctx, domain.TenantInput{Name: "Rite Aid"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^rite-aid-[0-9a-f]{6}$`), tn.Slug)
	ts, err := c.Tenants().List(ctx)
	require.NoError(t, err)
	assert.Len(t, ts, 3)

	got, err := c.Tenants().Switch(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "test-tenant-2", got.Slug)
	id, _ := c.CurrentTenant()
	assert.Equal(t, "2", id)

	_, err = c.Tenants().Switch(ctx, "999")
	assert.True(t, as2err.IsNotFound(err))
	id, _ = c.CurrentTenant()
	assert.Equal(t, "2", id, "un switch fallido no cambia el scope")

	cur, err := c.Tenants().Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("2"), cur.ID)

	c.SetTenant("")
	cur, err = c.Tenants().Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("1"), cur.ID)
}

func TestSandboxBillingAndUtils(t *testing.T) {
	_, c := newFake(t, func(cfg *Config) { cfg.Tenant = "1" })

	sample, err := c.Sandbox().Sample(ctx, "x12")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sample, "ISA"))

	in, err := c.Sandbox().SimulateIncoming(ctx, "prt_001", sample, "inbound PO")
	require.NoError(t, err)
	assert.Equal(t, domain.Inbound, in.Direction)
	all, err := c.Sandbox().Messages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	require.NoError(t, c.Sandbox().Clear(ctx))
	all, err = c.Sandbox().Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	res, err := c.Utils().ValidateEDI(ctx, sample, false)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "ACME-AS2", c.Utils().GenerateAS2ID("Acme Corp"))
	assert.Equal(t, "1.5 KB", c.Utils().FormatFileSize(1536))

	plans, err := c.Billing().Plans(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, plans)
	sub, err := c.Billing().Subscribe(ctx, "business", nil)
	require.NoError(t, err)
	assert.Equal(t, "business", sub["plan_type"])
	_, err = c.Billing().AccountBilling(ctx, "1")
	require.NoError(t, err)

	onb, err := c.Partnerships().InitiateOnboarding(ctx, domain.PartnerPatch{
		Name: domain.Ptr("Walgreens"), AS2ID: domain.Ptr("WAG-AS2"), URL: domain.Ptr("https://as2.wag.example/in"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending_certificate_exchange", onb["status"])
	p, err := c.Partners().GetByAS2ID(ctx, "WAG-AS2")
	require.NoError(t, err)
	assert.True(t, p.Encrypt, "defaults del cliente")
}
