package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/webhook"
)

var ctx = context.Background()

func fixedClient(t *testing.T) *Client {
	t.Helper()
	c := New()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	c.Store().SetClock(func() time.Time { return now })
	return c
}

func TestSeed(t *testing.T) {
	c := New()
	acc, err := c.Accounts().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("1"), acc.ID)
	assert.Equal(t, "Test Account", acc.Name)

	ts, _ := c.Tenants().List(ctx)
	require.Len(t, ts, 2)
	assert.Equal(t, "test-tenant-2", ts[1].Slug)

	ps, err := c.WithTenant("1").Partners().List(ctx, domain.PartnerFilter{})
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "prt_001", ps[0].ID)
	assert.Equal(t, "McKesson Corporation", ps[0].Name)
	assert.Equal(t, domain.MDNSync, ps[1].MDNMode)

	// el tenant 2 y el scope de cuenta no ven partners de tenant
	ps, _ = c.WithTenant("2").Partners().List(ctx, domain.PartnerFilter{})
	assert.Empty(t, ps)
	ps, _ = c.Partners().List(ctx, domain.PartnerFilter{})
	assert.Empty(t, ps)
}

func TestWithTenantIsIndependent(t *testing.T) {
	c := New()
	c.SetTenant("1")
	view := c.WithTenant("2")

	id, ok := c.CurrentTenant()
	assert.True(t, ok)
	assert.Equal(t, "1", id)
	id, _ = view.CurrentTenant()
	assert.Equal(t, "2", id)

	c.SetTenant("")
	_, ok = c.CurrentTenant()
	assert.False(t, ok)
	id, _ = view.CurrentTenant()
	assert.Equal(t, "2", id)
}

func TestPartnerCreateNeedsTenant(t *testing.T) {
	c := New()
	in := domain.PartnerPatch{Name: domain.Ptr("Walgreens"), AS2ID: domain.Ptr("WAG"), URL: domain.Ptr("https://as2.wag.example/in")}

	_, err := c.Partners().Create(ctx, in)
	require.Error(t, err)
	assert.True(t, as2err.IsValidation(err))

	p, err := c.WithTenant("2").Partners().Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "prt_003", p.ID)
	assert.Equal(t, "2", p.TenantID())
	assert.True(t, p.Sign)
	assert.True(t, p.Encrypt)
	assert.False(t, p.Compress)
	assert.Equal(t, domain.MDNAsync, p.MDNMode)

	_, err = c.WithTenant("2").Partners().Create(ctx, domain.PartnerPatch{Name: domain.Ptr("x")})
	require.Error(t, err)
	appErr, ok := as2err.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Details, domain.FieldURL)
}

func TestPartnerLookups(t *testing.T) {
	ps := New().WithTenant("1").Partners()

	p, err := ps.GetByAS2ID(ctx, "CARDINAL")
	require.NoError(t, err)
	assert.Equal(t, "prt_002", p.ID)

	_, err = ps.GetByAS2ID(ctx, "cardinal")
	assert.True(t, as2err.IsNotFound(err))

	p, err = ps.GetByName(ctx, "mckesson")
	require.NoError(t, err)
	assert.Equal(t, "prt_001", p.ID)

	_, err = New().WithTenant("2").Partners().Get(ctx, "prt_001")
	assert.True(t, as2err.IsNotFound(err))
}

func TestMasterInheritanceThroughMock(t *testing.T) {
	c := fixedClient(t)
	mp := c.MasterPartners()

	// 1) master en scope de cuenta
	m, err := mp.Create(ctx, domain.PartnerPatch{
		Name: domain.Ptr("ACME"), AS2ID: domain.Ptr("ACME-1"), URL: domain.Ptr("https://a.example/as2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "prt_master_001", m.ID)

	// 2) herencia a dos tenants, el 2 con override de url
	res, err := mp.Inherit(ctx, m.ID, domain.InheritRequest{TenantIDs: []string{"1"}})
	require.NoError(t, err)
	require.Equal(t, 1, res.InheritedCount)
	_, err = c.Tenants().InheritMasterPartner(ctx, "2", m.ID, domain.PartnerPatch{URL: domain.Ptr("https://b.example/as2")})
	require.NoError(t, err)

	t1, t2 := c.WithTenant("1").Partners(), c.WithTenant("2").Partners()
	list1, _ := t1.List(ctx, domain.PartnerFilter{Type: domain.KindInherited})
	require.Len(t, list1, 1)
	proj1 := list1[0]

	// 3) update del master propaga salvo overrides
	_, err = mp.Update(ctx, m.ID, domain.PartnerPatch{URL: domain.Ptr("https://c.example/as2"), Compress: domain.Ptr(true)})
	require.NoError(t, err)
	got1, _ := t1.Get(ctx, proj1.ID)
	assert.Equal(t, "https://c.example/as2", got1.URL)
	list2, _ := t2.List(ctx, domain.PartnerFilter{Type: domain.KindInherited})
	require.Len(t, list2, 1)
	assert.Equal(t, "https://b.example/as2", list2[0].URL)
	assert.True(t, list2[0].Compress)

	// 4) patch del tenant sobre la proyección queda pegado
	_, err = t1.Update(ctx, proj1.ID, domain.PartnerPatch{Name: domain.Ptr("ACME (T1)")})
	require.NoError(t, err)
	_, err = mp.Update(ctx, m.ID, domain.PartnerPatch{Name: domain.Ptr("ACME Corp")})
	require.NoError(t, err)
	got1, _ = t1.Get(ctx, proj1.ID)
	assert.Equal(t, "ACME (T1)", got1.Name)

	// 5) delete del tenant corta la relación
	require.NoError(t, t1.Delete(ctx, proj1.ID))
	st, err := mp.InheritanceStatus(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, st.TenantIDs())

	// 6) borrar el master limpia todo
	require.NoError(t, mp.Delete(ctx, m.ID))
	list2, _ = t2.List(ctx, domain.PartnerFilter{Type: domain.KindInherited})
	assert.Empty(t, list2)
	h, _ := mp.Health(ctx)
	assert.Equal(t, 0, h.TotalPartners)
}

func TestMessages(t *testing.T) {
	c := fixedClient(t).WithTenant("1")
	msgs := c.Messages()

	m, err := msgs.Send(ctx, "prt_001", "ISA*00*...~", "PO 1", domain.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, "msg_001", m.ID)
	assert.True(t, m.IsDelivered())
	assert.Equal(t, "application/edi-x12", m.ContentType)
	assert.Contains(t, m.MessageID, "@as2aas.com")

	payload, err := msgs.Payload(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "ISA*00*...~", string(payload))

	_, err = msgs.Send(ctx, "prt_404", "x", "y", domain.SendOptions{})
	assert.True(t, as2err.IsNotFound(err))

	for i := 0; i < 4; i++ {
		_, err := msgs.Send(ctx, "prt_002", `{"a":1}`, "json", domain.SendOptions{})
		require.NoError(t, err)
	}
	page, err := msgs.List(ctx, domain.MessageFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Data, 2)
	assert.True(t, page.HasMore)

	page, _ = msgs.List(ctx, domain.MessageFilter{PartnerID: "prt_002", Offset: 3})
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Data, 1)
	assert.False(t, page.HasMore)

	// otro tenant no ve los mensajes
	_, err = New(WithStore(c.Store())).WithTenant("2").Messages().Get(ctx, m.ID)
	assert.True(t, as2err.IsNotFound(err))

	// batch con un fallo
	res, err := msgs.SendBatch(ctx, []domain.BatchMessage{
		{PartnerID: "prt_001", Content: "a"},
		{PartnerID: "nope", Content: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Successful, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0]["index"])

	require.NoError(t, msgs.Fail(m.ID, "MDN_TIMEOUT", "no MDN"))
	_, err = msgs.WaitForDelivery(ctx, m.ID, time.Second)
	require.Error(t, err)
	assert.True(t, as2err.IsKind(err, as2err.KindPartner))
}

func TestCertificates(t *testing.T) {
	c := fixedClient(t).WithTenant("1")
	certs := c.Certificates()

	_, err := certs.Upload(ctx, domain.CertificateUpload{Name: "x"})
	assert.True(t, as2err.IsValidation(err))

	cert, err := certs.Upload(ctx, domain.CertificateUpload{Name: "Partner cert", Type: domain.CertPartner, PartnerID: "prt_001", Content: []byte("opaque")})
	require.NoError(t, err)
	assert.Equal(t, "cert_001", cert.ID)
	assert.Equal(t, "CN=Partner cert", cert.Subject)
	assert.Equal(t, "both", cert.Usage)

	byPartner, err := c.Partners().Certificates(ctx, "prt_001")
	require.NoError(t, err)
	assert.Len(t, byPartner, 1)

	v, err := certs.Validate(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, v.Valid)

	_, err = certs.GenerateIdentity(ctx, domain.IdentityRequest{CommonName: "acme"})
	assert.True(t, as2err.IsValidation(err))
	id, err := certs.GenerateIdentity(ctx, domain.IdentityRequest{CommonName: "acme", Organization: "ACME", Country: "US", ValidityDays: 30})
	require.NoError(t, err)
	list, _ := certs.List(ctx, domain.CertificateFilter{ExpiringWithin: 31})
	require.Len(t, list, 1)
	assert.Equal(t, id.ID, list[0].ID)

	_, err = certs.Update(ctx, cert.ID, domain.CertificateUpdate{Active: domain.Ptr(false)})
	require.NoError(t, err)
	list, _ = certs.List(ctx, domain.CertificateFilter{Active: domain.Ptr(false)})
	assert.Len(t, list, 1)

	require.NoError(t, certs.Delete(ctx, cert.ID))
	assert.True(t, as2err.IsNotFound(certs.Delete(ctx, cert.ID)))
}

func TestTenantsAndAccounts(t *testing.T) {
	c := New()
	tn, err := c.Accounts().CreateTenant(ctx, domain.TenantInput{Name: "Rite Aid"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("3"), tn.ID)
	assert.Regexp(t, `^rite-aid-[0-9a-f]{6}$`, tn.Slug)

	cur, err := c.Tenants().Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.FlexString("1"), cur.ID)

	_, err = c.Tenants().Switch(ctx, "3")
	require.NoError(t, err)
	id, _ := c.CurrentTenant()
	assert.Equal(t, "3", id)

	_, err = c.Tenants().Switch(ctx, "99")
	assert.True(t, as2err.IsNotFound(err))
	id, _ = c.CurrentTenant()
	assert.Equal(t, "3", id, "un switch fallido no cambia el tenant")

	require.NoError(t, c.Tenants().Delete(ctx, "3"))
	assert.True(t, as2err.IsNotFound(c.Tenants().Delete(ctx, "3")))
}

func TestWebhooks(t *testing.T) {
	c := New().WithTenant("1")
	wh := c.Webhooks()

	_, err := wh.Create(ctx, domain.WebhookInput{URL: "https://app.example/hook"})
	assert.True(t, as2err.IsValidation(err))

	w, err := wh.Create(ctx, domain.WebhookInput{URL: "https://app.example/hook", Events: []string{domain.EventMessageDelivered}})
	require.NoError(t, err)
	assert.Len(t, w.Secret, 64)
	assert.True(t, w.Active)

	payload := []byte(`{"type":"message.delivered"}`)
	assert.True(t, wh.VerifySignature(payload, webhook.Sign(payload, w.Secret), w.Secret))

	called := false
	require.NoError(t, wh.HandleEvent(webhook.Event{Type: domain.EventMessageDelivered}, webhook.Handlers{
		domain.EventMessageDelivered: func(webhook.Event) error { called = true; return nil },
	}))
	assert.True(t, called)

	stats, _ := wh.Stats(ctx)
	assert.Equal(t, 1, stats["active_webhooks"])

	others, _ := New(WithStore(c.Store())).WithTenant("2").Webhooks().List(ctx)
	assert.Empty(t, others)
}

func TestResetReseeds(t *testing.T) {
	c := New()
	_, err := c.MasterPartners().Create(ctx, domain.PartnerPatch{
		Name: domain.Ptr("ACME"), AS2ID: domain.Ptr("ACME-1"), URL: domain.Ptr("https://a.example/as2"),
	})
	require.NoError(t, err)
	c.Reset()
	ms, _ := c.MasterPartners().List(ctx)
	assert.Empty(t, ms)
	assert.Len(t, c.Store().Partners(), 2)

	m, _ := c.MasterPartners().Create(ctx, domain.PartnerPatch{
		Name: domain.Ptr("ACME"), AS2ID: domain.Ptr("ACME-1"), URL: domain.Ptr("https://a.example/as2"),
	})
	assert.Equal(t, "prt_master_001", m.ID)
}

func TestUtils(t *testing.T) {
	u := New().Utils()
	assert.Equal(t, "application/xml", u.DetectContentType("<a/>", ""))
	v, _ := u.ValidateEDI(ctx, "garbage")
	assert.False(t, v.Valid)
	assert.Equal(t, "Unknown", v.Format)
}
