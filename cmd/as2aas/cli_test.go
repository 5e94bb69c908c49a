package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/fakeapi"
	"github.com/dropDatabas3/as2aas/internal/util"
	"github.com/dropDatabas3/as2aas/webhook"
)

func cliEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	for _, k := range []string{"AS2AAS_CONFIG", "AS2AAS_API_KEY", "AS2AAS_BASE_URL", "AS2AAS_TENANT_ID", "AS2AAS_WEBHOOK_SECRET", "CACHE_KIND"} {
		t.Setenv(k, "")
	}
}

// newAPI levanta el fake server y devuelve la base url para --base-url.
func newAPI(t *testing.T) string {
	t.Helper()
	cliEnv(t)
	fake, err := fakeapi.New(fakeapi.Options{})
	require.NoError(t, err)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return srv.URL + "/v1/"
}

func runRaw(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func run(t *testing.T, base string, args ...string) string {
	t.Helper()
	out, err := runRaw(t, append([]string{"--api-key", "pk_test_cli", "--base-url", base}, args...)...)
	require.NoError(t, err, describeOrEmpty(err))
	return out
}

func describeOrEmpty(err error) string {
	if err == nil {
		return ""
	}
	return describe(err)
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestPartnersListAndGet(t *testing.T) {
	base := newAPI(t)

	ps := decode[[]domain.Partner](t, run(t, base, "--tenant", "1", "--out", "json", "partners", "list"))
	require.Len(t, ps, 2)

	text := run(t, base, "--tenant", "1", "partners", "get", "--as2", "CARDINAL")
	assert.Contains(t, text, "Cardinal Health")
	assert.Contains(t, text, "sync")

	created := decode[domain.Partner](t, run(t, base, "--tenant", "1", "--out", "json",
		"partners", "create", "--name", "Walgreens", "--as2-id", "WALGREENS", "--url", "https://as2.walgreens.example/in", "--compress"))
	assert.True(t, created.Compress)
	assert.True(t, created.Sign, "default del cliente")
	assert.Equal(t, "1", created.TenantID())

	out := run(t, base, "--tenant", "1", "partners", "delete", created.ID)
	assert.Equal(t, "deleted "+created.ID+"\n", out)
}

func TestMasterPartnerCommands(t *testing.T) {
	base := newAPI(t)

	// 1) alta del master
	m := decode[domain.Partner](t, run(t, base, "--out", "json",
		"master-partners", "create", "--name", "ACME", "--as2-id", "ACME-AS2", "--url", "https://acme.example/as2"))
	require.True(t, m.IsMaster())

	// 2) herencia con override
	res := decode[domain.InheritResult](t, run(t, base, "--out", "json",
		"master-partners", "inherit", m.ID, "--tenants", "1,2", "--mdn-mode", "sync"))
	assert.Equal(t, 2, res.InheritedCount)

	inherited := decode[[]domain.Partner](t, run(t, base, "--tenant", "1", "--out", "json", "partners", "list", "--type", "inherited"))
	require.Len(t, inherited, 1)
	assert.Equal(t, domain.MDNSync, inherited[0].MDNMode)

	st := decode[domain.InheritanceStatus](t, run(t, base, "--out", "json", "master-partners", "status", m.ID))
	assert.ElementsMatch(t, []string{"1", "2"}, st.TenantIDs())

	// 3) quitar uno
	removed := decode[map[string]int](t, run(t, base, "--out", "json", "master-partners", "uninherit", m.ID, "--tenants", "2"))
	assert.Equal(t, 1, removed["removed_count"])

	left := decode[[]domain.Partner](t, run(t, base, "--tenant", "2", "--out", "json", "partners", "list", "--type", "inherited"))
	assert.Empty(t, left)

	health := run(t, base, "master-partners", "health")
	assert.Contains(t, health, "total:")
}

func TestMessagesSendAndWait(t *testing.T) {
	base := newAPI(t)
	p := decode[domain.Partner](t, run(t, base, "--tenant", "1", "--out", "json", "partners", "get", "--as2", "MCKESSON"))

	msg := decode[domain.Message](t, run(t, base, "--tenant", "1", "--out", "json",
		"messages", "send", "--partner", p.ID, "--content", "ISA*00*          *00*~", "--subject", "PO", "--wait", "2s"))
	assert.True(t, msg.IsDelivered())
	assert.Equal(t, util.ContentTypeX12, msg.ContentType)

	got := decode[domain.Message](t, run(t, base, "--tenant", "1", "--out", "json", "messages", "wait", msg.ID, "--timeout", "1s"))
	assert.Equal(t, msg.ID, got.ID)

	page := decode[domain.MessagePage](t, run(t, base, "--tenant", "1", "--out", "json", "messages", "list"))
	assert.Equal(t, 1, page.Total)

	assert.Contains(t, run(t, base, "--tenant", "1", "messages", "list"), "total: 1")

	_, err := runRaw(t, "--api-key", "pk_test_cli", "--base-url", base, "--tenant", "1", "messages", "send", "--partner", p.ID)
	require.Error(t, err, "sin --file ni --content")
}

func TestTenantsCommands(t *testing.T) {
	base := newAPI(t)

	ts := decode[[]domain.Tenant](t, run(t, base, "--out", "json", "tenants", "list"))
	require.Len(t, ts, 2)

	text := run(t, base, "--tenant", "2", "tenants", "list")
	assert.Contains(t, text, "*")

	cur := decode[domain.Tenant](t, run(t, base, "--tenant", "2", "--out", "json", "tenants", "get"))
	assert.Equal(t, domain.FlexString("2"), cur.ID)

	_, err := runRaw(t, "--api-key", "pk_test_cli", "--base-url", base, "tenants", "get", "999")
	require.Error(t, err)
	assert.True(t, as2err.IsNotFound(err))
}

func TestErrorsAreDescribed(t *testing.T) {
	cliEnv(t)

	_, err := runRaw(t, "partners", "list")
	require.Error(t, err)
	assert.Contains(t, describe(err), "API key is required")

	_, err = runRaw(t, "--out", "yaml", "utils", "as2-id", "x")
	require.Error(t, err)

	verr := as2err.Validation("Validation failed", "", map[string][]string{"url": {"is required"}})
	assert.Contains(t, describe(verr), "url: is required")
}

func TestWebhookSignAndVerify(t *testing.T) {
	cliEnv(t)
	payload := `{"id":"evt_1","type":"message.delivered"}`

	sig, err := runRaw(t, "webhooks", "sign", "--secret", "whsec_cli", "--payload", payload)
	require.NoError(t, err)
	sig = strings.TrimSpace(sig)
	assert.Equal(t, webhook.Sign([]byte(payload), "whsec_cli"), sig)

	out, err := runRaw(t, "webhooks", "verify", "--secret", "whsec_cli", "--payload", payload, "--signature", sig)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	_, err = runRaw(t, "webhooks", "verify", "--secret", "other", "--payload", payload, "--signature", sig)
	require.Error(t, err)

	// secret desde el entorno
	t.Setenv("AS2AAS_WEBHOOK_SECRET", "whsec_cli")
	out, err = runRaw(t, "webhooks", "sign", "--payload", payload)
	require.NoError(t, err)
	assert.Equal(t, sig+"\n", out)
}

func TestWebhookRouterPrintsEventsOnce(t *testing.T) {
	var out bytes.Buffer
	p := &eventPrinter{w: &out}
	h := webhookRouter("/webhooks", webhook.NewReceiver("whsec_cli", webhook.Handlers{"*": p.handle}))

	body := `{"id":"evt_9","type":"message.failed"}`
	post := func(sig string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks", strings.NewReader(body))
		req.Header.Set(webhook.HeaderSignature, sig)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	good := webhook.Sign([]byte(body), "whsec_cli")
	assert.Equal(t, http.StatusOK, post(good))
	assert.Equal(t, http.StatusOK, post(good), "duplicado se acepta sin re-despachar")
	assert.Equal(t, http.StatusUnauthorized, post("sha256=bad"))
	assert.Equal(t, 1, strings.Count(out.String(), "message.failed"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUtilsCommands(t *testing.T) {
	cliEnv(t)

	out, err := runRaw(t, "utils", "as2-id", "Acme", "Corp")
	require.NoError(t, err)
	assert.Equal(t, "ACME-AS2\n", out)

	out, err = runRaw(t, "utils", "file-size", "1536")
	require.NoError(t, err)
	assert.Equal(t, "1.5 KB\n", out)

	out, err = runRaw(t, "--out", "json", "utils", "content-type", "--content", "UNB+UNOA:2")
	require.NoError(t, err)
	assert.Equal(t, util.ContentTypeEDIFACT, decode[map[string]string](t, out)["content_type"])

	_, err = runRaw(t, "utils", "file-size", "not-a-file-or-number")
	require.Error(t, err)
}
