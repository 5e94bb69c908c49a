package fakeapi

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/as2aas/internal/rate"
)

const key = "pk_test_fake"

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

// call arma y ejecuta un request contra el handler.
func call(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAuthentication(t *testing.T) {
	s := newServer(t, Options{})

	rec := call(s, "GET", "/v1/accounts", "", map[string]string{"Authorization": ""})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API key is required", decodeBody(t, rec)["message"])

	rec = call(s, "GET", "/v1/accounts", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(s, "GET", "/v1/accounts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "Test Account", meta["current_account"].(map[string]any)["name"])

	// healthz no pide key
	rec = call(s, "GET", "/healthz", "", map[string]string{"Authorization": ""})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantScope(t *testing.T) {
	s := newServer(t, Options{})

	rec := call(s, "GET", "/v1/partners", "", map[string]string{"X-Tenant-ID": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"], 2)

	rec = call(s, "GET", "/v1/partners", "", map[string]string{"X-Tenant-ID": "2"})
	assert.Empty(t, decodeBody(t, rec)["data"])

	rec = call(s, "GET", "/v1/partners", "", map[string]string{"X-Tenant-ID": "77"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	recs := s.Requests()
	require.Len(t, recs, 3)
	assert.Equal(t, "partners", recs[0].Path)
	assert.True(t, recs[0].HasTenant)
	assert.Equal(t, "77", recs[2].TenantHeader)
}

func TestIdempotentReplay(t *testing.T) {
	s := newServer(t, Options{})
	body := `{"partner_id":"prt_001","subject":"PO","payload":{"content":"` + base64.StdEncoding.EncodeToString([]byte("ISA*00~")) + `"}}`
	h := map[string]string{"X-Tenant-ID": "1", "Idempotency-Key": "3f0e7c5e-6d0e-4a43-9b7b-0d7c7d1f2a11"}

	first := call(s, "POST", "/v1/messages", body, h)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := call(s, "POST", "/v1/messages", body, h)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decodeBody(t, first)["id"], decodeBody(t, second)["id"])
	assert.Len(t, s.Store().Messages(), 1)

	// otra key => otro mensaje
	h["Idempotency-Key"] = "other"
	third := call(s, "POST", "/v1/messages", body, h)
	require.Equal(t, http.StatusCreated, third.Code)
	assert.Len(t, s.Store().Messages(), 2)

	py := call(s, "GET", "/v1/messages/"+decodeBody(t, first)["id"].(string)+"/payload", "", map[string]string{"X-Tenant-ID": "1"})
	assert.Equal(t, "ISA*00~", py.Body.String())
	assert.Equal(t, "application/edi-x12", py.Header().Get("Content-Type"))
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 10, 0, time.UTC)
	lim := rate.NewMemoryLimiter(2, time.Minute).WithClock(func() time.Time { return now })
	s := newServer(t, Options{Limiter: lim})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, call(s, "GET", "/v1/tenants", "", nil).Code)
	}
	rec := call(s, "GET", "/v1/tenants", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "50", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	metrics := call(s, "GET", "/metrics", "", nil)
	assert.Contains(t, metrics.Body.String(), `as2aas_mock_rate_limited_total{route="tenants"} 1`)
}

func TestFailNextAndMetrics(t *testing.T) {
	s := newServer(t, Options{})
	s.FailNext(1, http.StatusServiceUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, call(s, "GET", "/v1/tenants", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(s, "GET", "/v1/tenants", "", nil).Code)

	n, err := testutil.GatherAndCount(s.Registry(), "as2aas_mock_http_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)

	s.FailNext(3, http.StatusTooManyRequests)
	rec := call(s, "GET", "/v1/tenants", "", nil)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	s.ResetRequests()
	assert.Equal(t, http.StatusOK, call(s, "GET", "/v1/tenants", "", nil).Code, "ResetRequests descarta las fallas pendientes")
}

func TestMasterRoutesGuardAccount(t *testing.T) {
	s := newServer(t, Options{})

	rec := call(s, "GET", "/v1/accounts/9/partners", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(s, "POST", "/v1/accounts/1/partners", `{"name":"ACME","as2_id":"ACME-AS2","url":"https://acme.example/as2"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "master", data["type"])

	rec = call(s, "POST", "/v1/accounts/1/partners", `{"name":"broken"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["details"], "as2_id")

	rec = call(s, "POST", "/v1/accounts/1/partners", `{not json`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_JSON", decodeBody(t, rec)["code"])
}

func TestSandboxSamples(t *testing.T) {
	s := newServer(t, Options{})
	for kind := range samples {
		rec := call(s, "GET", "/v1/sandbox/samples/"+kind, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, kind)
		assert.Equal(t, samples[kind], decodeBody(t, rec)["content"])
	}
	assert.Equal(t, http.StatusNotFound, call(s, "GET", "/v1/sandbox/samples/pdf", "", nil).Code)
}
