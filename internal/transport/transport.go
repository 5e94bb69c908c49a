// Package transport ejecuta los requests a la API AS2aaS: headers constantes,
// header de tenant según familia, Idempotency-Key, reintentos con backoff
// lineal y mapeo de status a errores tipados.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/metrics"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
	"github.com/dropDatabas3/as2aas/internal/util"
)

// Config del transporte. Los ceros toman los defaults de DefaultConfig.
type Config struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Client

	// Sleep espera entre intentos respetando ctx. Se reemplaza en tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	DefaultBaseURL    = "https://api.as2aas.com/v1/"
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
	DefaultUserAgent  = "AS2aaS-Go/1.0.0"
)

// Transport es seguro para uso concurrente: no guarda estado por request.
type Transport struct {
	base    *url.URL
	cfg     Config
	http    *http.Client
	log     *zap.Logger
	metrics *metrics.Client
	sleep   func(ctx context.Context, d time.Duration) error
}

// New valida la configuración y arma el transporte. Retries < 0 se trata como 0.
func New(cfg Config) (*Transport, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("transport: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	return &Transport{
		base:    base,
		cfg:     cfg,
		http:    hc,
		log:     log.Named("transport"),
		metrics: cfg.Metrics,
		sleep:   sleep,
	}, nil
}

// Retries devuelve el presupuesto de reintentos efectivo.
func (t *Transport) Retries() int { return t.cfg.Retries }

// Do ejecuta req. Errores de red y 5xx se reintentan hasta Retries veces con
// espera RetryDelay*intento; el resto de los >= 400 se devuelve sin reintentar.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Idempotent && req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	family := Family(req.Path)
	log := logger.From(ctx, t.log).With(
		logger.Method(req.Method),
		logger.Path(req.Path),
		logger.Family(family),
		logger.TenantID(req.Tenant),
	)

	attempts := t.cfg.Retries + 1
	var lastErr *as2err.AppError
	for attempt := 1; attempt <= attempts; attempt++ {
		httpReq, err := t.build(ctx, req)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := t.http.Do(httpReq)
		if err != nil {
			t.metrics.ObserveRequest(family, req.Method, 0, time.Since(start))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, as2err.Network("request cancelled", ctxErr)
			}
			lastErr = as2err.Network("Connection failed: "+err.Error(), err)
		} else {
			body, readErr := io.ReadAll(res.Body)
			_ = res.Body.Close()
			t.metrics.ObserveRequest(family, req.Method, res.StatusCode, time.Since(start))
			log.Debug("as2aas request", logger.Attempt(attempt), logger.Status(res.StatusCode), logger.Duration(time.Since(start)))

			switch {
			case readErr != nil:
				lastErr = as2err.Network("read response body", readErr)
			case res.StatusCode < 400:
				return &Response{Status: res.StatusCode, Header: res.Header, Body: body}, nil
			case res.StatusCode >= 500:
				lastErr = mapStatus(res.StatusCode, res.Header, body)
			default:
				mapped := mapStatus(res.StatusCode, res.Header, body)
				log.Debug("as2aas request rejected", logger.Status(res.StatusCode), logger.Code(mapped.Code))
				return nil, mapped
			}
		}

		if attempt == attempts {
			break
		}
		delay := t.cfg.RetryDelay * time.Duration(attempt)
		t.metrics.IncRetry(family)
		log.Warn("as2aas request failed, retrying",
			logger.Attempt(attempt), logger.Code(lastErr.Code), logger.Duration(delay))
		if err := t.sleep(ctx, delay); err != nil {
			return nil, as2err.Network("request cancelled", err)
		}
	}
	log.Debug("as2aas request exhausted retries", logger.Code(lastErr.Code), logger.Attempt(attempts))
	return nil, lastErr
}

// DoJSON ejecuta req y decodifica la respuesta en out (puede ser nil).
func (t *Transport) DoJSON(ctx context.Context, req Request, out any) error {
	res, err := t.Do(ctx, req)
	if err != nil {
		return err
	}
	return res.Decode(out)
}

func (t *Transport) build(ctx context.Context, req Request) (*http.Request, error) {
	u := t.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(req.Path, "/")})
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	body, contentType, err := req.body()
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	h := httpReq.Header
	h.Set("Authorization", "Bearer "+t.cfg.APIKey)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", t.cfg.UserAgent)
	if contentType == "" {
		contentType = "application/json"
	}
	h.Set("Content-Type", contentType)
	for k, vs := range req.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if req.Tenant != "" && RequiresTenantHeader(req.Path) {
		h.Set(HeaderTenantID, req.Tenant)
	}
	if req.IdempotencyKey != "" {
		h.Set(HeaderIdempotencyKey, req.IdempotencyKey)
	}
	return httpReq, nil
}

// MaskedKey devuelve la API key lista para logs.
func (t *Transport) MaskedKey() string { return util.MaskSecret(t.cfg.APIKey) }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
