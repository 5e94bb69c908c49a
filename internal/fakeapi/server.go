// Package fakeapi es un servidor HTTP que imita la API REST de AS2aaS sobre
// un mock.Store. Lo usan los tests del cliente vía httptest y el binario
// as2aas-mock.
//
// Todos los requests que llegan a los handlers se serializan con un mutex
// porque el store del mock no sincroniza.
package fakeapi

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/internal/cache"
	"github.com/dropDatabas3/as2aas/internal/metrics"
	"github.com/dropDatabas3/as2aas/internal/rate"
	"github.com/dropDatabas3/as2aas/mock"
)

// keyPattern es el formato de API key aceptado cuando no hay lista fija.
var keyPattern = regexp.MustCompile(`^(pk|tk)_(live|test)_[a-zA-Z0-9_]+$`)

// Options configura el servidor. Todo es opcional.
type Options struct {
	Store *mock.Store
	// APIKeys fija las keys válidas; vacío acepta cualquier key bien formada.
	APIKeys []string
	// Limiter limita por API key; nil desactiva el rate limit.
	Limiter rate.Limiter
	// Idempotency guarda respuestas de POST con Idempotency-Key; nil usa memoria.
	Idempotency    cache.Client
	IdempotencyTTL time.Duration
	Registry       *prometheus.Registry
	Logger         *zap.Logger
}

// Recorded es un request tal como llegó al servidor.
type Recorded struct {
	Method         string
	Path           string
	TenantHeader   string
	HasTenant      bool
	IdempotencyKey string
	Authorization  string
}

type fault struct {
	status     int
	retryAfter int
}

type Server struct {
	mu      sync.Mutex
	store   *mock.Store
	mock    *mock.Client
	keys    map[string]struct{}
	limiter rate.Limiter
	idem    cache.Client
	idemTTL time.Duration
	reg     *prometheus.Registry
	metrics *metrics.Server
	log     *zap.Logger
	handler http.Handler

	recMu    sync.Mutex
	recorded []Recorded
	faults   []fault
}

// New arma el servidor con sus rutas.
func New(opts Options) (*Server, error) {
	s := &Server{
		store:   opts.Store,
		limiter: opts.Limiter,
		idem:    opts.Idempotency,
		idemTTL: opts.IdempotencyTTL,
		reg:     opts.Registry,
		log:     opts.Logger,
		keys:    map[string]struct{}{},
	}
	if s.store == nil {
		s.store = mock.NewStore()
	}
	if s.idem == nil {
		s.idem = cache.NewMemory("idem")
	}
	if s.idemTTL <= 0 {
		s.idemTTL = 24 * time.Hour
	}
	if s.reg == nil {
		s.reg = prometheus.NewRegistry()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("fakeapi")
	for _, k := range opts.APIKeys {
		s.keys[k] = struct{}{}
	}
	m, err := metrics.NewServer(s.reg)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	s.mock = mock.New(mock.WithStore(s.store), mock.WithLogger(s.log))
	s.handler = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// Store expone el estado para fixtures. Usarlo con el servidor ocioso o
// dentro de Do.
func (s *Server) Store() *mock.Store { return s.store }

// Do ejecuta f con el lock de los handlers tomado.
func (s *Server) Do(f func(c *mock.Client)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.mock)
}

// Registry devuelve el registry de métricas del servidor.
func (s *Server) Registry() *prometheus.Registry { return s.reg }

// FailNext hace que los próximos n requests autenticados respondan status.
func (s *Server) FailNext(n int, status int) {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	for i := 0; i < n; i++ {
		s.faults = append(s.faults, fault{status: status, retryAfter: 1})
	}
}

// Requests devuelve los requests recibidos, en orden.
func (s *Server) Requests() []Recorded {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	return append([]Recorded(nil), s.recorded...)
}

// ResetRequests vacía el registro de requests y las fallas pendientes.
func (s *Server) ResetRequests() {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	s.recorded = nil
	s.faults = nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer, s.requestID, s.accessLog, s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.record, s.authenticate, s.rateLimit, s.injectFaults, s.serialize, s.idempotency, s.tenantScope)
		s.partnerRoutes(r)
		s.masterRoutes(r)
		s.messageRoutes(r)
		s.certificateRoutes(r)
		s.webhookRoutes(r)
		s.accountRoutes(r)
		s.tenantRoutes(r)
		s.billingRoutes(r)
		s.sandboxRoutes(r)
		s.partnershipRoutes(r)
		s.utilsRoutes(r)
	})
	return r
}
