// Package metrics define las métricas Prometheus del cliente y del fake server.
//
// Todos los métodos aceptan receptor nil, así el cliente puede llamarlos sin
// chequear si las métricas están habilitadas.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client agrupa las métricas del lado cliente.
type Client struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewClient registra las métricas en reg (DefaultRegisterer si es nil).
// Si ya estaban registradas reutiliza los collectors existentes.
func NewClient(reg prometheus.Registerer) (*Client, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Client{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as2aas_client_requests_total",
			Help: "Requests HTTP emitidos por el cliente, por familia y status",
		}, []string{"family", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "as2aas_client_request_duration_seconds",
			Help:    "Latencia de cada intento HTTP del cliente",
			Buckets: prometheus.DefBuckets,
		}, []string{"family", "method"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as2aas_client_retries_total",
			Help: "Reintentos por falla transitoria (red o 5xx)",
		}, []string{"family"}),
	}
	var err error
	if c.requests, err = register(reg, c.requests); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.retries, err = register(reg, c.retries); err != nil {
		return nil, err
	}
	return c, nil
}

// ObserveRequest registra un intento. status 0 = error de red.
func (c *Client) ObserveRequest(family, method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(family, method, statusLabel(status)).Inc()
	c.duration.WithLabelValues(family, method).Observe(d.Seconds())
}

func (c *Client) IncRetry(family string) {
	if c == nil {
		return
	}
	c.retries.WithLabelValues(family).Inc()
}

// RetriesFor expone el contador de reintentos de una familia.
func (c *Client) RetriesFor(family string) prometheus.Counter {
	return c.retries.WithLabelValues(family)
}

// Server agrupa las métricas del fake server.
type Server struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	limited  *prometheus.CounterVec
}

func NewServer(reg prometheus.Registerer) (*Server, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &Server{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as2aas_mock_http_requests_total",
			Help: "Requests atendidos por el fake server",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "as2aas_mock_http_request_duration_seconds",
			Help:    "Latencia de los requests del fake server",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		limited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as2aas_mock_rate_limited_total",
			Help: "Requests rechazados con 429",
		}, []string{"route"}),
	}
	var err error
	if s.requests, err = register(reg, s.requests); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.limited, err = register(reg, s.limited); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) ObserveHTTP(method, route string, status int, d time.Duration) {
	if s == nil {
		return
	}
	s.requests.WithLabelValues(method, route, statusLabel(status)).Inc()
	s.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (s *Server) IncRateLimited(route string) {
	if s == nil {
		return
	}
	s.limited.WithLabelValues(route).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "network_error"
	}
	return strconv.Itoa(status)
}

// register tolera AlreadyRegisteredError devolviendo el collector existente.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}
