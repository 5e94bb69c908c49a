package fakeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
	"github.com/dropDatabas3/as2aas/internal/transport"
	"github.com/dropDatabas3/as2aas/internal/util"
	"github.com/dropDatabas3/as2aas/mock"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxAPIKey
	ctxView
)

// =================================================================================
// STATUS RECORDER
// =================================================================================

// statusRecorder captura status, bytes y (si capture) el cuerpo de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
	capture     bool
	body        bytes.Buffer
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	if s.capture {
		s.body.Write(b)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// =================================================================================
// MIDDLEWARES
// =================================================================================

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context(), s.log).Error("panic in handler", zap.Any("panic", rec), zap.Stack("stack"))
				writeError(w, as2err.API("Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID propaga X-Request-ID o genera uno nuevo.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, rid)))
	})
}

// accessLog registra cada request e inyecta un logger scoped en el contexto.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid, _ := r.Context().Value(ctxRequestID).(string)
		reqLog := s.log.With(logger.RequestID(rid), logger.Method(r.Method), logger.Path(r.URL.Path))
		if t := r.Header.Get(transport.HeaderTenantID); t != "" {
			reqLog = reqLog.With(logger.TenantID(t))
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.ToContext(r.Context(), reqLog)))

		reqLog.Info("request completed",
			logger.Status(rec.status),
			logger.Bytes(rec.bytes),
			logger.Duration(time.Since(start)),
		)
	})
}

// observe alimenta las métricas HTTP con el patrón de ruta de chi.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, has := r.Header[http.CanonicalHeaderKey(transport.HeaderTenantID)]
		rec := Recorded{
			Method:         r.Method,
			Path:           strings.TrimPrefix(r.URL.Path, "/v1/"),
			HasTenant:      has,
			IdempotencyKey: r.Header.Get(transport.HeaderIdempotencyKey),
			Authorization:  r.Header.Get("Authorization"),
		}
		if has && len(tenant) > 0 {
			rec.TenantHeader = tenant[0]
		}
		s.recMu.Lock()
		s.recorded = append(s.recorded, rec)
		s.recMu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			writeError(w, as2err.Authentication("API key is required"))
			return
		}
		valid := keyPattern.MatchString(key)
		if len(s.keys) > 0 {
			_, valid = s.keys[key]
		}
		if !valid {
			logger.From(r.Context(), s.log).Warn("rejected api key", logger.APIKey(util.MaskSecret(key)))
			writeError(w, as2err.Authentication("Invalid API key"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxAPIKey, key)))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key, _ := r.Context().Value(ctxAPIKey).(string)
		res, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			// Sin backend de rate limit se deja pasar.
			logger.From(r.Context(), s.log).Error("rate limiter failed", logger.Err(err))
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			s.metrics.IncRateLimited(transport.Family(strings.TrimPrefix(r.URL.Path, "/v1/")))
			w.Header().Set(transport.HeaderRetryAfter, strconv.Itoa(res.RetryAfterSeconds()))
			writeError(w, as2err.RateLimit("Rate limit exceeded", "", res.RetryAfterSeconds()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.recMu.Lock()
		var f *fault
		if len(s.faults) > 0 {
			f = &s.faults[0]
			s.faults = s.faults[1:]
		}
		s.recMu.Unlock()
		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		if f.status == http.StatusTooManyRequests {
			w.Header().Set(transport.HeaderRetryAfter, strconv.Itoa(f.retryAfter))
		}
		writeJSON(w, f.status, errorBody{Message: fmt.Sprintf("Injected failure (%d)", f.status), Code: "INJECTED_FAULT"})
	})
}

func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// storedResponse es lo que guarda el replay de idempotencia.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// idempotency repite la respuesta original de un POST con la misma
// Idempotency-Key y la misma API key. Los 5xx no se guardan.
func (s *Server) idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idemKey := strings.TrimSpace(r.Header.Get(transport.HeaderIdempotencyKey))
		if r.Method != http.MethodPost || idemKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey, _ := r.Context().Value(ctxAPIKey).(string)
		cacheKey := apiKey + ":" + idemKey
		log := logger.From(r.Context(), s.log)

		if raw, err := s.idem.Get(r.Context(), cacheKey); err == nil {
			var sr storedResponse
			if json.Unmarshal([]byte(raw), &sr) == nil {
				log.Debug("idempotent replay", logger.IdempotencyKey(idemKey))
				w.Header().Set("Content-Type", sr.ContentType)
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(sr.Status)
				_, _ = w.Write(sr.Body)
				return
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, capture: true}
		next.ServeHTTP(rec, r)
		if rec.status >= 500 {
			return
		}
		raw, _ := json.Marshal(storedResponse{Status: rec.status, ContentType: w.Header().Get("Content-Type"), Body: rec.body.Bytes()})
		if err := s.idem.Set(r.Context(), cacheKey, string(raw), s.idemTTL); err != nil {
			log.Error("idempotency store failed", logger.Err(err))
		}
	})
}

// tenantScope resuelve X-Tenant-ID a una vista del mock. Un tenant
// desconocido es 404.
func (s *Server) tenantScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := strings.TrimSpace(r.Header.Get(transport.HeaderTenantID))
		if tenant != "" {
			if _, err := s.mock.Tenants().Get(r.Context(), tenant); err != nil {
				writeError(w, err)
				return
			}
		}
		view := s.mock.WithTenant(tenant)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxView, view)))
	})
}

// view devuelve el cliente mock con el scope del request.
func view(r *http.Request) *mock.Client {
	v, _ := r.Context().Value(ctxView).(*mock.Client)
	return v
}
