package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/internal/cache"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
)

// Receiver es un http.Handler que valida y despacha entregas de webhooks.
type Receiver struct {
	Secret    string
	Tolerance time.Duration
	Handlers  Handlers
	// Seen de-duplica por id de evento; nil desactiva el de-dup.
	Seen cache.Client
	Log  *zap.Logger

	now func() time.Time
}

// NewReceiver arma un Receiver con tolerancia por defecto y de-dup en memoria.
func NewReceiver(secret string, hs Handlers) *Receiver {
	return &Receiver{
		Secret:    secret,
		Tolerance: DefaultTolerance,
		Handlers:  hs,
		Seen:      cache.NewMemory("webhook"),
		Log:       zap.NewNop(),
		now:       time.Now,
	}
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := rc.Log
	if log == nil {
		log = zap.NewNop()
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !VerifySignature(body, r.Header.Get(HeaderSignature), rc.Secret) {
		log.Warn("webhook signature mismatch", logger.ClientIP(r.RemoteAddr))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}
	if ev.CreatedAt != nil && rc.Tolerance > 0 {
		now := time.Now
		if rc.now != nil {
			now = rc.now
		}
		if now().Sub(*ev.CreatedAt) > rc.Tolerance {
			http.Error(w, "event too old", http.StatusBadRequest)
			return
		}
	}

	if rc.Seen != nil && ev.ID != "" {
		first, err := rc.Seen.Add(r.Context(), ev.ID, "1", 2*max(rc.Tolerance, DefaultTolerance))
		if err != nil {
			log.Error("webhook dedup failed", logger.Err(err))
		} else if !first {
			log.Debug("webhook duplicate ignored", zap.String("event_id", ev.ID))
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	if err := Dispatch(ev, rc.Handlers); err != nil {
		log.Error("webhook handler failed", logger.EventType(ev.Type), logger.Err(err))
		if rc.Seen != nil && ev.ID != "" {
			_ = rc.Seen.Delete(r.Context(), ev.ID)
		}
		http.Error(w, "handler error", http.StatusInternalServerError)
		return
	}
	log.Debug("webhook dispatched", logger.EventType(ev.Type))
	w.WriteHeader(http.StatusOK)
}
