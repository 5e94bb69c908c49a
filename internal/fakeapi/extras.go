package fakeapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/util"
)

// samples son los documentos de ejemplo de sandbox/samples y messages/test.
var samples = map[string]string{
	"x12":     "ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *260101*1200*U*00401*000000001*0*T*>~GS*PO*SENDER*RECEIVER*20260101*1200*1*X*004010~ST*850*0001~BEG*00*SA*PO-1001**20260101~SE*3*0001~GE*1*1~IEA*1*000000001~",
	"edifact": "UNA:+.? 'UNB+UNOC:3+SENDER+RECEIVER+260101:1200+1'UNH+1+ORDERS:D:96A:UN'BGM+220+PO-1001+9'UNT+3+1'UNZ+1+1'",
	"xml":     `<?xml version="1.0"?><Order><Number>PO-1001</Number></Order>`,
	"json":    `{"order":"PO-1001","lines":[{"sku":"NDC-0001","qty":10}]}`,
}

var plans = []domain.Document{
	{"id": "free", "name": "Free", "price": 0, "messages_per_month": 100},
	{"id": "startup", "name": "Startup", "price": 49, "messages_per_month": 5000},
	{"id": "business", "name": "Business", "price": 199, "messages_per_month": 50000},
}

// =================================================================================
// BILLING
// =================================================================================

func (s *Server) billingRoutes(r chi.Router) {
	r.Get("/billing/plans", func(w http.ResponseWriter, _ *http.Request) { writeList(w, plans) })
	r.Get("/accounts/billing", s.accountBilling)
	r.Get("/accounts/billing/usage", s.billingUsage)
	r.Get("/accounts/billing/transactions", s.billingTransactions)
	r.Post("/accounts/billing/subscribe", s.subscribe)
	r.Post("/accounts/billing/payment-method", s.addPaymentMethod)
}

func (s *Server) accountBilling(w http.ResponseWriter, r *http.Request) {
	acc, _ := s.mock.Accounts().Get(r.Context())
	writeJSON(w, http.StatusOK, domain.Document{"account_id": acc.ID, "plan_type": acc.PlanType, "status": "active", "balance": 0})
}

func (s *Server) billingUsage(w http.ResponseWriter, r *http.Request) {
	msgs := s.store.Messages()
	var bytes int64
	for _, m := range msgs {
		bytes += m.Bytes
	}
	writeJSON(w, http.StatusOK, domain.Document{
		"messages":       len(msgs),
		"bytes":          bytes,
		"formatted_size": util.FormatFileSize(bytes),
		"period":         r.URL.Query().Get("period"),
	})
}

func (s *Server) billingTransactions(w http.ResponseWriter, _ *http.Request) {
	writeList(w, []domain.Document{})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanType string `json:"plan_type"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	acc, _ := s.mock.Accounts().Get(r.Context())
	for _, p := range plans {
		if p["id"] == req.PlanType {
			acc.PlanType = req.PlanType
			s.store.PutAccount(acc)
			writeJSON(w, http.StatusOK, domain.Document{"success": true, "plan_type": acc.PlanType})
			return
		}
	}
	writeError(w, as2err.Validation("Unknown plan", "INVALID_PLAN", map[string][]string{"plan_type": {"is invalid"}}))
}

func (s *Server) addPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req domain.Document
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Document{"success": true, "payment_method_id": "pm_" + util.RandomHex(6)})
}

// =================================================================================
// SANDBOX
// =================================================================================

func (s *Server) sandboxRoutes(r chi.Router) {
	r.Route("/sandbox", func(r chi.Router) {
		r.Get("/info", s.sandboxInfo)
		r.Get("/messages", s.sandboxMessages)
		r.Post("/simulate-incoming", s.simulateIncoming)
		r.Get("/samples/{type}", s.sample)
		r.Post("/clear", s.sandboxClear)
	})
}

func (s *Server) sandboxInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Document{
		"sandbox":      true,
		"partners":     len(s.store.Partners()),
		"messages":     len(s.store.Messages()),
		"sample_types": []string{"x12", "edifact", "xml", "json"},
	})
}

func (s *Server) sandboxMessages(w http.ResponseWriter, _ *http.Request) {
	writeList(w, s.store.Messages())
}

// simulateIncoming registra un mensaje entrante en el tenant dueño del partner.
func (s *Server) simulateIncoming(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartnerID   string `json:"partnerId"`
		Content     string `json:"content"`
		ContentType string `json:"contentType"`
		Subject     string `json:"subject"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, ok := s.store.Partner(req.PartnerID)
	if !ok {
		writeError(w, as2err.NotFound("partner", req.PartnerID))
		return
	}
	msg, err := s.mock.WithTenant(p.TenantID()).Messages().Receive(r.Context(), p.ID, decodeBase64(req.Content), req.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) sample(w http.ResponseWriter, r *http.Request) {
	t := chi.URLParam(r, "type")
	content, ok := samples[t]
	if !ok {
		writeError(w, as2err.NotFound("sample", t))
		return
	}
	writeJSON(w, http.StatusOK, domain.Document{"type": t, "content": content})
}

func (s *Server) sandboxClear(w http.ResponseWriter, _ *http.Request) {
	s.store.ClearMessages()
	writeJSON(w, http.StatusOK, domain.Document{"success": true})
}

// =================================================================================
// PARTNERSHIPS
// =================================================================================

func (s *Server) partnershipRoutes(r chi.Router) {
	r.Route("/partnerships", func(r chi.Router) {
		r.Post("/onboarding", s.onboarding)
		r.Get("/health", s.partnershipHealth)
		r.Post("/{id}/certificate-exchange", s.certificateExchange)
	})
}

// onboarding crea el partner y devuelve los pasos pendientes.
func (s *Server) onboarding(w http.ResponseWriter, r *http.Request) {
	var in domain.PartnerPatch
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := view(r).Partners().Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.Document{
		"partner":    p,
		"status":     "pending_certificate_exchange",
		"next_steps": []string{"exchange_certificates", "send_test_message"},
	})
}

func (s *Server) partnershipHealth(w http.ResponseWriter, r *http.Request) {
	ps, _ := view(r).Partners().List(r.Context(), domain.PartnerFilter{})
	healthy := 0
	for _, p := range ps {
		if p.Active {
			healthy++
		}
	}
	writeJSON(w, http.StatusOK, domain.Document{
		"total_partners":  len(ps),
		"active_partners": healthy,
		"checked_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) certificateExchange(w http.ResponseWriter, r *http.Request) {
	p, err := view(r).Partners().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Document{"partner_id": p.ID, "status": "initiated", "exchange_id": "cx_" + util.RandomHex(6)})
}

// =================================================================================
// UTILS
// =================================================================================

func (s *Server) utilsRoutes(r chi.Router) {
	r.Post("/utils/validate-edi", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content string `json:"content"`
			Strict  bool   `json:"strict"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		res, _ := s.mock.Utils().ValidateEDI(r.Context(), decodeBase64(req.Content))
		writeJSON(w, http.StatusOK, res)
	})
}
