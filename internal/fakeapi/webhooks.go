package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
)

func (s *Server) webhookRoutes(r chi.Router) {
	r.Get("/webhook-endpoints-stats", s.webhookStats)
	r.Route("/webhook-endpoints", func(r chi.Router) {
		r.Get("/", s.listWebhooks)
		r.Post("/", s.createWebhook)
		r.Get("/{id}", s.getWebhook)
		r.Patch("/{id}", s.updateWebhook)
		r.Delete("/{id}", s.deleteWebhook)
		r.Post("/{id}/test", s.testWebhook)
	})
}

func (s *Server) createWebhook(w http.ResponseWriter, r *http.Request) {
	var in domain.WebhookInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	wh, err := view(r).Webhooks().Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wh)
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request) {
	ws, _ := view(r).Webhooks().List(r.Context())
	writeList(w, ws)
}

func (s *Server) getWebhook(w http.ResponseWriter, r *http.Request) {
	wh, err := view(r).Webhooks().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (s *Server) updateWebhook(w http.ResponseWriter, r *http.Request) {
	var in domain.WebhookInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	wh, err := view(r).Webhooks().Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (s *Server) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := view(r).Webhooks().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) testWebhook(w http.ResponseWriter, r *http.Request) {
	doc, err := view(r).Webhooks().Test(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) webhookStats(w http.ResponseWriter, r *http.Request) {
	doc, _ := view(r).Webhooks().Stats(r.Context())
	writeJSON(w, http.StatusOK, doc)
}
