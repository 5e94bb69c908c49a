package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
)

func (s *Server) accountRoutes(r chi.Router) {
	r.Get("/accounts", s.getAccounts)
	r.Put("/accounts", s.updateAccount)
}

func (s *Server) tenantRoutes(r chi.Router) {
	r.Route("/tenants", func(r chi.Router) {
		r.Get("/", s.listTenants)
		r.Post("/", s.createTenant)
		r.Get("/current", s.currentTenant)
		r.Get("/{id}", s.getTenant)
		r.Put("/{id}", s.updateTenant)
		r.Delete("/{id}", s.deleteTenant)
	})
}

// getAccounts responde la lista con la cuenta actual en meta.
func (s *Server) getAccounts(w http.ResponseWriter, r *http.Request) {
	acc, _ := s.mock.Accounts().Get(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"data": []domain.Account{acc},
		"meta": map[string]any{"current_account": acc},
	})
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var in domain.AccountUpdate
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	acc, _ := s.mock.Accounts().Update(r.Context(), in)
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) listTenants(w http.ResponseWriter, r *http.Request) {
	ts, _ := s.mock.Accounts().ListTenants(r.Context())
	writeList(w, ts)
}

func (s *Server) createTenant(w http.ResponseWriter, r *http.Request) {
	var in domain.TenantInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	t, err := s.mock.Accounts().CreateTenant(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope[domain.Tenant]{Data: t})
}

// currentTenant: los requests a tenants no llevan X-Tenant-ID, así que el
// actual es siempre el primero.
func (s *Server) currentTenant(w http.ResponseWriter, r *http.Request) {
	t, err := s.mock.Tenants().Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) getTenant(w http.ResponseWriter, r *http.Request) {
	t, err := s.mock.Tenants().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope[domain.Tenant]{Data: t})
}

func (s *Server) updateTenant(w http.ResponseWriter, r *http.Request) {
	var in domain.TenantInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	t, err := s.mock.Tenants().Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.mock.Tenants().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
