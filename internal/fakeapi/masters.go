package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/mock"
)

func (s *Server) masterRoutes(r chi.Router) {
	r.Route("/accounts/{accountID}", func(r chi.Router) {
		r.Use(s.accountGuard)
		r.Get("/partners", s.listMasters)
		r.Post("/partners", s.createMaster)
		r.Get("/partners/{id}", s.getMaster)
		r.Put("/partners/{id}", s.updateMaster)
		r.Delete("/partners/{id}", s.deleteMaster)
		r.Post("/partners/{id}/inherit", s.inherit)
		r.Delete("/partners/{id}/inherit", s.removeInheritance)
		r.Get("/partners/{id}/inheritance", s.inheritanceStatus)
		r.Get("/partners-health", s.mastersHealth)

		r.Get("/billing", s.accountBilling)
		r.Get("/billing/usage", s.billingUsage)
		r.Get("/billing/transactions", s.billingTransactions)
	})
}

// accountGuard exige que el account id del path sea la cuenta del store.
func (s *Server) accountGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "accountID")
		if id != s.store.AccountID() {
			writeError(w, as2err.NotFound("account", id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) masters() *mock.MasterPartners { return s.mock.MasterPartners() }

func (s *Server) listMasters(w http.ResponseWriter, r *http.Request) {
	ms, _ := s.masters().List(r.Context())
	writeList(w, ms)
}

func (s *Server) createMaster(w http.ResponseWriter, r *http.Request) {
	var in domain.PartnerPatch
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.masters().Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope[domain.Partner]{Data: m})
}

func (s *Server) getMaster(w http.ResponseWriter, r *http.Request) {
	m, err := s.masters().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMaster(w http.ResponseWriter, r *http.Request) {
	var patch domain.PartnerPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.masters().Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMaster(w http.ResponseWriter, r *http.Request) {
	if err := s.masters().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) inherit(w http.ResponseWriter, r *http.Request) {
	var req domain.InheritRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.masters().Inherit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) removeInheritance(w http.ResponseWriter, r *http.Request) {
	var req domain.RemoveInheritanceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	n, err := s.masters().RemoveInheritance(r.Context(), chi.URLParam(r, "id"), req.TenantIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.RemoveInheritanceResult{Success: true, RemovedCount: n})
}

func (s *Server) inheritanceStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.masters().InheritanceStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) mastersHealth(w http.ResponseWriter, r *http.Request) {
	h, _ := s.masters().Health(r.Context())
	writeJSON(w, http.StatusOK, h)
}
