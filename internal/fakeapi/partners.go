package fakeapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
)

func (s *Server) partnerRoutes(r chi.Router) {
	r.Route("/partners", func(r chi.Router) {
		r.Get("/", s.listPartners)
		r.Post("/", s.createPartner)
		r.Get("/{id}", s.getPartner)
		r.Patch("/{id}", s.updatePartner)
		r.Delete("/{id}", s.deletePartner)
		r.Post("/{id}/test", s.testPartner)
		r.Get("/{id}/health", s.partnerHealth)
		r.Get("/{id}/certificates", s.partnerCertificates)
		r.Post("/{id}/certificates", s.uploadPartnerCertificate)
	})
}

func (s *Server) listPartners(w http.ResponseWriter, r *http.Request) {
	ps, err := view(r).Partners().List(r.Context(), domain.ParsePartnerFilter(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, ps)
}

func (s *Server) createPartner(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPartner(w http.ResponseWriter, r *http.Request) {
	p, err := view(r).Partners().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePartner(w http.ResponseWriter, r *http.Request) {
	var patch domain.PartnerPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	p, err := view(r).Partners().Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePartner(w http.ResponseWriter, r *http.Request) {
	if err := view(r).Partners().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) testPartner(w http.ResponseWriter, r *http.Request) {
	doc, err := view(r).Partners().Test(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) partnerHealth(w http.ResponseWriter, r *http.Request) {
	doc, err := view(r).Partners().Health(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) partnerCertificates(w http.ResponseWriter, r *http.Request) {
	cs, err := view(r).Partners().Certificates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, cs)
}

func (s *Server) uploadPartnerCertificate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := view(r).Partners().Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	in, err := parseUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in.PartnerID = id
	if in.Type == "" {
		in.Type = domain.CertPartner
	}
	cert, err := view(r).Certificates().Upload(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cert)
}
