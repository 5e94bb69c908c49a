package fakeapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/as2aas/domain"
	as2err "github.com/dropDatabas3/as2aas/errors"
)

func (s *Server) messageRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		r.Get("/", s.listMessages)
		r.Post("/", s.sendMessage)
		r.Post("/batch", s.sendBatch)
		r.Post("/validate", s.validateMessage)
		r.Post("/test", s.sendTestMessage)
		r.Get("/{id}", s.getMessage)
		r.Get("/{id}/payload", s.messagePayload)
	})
}

func sendOptions(req domain.SendMessageRequest) domain.SendOptions {
	return domain.SendOptions{
		ContentType: req.ContentType,
		Priority:    req.Priority,
		Compress:    req.Compress,
		Encrypt:     req.Encrypt,
		Sign:        req.Sign,
		ScheduledAt: req.ScheduledAt,
		Metadata:    req.Metadata,
	}
}

func validateSend(req domain.SendMessageRequest) error {
	details := map[string][]string{}
	if strings.TrimSpace(req.PartnerID) == "" {
		details["partner_id"] = []string{"is required"}
	}
	if req.Payload.Content == "" {
		details["payload.content"] = []string{"is required"}
	}
	if len(details) > 0 {
		return as2err.Validation("Invalid message", "", details)
	}
	return nil
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.SendMessageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSend(req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := view(r).Messages().Send(r.Context(), req.PartnerID, decodeBase64(req.Payload.Content), req.Subject, sendOptions(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) sendBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []domain.SendMessageRequest `json:"messages"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	batch := make([]domain.BatchMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		batch = append(batch, domain.BatchMessage{
			PartnerID: m.PartnerID,
			Content:   decodeBase64(m.Payload.Content),
			Subject:   m.Subject,
			Options:   sendOptions(m),
		})
	}
	res, _ := view(r).Messages().SendBatch(r.Context(), batch)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) validateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, _ := view(r).Messages().Validate(r.Context(), decodeBase64(req.Content))
	writeJSON(w, http.StatusOK, res)
}

// sendTestMessage envía una muestra del tipo pedido al partner.
func (s *Server) sendTestMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartnerID   string `json:"partner_id"`
		MessageType string `json:"messageType"`
		Encrypt     *bool  `json:"encrypt,omitempty"`
		Sign        *bool  `json:"sign,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sample, ok := samples[req.MessageType]
	if !ok {
		sample = samples["x12"]
	}
	msg, err := view(r).Messages().Send(r.Context(), req.PartnerID, sample, "Test message", domain.SendOptions{Encrypt: req.Encrypt, Sign: req.Sign})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	page, _ := view(r).Messages().List(r.Context(), domain.ParseMessageFilter(r.URL.Query()))
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := view(r).Messages().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) messagePayload(w http.ResponseWriter, r *http.Request) {
	msgs := view(r).Messages()
	id := chi.URLParam(r, "id")
	msg, err := msgs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	b, _ := msgs.Payload(r.Context(), id)
	w.Header().Set("Content-Type", msg.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
