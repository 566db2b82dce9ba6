package http

import (
	"net/http"

	"github.com/Strob0t/Switchyard/internal/domain/consultation"
)

// RequestConsultation opens a human consultation and pauses the requesting
// agent.
func (h *Handlers) RequestConsultation(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[consultation.CreateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	c, err := h.Consultations.Request(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetConsultation returns one consultation by id.
func (h *Handlers) GetConsultation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Consultations.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "consultation not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListPendingConsultations returns all open consultations, oldest first.
func (h *Handlers) ListPendingConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Consultations.Pending(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListAgentConsultations returns every consultation an agent has opened.
func (h *Handlers) ListAgentConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Consultations.ListByAgent(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type consultationMessageRequest struct {
	SenderType string `json:"sender_type"`
	SenderID   string `json:"sender_id"`
	Content    string `json:"content"`
}

// SendConsultationMessage appends one message to an open consultation. The
// first human message moves a pending consultation to in_progress.
func (h *Handlers) SendConsultationMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[consultationMessageRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if !requireField(w, req.SenderID, "sender_id") || !requireField(w, req.Content, "content") {
		return
	}
	if !consultation.ValidSenderType(req.SenderType) {
		writeError(w, http.StatusBadRequest, "sender_type must be agent or human")
		return
	}

	msg, err := h.Consultations.SendMessage(r.Context(), urlParam(r, "id"),
		consultation.SenderType(req.SenderType), req.SenderID, req.Content)
	if err != nil {
		writeDomainError(w, err, "consultation not found")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ListConsultationMessages returns the ordered message log of a consultation.
func (h *Handlers) ListConsultationMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Consultations.GetMessages(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "consultation not found")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type resolveConsultationRequest struct {
	Resolution map[string]any `json:"resolution"`
}

// ResolveConsultation closes a consultation with human guidance and resumes
// the paused agent.
func (h *Handlers) ResolveConsultation(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[resolveConsultationRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	c, err := h.Consultations.Resolve(r.Context(), urlParam(r, "id"), req.Resolution)
	if err != nil {
		writeDomainError(w, err, "consultation not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
