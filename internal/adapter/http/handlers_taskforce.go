package http

import (
	"net/http"

	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
)

// ConveneTaskForce creates a new active task force with its founding members.
func (h *Handlers) ConveneTaskForce(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[taskforce.ConveneRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	tf, err := h.TaskForces.Convene(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusCreated, tf)
}

// GetTaskForce returns a task force with its membership.
func (h *Handlers) GetTaskForce(w http.ResponseWriter, r *http.Request) {
	tf, err := h.TaskForces.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusOK, tf)
}

type joinTaskForceRequest struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
}

// JoinTaskForce adds an agent to an existing task force.
func (h *Handlers) JoinTaskForce(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[joinTaskForceRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	m, err := h.TaskForces.Join(r.Context(), urlParam(r, "id"), req.AgentID, req.Role)
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type appendLogRequest struct {
	AgentID     string `json:"agent_id"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
}

// AppendTaskForceLog records one collaboration message from a member.
func (h *Handlers) AppendTaskForceLog(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[appendLogRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if !requireField(w, req.AgentID, "agent_id") {
		return
	}

	entry, err := h.TaskForces.AppendLog(r.Context(), urlParam(r, "id"), req.AgentID,
		taskforce.MessageType(req.MessageType), req.Content)
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetTaskForceLog returns the full ordered collaboration log.
func (h *Handlers) GetTaskForceLog(w http.ResponseWriter, r *http.Request) {
	log, err := h.TaskForces.GetLog(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusOK, log)
}

type closeTaskForceRequest struct {
	Result map[string]any `json:"result"`
}

// ResolveTaskForce closes a task force with a resolution result.
func (h *Handlers) ResolveTaskForce(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[closeTaskForceRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	tf, err := h.TaskForces.Resolve(r.Context(), urlParam(r, "id"), req.Result)
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusOK, tf)
}

// FailTaskForce closes a task force as failed.
func (h *Handlers) FailTaskForce(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[closeTaskForceRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	tf, err := h.TaskForces.Fail(r.Context(), urlParam(r, "id"), req.Result)
	if err != nil {
		writeDomainError(w, err, "task force not found")
		return
	}
	writeJSON(w, http.StatusOK, tf)
}
