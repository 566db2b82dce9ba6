package http

import (
	"net/http"

	"github.com/Strob0t/Switchyard/internal/adapter/ws"
	"github.com/Strob0t/Switchyard/internal/service"
)

const defaultMaxRequestBodySize = 1 << 20 // 1 MB

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Decisions     *service.DecisionService
	Consultations *service.ConsultationService
	TaskForces    *service.TaskForceService
	Agents        *service.AgentStateTracker
	Hub           *ws.Hub

	// MaxRequestBodySize caps JSON request bodies. Zero means the default.
	MaxRequestBodySize int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.MaxRequestBodySize > 0 {
		return h.MaxRequestBodySize
	}
	return defaultMaxRequestBodySize
}

// ---------------------------------------------------------------------------
// Decisions
// ---------------------------------------------------------------------------

type routeTaskRequest struct {
	TaskID      string         `json:"task_id"`
	Description string         `json:"description"`
	Context     map[string]any `json:"context,omitempty"`
}

// RouteTask scores a task and records the routing decision.
func (h *Handlers) RouteTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[routeTaskRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if !requireField(w, req.TaskID, "task_id") {
		return
	}

	d, err := h.Decisions.Route(r.Context(), req.TaskID, req.Description, req.Context)
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// PreviewScore scores a task description without recording a decision.
func (h *Handlers) PreviewScore(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[routeTaskRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Decisions.Preview(req.Description, req.Context))
}

// GetDecision returns one routing decision by id.
func (h *Handlers) GetDecision(w http.ResponseWriter, r *http.Request) {
	d, err := h.Decisions.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "decision not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListTaskDecisions returns all decisions recorded for a task, newest first.
func (h *Handlers) ListTaskDecisions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Decisions.ListByTask(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ---------------------------------------------------------------------------
// Agent state
// ---------------------------------------------------------------------------

// GetAgentState returns the live state record for one agent. Agents with no
// history read as IDLE.
func (h *Handlers) GetAgentState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Agents.GetState(urlParam(r, "id")))
}

// ListPausedAgents returns all agents currently paused for a consultation.
func (h *Handlers) ListPausedAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Agents.ListPaused())
}
