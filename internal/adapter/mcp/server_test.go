package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	symcp "github.com/Strob0t/Switchyard/internal/adapter/mcp"
	"github.com/Strob0t/Switchyard/internal/domain/agentstate"
	"github.com/Strob0t/Switchyard/internal/domain/consultation"
	"github.com/Strob0t/Switchyard/internal/domain/decision"
	"github.com/Strob0t/Switchyard/internal/domain/taskforce"
)

// --- Mocks ---

type mockRouter struct {
	decision *decision.OrchestrationDecision
	err      error
}

func (m *mockRouter) Route(_ context.Context, taskID, _ string, _ map[string]any) (*decision.OrchestrationDecision, error) {
	if m.err != nil {
		return nil, m.err
	}
	d := *m.decision
	d.TaskID = taskID
	return &d, nil
}

type mockDesk struct {
	pending  []consultation.Request
	resolved *consultation.Request
	message  *consultation.Message
	err      error
}

func (m *mockDesk) Pending(_ context.Context) ([]consultation.Request, error) {
	return m.pending, m.err
}

func (m *mockDesk) SendMessage(_ context.Context, _ string, _ consultation.SenderType, _, _ string) (*consultation.Message, error) {
	return m.message, m.err
}

func (m *mockDesk) Resolve(_ context.Context, _ string, _ map[string]any) (*consultation.Request, error) {
	return m.resolved, m.err
}

type mockLogReader struct {
	log []taskforce.LogEntry
	err error
}

func (m *mockLogReader) GetLog(_ context.Context, _ string) ([]taskforce.LogEntry, error) {
	return m.log, m.err
}

type mockAgentReader struct {
	paused []agentstate.Info
}

func (m *mockAgentReader) ListPaused() []agentstate.Info {
	return m.paused
}

// --- Tests ---

func TestNewServer(t *testing.T) {
	cfg := symcp.ServerConfig{
		Addr:    ":3001",
		Name:    "test-server",
		Version: "0.1.0",
	}
	s := symcp.NewServer(cfg, symcp.ServerDeps{})
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestServerStartStop(t *testing.T) {
	cfg := symcp.ServerConfig{
		Addr:    ":0",
		Name:    "test-server",
		Version: "0.1.0",
	}
	s := symcp.NewServer(cfg, symcp.ServerDeps{})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestToolRegistration(t *testing.T) {
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, symcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	if len(tools) != 5 {
		t.Fatalf("expected 5 tools, got %d", len(tools))
	}

	expectedTools := map[string]bool{
		"route_task":                 false,
		"list_pending_consultations": false,
		"reply_consultation":         false,
		"resolve_consultation":       false,
		"get_task_force_log":         false,
	}
	for name := range tools {
		if _, ok := expectedTools[name]; ok {
			expectedTools[name] = true
		} else {
			t.Errorf("unexpected tool: %s", name)
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleRouteTask(t *testing.T) {
	deps := symcp.ServerDeps{
		Router: &mockRouter{
			decision: &decision.OrchestrationDecision{
				ID:              "d1",
				DecisionType:    decision.TypeSequential,
				ComplexityScore: 0.1,
			},
		},
	}
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	routeTool, ok := tools["route_task"]
	if !ok {
		t.Fatal("route_task tool not found")
	}

	result, err := routeTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "route_task",
			Arguments: map[string]any{"task_id": "task-1", "description": "fix typo"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var d decision.OrchestrationDecision
	if err := json.Unmarshal([]byte(text.Text), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.TaskID != "task-1" {
		t.Fatalf("expected task-1, got %q", d.TaskID)
	}
	if d.DecisionType != decision.TypeSequential {
		t.Fatalf("expected sequential, got %q", d.DecisionType)
	}
}

func TestHandleRouteTaskMissingArg(t *testing.T) {
	deps := symcp.ServerDeps{Router: &mockRouter{}}
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	routeTool, ok := tools["route_task"]
	if !ok {
		t.Fatal("route_task tool not found")
	}

	result, err := routeTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "route_task"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing task_id")
	}
}

func TestHandleListPendingConsultations(t *testing.T) {
	deps := symcp.ServerDeps{
		Consultations: &mockDesk{
			pending: []consultation.Request{
				{ID: "c1", AgentID: "agent-1", Status: consultation.StatusPending},
				{ID: "c2", AgentID: "agent-2", Status: consultation.StatusInProgress},
			},
		},
	}
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	listTool, ok := tools["list_pending_consultations"]
	if !ok {
		t.Fatal("list_pending_consultations tool not found")
	}

	result, err := listTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "list_pending_consultations"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var list []consultation.Request
	if err := json.Unmarshal([]byte(text.Text), &list); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 consultations, got %d", len(list))
	}
}

func TestHandleResolveConsultation(t *testing.T) {
	deps := symcp.ServerDeps{
		Consultations: &mockDesk{
			resolved: &consultation.Request{ID: "c1", Status: consultation.StatusResolved},
		},
	}
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	resolveTool, ok := tools["resolve_consultation"]
	if !ok {
		t.Fatal("resolve_consultation tool not found")
	}

	result, err := resolveTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "resolve_consultation",
			Arguments: map[string]any{"consultation_id": "c1", "guidance": "approved, proceed"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var c consultation.Request
	if err := json.Unmarshal([]byte(text.Text), &c); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if c.Status != consultation.StatusResolved {
		t.Fatalf("expected resolved, got %q", c.Status)
	}
}

func TestHandleGetTaskForceLog(t *testing.T) {
	deps := symcp.ServerDeps{
		TaskForces: &mockLogReader{
			log: []taskforce.LogEntry{
				{ID: "l1", Seq: 1, MessageType: taskforce.MsgProposal},
				{ID: "l2", Seq: 2, MessageType: taskforce.MsgAgreement},
			},
		},
	}
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	logTool, ok := tools["get_task_force_log"]
	if !ok {
		t.Fatal("get_task_force_log tool not found")
	}

	result, err := logTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "get_task_force_log",
			Arguments: map[string]any{"task_force_id": "tf-1"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var log []taskforce.LogEntry
	if err := json.Unmarshal([]byte(text.Text), &log); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(log))
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := symcp.NewServer(symcp.ServerConfig{Name: "test", Version: "0.1.0"}, symcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	listTool, ok := tools["list_pending_consultations"]
	if !ok {
		t.Fatal("list_pending_consultations tool not found")
	}

	result, err := listTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "list_pending_consultations"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result when deps are nil")
	}
}
