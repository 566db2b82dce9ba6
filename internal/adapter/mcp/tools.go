package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/Switchyard/internal/domain/consultation"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.routeTaskTool(),
		s.listPendingConsultationsTool(),
		s.replyConsultationTool(),
		s.resolveConsultationTool(),
		s.getTaskForceLogTool(),
	)
}

func (s *Server) routeTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("route_task",
		mcplib.WithDescription("Score a task's complexity and record a routing decision (sequential, task_force, or escalation)"),
		mcplib.WithString("task_id",
			mcplib.Required(),
			mcplib.Description("Identifier of the task to route"),
		),
		mcplib.WithString("description",
			mcplib.Description("Natural-language task description used for scoring"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRouteTask,
	}
}

func (s *Server) listPendingConsultationsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_pending_consultations",
		mcplib.WithDescription("List all open human consultations, oldest first"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListPendingConsultations,
	}
}

func (s *Server) replyConsultationTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("reply_consultation",
		mcplib.WithDescription("Append a human message to an open consultation"),
		mcplib.WithString("consultation_id",
			mcplib.Required(),
			mcplib.Description("The consultation to reply to"),
		),
		mcplib.WithString("sender_id",
			mcplib.Required(),
			mcplib.Description("Identifier of the human sender"),
		),
		mcplib.WithString("content",
			mcplib.Required(),
			mcplib.Description("Message body"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleReplyConsultation,
	}
}

func (s *Server) resolveConsultationTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("resolve_consultation",
		mcplib.WithDescription("Resolve an open consultation with guidance and resume the paused agent"),
		mcplib.WithString("consultation_id",
			mcplib.Required(),
			mcplib.Description("The consultation to resolve"),
		),
		mcplib.WithString("guidance",
			mcplib.Description("Free-form guidance recorded in the resolution"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleResolveConsultation,
	}
}

func (s *Server) getTaskForceLogTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_task_force_log",
		mcplib.WithDescription("Read the ordered collaboration log of a task force"),
		mcplib.WithString("task_force_id",
			mcplib.Required(),
			mcplib.Description("The task force whose log to read"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetTaskForceLog,
	}
}

func (s *Server) handleRouteTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Router == nil {
		return mcplib.NewToolResultError("task router not configured"), nil
	}
	args := req.GetArguments()
	taskID, ok := args["task_id"].(string)
	if !ok || taskID == "" {
		return mcplib.NewToolResultError("task_id is required"), nil
	}
	description, _ := args["description"].(string)

	d, err := s.deps.Router.Route(ctx, taskID, description, nil)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to route task %s", taskID), err,
		), nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal decision", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleListPendingConsultations(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Consultations == nil {
		return mcplib.NewToolResultError("consultation desk not configured"), nil
	}
	list, err := s.deps.Consultations.Pending(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list pending consultations", err), nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal consultations", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleReplyConsultation(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Consultations == nil {
		return mcplib.NewToolResultError("consultation desk not configured"), nil
	}
	args := req.GetArguments()
	consultationID, ok := args["consultation_id"].(string)
	if !ok || consultationID == "" {
		return mcplib.NewToolResultError("consultation_id is required"), nil
	}
	senderID, ok := args["sender_id"].(string)
	if !ok || senderID == "" {
		return mcplib.NewToolResultError("sender_id is required"), nil
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return mcplib.NewToolResultError("content is required"), nil
	}

	msg, err := s.deps.Consultations.SendMessage(ctx, consultationID, consultation.SenderHuman, senderID, content)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to reply to consultation %s", consultationID), err,
		), nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal message", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleResolveConsultation(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Consultations == nil {
		return mcplib.NewToolResultError("consultation desk not configured"), nil
	}
	args := req.GetArguments()
	consultationID, ok := args["consultation_id"].(string)
	if !ok || consultationID == "" {
		return mcplib.NewToolResultError("consultation_id is required"), nil
	}

	var resolution map[string]any
	if guidance, _ := args["guidance"].(string); guidance != "" {
		resolution = map[string]any{"guidance": guidance}
	}

	c, err := s.deps.Consultations.Resolve(ctx, consultationID, resolution)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to resolve consultation %s", consultationID), err,
		), nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal consultation", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetTaskForceLog(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.TaskForces == nil {
		return mcplib.NewToolResultError("task force reader not configured"), nil
	}
	args := req.GetArguments()
	taskForceID, ok := args["task_force_id"].(string)
	if !ok || taskForceID == "" {
		return mcplib.NewToolResultError("task_force_id is required"), nil
	}

	log, err := s.deps.TaskForces.GetLog(ctx, taskForceID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to read log of task force %s", taskForceID), err,
		), nil
	}
	data, err := json.Marshal(log)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal log", err), nil
	}
	return toolResultJSON(string(data)), nil
}
