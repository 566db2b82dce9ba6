package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"switchyard://consultations/pending",
			"Pending Consultations",
			mcplib.WithResourceDescription("All open human consultations, oldest first"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePendingConsultationsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"switchyard://agents/paused",
			"Paused Agents",
			mcplib.WithResourceDescription("Agents currently paused waiting on a consultation"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePausedAgentsResource,
	)
}

func (s *Server) handlePendingConsultationsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Consultations == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"consultation desk not configured"}`,
			},
		}, nil
	}
	list, err := s.deps.Consultations.Pending(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePausedAgentsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Agents == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"agent state reader not configured"}`,
			},
		}, nil
	}
	data, err := json.Marshal(s.deps.Agents.ListPaused())
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
