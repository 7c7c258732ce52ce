package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/socialvault/socialvault/internal/action"
	"github.com/socialvault/socialvault/internal/storage"
)

// CompetitorLister lists a team's visible competitors.
type CompetitorLister interface {
	List(ctx context.Context, teamID string) ([]storage.Competitor, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Runner      FunctionRunner
	Competitors CompetitorLister // optional; list_competitors is not registered when nil
}

// mcpTools maps tool names to the functions they run.
var mcpTools = []struct {
	name        string
	fn          action.Function
	description string
}{
	{"content_generator", action.ContentGenerator, "Generate, improve, translate or analyze social media content."},
	{"analytics", action.Analytics, "Predict post performance and analyze audience, competitors and trends."},
	{"automation", action.Automation, "Scheduling, curation, auto-replies, brand voice checks and content calendars."},
	{"visual_tools", action.VisualTools, "Color palettes, captions, alt text, design suggestions and image prompts."},
}

// NewMCPServer creates an MCP server with one tool per function.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"socialvault",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("socialvault: AI content generation, analytics, automation and visual tools for social media teams."),
		server.WithRecovery(),
	)

	for _, t := range mcpTools {
		table, err := action.TableFor(t.fn)
		if err != nil {
			continue
		}
		s.AddTool(
			mcp.NewTool(t.name,
				mcp.WithDescription(t.description),
				mcp.WithString("action",
					mcp.Description("Action to run: "+joinNames(table.Actions())),
					mcp.Required(),
				),
				mcp.WithString("context", mcp.Description("JSON object with the action's context fields")),
			),
			mcpFunction(deps, t.fn),
		)
	}

	if deps.Competitors != nil {
		s.AddTool(
			mcp.NewTool("list_competitors",
				mcp.WithDescription("List the active competitors tracked by a team."),
				mcp.WithString("team_id", mcp.Description("Team id"), mcp.Required()),
			),
			mcpListCompetitors(deps),
		)
	}

	s.AddResource(
		mcp.NewResource(
			"socialvault://actions",
			"Actions",
			mcp.WithResourceDescription("Actions supported by every function"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceActions,
	)

	return s
}

func mcpFunction(deps MCPDeps, fn action.Function) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("action")
		if err != nil {
			return mcpError("action is required"), nil
		}

		fields := map[string]any{}
		if raw := strings.TrimSpace(req.GetString("context", "")); raw != "" {
			if err := json.Unmarshal([]byte(raw), &fields); err != nil {
				return mcpError(fmt.Sprintf("context must be a JSON object: %v", err)), nil
			}
		}
		fields["action"] = name

		body, err := json.Marshal(fields)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to encode request: %v", err)), nil
		}

		res, err := deps.Runner.Run(ctx, fn, body)
		if err != nil {
			return mcpError(fmt.Sprintf("%s failed: %v", fn, err)), nil
		}

		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListCompetitors(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		teamID, err := req.RequireString("team_id")
		if err != nil {
			return mcpError("team_id is required"), nil
		}

		competitors, err := deps.Competitors.List(ctx, teamID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list competitors: %v", err)), nil
		}

		b, err := json.Marshal(competitors)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal competitors: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceActions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out := make(map[action.Function][]action.Name, len(action.Functions))
	for _, fn := range action.Functions {
		table, err := action.TableFor(fn)
		if err != nil {
			return nil, err
		}
		out[fn] = table.Actions()
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func joinNames(names []action.Name) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
