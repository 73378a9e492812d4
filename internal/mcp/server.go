// Package mcp exposes the transform catalog and saved workflows as Model
// Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/RIGishan/text-toolkit/internal/services"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// Server registers the toolkit's tools on an MCP server. Workflow tools act
// on the workspace of a single origin.
type Server struct {
	mcpServer  *server.MCPServer
	pipeline   *services.PipelineService
	workspaces *services.Workspaces
	origin     string
}

// NewServer creates a Server whose workflow tools read origin's workspace.
func NewServer(pipeline *services.PipelineService, workspaces *services.Workspaces, origin string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Text Toolkit",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		pipeline:   pipeline,
		workspaces: workspaces,
		origin:     origin,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_transforms",
			mcp.WithDescription("List the available text transforms with their option schemas and defaults"),
		),
		s.handleListTransforms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"apply_transform",
			mcp.WithDescription("Apply one transform to a text"),
			mcp.WithString("transformId", mcp.Required(), mcp.Description("Transform id, e.g. whitespace/normalize")),
			mcp.WithString("input", mcp.Required(), mcp.Description("The text to transform")),
			mcp.WithObject("options", mcp.Description("Option values; missing keys take their defaults")),
		),
		s.handleApplyTransform,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_steps",
			mcp.WithDescription("Run a chain of transforms in order, feeding each output into the next step"),
			mcp.WithString("input", mcp.Required(), mcp.Description("The text to transform")),
			mcp.WithArray("steps", mcp.Required(),
				mcp.Description("Ordered steps, each {transformId, options}"),
				mcp.Items(map[string]any{
					"type": "object",
					"properties": map[string]any{
						"transformId": map[string]any{"type": "string"},
						"options":     map[string]any{"type": "object"},
					},
					"required": []string{"transformId"},
				}),
			),
		),
		s.handleRunSteps,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List saved workflows, newest first"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_workflow",
			mcp.WithDescription("Run a saved workflow, selected by id or by name"),
			mcp.WithString("input", mcp.Required(), mcp.Description("The text to transform")),
			mcp.WithString("id", mcp.Description("The id of the workflow")),
			mcp.WithString("name", mcp.Description("The name of the workflow, used when id is empty")),
		),
		s.handleRunWorkflow,
	)
}

type transformInfo struct {
	ID          transform.ID      `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Fields      []transform.Field `json:"fields"`
	Defaults    map[string]any    `json:"defaults"`
}

func (s *Server) handleListTransforms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defs := s.pipeline.Transforms()
	out := make([]transformInfo, len(defs))
	for i, d := range defs {
		out[i] = transformInfo{ID: d.ID, Name: d.Name, Description: d.Description, Fields: d.Fields, Defaults: d.Defaults()}
	}
	return jsonResult(out)
}

func (s *Server) handleApplyTransform(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["transformId"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: transformId"), nil
	}
	input, ok := args["input"].(string)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: input"), nil
	}
	var options map[string]any
	if raw, present := args["options"]; present && raw != nil {
		if options, ok = raw.(map[string]any); !ok {
			return mcp.NewToolResultError("Parameter options must be an object"), nil
		}
	}

	out, err := s.pipeline.Apply(ctx, transform.ID(id), input, options)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to apply transform: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleRunSteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	input, ok := args["input"].(string)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: input"), nil
	}
	steps, err := decodeSteps(args["steps"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid parameter steps: %v", err)), nil
	}

	out, err := s.pipeline.Run(ctx, input, steps)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run steps: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.workspaces.For(s.origin).Workflows.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}
	return jsonResult(items)
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	input, ok := args["input"].(string)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: input"), nil
	}
	id, _ := args["id"].(string)
	name, _ := args["name"].(string)

	store := s.workspaces.For(s.origin).Workflows
	if id == "" {
		if name == "" {
			return mcp.NewToolResultError("One of id or name is required"), nil
		}
		w, found, err := store.FindByName(ctx, name)
		if err != nil && !found {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to look up workflow: %v", err)), nil
		}
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("No workflow named %q", name)), nil
		}
		id = w.ID
	}

	_, _, out, err := s.pipeline.RunSaved(ctx, store, id, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to run workflow: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func decodeSteps(raw any) ([]models.WorkflowStep, error) {
	if raw == nil {
		return nil, fmt.Errorf("missing")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var steps []models.WorkflowStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers serves mcpServer over SSE under /mcp.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
