package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/internal/workflow"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// TransformInfo describes one catalog entry and its option schema.
type TransformInfo struct {
	ID          transform.ID      `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Fields      []transform.Field `json:"fields"`
	Defaults    map[string]any    `json:"defaults"`
}

// ApplyRequest runs one transform.
type ApplyRequest struct {
	TransformID string         `json:"transformId"`
	Input       string         `json:"input"`
	Options     map[string]any `json:"options,omitempty"`
}

// RunRequest runs an ad hoc chain.
type RunRequest struct {
	Input string                `json:"input"`
	Steps []models.WorkflowStep `json:"steps"`
}

// RunResponse holds the output of a run, and each step's result when a
// trace was requested.
type RunResponse struct {
	Output string                `json:"output"`
	Steps  []workflow.StepResult `json:"steps,omitempty"`
}

func describe(d *transform.Definition) TransformInfo {
	return TransformInfo{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Fields:      d.Fields,
		Defaults:    d.Defaults(),
	}
}

// ListTransforms returns the catalog ordered by name
// (GET /api/v1/transforms)
func (s *Server) ListTransforms(c echo.Context) error {
	defs := s.pipeline.Transforms()
	out := make([]TransformInfo, len(defs))
	for i, d := range defs {
		out[i] = describe(d)
	}
	return c.JSON(http.StatusOK, out)
}

// ApplyTransform runs a single transform on the request input
// (POST /api/v1/transforms/apply)
func (s *Server) ApplyTransform(c echo.Context) error {
	var req ApplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	id := transform.ID(req.TransformID)
	if _, err := s.pipeline.Registry().Get(id); err != nil {
		return toHTTPError(err)
	}
	out, err := s.pipeline.Apply(c.Request().Context(), id, req.Input, req.Options)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, RunResponse{Output: out})
}

// RunSteps runs an unsaved chain
// (POST /api/v1/run)
func (s *Server) RunSteps(c echo.Context, params RunParams) error {
	var req RunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	results, out, err := s.pipeline.Trace(c.Request().Context(), req.Input, req.Steps)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, runResponse(out, results, params))
}

func runResponse(out string, results []workflow.StepResult, params RunParams) RunResponse {
	resp := RunResponse{Output: out}
	if params.Trace != nil && *params.Trace {
		resp.Steps = results
	}
	return resp
}
