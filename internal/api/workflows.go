package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RIGishan/text-toolkit/internal/workflow"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// maxImportSize bounds an uploaded workflow file.
const maxImportSize = 1 << 20

// WorkflowRequest creates or replaces a saved workflow.
type WorkflowRequest struct {
	Name  string                `json:"name"`
	Steps []models.WorkflowStep `json:"steps"`
}

// RunWorkflowRequest carries the input of a saved workflow run.
type RunWorkflowRequest struct {
	Input string `json:"input"`
}

// ListWorkflows returns the origin's workflows, newest first
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	items, err := ws.Workflows.List(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateWorkflow saves a new workflow
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var req WorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	w, err := ws.Workflows.Save(c.Request().Context(), req.Name, req.Steps)
	if err != nil {
		return toHTTPError(err)
	}
	s.logger.Info("workflow saved", "origin", ws.Origin, "id", w.ID, "steps", len(w.Steps))
	return c.JSON(http.StatusCreated, w)
}

// ImportWorkflow saves a workflow uploaded as a YAML file
// (POST /api/v1/workflows/import)
func (s *Server) ImportWorkflow(c echo.Context) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportSize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read workflow file: "+err.Error())
	}
	parsed, err := workflow.ImportYAML(data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid workflow file: "+err.Error())
	}
	w, err := ws.Workflows.Import(c.Request().Context(), parsed)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, w)
}

// GetWorkflow returns one workflow
// (GET /api/v1/workflows/{id})
func (s *Server) GetWorkflow(c echo.Context, id string) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	w, err := ws.Workflows.Load(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, w)
}

// UpdateWorkflow replaces the name and steps of a workflow
// (PUT /api/v1/workflows/{id})
func (s *Server) UpdateWorkflow(c echo.Context, id string) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var req WorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	w, err := ws.Workflows.Update(c.Request().Context(), id, req.Name, req.Steps)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, w)
}

// DeleteWorkflow removes a workflow; unknown ids succeed
// (DELETE /api/v1/workflows/{id})
func (s *Server) DeleteWorkflow(c echo.Context, id string) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Workflows.Delete(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RunWorkflow runs a saved workflow on the request input
// (POST /api/v1/workflows/{id}/run)
func (s *Server) RunWorkflow(c echo.Context, id string, params RunParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var req RunWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	_, results, out, err := s.pipeline.RunSaved(c.Request().Context(), ws.Workflows, id, req.Input)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, runResponse(out, results, params))
}

// ExportWorkflow downloads a workflow as YAML
// (GET /api/v1/workflows/{id}/export)
func (s *Server) ExportWorkflow(c echo.Context, id string) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	w, err := ws.Workflows.Load(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	data, err := workflow.ExportYAML(w)
	if err != nil {
		return toHTTPError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "workflow-"+w.ID+".yaml"))
	return c.Blob(http.StatusOK, "application/yaml", data)
}
