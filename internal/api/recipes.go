package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RIGishan/text-toolkit/internal/recipe"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

// StateResponse is a tool's persisted option object. State is null when
// the tool never stored options.
type StateResponse struct {
	ToolID string         `json:"toolId"`
	State  map[string]any `json:"state"`
}

// RecipeRequest snapshots a tool's current options.
type RecipeRequest struct {
	ToolID string `json:"toolId"`
	Name   string `json:"name"`
}

// DefaultRequest points a tool's default at a recipe.
type DefaultRequest struct {
	RecipeID string `json:"recipeId"`
}

// DefaultResponse reports a tool's default recipe, if any.
type DefaultResponse struct {
	ToolID string         `json:"toolId"`
	Recipe *models.Recipe `json:"recipe"`
}

// GetState returns a tool's option object
// (GET /api/v1/state)
func (s *Server) GetState(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	state, _, err := ws.States.Load(c.Request().Context(), params.Tool)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, StateResponse{ToolID: params.Tool, State: state})
}

// PutState replaces a tool's option object
// (PUT /api/v1/state)
func (s *Server) PutState(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var state map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&state); err != nil || state == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body must be a JSON object")
	}
	if err := ws.States.Store(c.Request().Context(), params.Tool, state); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, StateResponse{ToolID: params.Tool, State: state})
}

// ListRecipes returns saved recipes, optionally for one tool
// (GET /api/v1/recipes)
func (s *Server) ListRecipes(c echo.Context, params ListRecipesParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var items []models.Recipe
	if params.Tool != nil {
		items, err = ws.Recipes.ListForTool(c.Request().Context(), *params.Tool)
	} else {
		items, err = ws.Recipes.List(c.Request().Context())
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateRecipe saves the tool's current options as a recipe; the recipe
// becomes the shell's baseline
// (POST /api/v1/recipes)
func (s *Server) CreateRecipe(c echo.Context) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.ToolID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "toolId is required")
	}
	r, err := ws.Shell(req.ToolID).SaveCurrent(c.Request().Context(), req.Name)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

// DeleteRecipe removes a recipe and any default pointing at it
// (DELETE /api/v1/recipes/{id})
func (s *Server) DeleteRecipe(c echo.Context, id string) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	r, err := ws.Recipes.Get(ctx, id)
	switch {
	case errors.Is(err, recipe.ErrNotFound):
		return c.NoContent(http.StatusNoContent)
	case err != nil:
		return toHTTPError(err)
	}
	if err := ws.Shell(r.ToolID).Delete(ctx, id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ApplyRecipe loads a recipe into a tool and makes it the baseline
// (POST /api/v1/recipes/{id}/apply)
func (s *Server) ApplyRecipe(c echo.Context, id string, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	shell := ws.Shell(params.Tool)
	if _, err := shell.Load(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return s.shellStatus(c, shell)
}

// GetDefault returns the tool's default recipe
// (GET /api/v1/defaults)
func (s *Server) GetDefault(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	r, ok, err := ws.Recipes.GetDefault(c.Request().Context(), params.Tool)
	if err != nil {
		return toHTTPError(err)
	}
	resp := DefaultResponse{ToolID: params.Tool}
	if ok {
		resp.Recipe = &r
	}
	return c.JSON(http.StatusOK, resp)
}

// PutDefault sets the tool's default recipe
// (PUT /api/v1/defaults)
func (s *Server) PutDefault(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	var req DefaultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if err := ws.Shell(params.Tool).SetDefault(c.Request().Context(), req.RecipeID); err != nil {
		return toHTTPError(err)
	}
	return s.GetDefault(c, params)
}

// DeleteDefault clears the tool's default recipe
// (DELETE /api/v1/defaults)
func (s *Server) DeleteDefault(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	if err := ws.Shell(params.Tool).ClearDefault(c.Request().Context()); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetShell reports the active recipe and whether the options drifted
// (GET /api/v1/shell)
func (s *Server) GetShell(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	return s.shellStatus(c, ws.Shell(params.Tool))
}

// OpenShell mounts the tool, applying its default recipe if one is set
// (POST /api/v1/shell/open)
func (s *Server) OpenShell(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	shell := ws.Shell(params.Tool)
	if _, _, err := shell.Open(c.Request().Context()); err != nil {
		return toHTTPError(err)
	}
	return s.shellStatus(c, shell)
}

// RevertShell restores the options of the active recipe
// (POST /api/v1/shell/revert)
func (s *Server) RevertShell(c echo.Context, params ToolParams) error {
	ws, err := s.workspace(c)
	if err != nil {
		return err
	}
	shell := ws.Shell(params.Tool)
	if err := shell.Revert(c.Request().Context()); err != nil {
		return toHTTPError(err)
	}
	return s.shellStatus(c, shell)
}

func (s *Server) shellStatus(c echo.Context, shell *recipe.Shell) error {
	status, err := shell.Status(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, status)
}
