package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ToolParams selects the tool an endpoint acts on.
type ToolParams struct {
	// Tool is the id of the tool whose options are addressed.
	Tool string `form:"tool" json:"tool"`
}

// ListRecipesParams defines parameters for ListRecipes.
type ListRecipesParams struct {
	// Tool restricts the listing to one tool when set.
	Tool *string `form:"tool,omitempty" json:"tool,omitempty"`
}

// RunParams defines parameters for RunSteps and RunWorkflow.
type RunParams struct {
	// Trace reports every step's output in addition to the result.
	Trace *bool `form:"trace,omitempty" json:"trace,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /transforms)
	ListTransforms(ctx echo.Context) error
	// (POST /transforms/apply)
	ApplyTransform(ctx echo.Context) error
	// (POST /run)
	RunSteps(ctx echo.Context, params RunParams) error

	// (GET /workflows)
	ListWorkflows(ctx echo.Context) error
	// (POST /workflows)
	CreateWorkflow(ctx echo.Context) error
	// (POST /workflows/import)
	ImportWorkflow(ctx echo.Context) error
	// (GET /workflows/{id})
	GetWorkflow(ctx echo.Context, id string) error
	// (PUT /workflows/{id})
	UpdateWorkflow(ctx echo.Context, id string) error
	// (DELETE /workflows/{id})
	DeleteWorkflow(ctx echo.Context, id string) error
	// (POST /workflows/{id}/run)
	RunWorkflow(ctx echo.Context, id string, params RunParams) error
	// (GET /workflows/{id}/export)
	ExportWorkflow(ctx echo.Context, id string) error

	// (GET /state)
	GetState(ctx echo.Context, params ToolParams) error
	// (PUT /state)
	PutState(ctx echo.Context, params ToolParams) error

	// (GET /recipes)
	ListRecipes(ctx echo.Context, params ListRecipesParams) error
	// (POST /recipes)
	CreateRecipe(ctx echo.Context) error
	// (DELETE /recipes/{id})
	DeleteRecipe(ctx echo.Context, id string) error
	// (POST /recipes/{id}/apply)
	ApplyRecipe(ctx echo.Context, id string, params ToolParams) error

	// (GET /defaults)
	GetDefault(ctx echo.Context, params ToolParams) error
	// (PUT /defaults)
	PutDefault(ctx echo.Context, params ToolParams) error
	// (DELETE /defaults)
	DeleteDefault(ctx echo.Context, params ToolParams) error

	// (GET /shell)
	GetShell(ctx echo.Context, params ToolParams) error
	// (POST /shell/open)
	OpenShell(ctx echo.Context, params ToolParams) error
	// (POST /shell/revert)
	RevertShell(ctx echo.Context, params ToolParams) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindID(ctx echo.Context) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

func bindTool(ctx echo.Context) (ToolParams, error) {
	var params ToolParams
	err := runtime.BindQueryParameter("form", true, true, "tool", ctx.QueryParams(), &params.Tool)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter tool: %s", err))
	}
	if params.Tool == "" {
		return params, echo.NewHTTPError(http.StatusBadRequest, "Query argument tool is required, but not found")
	}
	return params, nil
}

func bindRun(ctx echo.Context) (RunParams, error) {
	var params RunParams
	err := runtime.BindQueryParameter("form", true, false, "trace", ctx.QueryParams(), &params.Trace)
	if err != nil {
		return params, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter trace: %s", err))
	}
	return params, nil
}

// ListTransforms converts echo context to params.
func (w *ServerInterfaceWrapper) ListTransforms(ctx echo.Context) error {
	return w.Handler.ListTransforms(ctx)
}

// ApplyTransform converts echo context to params.
func (w *ServerInterfaceWrapper) ApplyTransform(ctx echo.Context) error {
	return w.Handler.ApplyTransform(ctx)
}

// RunSteps converts echo context to params.
func (w *ServerInterfaceWrapper) RunSteps(ctx echo.Context) error {
	params, err := bindRun(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RunSteps(ctx, params)
}

// ListWorkflows converts echo context to params.
func (w *ServerInterfaceWrapper) ListWorkflows(ctx echo.Context) error {
	return w.Handler.ListWorkflows(ctx)
}

// CreateWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) CreateWorkflow(ctx echo.Context) error {
	return w.Handler.CreateWorkflow(ctx)
}

// ImportWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) ImportWorkflow(ctx echo.Context) error {
	return w.Handler.ImportWorkflow(ctx)
}

// GetWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) GetWorkflow(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetWorkflow(ctx, id)
}

// UpdateWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) UpdateWorkflow(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateWorkflow(ctx, id)
}

// DeleteWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteWorkflow(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteWorkflow(ctx, id)
}

// RunWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) RunWorkflow(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	params, err := bindRun(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RunWorkflow(ctx, id, params)
}

// ExportWorkflow converts echo context to params.
func (w *ServerInterfaceWrapper) ExportWorkflow(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ExportWorkflow(ctx, id)
}

// GetState converts echo context to params.
func (w *ServerInterfaceWrapper) GetState(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetState(ctx, params)
}

// PutState converts echo context to params.
func (w *ServerInterfaceWrapper) PutState(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.PutState(ctx, params)
}

// ListRecipes converts echo context to params.
func (w *ServerInterfaceWrapper) ListRecipes(ctx echo.Context) error {
	var params ListRecipesParams
	err := runtime.BindQueryParameter("form", true, false, "tool", ctx.QueryParams(), &params.Tool)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter tool: %s", err))
	}
	return w.Handler.ListRecipes(ctx, params)
}

// CreateRecipe converts echo context to params.
func (w *ServerInterfaceWrapper) CreateRecipe(ctx echo.Context) error {
	return w.Handler.CreateRecipe(ctx)
}

// DeleteRecipe converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteRecipe(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteRecipe(ctx, id)
}

// ApplyRecipe converts echo context to params.
func (w *ServerInterfaceWrapper) ApplyRecipe(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ApplyRecipe(ctx, id, params)
}

// GetDefault converts echo context to params.
func (w *ServerInterfaceWrapper) GetDefault(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetDefault(ctx, params)
}

// PutDefault converts echo context to params.
func (w *ServerInterfaceWrapper) PutDefault(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.PutDefault(ctx, params)
}

// DeleteDefault converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteDefault(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteDefault(ctx, params)
}

// GetShell converts echo context to params.
func (w *ServerInterfaceWrapper) GetShell(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetShell(ctx, params)
}

// OpenShell converts echo context to params.
func (w *ServerInterfaceWrapper) OpenShell(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.OpenShell(ctx, params)
}

// RevertShell converts echo context to params.
func (w *ServerInterfaceWrapper) RevertShell(ctx echo.Context) error {
	params, err := bindTool(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RevertShell(ctx, params)
}

// EchoRouter is the subset of *echo.Echo and *echo.Group the handlers are
// registered on.
type EchoRouter interface {
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends baseURL to
// the paths, so that the paths can be served under a prefix.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET(baseURL+"/transforms", wrapper.ListTransforms)
	router.POST(baseURL+"/transforms/apply", wrapper.ApplyTransform)
	router.POST(baseURL+"/run", wrapper.RunSteps)

	router.GET(baseURL+"/workflows", wrapper.ListWorkflows)
	router.POST(baseURL+"/workflows", wrapper.CreateWorkflow)
	router.POST(baseURL+"/workflows/import", wrapper.ImportWorkflow)
	router.GET(baseURL+"/workflows/:id", wrapper.GetWorkflow)
	router.PUT(baseURL+"/workflows/:id", wrapper.UpdateWorkflow)
	router.DELETE(baseURL+"/workflows/:id", wrapper.DeleteWorkflow)
	router.POST(baseURL+"/workflows/:id/run", wrapper.RunWorkflow)
	router.GET(baseURL+"/workflows/:id/export", wrapper.ExportWorkflow)

	router.GET(baseURL+"/state", wrapper.GetState)
	router.PUT(baseURL+"/state", wrapper.PutState)

	router.GET(baseURL+"/recipes", wrapper.ListRecipes)
	router.POST(baseURL+"/recipes", wrapper.CreateRecipe)
	router.DELETE(baseURL+"/recipes/:id", wrapper.DeleteRecipe)
	router.POST(baseURL+"/recipes/:id/apply", wrapper.ApplyRecipe)

	router.GET(baseURL+"/defaults", wrapper.GetDefault)
	router.PUT(baseURL+"/defaults", wrapper.PutDefault)
	router.DELETE(baseURL+"/defaults", wrapper.DeleteDefault)

	router.GET(baseURL+"/shell", wrapper.GetShell)
	router.POST(baseURL+"/shell/open", wrapper.OpenShell)
	router.POST(baseURL+"/shell/revert", wrapper.RevertShell)
}
