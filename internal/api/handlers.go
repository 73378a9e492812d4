// Package api serves the text toolkit over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/RIGishan/text-toolkit/internal/auth"
	"github.com/RIGishan/text-toolkit/internal/recipe"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/services"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/internal/workflow"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Logger is the structured logger used by the handlers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server holds the dependencies for the API server. It implements
// ServerInterface.
type Server struct {
	workspaces *services.Workspaces
	pipeline   *services.PipelineService
	logger     Logger
	now        func() time.Time
}

// NewServer creates a new Server.
func NewServer(workspaces *services.Workspaces, pipeline *services.PipelineService, logger Logger) *Server {
	return &Server{
		workspaces: workspaces,
		pipeline:   pipeline,
		logger:     logger,
		now:        time.Now,
	}
}

var _ ServerInterface = (*Server)(nil)

// workspace returns the workspace of the origin resolved by the auth
// middleware.
func (s *Server) workspace(c echo.Context) (*services.Workspace, error) {
	origin, ok := auth.OriginFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "request origin not resolved")
	}
	return s.workspaces.For(origin), nil
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// Health returns basic health status (always returns 200 OK)
// (GET /health)
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: s.now().UTC(),
		Service:   "text-toolkit",
		Version:   Version,
	})
}

// StepFailure locates the step that stopped a run.
type StepFailure struct {
	Step        int    `json:"step"`
	TransformID string `json:"transformId"`
	Error       string `json:"error"`
}

// ProblemDetails represents an RFC 7807 Problem Details response. Step
// failures carry the failing step's position.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
	*StepFailure
}

// toHTTPError maps domain errors onto status codes.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var stepErr *workflow.StepError
	switch {
	case errors.As(err, &stepErr):
		return &echo.HTTPError{
			Code: http.StatusUnprocessableEntity,
			Message: &StepFailure{
				Step:        stepErr.Index,
				TransformID: stepErr.TransformID,
				Error:       stepErr.Err.Error(),
			},
			Internal: err,
		}
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, recipe.ErrNotFound), errors.Is(err, transform.ErrNotFound):
		return &echo.HTTPError{Code: http.StatusNotFound, Message: err.Error(), Internal: err}
	case errors.Is(err, recipe.ErrRefused):
		return &echo.HTTPError{Code: http.StatusConflict, Message: err.Error(), Internal: err}
	case errors.Is(err, repository.ErrUnavailable):
		return &echo.HTTPError{Code: http.StatusServiceUnavailable, Message: err.Error(), Internal: err}
	default:
		return &echo.HTTPError{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError), Internal: err}
	}
}

// ErrorHandler renders every error returned by a handler as Problem
// Details JSON.
func ErrorHandler(logger Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he := toHTTPError(err)
		problem := ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(he.Code),
			Status:   he.Code,
			Instance: c.Request().URL.Path,
		}
		switch m := he.Message.(type) {
		case *StepFailure:
			problem.Detail = "step " + m.TransformID + " failed: " + m.Error
			problem.StepFailure = m
		case string:
			problem.Detail = m
		default:
			problem.Detail = http.StatusText(he.Code)
		}
		if he.Code >= http.StatusInternalServerError {
			logger.Error("request failed", "path", c.Request().URL.Path, "status", he.Code, "error", err)
		}

		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		c.Response().WriteHeader(he.Code)
		if c.Request().Method == http.MethodHead {
			return
		}
		if err := json.NewEncoder(c.Response()).Encode(problem); err != nil {
			logger.Error("failed to encode problem", "error", err)
		}
	}
}
