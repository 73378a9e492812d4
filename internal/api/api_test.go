package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/RIGishan/text-toolkit/internal/auth"
	"github.com/RIGishan/text-toolkit/internal/recipe"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/services"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const originHeader = "X-Test-Origin"

// testOrigin stands in for the auth middleware.
func testOrigin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		origin := c.Request().Header.Get(originHeader)
		if origin == "" {
			origin = "acme.com"
		}
		c.SetRequest(c.Request().WithContext(auth.WithOrigin(c.Request().Context(), origin)))
		return next(c)
	}
}

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	reg := transform.Builtin()
	workspaces := services.NewWorkspaces(repository.NewMemoryKVStore(), reg, nopLogger{})
	t.Cleanup(workspaces.Close)
	pipeline, err := services.NewPipelineService(reg, nopLogger{}, services.WithMeterProvider(noop.NewMeterProvider()))
	require.NoError(t, err)

	srv := NewServer(workspaces, pipeline, nopLogger{})
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(nopLogger{})
	e.GET("/health", srv.Health)
	RegisterHandlers(e.Group("/api/v1", testOrigin), srv)
	return e
}

func do(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	e := newTestAPI(t)
	rec := do(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "text-toolkit", status.Service)
}

func TestTransforms(t *testing.T) {
	e := newTestAPI(t)

	t.Run("list", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/v1/transforms", "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := decode[[]TransformInfo](t, rec)
		require.Len(t, items, 3)
		for _, it := range items {
			assert.Len(t, it.Defaults, len(it.Fields), it.ID)
		}
	})

	t.Run("apply", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/transforms/apply",
			`{"transformId":"text/dedupe-lines","input":"a\nb\na"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "a\nb", decode[RunResponse](t, rec).Output)
	})

	t.Run("unknown transform", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/transforms/apply", `{"transformId":"nope","input":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
	})

	t.Run("wrong option type", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/transforms/apply",
			`{"transformId":"text/dedupe-lines","input":"x","options":{"keepFirst":"yes"}}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		problem := decode[map[string]any](t, rec)
		assert.Equal(t, float64(0), problem["step"])
		assert.Equal(t, "text/dedupe-lines", problem["transformId"])
		assert.Contains(t, problem["error"], "keepFirst")
	})
}

func TestRunSteps(t *testing.T) {
	e := newTestAPI(t)
	body := `{"input":"b\nb","steps":[{"transformId":"text/dedupe-lines"},{"transformId":"whitespace/normalize"}]}`

	rec := do(e, http.MethodPost, "/api/v1/run?trace=true", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RunResponse](t, rec)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, "b", resp.Steps[0].Output)
	assert.Equal(t, resp.Steps[1].Output, resp.Output)

	rec = do(e, http.MethodPost, "/api/v1/run", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[RunResponse](t, rec).Steps)

	rec = do(e, http.MethodPost, "/api/v1/run", `{"input":"x","steps":[{"transformId":"whitespace/normalize"},{"transformId":"gone"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["step"])

	rec = do(e, http.MethodPost, "/api/v1/run?trace=maybe", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkflowLifecycle(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPost, "/api/v1/workflows", `{"name":"  ","steps":[{"transformId":"text/dedupe-lines"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.SavedWorkflow](t, rec)
	assert.Equal(t, "Untitled workflow", created.Name)
	assert.NotEmpty(t, created.ID)

	rec = do(e, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.SavedWorkflow](t, rec), 1)

	rec = do(e, http.MethodPost, "/api/v1/workflows/"+created.ID+"/run", `{"input":"x\nx\ny"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "x\ny", decode[RunResponse](t, rec).Output)

	rec = do(e, http.MethodPut, "/api/v1/workflows/"+created.ID, `{"name":"Dedupe","steps":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.SavedWorkflow](t, rec)
	assert.Equal(t, "Dedupe", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	rec = do(e, http.MethodGet, "/api/v1/workflows/"+created.ID+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	exported := rec.Body.String()
	assert.Contains(t, exported, "version: 1")

	rec = do(e, http.MethodPost, "/api/v1/workflows/import", exported)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	imported := decode[models.SavedWorkflow](t, rec)
	assert.NotEqual(t, created.ID, imported.ID)
	assert.Equal(t, "Dedupe", imported.Name)

	rec = do(e, http.MethodPost, "/api/v1/workflows/import", "version: 9\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodDelete, "/api/v1/workflows/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodDelete, "/api/v1/workflows/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, "/api/v1/workflows/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkflows_RejectUnknownSteps(t *testing.T) {
	e := newTestAPI(t)
	rec := do(e, http.MethodPost, "/api/v1/workflows", `{"name":"bad","steps":[{"transformId":"missing"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/workflows", "")
	assert.Empty(t, decode[[]models.SavedWorkflow](t, rec))
}

func TestWorkflows_ScopedByOrigin(t *testing.T) {
	e := newTestAPI(t)
	rec := do(e, http.MethodPost, "/api/v1/workflows", `{"name":"mine","steps":[]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/workflows", "", originHeader, "other.org")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.SavedWorkflow](t, rec))
}

func TestPresetsThroughShell(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPost, "/api/v1/recipes", `{"toolId":"json","name":"Pretty"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "no state saved yet")

	rec = do(e, http.MethodGet, "/api/v1/state?tool=json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[StateResponse](t, rec).State)

	rec = do(e, http.MethodPut, "/api/v1/state?tool=json", `{"indent":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/v1/recipes", `{"toolId":"json","name":"Pretty"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pretty := decode[models.Recipe](t, rec)
	assert.Equal(t, map[string]any{"indent": float64(2)}, pretty.State)

	rec = do(e, http.MethodPut, "/api/v1/defaults?tool=json", `{"recipeId":"`+pretty.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	def := decode[DefaultResponse](t, rec)
	require.NotNil(t, def.Recipe)
	assert.Equal(t, pretty.ID, def.Recipe.ID)

	rec = do(e, http.MethodPut, "/api/v1/defaults?tool=csv", `{"recipeId":"`+pretty.ID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPut, "/api/v1/state?tool=json", `{"indent":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(e, http.MethodGet, "/api/v1/shell?tool=json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[recipe.Status](t, rec)
	assert.True(t, status.Modified)
	assert.Equal(t, pretty.ID, status.DefaultID)

	rec = do(e, http.MethodPost, "/api/v1/shell/revert?tool=json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[recipe.Status](t, rec).Modified)

	rec = do(e, http.MethodGet, "/api/v1/state?tool=json", "")
	assert.Equal(t, map[string]any{"indent": float64(2)}, decode[StateResponse](t, rec).State)

	rec = do(e, http.MethodPost, "/api/v1/recipes/"+pretty.ID+"/apply?tool=csv", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/recipes?tool=csv", "")
	assert.Empty(t, decode[[]models.Recipe](t, rec))
	rec = do(e, http.MethodGet, "/api/v1/recipes", "")
	assert.Len(t, decode[[]models.Recipe](t, rec), 1)

	rec = do(e, http.MethodDelete, "/api/v1/recipes/"+pretty.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, "/api/v1/defaults?tool=json", "")
	assert.Nil(t, decode[DefaultResponse](t, rec).Recipe)
	rec = do(e, http.MethodGet, "/api/v1/shell?tool=json", "")
	assert.Nil(t, decode[recipe.Status](t, rec).Active)
}

func TestShell_OpenAppliesDefault(t *testing.T) {
	e := newTestAPI(t)
	do(e, http.MethodPut, "/api/v1/state?tool=json", `{"indent":2}`)
	rec := do(e, http.MethodPost, "/api/v1/recipes", `{"toolId":"json"}`)
	r := decode[models.Recipe](t, rec)
	assert.Equal(t, "Untitled preset", r.Name)
	do(e, http.MethodPut, "/api/v1/defaults?tool=json", `{"recipeId":"`+r.ID+`"}`)
	do(e, http.MethodPut, "/api/v1/state?tool=json", `{"indent":8}`)

	rec = do(e, http.MethodPost, "/api/v1/shell/open?tool=json", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[recipe.Status](t, rec)
	require.NotNil(t, status.Active)
	assert.Equal(t, r.ID, status.Active.ID)
	assert.False(t, status.Modified)

	rec = do(e, http.MethodGet, "/api/v1/state?tool=json", "")
	assert.Equal(t, map[string]any{"indent": float64(2)}, decode[StateResponse](t, rec).State)
}

func TestToolParameterRequired(t *testing.T) {
	e := newTestAPI(t)
	for _, path := range []string{"/api/v1/state", "/api/v1/shell", "/api/v1/defaults", "/api/v1/state?tool="} {
		rec := do(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	rec := do(e, http.MethodPost, "/api/v1/shell/revert?tool=fresh", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPutState_RejectsNonObject(t *testing.T) {
	e := newTestAPI(t)
	rec := do(e, http.MethodPut, "/api/v1/state?tool=json", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingOriginIsUnauthorized(t *testing.T) {
	reg := transform.Builtin()
	pipeline, err := services.NewPipelineService(reg, nopLogger{}, services.WithMeterProvider(noop.NewMeterProvider()))
	require.NoError(t, err)
	srv := NewServer(services.NewWorkspaces(repository.NewMemoryKVStore(), reg, nopLogger{}), pipeline, nopLogger{})
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(nopLogger{})
	RegisterHandlers(e, srv)

	rec := do(e, http.MethodGet, "/workflows", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSpecAndDocs(t *testing.T) {
	e := echo.New()
	e.GET("/openapi.yaml", SpecHandler("https://issuer.example/oauth2/default"))
	e.GET("/docs", SwaggerHandler("swagger-client"))
	e.GET("/docs/oauth2-redirect.html", OAuth2RedirectHandler())

	rec := do(e, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://issuer.example/oauth2/default/v1/authorize")
	assert.NotContains(t, rec.Body.String(), "{oktaIssuer}")

	rec = do(e, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clientId: "swagger-client"`)
	assert.Contains(t, rec.Body.String(), "http://example.com/docs/oauth2-redirect.html")
	assert.Contains(t, rec.Body.String(), `scopes: "openid profile email textkit:read textkit:write"`)
	assert.NotContains(t, rec.Body.String(), "${")

	rec = do(e, http.MethodGet, "/docs/oauth2-redirect.html", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
