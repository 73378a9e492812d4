package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RIGishan/text-toolkit/internal/auth"
	"github.com/RIGishan/text-toolkit/internal/config"
	"github.com/RIGishan/text-toolkit/internal/logging"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/services"
	"github.com/RIGishan/text-toolkit/internal/transform"
)

func TestNewEcho_DevBypass(t *testing.T) {
	cfg := &config.Config{Environment: "DEV", DevModeBypass: true}
	logger := logging.NewNop()

	authz, err := auth.New(context.Background(), cfg, logger)
	require.NoError(t, err)
	backend := repository.NewMemoryKVStore()
	workspaces := services.NewWorkspaces(backend, transform.Builtin(), logger)
	defer workspaces.Close()
	pipeline, err := services.NewPipelineService(transform.Builtin(), logger)
	require.NoError(t, err)

	e := newEcho(cfg, logger, authz, workspaces, pipeline)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", strings.NewReader(`{"name":"dev","steps":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, ok, err := backend.Get(context.Background(), auth.DevOrigin+"|"+repository.WorkflowsKey)
	require.NoError(t, err)
	assert.True(t, ok, "bypassed requests are scoped to the dev origin")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
