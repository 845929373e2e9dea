package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunChecks(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	assert.NoError(t, runChecks([]healthCheck{{"a", ok}, {"b", ok}}))

	err := runChecks([]healthCheck{{"Redis Connection", down}, {"b", ok}})
	assert.ErrorContains(t, err, "Redis Connection failed")
}

func TestHealthEndpoints(t *testing.T) {
	w := httptest.NewRecorder()
	healthCheckHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","service":"refund-worker"}`, w.Body.String())

	w = httptest.NewRecorder()
	readyCheckHandler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.JSONEq(t, `{"status":"READY"}`, w.Body.String())
}
