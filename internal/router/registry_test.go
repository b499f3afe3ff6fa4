package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type pingModule struct{}

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("mw")) })
}

func TestRegistry_RegisterAll(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := NewRegistry(gin.New())
	reg.Use(func(c *gin.Context) { c.Set("mw", "applied"); c.Next() })
	reg.Add(pingModule{})
	reg.Check("postgres", func(context.Context) error { return nil })
	reg.RegisterAll()

	w := httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "applied", w.Body.String())

	w = httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
}

func TestRegistry_HealthFailing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := NewRegistry(gin.New())
	reg.Logger = logrus.New()
	reg.Logger.SetOutput(io.Discard)
	reg.Check("redis", func(context.Context) error { return errors.New("connection refused") })
	reg.RegisterAll()

	w := httptest.NewRecorder()
	reg.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
