package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/middleware"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/service"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
)

type fakeDashboardSrv struct {
	resp    *service.DashboardResponse
	hit     bool
	err     error
	lastTab string
}

func (f *fakeDashboardSrv) View(_ context.Context, actor authoring.Actor, tab string) (*service.DashboardResponse, bool, error) {
	f.lastTab = tab
	return f.resp, f.hit, f.err
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardHandlerRequiresCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)

	handler.View(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dash := authoring.NewDashboard(authoring.Actor{UserID: "admin-1", Role: models.RoleAdmin})
	srv := &fakeDashboardSrv{
		resp: &service.DashboardResponse{DashboardView: dash.View(), Stats: &models.DashboardStats{Learners: 12}},
		hit:  true,
	}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/dashboard?tab=%20courses%20", nil)
	c.Set(middleware.ContextUserKey, adminClaims)

	handler.View(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "courses", srv.lastTab)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.NotNil(t, envelope.Data["stats"])
}

func TestDashboardHandlerPropagatesForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.ErrForbidden})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	c.Set(middleware.ContextUserKey, studentClaims)

	handler.View(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
