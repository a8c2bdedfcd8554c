package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/policy"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/logger"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var tokens = stubValidator{
	"student-token": {UserID: "s1", Role: models.RoleStudent},
	"admin-token":   {UserID: "a1", Role: models.RoleAdmin},
	"owner-token":   {UserID: "o1", Role: models.RoleSuperAdmin},
	"guest-token":   {UserID: "g1", Role: "guest"},
}

func protectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(tokens, "fhjwt")}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := Claims(c)
		c.String(http.StatusOK, claims.UserID+"|"+c.GetString(logger.UserIDKey))
	})
	router.GET("/", handlers...)
	return router
}

func TestJWTAcceptsCookieAndBearer(t *testing.T) {
	router := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "fhjwt", Value: "admin-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "a1|a1" {
		t.Fatalf("cookie auth: status %d body %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "s1|s1" {
		t.Fatalf("bearer auth: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestJWTCookieTakesPrecedence(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "fhjwt", Value: "owner-token"})
	req.Header.Set("Authorization", "Bearer student-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Body.String() != "o1|o1" {
		t.Fatalf("expected cookie identity, got %q", rec.Body.String())
	}
}

func TestJWTRejectsMissingOrBadTokens(t *testing.T) {
	router := protectedRouter()
	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"unknown":      "Bearer nope",
		"empty bearer": "Bearer ",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestOptionalJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", OptionalJWT(tokens, "fhjwt"), func(c *gin.Context) {
		if _, ok := Claims(c); ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("anonymous request: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated request: %d", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	router := protectedRouter(RequireCapability(policy.CapManageAdmins))
	cases := []struct {
		token string
		want  int
	}{
		{"student-token", http.StatusForbidden},
		{"admin-token", http.StatusForbidden},
		{"owner-token", http.StatusOK},
		{"guest-token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.token, tc.want, rec.Code)
		}
	}
}

func TestRequireStaffDeniesStudents(t *testing.T) {
	router := protectedRouter(RequireStaff(), RequireCapability(policy.CapViewStudentData))
	for token, want := range map[string]int{"student-token": http.StatusForbidden, "admin-token": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", token, want, rec.Code)
		}
	}
}

type recordingAudit struct{ logs []*models.AuditLog }

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &recordingAudit{}
	router := gin.New()
	router.POST("/logout", OptionalJWT(tokens, "fhjwt"), Audit(audit, models.AuditActionLogout, models.AuditResourceUser, nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.POST("/fail", Audit(audit, "FAIL", models.AuditResourceUser, nil), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/fail", nil))

	if len(audit.logs) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.logs))
	}
	if audit.logs[0].Action != models.AuditActionLogout || audit.logs[0].UserID == nil || *audit.logs[0].UserID != "a1" {
		t.Fatalf("unexpected audit entry: %+v", audit.logs[0])
	}
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if meta[cacheHitKey] != true {
		t.Fatalf("expected cache hit in meta: %v", meta)
	}
	if _, ok := meta["processing_time_ms"]; !ok {
		t.Fatalf("expected processing time in meta: %v", meta)
	}
	if _, ok := meta["started_at"]; ok {
		t.Fatalf("started_at must not leak into meta")
	}
}
