package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type stubAuditWriter struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (s *stubAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

type stubObserver struct {
	paths []string
}

func (s *stubObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s.paths = append(s.paths, method+" "+path)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRBAC(t *testing.T) {
	counselor := &models.JWTClaims{UserID: "u1", Role: models.RoleCounselor}
	r := gin.New()
	r.Use(JWT(stubValidator{claims: counselor}))
	r.GET("/counsel", RBAC(models.RoleCounselor), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/register", RBAC(models.RoleRegistrar), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/counsel", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/counsel", "bad").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/counsel", "good").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/register", "good").Code)
}

func TestRBACSuperAdminPasses(t *testing.T) {
	r := gin.New()
	r.Use(JWT(stubValidator{claims: &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}}))
	r.GET("/register", RBAC(models.RoleRegistrar), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/register", "good").Code)
}

func TestOptionalJWT(t *testing.T) {
	r := gin.New()
	r.Use(OptionalJWT(stubValidator{claims: &models.JWTClaims{UserID: "u1"}}))
	r.GET("/", func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/", "bad").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "good").Code)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	writer := &stubAuditWriter{}
	r := gin.New()
	r.Use(JWT(stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleCounselor}}))
	r.POST("/enrollments/:id/advance", Audit(writer, nil, models.AuditActionStageTransition, "enrollment"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/enrollments/:id/retreat", Audit(writer, nil, models.AuditActionStageTransition, "enrollment"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	require.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/enrollments/enr-1/advance", "good").Code)
	require.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/enrollments/enr-1/retreat", "good").Code)

	require.Len(t, writer.logs, 1)
	log := writer.logs[0]
	assert.Equal(t, models.AuditActionStageTransition, log.Action)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "enr-1", *log.ResourceID)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "u1", *log.UserID)
	assert.Contains(t, string(log.NewValues), `"path":"/enrollments/:id/advance"`)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &stubObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/enrollments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/enrollments/enr-1", "")
	serve(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, []string{"GET /enrollments/:id", "GET unmatched"}, observer.paths)
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	serve(r, http.MethodGet, "/", "")
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
