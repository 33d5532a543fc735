package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/session"
)

func testEngine(t *testing.T) (*gin.Engine, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewStore(zap.NewNop())
	r := gin.New()
	r.Use(sessions.Sessions("clinic_session", cookie.NewStore([]byte("test-secret-32-bytes-minimum-ok!"))))

	r.POST("/set", func(c *gin.Context) {
		store.Set(c, c.PostForm("token"), models.Role(c.PostForm("role")))
		c.Status(http.StatusOK)
	})

	return r, store
}

func login(t *testing.T, r *gin.Engine, token, role string) []*http.Cookie {
	t.Helper()
	form := url.Values{"token": {token}, "role": {role}}
	req := httptest.NewRequest(http.MethodPost, "/set", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func get(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRoleWithoutSessionRedirectsToLogin(t *testing.T) {
	r, store := testEngine(t)
	r.GET("/client/dashboard", RequireRole(store, models.RoleClient), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})

	w := get(r, "/client/dashboard", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/client", w.Header().Get("Location"))
}

func TestRequireRoleWrongRoleRedirectsToLogin(t *testing.T) {
	protected := map[string]models.Role{
		"/client/dashboard": models.RoleClient,
		"/admin/main":       models.RoleMainAdmin,
		"/admin/reception":  models.RoleReceptionist,
	}

	for path, required := range protected {
		for _, role := range []models.Role{models.RoleClient, models.RoleMainAdmin, models.RoleReceptionist} {
			if role == required {
				continue
			}
			r, store := testEngine(t)
			r.GET(path, RequireRole(store, required), func(c *gin.Context) {
				c.String(http.StatusOK, "ok")
			})

			cookies := login(t, r, "tok", role.String())
			w := get(r, path, cookies)
			assert.Equal(t, http.StatusFound, w.Code, "%s as %s", path, role)
			assert.Equal(t, "/login/client", w.Header().Get("Location"), "%s as %s", path, role)
		}
	}
}

func TestRequireRoleMatchExposesTokenAndRole(t *testing.T) {
	r, store := testEngine(t)
	r.GET("/admin/reception", RequireRole(store, models.RoleReceptionist), func(c *gin.Context) {
		assert.Equal(t, "tok-r", TokenFromContext(c))
		assert.Equal(t, models.RoleReceptionist, RoleFromContext(c))
		c.String(http.StatusOK, "ok")
	})

	cookies := login(t, r, "tok-r", "receptionist")
	w := get(r, "/admin/reception", cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestNoRouteRedirectsByRole(t *testing.T) {
	cases := []struct {
		role string
		want string
	}{
		{"client", "/client/dashboard"},
		{"main-admin", "/admin/main"},
		{"receptionist", "/admin/reception"},
	}

	for _, tc := range cases {
		r, store := testEngine(t)
		r.NoRoute(NoRouteHandler(store))

		cookies := login(t, r, "tok", tc.role)
		w := get(r, "/no/such/page", cookies)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, tc.want, w.Header().Get("Location"), "role %s", tc.role)
	}
}

func TestNoRouteWithoutSessionGoesToClientLogin(t *testing.T) {
	r, store := testEngine(t)
	r.NoRoute(NoRouteHandler(store))

	w := get(r, "/anything", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/client", w.Header().Get("Location"))
}

func TestRequestIDMiddlewareEchoesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "given-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get("X-Request-Id"))

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w2.Header().Get("X-Request-Id"))
}

func TestLoginRateLimiterBlocksOverBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewLoginRateLimiter(zap.NewNop(), 3, time.Minute)
	r := gin.New()
	r.POST("/login/client", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/client", nil))
		require.Equal(t, http.StatusOK, w.Code, "attempt %d", i+1)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/client", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
