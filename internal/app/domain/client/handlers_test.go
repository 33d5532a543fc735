package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alimponya/clinic-portal/internal/app/api"
	"github.com/alimponya/clinic-portal/internal/app/middleware"
	"github.com/alimponya/clinic-portal/internal/app/models"
	"github.com/alimponya/clinic-portal/internal/app/session"
	"github.com/alimponya/clinic-portal/internal/app/templates"
)

// asRole stands in for RequireRole in handler tests: the gate itself is
// covered in the middleware package.
func asRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(middleware.TokenContextKey), "tok")
		c.Set(string(middleware.RoleContextKey), role)
		c.Next()
	}
}

func newEngine(t *testing.T, backend http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewStore(zap.NewNop())
	h := NewClientHandlers(api.NewClient(srv.URL, zap.NewNop()), store, zap.NewNop())

	r := gin.New()
	tmpl, err := templates.Load()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions("clinic_session", cookie.NewStore([]byte("test-secret-32-bytes-minimum-ok!"))))

	grp := r.Group("/client", asRole(models.RoleClient))
	grp.GET("/dashboard", h.ShowDashboard)
	grp.POST("/bookings", h.HandleCreate)
	grp.POST("/bookings/:id/cancel", h.HandleCancel)

	return r
}

func listPayload(bookings ...map[string]any) []byte {
	buf, _ := json.Marshal(bookings)
	return buf
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

func post(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDashboardShowsCancelOnlyWhereAllowed(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write(listPayload(
			map[string]any{"_id": "b1", "date": "2026-09-02", "time": "10:00", "status": "pending"},
			map[string]any{"_id": "b2", "date": "2026-09-03", "time": "11:00", "status": "approved"},
			map[string]any{"_id": "b3", "date": "2026-09-04", "time": "12:00", "status": "completed"},
			map[string]any{"_id": "b4", "date": "2026-09-05", "time": "13:00", "status": "cancelled"},
		))
	})

	w := get(r, "/client/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "/client/bookings/b1/cancel")
	assert.Contains(t, body, "/client/bookings/b2/cancel")
	assert.NotContains(t, body, "/client/bookings/b3/cancel", "completed is terminal")
	assert.NotContains(t, body, "/client/bookings/b4/cancel", "cancelled is terminal")
}

func TestCreateBookingSuccessRedirectsWithFlash(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "2026-09-10", body["date"])
			assert.Equal(t, "14:30", body["time"])
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"msg":"Booking created","booking":{"_id":"b9","status":"pending"}}`))
			return
		}
		w.Write(listPayload(map[string]any{"_id": "b9", "status": "pending"}))
	})

	w := post(r, "/client/bookings", url.Values{"date": {"2026-09-10"}, "time": {"14:30"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/client/dashboard", w.Header().Get("Location"))

	page := get(r, "/client/dashboard", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "Booking successful!")
}

func TestCreateBookingMissingFieldsKeepsFormValues(t *testing.T) {
	var createHit atomic.Bool
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			createHit.Store(true)
		}
		w.Write([]byte("[]"))
	})

	w := post(r, "/client/bookings", url.Values{"date": {"2026-09-10"}, "time": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select date and time")
	assert.Contains(t, w.Body.String(), `value="2026-09-10"`)
	assert.False(t, createHit.Load(), "local validation must not reach the backend")
}

func TestCreateBookingBackendFailureKeepsFormValues(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"msg":"Slot already taken"}`))
			return
		}
		w.Write([]byte("[]"))
	})

	w := post(r, "/client/bookings", url.Values{"date": {"2026-09-10"}, "time": {"14:30"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Slot already taken")
	assert.Contains(t, w.Body.String(), `value="2026-09-10"`)
	assert.Contains(t, w.Body.String(), `value="14:30"`)
}

func TestCancelPendingBookingPatchesCancelled(t *testing.T) {
	var patched atomic.Bool
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPatch {
			patched.Store(true)
			assert.Equal(t, "/bookings/b1", req.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "cancelled", body["status"])
			w.Write([]byte(`{"_id":"b1","status":"cancelled"}`))
			return
		}
		w.Write(listPayload(map[string]any{"_id": "b1", "status": "pending"}))
	})

	w := post(r, "/client/bookings/b1/cancel", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, patched.Load())

	page := get(r, "/client/dashboard", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "Booking cancelled")
}

func TestCancelTerminalBookingNeverReachesBackend(t *testing.T) {
	var patched atomic.Bool
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPatch {
			patched.Store(true)
			return
		}
		w.Write(listPayload(map[string]any{"_id": "b3", "status": "completed"}))
	})

	w := post(r, "/client/bookings/b3/cancel", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.False(t, patched.Load(), "terminal bookings are rejected before any PATCH")

	page := get(r, "/client/dashboard", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "This booking can no longer be cancelled")
}

func TestCancelUnknownBookingFlashesNotFound(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("[]"))
	})

	w := post(r, "/client/bookings/nope/cancel", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)

	page := get(r, "/client/dashboard", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "Booking not found")
}
