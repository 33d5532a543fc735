package reception

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

func asReceptionist() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(middleware.TokenContextKey), "tok")
		c.Set(string(middleware.RoleContextKey), models.RoleReceptionist)
		c.Next()
	}
}

func newEngine(t *testing.T, backend http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewStore(zap.NewNop())
	h := NewReceptionHandlers(api.NewClient(srv.URL, zap.NewNop()), store, zap.NewNop())

	r := gin.New()
	tmpl, err := templates.Load()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions("clinic_session", cookie.NewStore([]byte("test-secret-32-bytes-minimum-ok!"))))

	grp := r.Group("/admin/reception", asReceptionist())
	grp.GET("", h.ShowDashboard)
	grp.POST("/bookings/:id", h.HandleAction)

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

func TestDashboardOffersActionsPerStatus(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write(listPayload(
			map[string]any{"_id": "b1", "status": "pending", "user": map[string]string{"name": "Amira", "email": "a@x.y"}},
			map[string]any{"_id": "b2", "status": "approved"},
			map[string]any{"_id": "b3", "status": "completed"},
		))
	})

	w := get(r, "/admin/reception", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	// pending row: approve and cancel
	assert.Contains(t, body, "/admin/reception/bookings/b1")
	assert.Contains(t, body, `value="approve"`)
	// approved row: complete and cancel
	assert.Contains(t, body, `value="complete"`)
	assert.Contains(t, body, `value="cancel"`)
	// terminal row gets no controls
	assert.NotContains(t, body, "/admin/reception/bookings/b3")
}

func TestDashboardStatusFilter(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write(listPayload(
			map[string]any{"_id": "b1", "status": "pending", "date": "2026-09-02"},
			map[string]any{"_id": "b2", "status": "approved", "date": "2026-09-03"},
		))
	})

	w := get(r, "/admin/reception?status=approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2026-09-03")
	assert.NotContains(t, w.Body.String(), "2026-09-02")
}

func TestApprovePendingBooking(t *testing.T) {
	var patched atomic.Bool
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPatch {
			patched.Store(true)
			assert.Equal(t, "/receptionist/bookings/b1", req.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "approved", body["status"])
			w.Write([]byte(`{"_id":"b1","status":"approved"}`))
			return
		}
		w.Write(listPayload(map[string]any{"_id": "b1", "status": "pending"}))
	})

	w := post(r, "/admin/reception/bookings/b1", url.Values{"action": {"approve"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, patched.Load())

	page := get(r, "/admin/reception", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "Booking marked as approved")
}

func TestStaleApproveRejectedBeforeRequest(t *testing.T) {
	// record is already approved; a second approve press must die locally
	var patched atomic.Bool
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPatch {
			patched.Store(true)
			return
		}
		w.Write(listPayload(map[string]any{"_id": "b1", "status": "approved"}))
	})

	w := post(r, "/admin/reception/bookings/b1", url.Values{"action": {"approve"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.False(t, patched.Load())

	page := get(r, "/admin/reception", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "not allowed for a approved booking")
}

func TestRevertNotOfferedToReception(t *testing.T) {
	var patched atomic.Bool
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPatch {
			patched.Store(true)
			return
		}
		w.Write(listPayload(map[string]any{"_id": "b1", "status": "approved"}))
	})

	w := post(r, "/admin/reception/bookings/b1", url.Values{"action": {"revert"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.False(t, patched.Load(), "revert is an admin-only override")
}

func TestUnknownActionRejected(t *testing.T) {
	r := newEngine(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("[]"))
	})

	w := post(r, "/admin/reception/bookings/b1", url.Values{"action": {"promote"}})
	assert.Equal(t, http.StatusFound, w.Code)

	page := get(r, "/admin/reception", w.Result().Cookies())
	assert.Contains(t, page.Body.String(), "Unknown action")
}
