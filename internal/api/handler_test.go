package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/logger"
	"mirror/pkg/errors"
	"mirror/pkg/health"
)

type fakePermissions struct {
	notification  bool
	accessibility bool
	opened        []string
	err           error
}

func (f *fakePermissions) NotificationAccessEnabled(ctx context.Context) (bool, error) {
	return f.notification, f.err
}

func (f *fakePermissions) AccessibilityAccessEnabled(ctx context.Context) (bool, error) {
	return f.accessibility, f.err
}

func (f *fakePermissions) OpenNotificationSettings(ctx context.Context) error {
	f.opened = append(f.opened, "notification")
	return f.err
}

func (f *fakePermissions) OpenAccessibilitySettings(ctx context.Context) error {
	f.opened = append(f.opened, "accessibility")
	return f.err
}

func newRouter(p Permissions, stream http.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(p, stream, logger.NopLogger()).RegisterRoutes(r)
	return r
}

func call(t *testing.T, r http.Handler, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestInvoke_Methods(t *testing.T) {
	perms := &fakePermissions{notification: true, accessibility: false}
	r := newRouter(perms, nil)

	tests := []struct {
		path string
		want interface{}
	}{
		{path: "/api/v1/channels/whatsapp_notifications/checkNotificationAccess", want: true},
		{path: "/api/v1/channels/permissions/checkAccessibilityAccess", want: false},
		{path: "/api/v1/channels/permissions/openNotificationSettings", want: true},
		{path: "/api/v1/channels/permissions/openAccessibilitySettings", want: true},
		{path: "/api/v1/channels/whatsapp_accessibility/onWhatsAppMessage", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := call(t, r, tt.path, "")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.want, body["result"])
		})
	}
	assert.Equal(t, []string{"notification", "accessibility"}, perms.opened)
}

func TestInvoke_NotImplemented(t *testing.T) {
	r := newRouter(&fakePermissions{}, nil)

	for _, path := range []string{
		"/api/v1/channels/permissions/requestRoot",
		"/api/v1/channels/unknown/checkNotificationAccess",
		"/api/v1/channels/whatsapp_notifications/checkAccessibilityAccess",
	} {
		code, body := call(t, r, path, "")
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Equal(t, "NOT_IMPLEMENTED", body["error_code"], path)
	}
}

func TestCallStatus(t *testing.T) {
	assert.Equal(t, "not_implemented", callStatus(errors.ErrNotImplemented.WithDetail("method", "requestRoot")))
	assert.Equal(t, "error", callStatus(errors.ErrServiceUnavailable))
	assert.Equal(t, "error", callStatus(stderrors.New("boom")))
}

func TestInvoke_WithArguments(t *testing.T) {
	r := newRouter(&fakePermissions{}, nil)

	code, body := call(t, r, "/api/v1/channels/whatsapp_accessibility/onWhatsAppMessage",
		`{"from":"Alice","body":"Hello there","timestamp":1700000000000,"type":"whatsapp"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["result"])

	code, body = call(t, r, "/api/v1/channels/whatsapp_accessibility/onWhatsAppMessage", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])
}

func TestInvoke_ServiceError(t *testing.T) {
	perms := &fakePermissions{err: errors.ErrServiceUnavailable.WithCause(stderrors.New("redis down"))}
	r := newRouter(perms, nil)

	code, body := call(t, r, "/api/v1/channels/whatsapp_notifications/checkNotificationAccess", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["error_code"])
}

func TestStream(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakePermissions{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/channels/whatsapp_accessibility/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	w = httptest.NewRecorder()
	newRouter(&fakePermissions{}, stream).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/channels/whatsapp_accessibility/stream", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

type downChecker struct{}

func (downChecker) Name() string                    { return "redis" }
func (downChecker) Check(ctx context.Context) error { return stderrors.New("down") }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		checkers  []health.Checker
		lifecycle string
		wantCode  int
	}{
		{name: "connected", lifecycle: "connected", wantCode: http.StatusOK},
		{name: "destroyed", lifecycle: "destroyed", wantCode: http.StatusServiceUnavailable},
		{name: "dependency down", checkers: []health.Checker{downChecker{}}, lifecycle: "connected", wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := health.NewCheckerRegistry()
			for _, c := range tt.checkers {
				registry.Register(c)
			}
			r := gin.New()
			r.GET("/health", HealthHandler(registry, func() string { return tt.lifecycle }))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantCode, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.lifecycle, body["lifecycle"])
		})
	}
}
