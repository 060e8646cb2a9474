package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/plante-app/plante-notify/backend"
	"github.com/plante-app/plante-notify/fields"
)

func newBridgedManager(t *testing.T) *Manager {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	bridge := NewPageBridge()
	m := NewManager(bridge, bridge, backend.New(srv.URL, logrus.New()), logrus.New())
	m.Bridge = bridge
	m.Clock = &fields.MockClock{Timestamp: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	return m
}

func serveEnable(m *Manager, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/notifications/register", m.Enable)
	router.POST("/notifications/unregister", m.Disable)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestEnableEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			"granted with page token",
			`{"userId":"u1","permission":"granted","fcmToken":"fcm-from-page"}`,
			http.StatusOK,
		},
		{
			"denied",
			`{"userId":"u1","permission":"denied"}`,
			http.StatusForbidden,
		},
		{
			"missing user id",
			`{"permission":"granted","fcmToken":"fcm-from-page"}`,
			http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBridgedManager(t)
			w := serveEnable(m, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var res map[string]any
			json.Unmarshal(w.Body.Bytes(), &res)
			if res["fcmToken"] != "fcm-from-page" {
				t.Errorf("fcmToken = %v, want fcm-from-page", res["fcmToken"])
			}
			if _, warned := res["warning"]; warned {
				t.Error("unexpected warning with a healthy backend")
			}
		})
	}
}

func TestEnableEndpointBackendWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"down"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	bridge := NewPageBridge()
	m := NewManager(bridge, bridge, backend.New(srv.URL, logrus.New()), logrus.New())
	m.Bridge = bridge

	w := serveEnable(m, `{"userId":"u1","permission":"granted","fcmToken":"fcm-from-page"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite the backend failure: %s", w.Code, w.Body.String())
	}
	var res map[string]any
	json.Unmarshal(w.Body.Bytes(), &res)
	if res["fcmToken"] != "fcm-from-page" {
		t.Errorf("fcmToken = %v, want the token alongside the warning", res["fcmToken"])
	}
	if res["warning"] == "" || res["warning"] == nil {
		t.Error("response is missing the backend warning")
	}
}

func TestDisableEndpoint(t *testing.T) {
	m := newBridgedManager(t)
	m.Bridge.Report(PermissionGranted, "fcm-from-page")
	if _, err := m.EnsureRegistered(context.Background(), "u1"); err != nil {
		t.Fatalf("setup registration failed: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/notifications/unregister", m.Disable)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/unregister", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if m.Token() != nil {
		t.Error("token survived unregister")
	}
}
