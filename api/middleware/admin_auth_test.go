package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixelvault/pixelvault-backend/pkg/config"
	"github.com/pixelvault/pixelvault-backend/pkg/security"
)

func adminTestConfig(t *testing.T, username, password string) config.AdminConfig {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return config.AdminConfig{Username: username, PasswordHash: hash}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminBasicAuthRejectsMissingCredentials(t *testing.T) {
	cfg := adminTestConfig(t, "admin", "hunter2")
	handler := AdminBasicAuth(cfg, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if got := resp.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected challenge header")
	}
}

func TestAdminBasicAuthRejectsWrongPassword(t *testing.T) {
	cfg := adminTestConfig(t, "admin", "hunter2")
	handler := AdminBasicAuth(cfg, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.SetBasicAuth("admin", "wrong")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminBasicAuthRejectsWrongUsername(t *testing.T) {
	cfg := adminTestConfig(t, "admin", "hunter2")
	handler := AdminBasicAuth(cfg, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.SetBasicAuth("intruder", "hunter2")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminBasicAuthAllowsValidCredentials(t *testing.T) {
	cfg := adminTestConfig(t, "admin", "hunter2")
	handler := AdminBasicAuth(cfg, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.SetBasicAuth("admin", "hunter2")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
