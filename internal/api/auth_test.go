package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cabanas/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyAuth_Authorize(t *testing.T) {
	auth := NewAPIKeyAuth(testAPIConfig().Auth)

	client, err := auth.Authorize("admin-key", "admin-extra", permExportBookings)
	require.NoError(t, err)
	assert.Equal(t, "front desk", client.Name)

	_, err = auth.Authorize("", "", permExportBookings)
	assert.ErrorIs(t, err, errMissingAPIKey)

	_, err = auth.Authorize("nope", "x", permExportBookings)
	assert.ErrorIs(t, err, errInvalidAPIKey)

	_, err = auth.Authorize("admin-key", "wrong", permExportBookings)
	assert.ErrorIs(t, err, errInvalidExtra)

	_, err = auth.Authorize("viewer-key", "viewer-extra", permExportBookings)
	assert.ErrorIs(t, err, errPermissionDenied)
}

func TestAPIKeyAuth_EmptyPermissionsAllowAll(t *testing.T) {
	auth := NewAPIKeyAuth(config.APIAuthConfig{
		Enabled: true,
		APIKeys: []config.APIClientKey{{Key: "k", Extra: "e"}},
	})

	_, err := auth.Authorize("k", "e", permReadBookings)
	assert.NoError(t, err)
}

func TestAPIKeyAuth_DisabledRefusesAdmin(t *testing.T) {
	auth := NewAPIKeyAuth(config.APIAuthConfig{Enabled: false})

	_, err := auth.Authorize("k", "e", permExportBookings)
	assert.ErrorIs(t, err, errAdminDisabled)
}

func TestAPIKeyAuth_Require(t *testing.T) {
	auth := NewAPIKeyAuth(testAPIConfig().Auth)
	handler := auth.Require(permExportBookings, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		key    string
		extra  string
		status int
	}{
		{"ok", "admin-key", "admin-extra", http.StatusNoContent},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad extra", "admin-key", "nope", http.StatusUnauthorized},
		{"no permission", "viewer-key", "viewer-extra", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings/export", nil)
			req.Header.Set("X-API-Key", tt.key)
			req.Header.Set("X-API-Extra", tt.extra)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 2})
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	unlimited := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow("a"))
	}
}

func TestAPIKeyAuth_ClientKey(t *testing.T) {
	auth := NewAPIKeyAuth(testAPIConfig().Auth)

	tests := []struct {
		name  string
		key   string
		extra string
		want  string
	}{
		{"verified admin", "admin-key", "admin-extra", "key:admin-key"},
		{"verified without permission", "viewer-key", "viewer-extra", "key:viewer-key"},
		{"unknown key", "bogus", "admin-extra", "10.0.0.7"},
		{"wrong extra", "admin-key", "bogus", "10.0.0.7"},
		{"no headers", "", "", "10.0.0.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.clientKey(tt.key, tt.extra, "10.0.0.7"))
		})
	}

	cfg := testAPIConfig().Auth
	cfg.Enabled = false
	assert.Equal(t, "10.0.0.7", NewAPIKeyAuth(cfg).clientKey("admin-key", "admin-extra", "10.0.0.7"))
}
