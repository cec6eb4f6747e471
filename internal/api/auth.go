package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"cabanas/internal/config"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"

	permExportBookings = "export:bookings"
	permReadBookings   = "read:bookings"
)

var (
	errAdminDisabled    = errors.New("admin api is disabled")
	errMissingAPIKey    = errors.New("missing api key headers")
	errInvalidAPIKey    = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
)

// APIKeyAuth guards the administrative endpoints with static key pairs.
type APIKeyAuth struct {
	cfg     config.APIAuthConfig
	clients map[string]config.APIClientKey
}

func NewAPIKeyAuth(cfg config.APIAuthConfig) *APIKeyAuth {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &APIKeyAuth{cfg: cfg, clients: m}
}

func (a *APIKeyAuth) apiKeyHeader() string {
	h := strings.ToLower(strings.TrimSpace(a.cfg.HeaderAPIKey))
	if h == "" {
		return apiKeyHeaderDefault
	}
	return h
}

func (a *APIKeyAuth) extraHeader() string {
	h := strings.ToLower(strings.TrimSpace(a.cfg.HeaderExtra))
	if h == "" {
		return apiExtraHeaderDefault
	}
	return h
}

// verify checks the key pair only.
func (a *APIKeyAuth) verify(apiKey, extra string) (config.APIClientKey, error) {
	if !a.cfg.Enabled {
		return config.APIClientKey{}, errAdminDisabled
	}

	apiKey, extra = strings.TrimSpace(apiKey), strings.TrimSpace(extra)
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingAPIKey
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidExtra
	}
	return client, nil
}

// Authorize checks the key pair and that the client holds permission. Admin access
// is refused outright while auth is disabled.
func (a *APIKeyAuth) Authorize(apiKey, extra, permission string) (config.APIClientKey, error) {
	client, err := a.verify(apiKey, extra)
	if err != nil {
		return config.APIClientKey{}, err
	}

	// If permissions list is empty, treat as allow-all.
	if len(client.Permissions) == 0 {
		return client, nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == permission {
			return client, nil
		}
	}
	return config.APIClientKey{}, errPermissionDenied
}

// clientKey picks the rate limit bucket. Only a verified key pair gets its own
// bucket; anything else is counted against the caller's host.
func (a *APIKeyAuth) clientKey(apiKey, extra, host string) string {
	client, err := a.verify(apiKey, extra)
	if err != nil {
		return host
	}
	return "key:" + client.Key
}

// Require wraps an admin handler.
func (a *APIKeyAuth) Require(permission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := a.Authorize(r.Header.Get(a.apiKeyHeader()), r.Header.Get(a.extraHeader()), permission)
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, errPermissionDenied), errors.Is(err, errAdminDisabled):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusUnauthorized, err.Error())
		}
	})
}
