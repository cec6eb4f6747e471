package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cabanas/internal/config"
	"cabanas/internal/domain"
	"cabanas/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// Services are the collaborators behind both API surfaces.
type Services struct {
	Cabins   domain.CabinService
	Bookings domain.BookingService
	Exporter domain.BookingExporter
	// Ping reports store health for /healthz.
	Ping func(ctx context.Context) error
}

// HTTPServer exposes the catalog and booking API consumed by the site.
type HTTPServer struct {
	cfg      config.APIConfig
	services Services
	identity *IdentityVerifier
	admin    *APIKeyAuth
	limiter  *rateLimiter
	server   *http.Server
	logger   zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, services Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		services: services,
		identity: NewIdentityVerifier(cfg.Identity),
		admin:    NewAPIKeyAuth(cfg.Auth),
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   logger.With().Str("component", "http").Logger(),
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler builds the router with its middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, s.metricsMiddleware, s.corsMiddleware, s.rateLimitMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.identityMiddleware)

	api.HandleFunc("/cabins", s.handleListCabins).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/cabins/{id}", s.handleGetCabin).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/cabins/{id}/availability", s.handleAvailability).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/cabins/{id}/quote", s.handleQuote).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/bookings", s.handleCreateBooking).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", s.handleGetBooking).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/me/bookings", s.handleMyBookings).Methods(http.MethodGet, http.MethodOptions)

	api.Handle("/admin/bookings/export",
		s.admin.Require(permExportBookings, http.HandlerFunc(s.handleExportBookings)),
	).Methods(http.MethodGet)

	return r
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", remoteHost(r)).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.IncHTTP(route, strconv.Itoa(recorder.status))
	})
}

func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.CORS.AllowedOrigins))
	for _, o := range s.cfg.CORS.AllowedOrigins {
		allowed[strings.TrimSpace(o)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.admin.clientKey(r.Header.Get(s.admin.apiKeyHeader()), r.Header.Get(s.admin.extraHeader()), remoteHost(r))
		if !s.limiter.Allow(key) {
			w.Header().Set("Retry-After", "1")
			writeDomainError(w, domain.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identityMiddleware attaches the bearer token subject. Anonymous requests pass
// through; a bad token is rejected.
func (s *HTTPServer) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, present := bearerToken(r.Header.Get("Authorization"))
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := s.identity.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
