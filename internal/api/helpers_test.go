package api

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cabanas/internal/config"
	"cabanas/internal/database"
	"cabanas/internal/domain"
	"cabanas/internal/events"
	"cabanas/internal/export"
	"cabanas/internal/models"
	"cabanas/internal/repository"
	"cabanas/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "auth.cabanas.test"
	testAudience = "cabanas"
)

var testNow = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Identity: config.IdentityConfig{
			Secret:   testSecret,
			Issuer:   testIssuer,
			Audience: testAudience,
		},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "admin-key", Extra: "admin-extra", Name: "front desk", Permissions: []string{permExportBookings, permReadBookings}},
				{Key: "viewer-key", Extra: "viewer-extra", Name: "viewer", Permissions: []string{"read:cabins"}},
			},
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://cabanas.example"}},
	}
}

// newTestServices wires the real services over a file-backed SQLite store.
func newTestServices(t *testing.T) Services {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, db.UpsertCabin(ctx, &models.Cabin{ID: "zen", Name: "Refugio Zen", Price: 290, MaxGuests: 2, SortOrder: 1}))
	require.NoError(t, db.UpsertCabin(ctx, &models.Cabin{ID: "villa", Name: "Villa Paraíso", Price: 450, MaxGuests: 6, SortOrder: 2}))

	cache := repository.NewMemoryCatalogCache(time.Minute)
	cabins := service.NewCabinService(db, cache, &logger)
	bookings := service.NewBookingService(db, cabins, cache, events.NewEventBus(), service.BookingOptions{
		SubmissionLimit: 100,
		Now:             func() time.Time { return testNow },
	}, &logger)

	return Services{
		Cabins:   cabins,
		Bookings: bookings,
		Exporter: export.NewExporter("", &logger),
		Ping:     db.Ping,
	}
}

func signToken(t *testing.T, subject string, mutate func(c *jwt.RegisteredClaims)) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	if mutate != nil {
		mutate(claims)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func bookingRequest(cabinID, checkIn, checkOut string, price int64, guests int) *models.BookingRequest {
	in, _ := time.Parse(models.DateLayout, checkIn)
	out, _ := time.Parse(models.DateLayout, checkOut)
	p := models.ComputePricing(price, models.NightsBetween(in, out))
	return &models.BookingRequest{
		CabinID:  cabinID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   guests,
		Name:     "Ana Pérez",
		Email:    "ana@example.com",
		Phone:    "+52 55 1234 5678",
		Nights:   p.Nights,
		Price:    p.Price,
		Subtotal: p.Subtotal,
		Taxes:    p.Taxes,
		Total:    p.Total,
	}
}

func errConflictForTest() error {
	return fmt.Errorf("create booking: %w", domain.ErrNotAvailable)
}
