package domain

import (
	"context"
	"time"

	"cabanas/internal/models"
)

type CabinRepository interface {
	ListCabins(ctx context.Context) ([]*models.Cabin, error)
	GetCabin(ctx context.Context, id string) (*models.Cabin, error)
	UpsertCabin(ctx context.Context, cabin *models.Cabin) error
}

// ReservationStore persists bookings. CreateBookingWithLock re-checks overlap and
// inserts inside one transaction.
type ReservationStore interface {
	FindOverlapping(ctx context.Context, cabinID string, checkIn, checkOut time.Time, statuses []string) ([]*models.Booking, error)
	CheckAvailability(ctx context.Context, cabinID string, checkIn, checkOut time.Time) (bool, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

type Repository interface {
	CabinRepository
	ReservationStore
	Ping(ctx context.Context) error
	Close() error
}

// CatalogCache keeps read-mostly catalog data. A miss returns nil without error.
type CatalogCache interface {
	GetCabins(ctx context.Context) ([]*models.Cabin, error)
	SetCabins(ctx context.Context, cabins []*models.Cabin) error
	GetCabin(ctx context.Context, id string) (*models.Cabin, error)
	SetCabin(ctx context.Context, cabin *models.Cabin) error
	InvalidateCabin(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type CabinService interface {
	ListCabins(ctx context.Context) ([]*models.Cabin, error)
	GetCabin(ctx context.Context, id string) (*models.Cabin, error)
}

type BookingService interface {
	CheckAvailability(ctx context.Context, cabinID, checkIn, checkOut string) (bool, error)
	Quote(ctx context.Context, cabinID, checkIn, checkOut string) (*models.Pricing, error)
	CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error)
	Submit(ctx context.Context, req *models.BookingRequest) models.BookingResult
	GetBooking(ctx context.Context, userID, id string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]models.BookingView, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// BookingExporter renders bookings for the front desk. Archive keeps a copy and may
// return an empty path when archiving is off.
type BookingExporter interface {
	WriteBookings(bookings []*models.Booking, from, to time.Time) ([]byte, error)
	Archive(data []byte, from, to time.Time) (string, error)
}
