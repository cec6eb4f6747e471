package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Booking is a stored reservation. Pricing fields are a snapshot taken at creation.
type Booking struct {
	ID              string    `json:"id"`
	CabinID         string    `json:"cabin_id"`
	CabinName       string    `json:"cabin_name"`
	UserID          string    `json:"user_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Guests          int       `json:"guests"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	Nights          int       `json:"nights"`
	Price           int64     `json:"price"`
	Subtotal        int64     `json:"subtotal"`
	Taxes           int64     `json:"taxes"`
	Total           int64     `json:"total"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsPast reports whether the stay ended before day.
func (b *Booking) IsPast(day time.Time) bool {
	return b.CheckOut.Before(day)
}

// IsActive reports whether day falls within the stay, both ends included.
func (b *Booking) IsActive(day time.Time) bool {
	return !b.CheckIn.After(day) && !b.CheckOut.Before(day)
}

// Overlaps reports whether the booking shares a night with [checkIn, checkOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	// starts no later than the request and ends after its start
	if !b.CheckIn.After(checkIn) && b.CheckOut.After(checkIn) {
		return true
	}
	// starts inside the request
	if b.CheckIn.After(checkIn) && b.CheckIn.Before(checkOut) {
		return true
	}
	// lies within the request
	return !b.CheckIn.Before(checkIn) && !b.CheckOut.After(checkOut)
}

// NewReference builds a guest-facing booking id such as RES-240710-3F9A1C2B.
func NewReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", ReferencePrefix, now.Format("060102"), suffix)
}

// BookingRequest is the payload submitted from the booking form.
type BookingRequest struct {
	CabinID         string `json:"cabin_id" validate:"required"`
	UserID          string `json:"-"`
	CheckIn         string `json:"check_in" validate:"required"`
	CheckOut        string `json:"check_out" validate:"required"`
	Guests          int    `json:"guests" validate:"required,min=1"`
	Name            string `json:"name" validate:"required,min=2,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,min=6,max=32"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
	Nights          int    `json:"nights" validate:"required,min=1"`
	Price           int64  `json:"price" validate:"required,gt=0"`
	Subtotal        int64  `json:"subtotal" validate:"required,gt=0"`
	Taxes           int64  `json:"taxes" validate:"min=0"`
	Total           int64  `json:"total" validate:"required,gt=0"`
}

// BookingResult is what the booking boundary hands back; it never carries a Go error.
type BookingResult struct {
	Success          bool              `json:"success"`
	BookingID        string            `json:"booking_id,omitempty"`
	Error            string            `json:"error,omitempty"`
	Kind             string            `json:"kind,omitempty"`
	Retryable        bool              `json:"retryable,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

// BookingView decorates a booking with display flags for the reservations list.
type BookingView struct {
	Booking
	IsPast   bool `json:"is_past"`
	IsActive bool `json:"is_active"`
}
