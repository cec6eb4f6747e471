package models

import (
	"math"
	"time"
)

type Pricing struct {
	Nights   int   `json:"nights"`
	Price    int64 `json:"price"`
	Subtotal int64 `json:"subtotal"`
	Taxes    int64 `json:"taxes"`
	Total    int64 `json:"total"`
}

// ComputePricing applies the nightly price and tax rate for a stay of nights.
func ComputePricing(price int64, nights int) Pricing {
	subtotal := price * int64(nights)
	taxes := int64(math.Round(float64(subtotal) * TaxRate))
	return Pricing{
		Nights:   nights,
		Price:    price,
		Subtotal: subtotal,
		Taxes:    taxes,
		Total:    subtotal + taxes,
	}
}

// NightsBetween counts calendar days between two dates in the same location.
func NightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
