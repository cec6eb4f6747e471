package models

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// ActiveStatuses are the statuses that hold a cabin's dates.
var ActiveStatuses = []string{StatusConfirmed, StatusPending}

const (
	// DateLayout is the wire and storage format for stay dates.
	DateLayout = "2006-01-02"

	// TaxRate is applied to the subtotal and rounded to whole currency units.
	TaxRate = 0.12

	// ReferencePrefix starts every booking reference shown to guests.
	ReferencePrefix = "RES"
)

const (
	// DefaultMaxAdvanceDays limits how far ahead a stay may start.
	DefaultMaxAdvanceDays = 365
	// DefaultCatalogCacheTTL is the catalog cache lifetime in seconds.
	DefaultCatalogCacheTTL = 30 * 60
	// DefaultSubmissionLimit caps a user's submissions per window.
	DefaultSubmissionLimit = 5
	// DefaultSubmissionWindow is the submission window in seconds.
	DefaultSubmissionWindow = 60
)
