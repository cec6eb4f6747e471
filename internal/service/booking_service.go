package service

import (
	"context"
	"errors"
	"time"

	"cabanas/internal/domain"
	"cabanas/internal/events"
	"cabanas/internal/metrics"
	"cabanas/internal/models"
	"cabanas/internal/retry"

	"github.com/rs/zerolog"
)

const referenceAttempts = 3

// BookingOptions tunes the booking rules. Zero values fall back to defaults.
type BookingOptions struct {
	MaxAdvanceDays   int
	SubmissionLimit  int
	SubmissionWindow time.Duration
	Location         *time.Location
	Retry            retry.Policy
	Now              func() time.Time
}

type BookingService struct {
	store     domain.ReservationStore
	cabins    domain.CabinService
	cache     domain.CatalogCache
	eventBus  domain.EventPublisher
	validator *requestValidator
	opts      BookingOptions
	logger    *zerolog.Logger
}

func NewBookingService(
	store domain.ReservationStore,
	cabins domain.CabinService,
	cache domain.CatalogCache,
	eventBus domain.EventPublisher,
	opts BookingOptions,
	logger *zerolog.Logger,
) *BookingService {
	if opts.MaxAdvanceDays <= 0 {
		opts.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if opts.SubmissionLimit <= 0 {
		opts.SubmissionLimit = models.DefaultSubmissionLimit
	}
	if opts.SubmissionWindow <= 0 {
		opts.SubmissionWindow = models.DefaultSubmissionWindow * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BookingService{
		store:     store,
		cabins:    cabins,
		cache:     cache,
		eventBus:  eventBus,
		validator: newRequestValidator(),
		opts:      opts,
		logger:    logger,
	}
}

// today is the current calendar day at the resort, as a UTC midnight date.
func (s *BookingService) today() time.Time {
	now := s.opts.Now().In(s.opts.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckAvailability reports whether the cabin is free for [checkIn, checkOut).
func (s *BookingService) CheckAvailability(ctx context.Context, cabinID, checkIn, checkOut string) (bool, error) {
	in, out, fields := parseStay(checkIn, checkOut)
	if fields != nil {
		return false, domain.NewValidationError(fields)
	}

	var available bool
	err := retry.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
		var err error
		available, err = s.store.CheckAvailability(ctx, cabinID, in, out)
		return err
	}, isTransient)
	if err != nil {
		return false, err
	}

	metrics.IncAvailability(available)
	return available, nil
}

// Quote prices a stay at the cabin's current nightly rate.
func (s *BookingService) Quote(ctx context.Context, cabinID, checkIn, checkOut string) (*models.Pricing, error) {
	in, out, fields := parseStay(checkIn, checkOut)
	if fields != nil {
		return nil, domain.NewValidationError(fields)
	}

	cabin, err := s.cabins.GetCabin(ctx, cabinID)
	if err != nil {
		return nil, err
	}

	pricing := models.ComputePricing(cabin.Price, models.NightsBetween(in, out))
	return &pricing, nil
}

// CreateBooking validates the request and atomically stores a CONFIRMED booking.
func (s *BookingService) CreateBooking(ctx context.Context, req *models.BookingRequest) (booking *models.Booking, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBooking(start)
		metrics.IncBooking(outcomeOf(err))
	}()

	if req == nil || req.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	booking, err = s.buildBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.checkSubmissionLimit(ctx, req.UserID); err != nil {
		return nil, err
	}

	if err := s.insert(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			s.publishEvent(events.EventBookingConflict, booking)
		}
		return nil, err
	}

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("cabin_id", booking.CabinID).
		Str("user_id", booking.UserID).
		Str("check_in", booking.CheckIn.Format(models.DateLayout)).
		Str("check_out", booking.CheckOut.Format(models.DateLayout)).
		Msg("booking created")

	if s.cache != nil {
		if err := s.cache.InvalidateCabin(ctx, booking.CabinID); err != nil {
			s.logger.Warn().Err(err).Str("cabin_id", booking.CabinID).Msg("cache invalidation failed")
		}
	}
	s.publishEvent(events.EventBookingCreated, booking)

	return booking, nil
}

// buildBooking runs every request check that needs no write and returns the
// booking to insert.
func (s *BookingService) buildBooking(ctx context.Context, req *models.BookingRequest) (*models.Booking, error) {
	fields := s.validator.Struct(req)
	if fields == nil {
		fields = make(map[string]string)
	}

	in, out, dateFields := parseStay(req.CheckIn, req.CheckOut)
	for k, v := range dateFields {
		fields[k] = v
	}
	if dateFields == nil {
		today := s.today()
		switch {
		case in.Before(today):
			fields["check_in"] = "check-in date cannot be in the past"
		case in.After(today.AddDate(0, 0, s.opts.MaxAdvanceDays)):
			fields["check_in"] = "check-in date is too far in the future"
		}
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields)
	}

	cabin, err := s.cabins.GetCabin(ctx, req.CabinID)
	if err != nil {
		return nil, err
	}

	if req.Guests > cabin.MaxGuests {
		return nil, domain.FieldError("guests", "exceeds the cabin capacity")
	}

	pricing := models.ComputePricing(cabin.Price, models.NightsBetween(in, out))
	if req.Nights != pricing.Nights {
		return nil, domain.FieldError("nights", "does not match the selected dates")
	}
	if req.Price != pricing.Price || req.Subtotal != pricing.Subtotal || req.Taxes != pricing.Taxes || req.Total != pricing.Total {
		return nil, domain.FieldError("total", "price has changed, please review the summary")
	}

	return &models.Booking{
		CabinID:         cabin.ID,
		CabinName:       cabin.Name,
		UserID:          req.UserID,
		CheckIn:         in,
		CheckOut:        out,
		Guests:          req.Guests,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		SpecialRequests: req.SpecialRequests,
		Nights:          pricing.Nights,
		Price:           pricing.Price,
		Subtotal:        pricing.Subtotal,
		Taxes:           pricing.Taxes,
		Total:           pricing.Total,
		Status:          models.StatusConfirmed,
	}, nil
}

func (s *BookingService) checkSubmissionLimit(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	allowed, err := s.cache.CheckRateLimit(ctx, userID, s.opts.SubmissionLimit, s.opts.SubmissionWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("submission limit check failed")
		return nil
	}
	if !allowed {
		return domain.ErrTooManyRequests
	}
	return nil
}

// insert stores the booking, retrying transient store failures and drawing a new
// reference on collision.
func (s *BookingService) insert(ctx context.Context, booking *models.Booking) error {
	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		booking.ID = models.NewReference(s.opts.Now())
		err = retry.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
			return s.store.CreateBookingWithLock(ctx, booking)
		}, isTransient)
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return err
		}
		s.logger.Warn().Str("reference", booking.ID).Msg("booking reference collision, regenerating")
	}
	return err
}

// Submit is the form boundary: every outcome becomes a BookingResult.
func (s *BookingService) Submit(ctx context.Context, req *models.BookingRequest) models.BookingResult {
	booking, err := s.CreateBooking(ctx, req)
	if err == nil {
		return models.BookingResult{Success: true, BookingID: booking.ID}
	}
	return ResultFromError(err, s.logger)
}

// ResultFromError converts any error into a failed BookingResult.
func ResultFromError(err error, logger *zerolog.Logger) models.BookingResult {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal && logger != nil {
		logger.Error().Err(err).Msg("unexpected booking failure")
	}
	return models.BookingResult{
		Success:          false,
		Error:            domain.MessageOf(err),
		Kind:             string(kind),
		Retryable:        kind.Retryable(),
		ValidationErrors: domain.FieldsOf(err),
	}
}

// GetBooking returns the booking if it belongs to userID.
func (s *BookingService) GetBooking(ctx context.Context, userID, id string) (*models.Booking, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

// ListUserBookings returns the user's reservations with display flags for today.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]models.BookingView, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	bookings, err := s.store.GetUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	views := make([]models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, models.BookingView{
			Booking:  *b,
			IsPast:   b.IsPast(today),
			IsActive: b.IsActive(today),
		})
	}
	return views, nil
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.store.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		CabinID:   booking.CabinID,
		CabinName: booking.CabinName,
		UserID:    booking.UserID,
		CheckIn:   booking.CheckIn.Format(models.DateLayout),
		CheckOut:  booking.CheckOut.Format(models.DateLayout),
		Guests:    booking.Guests,
		Total:     booking.Total,
		Status:    booking.Status,
		CreatedAt: booking.CreatedAt,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func isTransient(err error) bool {
	return domain.KindOf(err) == domain.KindTransient
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeCreated
	}
	switch domain.KindOf(err) {
	case domain.KindConflict:
		return metrics.OutcomeConflict
	case domain.KindValidation, domain.KindNotFound:
		return metrics.OutcomeValidation
	case domain.KindUnauthenticated:
		return metrics.OutcomeUnauthenticated
	case domain.KindTransient:
		return metrics.OutcomeTransient
	default:
		return metrics.OutcomeError
	}
}
