package api

import (
	"context"

	"cabanas/internal/models"

	"google.golang.org/grpc"
)

// BookingClient calls cabanas.booking.v1.BookingService with the JSON codec.
type BookingClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingClient(cc grpc.ClientConnInterface) *BookingClient {
	return &BookingClient{cc: cc}
}

func (c *BookingClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+bookingServiceName+"/"+method, in, out, opts...)
}

func call[T any](ctx context.Context, c *BookingClient, method string, in any, opts []grpc.CallOption) (*T, error) {
	out := new(T)
	if err := c.invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ListCabins(ctx context.Context, opts ...grpc.CallOption) (*ListCabinsResponse, error) {
	return call[ListCabinsResponse](ctx, c, "ListCabins", &ListCabinsRequest{}, opts)
}

func (c *BookingClient) GetCabin(ctx context.Context, id string, opts ...grpc.CallOption) (*models.Cabin, error) {
	return call[models.Cabin](ctx, c, "GetCabin", &GetCabinRequest{ID: id}, opts)
}

func (c *BookingClient) CheckAvailability(ctx context.Context, in *StayRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error) {
	return call[AvailabilityResponse](ctx, c, "CheckAvailability", in, opts)
}

func (c *BookingClient) Quote(ctx context.Context, in *StayRequest, opts ...grpc.CallOption) (*models.Pricing, error) {
	return call[models.Pricing](ctx, c, "Quote", in, opts)
}

func (c *BookingClient) CreateBooking(ctx context.Context, in *models.BookingRequest, opts ...grpc.CallOption) (*models.BookingResult, error) {
	return call[models.BookingResult](ctx, c, "CreateBooking", in, opts)
}

func (c *BookingClient) GetBooking(ctx context.Context, id string, opts ...grpc.CallOption) (*models.Booking, error) {
	return call[models.Booking](ctx, c, "GetBooking", &GetBookingRequest{ID: id}, opts)
}

func (c *BookingClient) ListMyBookings(ctx context.Context, opts ...grpc.CallOption) (*ListMyBookingsResponse, error) {
	return call[ListMyBookingsResponse](ctx, c, "ListMyBookings", &ListMyBookingsRequest{}, opts)
}

func (c *BookingClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	return call[ListBookingsResponse](ctx, c, "ListBookings", in, opts)
}
