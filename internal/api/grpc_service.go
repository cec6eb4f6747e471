package api

import (
	"context"

	"cabanas/internal/models"

	"google.golang.org/grpc"
)

const bookingServiceName = "cabanas.booking.v1.BookingService"

type (
	ListCabinsRequest  struct{}
	ListCabinsResponse struct {
		Cabins []*models.Cabin `json:"cabins"`
	}

	GetCabinRequest struct {
		ID string `json:"id"`
	}

	StayRequest struct {
		CabinID  string `json:"cabin_id"`
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	AvailabilityResponse struct {
		Available bool `json:"available"`
	}

	GetBookingRequest struct {
		ID string `json:"id"`
	}

	ListMyBookingsRequest  struct{}
	ListMyBookingsResponse struct {
		Bookings []models.BookingView `json:"bookings"`
	}

	ListBookingsRequest struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	ListBookingsResponse struct {
		Bookings []*models.Booking `json:"bookings"`
	}
)

// BookingServer is the server API for cabanas.booking.v1.BookingService.
type BookingServer interface {
	ListCabins(context.Context, *ListCabinsRequest) (*ListCabinsResponse, error)
	GetCabin(context.Context, *GetCabinRequest) (*models.Cabin, error)
	CheckAvailability(context.Context, *StayRequest) (*AvailabilityResponse, error)
	Quote(context.Context, *StayRequest) (*models.Pricing, error)
	CreateBooking(context.Context, *models.BookingRequest) (*models.BookingResult, error)
	GetBooking(context.Context, *GetBookingRequest) (*models.Booking, error)
	ListMyBookings(context.Context, *ListMyBookingsRequest) (*ListMyBookingsResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
}

var _ BookingServer = (*BookingRPC)(nil)

// BookingRPC is the gRPC face of the catalog and booking services.
type BookingRPC struct {
	services Services
}

func NewBookingRPC(services Services) *BookingRPC {
	return &BookingRPC{services: services}
}

func (s *BookingRPC) ListCabins(ctx context.Context, _ *ListCabinsRequest) (*ListCabinsResponse, error) {
	cabins, err := s.services.Cabins.ListCabins(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListCabinsResponse{Cabins: cabins}, nil
}

func (s *BookingRPC) GetCabin(ctx context.Context, req *GetCabinRequest) (*models.Cabin, error) {
	cabin, err := s.services.Cabins.GetCabin(ctx, req.ID)
	if err != nil {
		return nil, grpcError(err)
	}
	return cabin, nil
}

func (s *BookingRPC) CheckAvailability(ctx context.Context, req *StayRequest) (*AvailabilityResponse, error) {
	available, err := s.services.Bookings.CheckAvailability(ctx, req.CabinID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, grpcError(err)
	}
	return &AvailabilityResponse{Available: available}, nil
}

func (s *BookingRPC) Quote(ctx context.Context, req *StayRequest) (*models.Pricing, error) {
	pricing, err := s.services.Bookings.Quote(ctx, req.CabinID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, grpcError(err)
	}
	return pricing, nil
}

// CreateBooking always answers with a BookingResult; failures are in the result.
func (s *BookingRPC) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingResult, error) {
	req.UserID = UserFromContext(ctx)
	result := s.services.Bookings.Submit(ctx, req)
	return &result, nil
}

func (s *BookingRPC) GetBooking(ctx context.Context, req *GetBookingRequest) (*models.Booking, error) {
	booking, err := s.services.Bookings.GetBooking(ctx, UserFromContext(ctx), req.ID)
	if err != nil {
		return nil, grpcError(err)
	}
	return booking, nil
}

func (s *BookingRPC) ListMyBookings(ctx context.Context, _ *ListMyBookingsRequest) (*ListMyBookingsResponse, error) {
	views, err := s.services.Bookings.ListUserBookings(ctx, UserFromContext(ctx))
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListMyBookingsResponse{Bookings: views}, nil
}

// ListBookings is the admin date-range report.
func (s *BookingRPC) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, grpcError(err)
	}
	bookings, err := s.services.Bookings.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ListBookingsResponse{Bookings: bookings}, nil
}

// adminMethods need an API key with the listed permission.
var adminMethods = map[string]string{
	"/" + bookingServiceName + "/ListBookings": permReadBookings,
}

// unary adapts a typed method to grpc.MethodHandler.
func unary[Req, Resp any](name string, call func(BookingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + bookingServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BookingServiceDesc describes the service for grpc.Server.RegisterService.
var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingServiceName,
	HandlerType: (*BookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListCabins", BookingServer.ListCabins),
		unary("GetCabin", BookingServer.GetCabin),
		unary("CheckAvailability", BookingServer.CheckAvailability),
		unary("Quote", BookingServer.Quote),
		unary("CreateBooking", BookingServer.CreateBooking),
		unary("GetBooking", BookingServer.GetBooking),
		unary("ListMyBookings", BookingServer.ListMyBookings),
		unary("ListBookings", BookingServer.ListBookings),
	},
	Streams: []grpc.StreamDesc{},
}
