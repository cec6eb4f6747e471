package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cabanas/internal/domain"
	"cabanas/internal/export"
	"cabanas/internal/models"

	"github.com/gorilla/mux"
)

const (
	maxBookingBody  = 1 << 16
	maxExportDays   = 366
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.services.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.services.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleListCabins(w http.ResponseWriter, r *http.Request) {
	cabins, err := s.services.Cabins.ListCabins(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cabins": cabins})
}

func (s *HTTPServer) handleGetCabin(w http.ResponseWriter, r *http.Request) {
	cabin, err := s.services.Cabins.GetCabin(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cabin)
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	available, err := s.services.Bookings.CheckAvailability(r.Context(), mux.Vars(r)["id"], q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pricing, err := s.services.Bookings.Quote(r.Context(), mux.Vars(r)["id"], q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookingBody))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.BookingResult{
			Error: "invalid JSON body",
			Kind:  string(domain.KindValidation),
		})
		return
	}
	req.UserID = UserFromContext(r.Context())

	result := s.services.Bookings.Submit(r.Context(), &req)
	if result.Success {
		writeJSON(w, http.StatusCreated, result)
		return
	}
	writeJSON(w, httpStatus(domain.Kind(result.Kind)), result)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.services.Bookings.GetBooking(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	views, err := s.services.Bookings.ListUserBookings(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": views})
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	bookings, err := s.services.Bookings.GetBookingsByDateRange(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data, err := s.services.Exporter.WriteBookings(bookings, from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	if _, err := s.services.Exporter.Archive(data, from, to); err != nil {
		s.logger.Warn().Err(err).Msg("export archive failed")
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(from, to)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseRange parses an inclusive YYYY-MM-DD report range.
func parseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	fields := make(map[string]string)
	from, err := time.Parse(models.DateLayout, strings.TrimSpace(rawFrom))
	if err != nil {
		fields["from"] = "must be a date in YYYY-MM-DD format"
	}
	to, err := time.Parse(models.DateLayout, strings.TrimSpace(rawTo))
	if err != nil {
		fields["to"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) == 0 {
		switch {
		case to.Before(from):
			fields["to"] = "must not be before from"
		case models.NightsBetween(from, to) > maxExportDays:
			fields["to"] = "range is too long"
		}
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, domain.NewValidationError(fields)
	}
	return from, to, nil
}
