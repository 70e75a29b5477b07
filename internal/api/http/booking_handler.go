package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/security"
	"gearrent-backend/internal/service"
)

type BookingHandler struct {
	bookings  service.BookingService
	payments  service.PaymentService
	media     service.MediaService
	maxUpload int64
}

func NewBookingHandler(bookings service.BookingService, payments service.PaymentService, media service.MediaService, maxUpload int64) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments, media: media, maxUpload: maxUpload}
}

type createBookingRequest struct {
	UserID        string                  `json:"userId"`
	CustomerName  string                  `json:"customerName"`
	CustomerEmail string                  `json:"customerEmail"`
	StartDate     time.Time               `json:"startDate"`
	EndDate       time.Time               `json:"endDate"`
	Items         []domain.BookingLine    `json:"items"`
	Packages      []domain.BookingPackage `json:"packages"`
	TotalAmount   decimal.Decimal         `json:"totalAmount"`
}

type statusRequest struct {
	Status domain.BookingStatus `json:"status"`
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
}

type paypalRequest struct {
	OrderID string `json:"orderId"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Only admins book on behalf of someone else
	userID := id.UserID
	if id.Admin && req.UserID != "" {
		userID = req.UserID
	}
	if !id.Admin {
		req.TotalAmount = decimal.Zero
	}
	if req.CustomerEmail == "" && userID == id.UserID {
		req.CustomerEmail = id.Email
	}

	b, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		UserID:        userID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Items:         req.Items,
		Packages:      req.Packages,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	userID := r.URL.Query().Get("userId")
	if !id.Admin {
		userID = id.UserID
	}
	list, err := h.bookings.ListBookings(r.Context(), userID, domain.BookingStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.ownedBooking(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookings.TransitionBooking(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	h.payment(w, r, h.payments.RecordPayment)
}

func (h *BookingHandler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	h.payment(w, r, h.payments.RecordRefund)
}

func (h *BookingHandler) payment(w http.ResponseWriter, r *http.Request,
	record func(ctx context.Context, bookingID string, req service.PaymentRequest) (*domain.Booking, error)) {
	id := identity(r)
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := record(r.Context(), mux.Vars(r)["id"], service.PaymentRequest{
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		Note:       req.Note,
		RecordedBy: id.UserID,
	})
	if !domain.IsSuccess(err) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) CapturePayPal(w http.ResponseWriter, r *http.Request) {
	var req paypalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedBooking(r); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.payments.CapturePayPal(r.Context(), mux.Vars(r)["id"], req.OrderID)
	if !domain.IsSuccess(err) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ownedBooking(r); err != nil {
		writeError(w, r, err)
		return
	}
	upload, cleanup, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	asset, err := h.media.UploadPaymentProof(r.Context(), mux.Vars(r)["id"], upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *BookingHandler) DeletePaymentProof(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.media.DeletePaymentProof(r.Context(), vars["id"], vars["publicId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// identity returns the caller set by AuthMiddleware, or an anonymous one
func identity(r *http.Request) *security.Identity {
	if id, ok := security.IdentityFrom(r.Context()); ok {
		return id
	}
	return &security.Identity{}
}

// ownedBooking loads the booking in the path. Customers only see their own
// bookings; someone else's booking is reported as missing.
func (h *BookingHandler) ownedBooking(r *http.Request) (*domain.Booking, error) {
	bookingID := mux.Vars(r)["id"]
	b, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		return nil, err
	}
	id := identity(r)
	if !id.Admin && b.UserID != id.UserID {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, bookingID)
	}
	return b, nil
}
