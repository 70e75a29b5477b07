package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/repository"
)

type paymentService struct {
	bookings repository.BookingRepository
	gateway  PaymentGateway
	now      func() time.Time
}

func NewPaymentService(bookings repository.BookingRepository, gateway PaymentGateway) PaymentService {
	return &paymentService{
		bookings: bookings,
		gateway:  gateway,
		now:      time.Now,
	}
}

// RecordPayment adds money received for a booking. A payment whose
// reference was already recorded returns the booking unchanged together
// with domain.ErrDuplicateOperation.
func (s *paymentService) RecordPayment(ctx context.Context, bookingID string, req PaymentRequest) (*domain.Booking, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Method) == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrInvalidInput)
	}
	return s.record(ctx, bookingID, s.entry(req, req.Amount))
}

// RecordRefund records money returned to the customer as a negative entry.
func (s *paymentService) RecordRefund(ctx context.Context, bookingID string, req PaymentRequest) (*domain.Booking, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", domain.ErrInvalidInput)
	}
	if req.Method == "" {
		req.Method = "refund"
	}
	return s.record(ctx, bookingID, s.entry(req, req.Amount.Neg()))
}

// CapturePayPal verifies a PayPal order and records its capture. The
// capture id is the payment reference, so the same order is never counted
// twice.
func (s *paymentService) CapturePayPal(ctx context.Context, bookingID, orderID string) (*domain.Booking, error) {
	logger.EnterMethod("paymentService.CapturePayPal", "bookingID", bookingID, "orderID", orderID)

	if s.gateway == nil {
		err := fmt.Errorf("%w: paypal is not configured", domain.ErrPaymentIncomplete)
		logger.ExitMethodWithError("paymentService.CapturePayPal", err, "orderID", orderID)
		return nil, err
	}
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	capture, err := s.gateway.GetCapture(ctx, orderID)
	if err != nil {
		logger.ExitMethodWithError("paymentService.CapturePayPal", err, "orderID", orderID)
		return nil, err
	}
	if capture.Status != "COMPLETED" || capture.TransactionID == "" {
		err := fmt.Errorf("%w: paypal order %s is %s", domain.ErrPaymentIncomplete, orderID, capture.Status)
		logger.ExitMethodWithError("paymentService.CapturePayPal", err, "orderID", orderID)
		return nil, err
	}

	b, err := s.record(ctx, bookingID, s.entry(PaymentRequest{
		Method:     "paypal",
		Reference:  capture.TransactionID,
		Note:       fmt.Sprintf("PayPal order %s paid by %s", orderID, capture.PayerEmail),
		RecordedBy: capture.PayerEmail,
	}, capture.Amount))
	logger.ExitMethod("paymentService.CapturePayPal", "bookingID", bookingID, "captureID", capture.TransactionID)
	return b, err
}

func (s *paymentService) entry(req PaymentRequest, amount decimal.Decimal) domain.PaymentEntry {
	return domain.PaymentEntry{
		ID:         uuid.New().String(),
		Amount:     amount,
		Method:     req.Method,
		Reference:  req.Reference,
		Note:       req.Note,
		RecordedBy: req.RecordedBy,
		RecordedAt: s.now(),
	}
}

func (s *paymentService) record(ctx context.Context, bookingID string, entry domain.PaymentEntry) (*domain.Booking, error) {
	var result *domain.Booking
	err := retryOnConflict("booking "+bookingID, func() error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := b.AddPaymentEntry(entry); err != nil {
			result = b
			return err
		}
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		result = b
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateOperation):
		logger.Info("Payment already recorded", "bookingID", bookingID, "reference", entry.Reference)
		return result, err
	case err != nil:
		return nil, err
	}

	logger.Info("Payment recorded",
		"bookingID", bookingID,
		"amount", entry.Amount.StringFixed(2),
		"method", entry.Method,
		"amountPaid", result.PaymentDetails.AmountPaid.StringFixed(2),
		"paymentStatus", result.PaymentStatus,
	)
	return result, nil
}
