package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
	"gearrent-backend/internal/notify"
	"gearrent-backend/internal/repository"
	"gearrent-backend/internal/utils"
)

type bookingService struct {
	bookings repository.BookingRepository
	items    repository.ItemRepository
	ledger   InventoryLedger
	notifier notify.Notifier
	now      func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	items repository.ItemRepository,
	ledger InventoryLedger,
	notifier notify.Notifier,
) BookingService {
	return &bookingService{
		bookings: bookings,
		items:    items,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateBooking reserves every line of the booking and saves it as pending.
// If any reservation fails the ones already made are released and nothing
// is saved.
func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateBooking", "userID", req.UserID)

	now := s.now()
	b := &domain.Booking{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		Status:         domain.BookingStatusPending,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Items:          req.Items,
		Packages:       req.Packages,
		TotalAmount:    req.TotalAmount,
		PaymentStatus:  domain.PaymentStatusNone,
		PaymentDetails: domain.PaymentDetails{AmountPaid: decimal.Zero},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := b.Validate(); err != nil {
		logger.ExitMethodWithError("bookingService.CreateBooking", err)
		return nil, err
	}
	lines := b.Lines()

	if b.TotalAmount.IsZero() {
		total, err := s.price(ctx, b, lines)
		if err != nil {
			logger.ExitMethodWithError("bookingService.CreateBooking", err)
			return nil, err
		}
		b.TotalAmount = total
	}

	reserved := make([]domain.BookingLine, 0, len(lines))
	for _, l := range lines {
		if _, err := s.ledger.Reserve(ctx, l.ItemID, l.Quantity, opID(b.ID, "reserve", l.ItemID)); err != nil {
			err = fmt.Errorf("reserving %d x %s: %w", l.Quantity, l.ItemID, err)
			s.rollback(ctx, b.ID, reserved)
			logger.ExitMethodWithError("bookingService.CreateBooking", err, "bookingID", b.ID)
			return nil, err
		}
		reserved = append(reserved, l)
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		s.rollback(ctx, b.ID, reserved)
		err = fmt.Errorf("saving booking %s: %w", b.ID, err)
		logger.ExitMethodWithError("bookingService.CreateBooking", err, "bookingID", b.ID)
		return nil, err
	}

	s.notifyStatus(ctx, b)
	logger.ExitMethod("bookingService.CreateBooking", "bookingID", b.ID, "lines", len(lines), "total", b.TotalAmount.StringFixed(2))
	return b, nil
}

func (s *bookingService) price(ctx context.Context, b *domain.Booking, lines []domain.BookingLine) (decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		item, err := s.items.GetByID(ctx, l.ItemID)
		if errors.Is(err, domain.ErrItemNotFound) {
			item, err = s.items.GetByName(ctx, l.ItemID)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("pricing %s: %w", l.ItemID, err)
		}
		rates[l.ItemID] = item.DailyRate
	}
	breakdown, err := utils.CalculateRentalCost(b.StartDate, b.EndDate, lines, rates)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.TotalCost, nil
}

func (s *bookingService) rollback(ctx context.Context, bookingID string, reserved []domain.BookingLine) {
	for _, l := range reserved {
		if _, err := s.ledger.Release(ctx, l.ItemID, l.Quantity, opID(bookingID, "rollback", l.ItemID)); err != nil {
			logger.Error("Failed to release reservation during rollback",
				"bookingID", bookingID, "item", l.ItemID, "quantity", l.Quantity, "error", err)
		}
	}
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *bookingService) ListBookings(ctx context.Context, userID string, status domain.BookingStatus) ([]domain.Booking, error) {
	if userID == "" {
		if status == "" {
			return s.bookings.List(ctx)
		}
		return s.bookings.ListByStatus(ctx, status)
	}

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil || status == "" {
		return bookings, err
	}
	filtered := bookings[:0]
	for _, b := range bookings {
		if b.Status == status {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// TransitionBooking moves a booking through its lifecycle and applies the
// matching inventory effect to every line. The new status is saved only
// when every line succeeded; otherwise a *domain.BatchError lists the lines
// that were updated and those that failed, and the call can be repeated.
func (s *bookingService) TransitionBooking(ctx context.Context, id string, to domain.BookingStatus) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.TransitionBooking", "bookingID", id, "to", to)

	var result *domain.Booking
	conflicted := false
	err := retryOnConflict("booking "+id, func() error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		from := b.Status
		if from == to && conflicted {
			// a concurrent request saved the same transition
			result = b
			return nil
		}
		if !from.CanTransitionTo(to) {
			metrics.BookingTransitions.WithLabelValues(string(from), string(to), "rejected").Inc()
			return fmt.Errorf("%w: booking %s cannot move from %s to %s", domain.ErrInvalidTransition, id, from, to)
		}

		if err := s.applyInventory(ctx, b, to); err != nil {
			metrics.BookingTransitions.WithLabelValues(string(from), string(to), "failed").Inc()
			return err
		}

		b.Status = to
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, b); err != nil {
			conflicted = errors.Is(err, repository.ErrVersionConflict)
			return err
		}
		metrics.BookingTransitions.WithLabelValues(string(from), string(to), "applied").Inc()
		result = b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.TransitionBooking", err, "bookingID", id, "to", to)
		return nil, err
	}

	s.notifyStatus(ctx, result)
	logger.ExitMethod("bookingService.TransitionBooking", "bookingID", id, "status", result.Status)
	return result, nil
}

// applyInventory runs the ledger effect of moving b to status `to` on every
// line. Operation ids are derived from the booking id so a repeated call
// skips lines that already succeeded.
func (s *bookingService) applyInventory(ctx context.Context, b *domain.Booking, to domain.BookingStatus) error {
	var operation string
	var step func(l domain.BookingLine) error

	switch to {
	case domain.BookingStatusCancelled:
		operation = "cancel booking"
		step = func(l domain.BookingLine) error {
			_, err := s.ledger.Release(ctx, l.ItemID, l.Quantity, opID(b.ID, "release", l.ItemID))
			return err
		}
	case domain.BookingStatusCompleted:
		operation = "complete booking"
		step = func(l domain.BookingLine) error {
			if _, err := s.ledger.Release(ctx, l.ItemID, l.Quantity, opID(b.ID, "release", l.ItemID)); err != nil {
				return err
			}
			_, err := s.ledger.ReturnItems(ctx, l.ItemID, l.Quantity, opID(b.ID, "return", l.ItemID))
			return err
		}
	default:
		return nil
	}

	batch := &domain.BatchError{Operation: operation}
	for _, l := range b.Lines() {
		if err := step(l); err != nil {
			logger.Warn("Booking line failed", "bookingID", b.ID, "operation", operation, "item", l.ItemID, "error", err)
			batch.Failed = append(batch.Failed, domain.ItemFailure{ItemID: l.ItemID, Err: err})
			continue
		}
		batch.Succeeded = append(batch.Succeeded, l.ItemID)
	}
	if len(batch.Failed) > 0 {
		return batch
	}
	return nil
}

func (s *bookingService) notifyStatus(ctx context.Context, b *domain.Booking) {
	if b.CustomerEmail == "" {
		return
	}
	err := s.notifier.Send(ctx, notify.Message{
		Template: notify.TemplateBookingStatus,
		ToEmail:  b.CustomerEmail,
		ToName:   b.CustomerName,
		Data: map[string]any{
			"bookingId": b.ID,
			"status":    string(b.Status),
			"period":    b.StartDate.Format("2006-01-02") + " to " + b.EndDate.Format("2006-01-02"),
			"total":     b.TotalAmount.StringFixed(2),
		},
	})
	if err != nil {
		logger.Warn("Booking status email not sent", "bookingID", b.ID, "status", b.Status, "error", err)
	}
}
