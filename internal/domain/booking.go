package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusActive, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether the booking state machine allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case BookingStatusActive:
		return s == BookingStatusPending
	case BookingStatusCompleted:
		return s == BookingStatusActive
	case BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusNone      PaymentStatus = "no_payment_recorded"
	PaymentStatusPartial   PaymentStatus = "payment_partially_completed"
	PaymentStatusCompleted PaymentStatus = "payment_completed"
)

type BookingLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type BookingPackage struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Items []BookingLine `json:"items"`
}

// PaymentEntry is one signed movement of money: positive for a payment,
// negative for a refund.
type PaymentEntry struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Note       string          `json:"note,omitempty"`
	RecordedBy string          `json:"recordedBy,omitempty"`
	RecordedAt time.Time       `json:"recordedAt"`
}

type PaymentDetails struct {
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	PaymentHistory []PaymentEntry  `json:"paymentHistory"`
}

type Booking struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	CustomerName   string           `json:"customerName,omitempty"`
	CustomerEmail  string           `json:"customerEmail,omitempty"`
	Status         BookingStatus    `json:"status"`
	StartDate      time.Time        `json:"startDate"`
	EndDate        time.Time        `json:"endDate"`
	Items          []BookingLine    `json:"items"`
	Packages       []BookingPackage `json:"packages,omitempty"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"`
	PaymentStatus  PaymentStatus    `json:"paymentStatus"`
	PaymentDetails PaymentDetails   `json:"paymentDetails"`
	PaymentProofs  []MediaAsset     `json:"paymentProofs,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Version        int64            `json:"-"`
}

// Lines merges direct items and package contents into one quantity per
// item, in order of first appearance.
func (b *Booking) Lines() []BookingLine {
	index := make(map[string]int)
	var lines []BookingLine
	add := func(l BookingLine) {
		if pos, ok := index[l.ItemID]; ok {
			lines[pos].Quantity += l.Quantity
			return
		}
		index[l.ItemID] = len(lines)
		lines = append(lines, l)
	}
	for _, l := range b.Items {
		add(l)
	}
	for _, p := range b.Packages {
		for _, l := range p.Items {
			add(l)
		}
	}
	return lines
}

// Days is the inclusive number of rental days.
func (b *Booking) Days() int {
	start := b.StartDate.Truncate(24 * time.Hour)
	end := b.EndDate.Truncate(24 * time.Hour)
	return int(end.Sub(start).Hours()/24) + 1
}

func (b *Booking) Validate() error {
	if b.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}
	lines := b.Lines()
	if len(lines) == 0 {
		return fmt.Errorf("%w: booking has no items", ErrInvalidInput)
	}
	for _, l := range lines {
		if l.ItemID == "" || l.Quantity <= 0 {
			return fmt.Errorf("%w: invalid line %q x %d", ErrInvalidInput, l.ItemID, l.Quantity)
		}
	}
	if b.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total amount cannot be negative", ErrInvalidInput)
	}
	return nil
}

// AddPaymentEntry appends a signed entry and recomputes amountPaid clamped
// to [0, totalAmount]. An entry whose reference was already recorded
// returns ErrDuplicateOperation and changes nothing.
func (b *Booking) AddPaymentEntry(e PaymentEntry) error {
	if e.Amount.IsZero() {
		return fmt.Errorf("%w: payment amount must be non-zero", ErrInvalidInput)
	}
	if e.Reference != "" {
		for _, h := range b.PaymentDetails.PaymentHistory {
			if h.Reference == e.Reference {
				return ErrDuplicateOperation
			}
		}
	}
	paid := b.PaymentDetails.AmountPaid.Add(e.Amount)
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if paid.GreaterThan(b.TotalAmount) {
		paid = b.TotalAmount
	}
	b.PaymentDetails.AmountPaid = paid
	b.PaymentDetails.PaymentHistory = append(b.PaymentDetails.PaymentHistory, e)
	b.PaymentStatus = DerivePaymentStatus(paid, b.TotalAmount)
	return nil
}

func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentStatusNone
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusCompleted
	default:
		return PaymentStatusPartial
	}
}

// PaymentCapture is what the payment provider reports for a captured order.
type PaymentCapture struct {
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PayerEmail    string          `json:"payerEmail"`
}

// MediaAsset is a file held by the media store.
type MediaAsset struct {
	PublicID   string    `json:"publicId"`
	URL        string    `json:"url"`
	Format     string    `json:"format"`
	Bytes      int64     `json:"bytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}
