package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/storage"
)

// InventoryLedger is the subset of *ledger.Ledger the services depend on.
type InventoryLedger interface {
	Reserve(ctx context.Context, ref string, qty int, opID string) (*ledger.Result, error)
	Release(ctx context.Context, ref string, qty int, opID string) (*ledger.Result, error)
	MarkDamaged(ctx context.Context, ref string, opID string) (*ledger.Result, error)
	MarkRepairedOrRestored(ctx context.Context, ref, damageOpID, opID string) (*ledger.Result, error)
	WriteOff(ctx context.Context, ref string, opID string) (*ledger.Result, error)
	ReturnItems(ctx context.Context, ref string, qty int, opID string) (*ledger.Result, error)
	AdjustStock(ctx context.Context, ref string, delta int, opID string) (*ledger.Result, error)
}

// PaymentGateway verifies captured orders with the payment provider.
type PaymentGateway interface {
	GetCapture(ctx context.Context, orderID string) (*domain.PaymentCapture, error)
}

type CreateBookingRequest struct {
	UserID        string
	CustomerName  string
	CustomerEmail string
	StartDate     time.Time
	EndDate       time.Time
	Items         []domain.BookingLine
	Packages      []domain.BookingPackage
	// TotalAmount overrides the computed rental price when set.
	TotalAmount decimal.Decimal
}

type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID string, status domain.BookingStatus) ([]domain.Booking, error)
	TransitionBooking(ctx context.Context, id string, to domain.BookingStatus) (*domain.Booking, error)
}

type ReportDamageRequest struct {
	ItemRef             string
	BookingID           string
	Severity            domain.Severity
	Description         string
	EstimatedRepairCost decimal.Decimal
	CustomerName        string
	CustomerEmail       string
}

// DamageOutcome carries a created report and the result of the best-effort
// customer email. NotificationErr is for display only.
type DamageOutcome struct {
	Report          *domain.DamageReport
	NotificationErr error
}

type DamageService interface {
	ReportDamage(ctx context.Context, req ReportDamageRequest) (*DamageOutcome, error)
	GetReport(ctx context.Context, id string) (*domain.DamageReport, error)
	ListReports(ctx context.Context, status domain.DamageStatus) ([]domain.DamageReport, error)
	UpdateStatus(ctx context.Context, id string, to domain.DamageStatus, repairCost *decimal.Decimal) (*domain.DamageReport, error)
	DeleteReport(ctx context.Context, id string) error
}

type NewItemRequest struct {
	ID          string
	Name        string
	Category    domain.Category
	Description string
	DailyRate   decimal.Decimal
	ImageURL    string
	Quantity    int
}

// UpdateItemRequest edits descriptive fields. Nil fields are left as is.
type UpdateItemRequest struct {
	Name        *string
	Category    *domain.Category
	Description *string
	DailyRate   *decimal.Decimal
	ImageURL    *string
}

type InventoryService interface {
	Bootstrap(ctx context.Context) (int, error)
	AddItem(ctx context.Context, req NewItemRequest) (*domain.InventoryItem, error)
	UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, ref string) (*domain.InventoryItem, error)
	ListItems(ctx context.Context, category domain.Category) ([]domain.InventoryItem, error)
	ApplyOperation(ctx context.Context, ref string, kind domain.OperationKind, qty int, opID string) (*ledger.Result, error)
}

type PaymentRequest struct {
	Amount     decimal.Decimal
	Method     string
	Reference  string
	Note       string
	RecordedBy string
}

type PaymentService interface {
	RecordPayment(ctx context.Context, bookingID string, req PaymentRequest) (*domain.Booking, error)
	RecordRefund(ctx context.Context, bookingID string, req PaymentRequest) (*domain.Booking, error)
	CapturePayPal(ctx context.Context, bookingID, orderID string) (*domain.Booking, error)
}

type MediaService interface {
	UploadPaymentProof(ctx context.Context, bookingID string, upload storage.Upload) (*domain.MediaAsset, error)
	DeletePaymentProof(ctx context.Context, bookingID, publicID string) error
	AttachDamagePhoto(ctx context.Context, reportID string, upload storage.Upload) (*domain.MediaAsset, error)
}
