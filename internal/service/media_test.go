package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/service"
	"gearrent-backend/internal/storage"
)

func receipt() storage.Upload {
	return storage.Upload{Filename: "receipt.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("\x89PNG")}
}

func TestMediaService_PaymentProofs(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedBooking(t, store, "bk-1", "100", domain.BookingLine{ItemID: "cam", Quantity: 1})
	media := new(MockMediaStore)
	svc := service.NewMediaService(store.BookingRepository, store.DamageReportRepository, media, 1<<20)

	asset := &domain.MediaAsset{PublicID: "payment-proofs/bk-1/abc.png", URL: "http://localhost/media/payment-proofs/bk-1/abc.png", Format: "png", Bytes: 4}
	media.On("Upload", ctx, mock.MatchedBy(func(u storage.Upload) bool {
		return u.Folder == "payment-proofs/bk-1"
	})).Return(asset, nil)

	got, err := svc.UploadPaymentProof(ctx, "bk-1", receipt())
	require.NoError(t, err)
	assert.Equal(t, asset.PublicID, got.PublicID)

	b, err := store.BookingRepository.GetByID(ctx, "bk-1")
	require.NoError(t, err)
	require.Len(t, b.PaymentProofs, 1)
	assert.Equal(t, asset.URL, b.PaymentProofs[0].URL)

	t.Run("Delete detaches then removes the file", func(t *testing.T) {
		media.On("Delete", ctx, asset.PublicID).Return(nil).Once()

		require.NoError(t, svc.DeletePaymentProof(ctx, "bk-1", asset.PublicID))
		b, err := store.BookingRepository.GetByID(ctx, "bk-1")
		require.NoError(t, err)
		assert.Empty(t, b.PaymentProofs)

		assert.ErrorIs(t, svc.DeletePaymentProof(ctx, "bk-1", asset.PublicID), domain.ErrMediaNotFound)
		media.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("Unknown booking uploads nothing", func(t *testing.T) {
		_, err := svc.UploadPaymentProof(ctx, "nope", receipt())
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
		media.AssertNumberOfCalls(t, "Upload", 1)
	})

	t.Run("Rejects unsupported files", func(t *testing.T) {
		u := receipt()
		u.ContentType = "text/html"
		_, err := svc.UploadPaymentProof(ctx, "bk-1", u)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestMediaService_AttachDamagePhoto(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	now := time.Now()
	require.NoError(t, store.DamageReportRepository.Create(ctx, &domain.DamageReport{
		ID:                  "dr-1",
		ItemID:              "lens",
		ItemName:            "Zoom Lens",
		Severity:            domain.SeverityLow,
		Status:              domain.DamageStatusDamaged,
		EstimatedRepairCost: decimal.Zero,
		ReportedAt:          now,
		UpdatedAt:           now,
	}))
	media := new(MockMediaStore)
	svc := service.NewMediaService(store.BookingRepository, store.DamageReportRepository, media, 1<<20)

	media.On("Upload", ctx, mock.MatchedBy(func(u storage.Upload) bool {
		return u.Folder == "damage-photos/dr-1"
	})).Return(&domain.MediaAsset{PublicID: "damage-photos/dr-1/x.jpg"}, nil)

	u := receipt()
	u.ContentType = "image/jpeg"
	_, err := svc.AttachDamagePhoto(ctx, "dr-1", u)
	require.NoError(t, err)

	r, err := store.DamageReportRepository.GetByID(ctx, "dr-1")
	require.NoError(t, err)
	require.Len(t, r.Photos, 1)
	assert.Equal(t, "damage-photos/dr-1/x.jpg", r.Photos[0].PublicID)
}
