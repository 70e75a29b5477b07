package service

import (
	"context"
	"fmt"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/repository"
	"gearrent-backend/internal/storage"
)

type mediaService struct {
	bookings repository.BookingRepository
	reports  repository.DamageReportRepository
	store    storage.MediaStore
	maxBytes int64
}

func NewMediaService(
	bookings repository.BookingRepository,
	reports repository.DamageReportRepository,
	store storage.MediaStore,
	maxBytes int64,
) MediaService {
	return &mediaService{
		bookings: bookings,
		reports:  reports,
		store:    store,
		maxBytes: maxBytes,
	}
}

// UploadPaymentProof stores a receipt or transfer screenshot and attaches
// it to the booking.
func (s *mediaService) UploadPaymentProof(ctx context.Context, bookingID string, upload storage.Upload) (*domain.MediaAsset, error) {
	logger.EnterMethod("mediaService.UploadPaymentProof", "bookingID", bookingID, "filename", upload.Filename)

	if err := upload.Validate(s.maxBytes); err != nil {
		return nil, err
	}
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}

	upload.Folder = "payment-proofs/" + bookingID
	asset, err := s.store.Upload(ctx, upload)
	if err != nil {
		logger.ExitMethodWithError("mediaService.UploadPaymentProof", err, "bookingID", bookingID)
		return nil, err
	}

	err = retryOnConflict("booking "+bookingID, func() error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		b.PaymentProofs = append(b.PaymentProofs, *asset)
		return s.bookings.Update(ctx, b)
	})
	if err != nil {
		s.discard(ctx, asset.PublicID)
		logger.ExitMethodWithError("mediaService.UploadPaymentProof", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("mediaService.UploadPaymentProof", "bookingID", bookingID, "publicID", asset.PublicID)
	return asset, nil
}

// DeletePaymentProof detaches a proof from the booking, then removes the
// file. A file that cannot be removed is logged and left behind.
func (s *mediaService) DeletePaymentProof(ctx context.Context, bookingID, publicID string) error {
	logger.EnterMethod("mediaService.DeletePaymentProof", "bookingID", bookingID, "publicID", publicID)

	err := retryOnConflict("booking "+bookingID, func() error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		kept := make([]domain.MediaAsset, 0, len(b.PaymentProofs))
		for _, p := range b.PaymentProofs {
			if p.PublicID != publicID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(b.PaymentProofs) {
			return fmt.Errorf("%w: %s on booking %s", domain.ErrMediaNotFound, publicID, bookingID)
		}
		b.PaymentProofs = kept
		return s.bookings.Update(ctx, b)
	})
	if err != nil {
		logger.ExitMethodWithError("mediaService.DeletePaymentProof", err, "bookingID", bookingID)
		return err
	}

	s.discard(ctx, publicID)
	logger.ExitMethod("mediaService.DeletePaymentProof", "bookingID", bookingID)
	return nil
}

// AttachDamagePhoto stores a photo of the damage and adds it to the report.
func (s *mediaService) AttachDamagePhoto(ctx context.Context, reportID string, upload storage.Upload) (*domain.MediaAsset, error) {
	logger.EnterMethod("mediaService.AttachDamagePhoto", "reportID", reportID, "filename", upload.Filename)

	if err := upload.Validate(s.maxBytes); err != nil {
		return nil, err
	}
	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		return nil, err
	}

	upload.Folder = "damage-photos/" + reportID
	asset, err := s.store.Upload(ctx, upload)
	if err != nil {
		logger.ExitMethodWithError("mediaService.AttachDamagePhoto", err, "reportID", reportID)
		return nil, err
	}

	err = retryOnConflict("damage report "+reportID, func() error {
		r, err := s.reports.GetByID(ctx, reportID)
		if err != nil {
			return err
		}
		r.Photos = append(r.Photos, *asset)
		return s.reports.Update(ctx, r)
	})
	if err != nil {
		s.discard(ctx, asset.PublicID)
		logger.ExitMethodWithError("mediaService.AttachDamagePhoto", err, "reportID", reportID)
		return nil, err
	}

	logger.ExitMethod("mediaService.AttachDamagePhoto", "reportID", reportID, "publicID", asset.PublicID)
	return asset, nil
}

func (s *mediaService) discard(ctx context.Context, publicID string) {
	if err := s.store.Delete(ctx, publicID); err != nil {
		logger.Warn("Failed to delete media file", "publicID", publicID, "error", err)
	}
}
