package documents

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gearrent-backend/internal/docstore"
	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/repository"
)

type damageReportRepository struct {
	store docstore.Store
}

func NewDamageReportRepository(store docstore.Store) repository.DamageReportRepository {
	return &damageReportRepository{store: store}
}

func (r *damageReportRepository) Create(ctx context.Context, report *domain.DamageReport) error {
	fields, err := toFields(report)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, docstore.CollectionDamageReports, report.ID, fields, 0)
	if err != nil {
		return err
	}
	report.Version = v
	return nil
}

func (r *damageReportRepository) GetByID(ctx context.Context, id string) (*domain.DamageReport, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionDamageReports, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeReport(doc)
}

func (r *damageReportRepository) List(ctx context.Context) ([]domain.DamageReport, error) {
	return r.query(ctx)
}

func (r *damageReportRepository) ListByStatus(ctx context.Context, status domain.DamageStatus) ([]domain.DamageReport, error) {
	return r.query(ctx, docstore.Filter{Field: "status", Value: string(status)})
}

func (r *damageReportRepository) ListByItem(ctx context.Context, itemID string) ([]domain.DamageReport, error) {
	return r.query(ctx, docstore.Filter{Field: "itemId", Value: itemID})
}

func (r *damageReportRepository) Update(ctx context.Context, report *domain.DamageReport) error {
	fields, err := toFields(report)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, docstore.CollectionDamageReports, report.ID, fields, report.Version)
	if err != nil {
		return err
	}
	report.Version = v
	return nil
}

func (r *damageReportRepository) Delete(ctx context.Context, report *domain.DamageReport) error {
	err := r.store.Delete(ctx, docstore.CollectionDamageReports, report.ID, report.Version)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrReportNotFound, report.ID)
	}
	return err
}

func (r *damageReportRepository) query(ctx context.Context, filters ...docstore.Filter) ([]domain.DamageReport, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionDamageReports, filters...)
	if err != nil {
		return nil, err
	}
	reports := make([]domain.DamageReport, 0, len(docs))
	for _, doc := range docs {
		report, err := decodeReport(doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ReportedAt.After(reports[j].ReportedAt) })
	return reports, nil
}

func decodeReport(doc *docstore.Document) (*domain.DamageReport, error) {
	report := &domain.DamageReport{}
	if err := fromDocument(doc, report); err != nil {
		return nil, err
	}
	report.ID = doc.ID
	report.Version = doc.Version
	return report, nil
}
