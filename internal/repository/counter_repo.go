package repository

import (
	"context"

	"gorm.io/gorm"
)

// InvoiceCounterRepository issues per-day invoice sequence values.
type InvoiceCounterRepository interface {
	// NextSequence returns the next sequence value for the given YYYYMMDD
	// date: 1 on first use of the date, previous+1 after. The
	// read-modify-write is a single upsert statement, so the database
	// serializes concurrent callers on the same date and no value is ever
	// issued twice.
	NextSequence(ctx context.Context, date string) (int, error)
	// Current returns the latest issued sequence for a date, 0 if the
	// date has no counter row yet.
	Current(ctx context.Context, date string) (int, error)
}

type invoiceCounterRepository struct {
	db *gorm.DB
}

func NewInvoiceCounterRepository(db *gorm.DB) InvoiceCounterRepository {
	return &invoiceCounterRepository{db: db}
}

func (r *invoiceCounterRepository) NextSequence(ctx context.Context, date string) (int, error) {
	var seq int
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO invoice_counters (id, invoice_date, sequence, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, 1, now(), now())
		ON CONFLICT (invoice_date)
		DO UPDATE SET sequence = invoice_counters.sequence + 1, updated_at = now()
		RETURNING sequence
	`, date).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *invoiceCounterRepository) Current(ctx context.Context, date string) (int, error) {
	var seq int
	err := GetDB(ctx, r.db).Raw(`
		SELECT COALESCE(MAX(sequence), 0) FROM invoice_counters WHERE invoice_date = ?
	`, date).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
