package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockInvoiceRepo(t *testing.T) (InvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return NewInvoiceRepository(gormDB), mock, mockDB
}

func TestInvoiceRepository_FindByID(t *testing.T) {
	t.Run("loads invoice with its items", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepo(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		customerID := uuid.New()
		productID := uuid.New()

		invoiceRows := sqlmock.NewRows([]string{"id", "invoice_no", "customer_id", "customer_name", "total_amount", "created_at"}).
			AddRow(invoiceID, "20240613001", customerID, "Kumara Stores", "440.00", time.Now())

		itemRows := sqlmock.NewRows([]string{"id", "invoice_id", "product_id", "product_name", "quantity", "selling_price", "subtotal"}).
			AddRow(uuid.New(), invoiceID, productID, "Basmati Rice 25kg", 2, "175.00", "350.00")

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1`).
			WithArgs(invoiceID, 1).
			WillReturnRows(invoiceRows)
		mock.ExpectQuery(`SELECT \* FROM "invoice_items" WHERE "invoice_items"\."invoice_id" = \$1`).
			WithArgs(invoiceID).
			WillReturnRows(itemRows)

		invoice, err := repo.FindByID(context.Background(), invoiceID)
		require.NoError(t, err)
		assert.Equal(t, "20240613001", invoice.InvoiceNo)
		assert.Equal(t, "Kumara Stores", invoice.CustomerName)
		assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("440.00")))
		require.Len(t, invoice.Items, 1)
		assert.Equal(t, "Basmati Rice 25kg", invoice.Items[0].ProductName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing invoice returns ErrRecordNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepo(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1`).
			WithArgs(invoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByID(context.Background(), invoiceID)
		assert.Nil(t, invoice)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceRepository_FindByInvoiceNo(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepo(t)
	defer mockDB.Close()

	invoiceID := uuid.New()

	invoiceRows := sqlmock.NewRows([]string{"id", "invoice_no", "customer_id", "customer_name", "total_amount", "created_at"}).
		AddRow(invoiceID, "20240613002", uuid.New(), "Kumara Stores", "90.00", time.Now())

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE invoice_no = \$1`).
		WithArgs("20240613002", 1).
		WillReturnRows(invoiceRows)
	mock.ExpectQuery(`SELECT \* FROM "invoice_items"`).
		WithArgs(invoiceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "product_id", "product_name", "quantity", "selling_price", "subtotal"}))

	invoice, err := repo.FindByInvoiceNo(context.Background(), "20240613002")
	require.NoError(t, err)
	assert.Equal(t, invoiceID, invoice.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_List(t *testing.T) {
	t.Run("filters by partial invoice number", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepo(t)
		defer mockDB.Close()

		invoiceID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE invoice_no LIKE \$1`).
			WithArgs("%20240613%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		invoiceRows := sqlmock.NewRows([]string{"id", "invoice_no", "customer_id", "customer_name", "total_amount", "created_at"}).
			AddRow(invoiceID, "20240613001", uuid.New(), "Kumara Stores", "440.00", time.Now())

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE invoice_no LIKE \$1 ORDER BY created_at desc`).
			WithArgs("%20240613%", 20).
			WillReturnRows(invoiceRows)
		mock.ExpectQuery(`SELECT \* FROM "invoice_items"`).
			WithArgs(invoiceID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "product_id", "product_name", "quantity", "selling_price", "subtotal"}))

		invoices, total, err := repo.List(context.Background(), "20240613", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, invoices, 1)
		assert.Equal(t, "20240613001", invoices[0].InvoiceNo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		repo, mock, mockDB := newMockInvoiceRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT \* FROM "invoices" ORDER BY created_at desc`).
			WithArgs(20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_no", "customer_id", "customer_name", "total_amount", "created_at"}))

		invoices, total, err := repo.List(context.Background(), "", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, invoices)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
