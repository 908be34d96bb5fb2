package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockCounterRepo(t *testing.T) (InvoiceCounterRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewInvoiceCounterRepository(gormDB), mock, mockDB
}

func TestInvoiceCounterRepository_NextSequence(t *testing.T) {
	t.Run("first use of a date yields 1", func(t *testing.T) {
		repo, mock, mockDB := newMockCounterRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO invoice_counters`).
			WithArgs("20240613").
			WillReturnRows(sqlmock.NewRows([]string{"sequence"}).AddRow(1))

		seq, err := repo.NextSequence(context.Background(), "20240613")
		require.NoError(t, err)
		assert.Equal(t, 1, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing date increments", func(t *testing.T) {
		repo, mock, mockDB := newMockCounterRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`ON CONFLICT \(invoice_date\)`).
			WithArgs("20240613").
			WillReturnRows(sqlmock.NewRows([]string{"sequence"}).AddRow(42))

		seq, err := repo.NextSequence(context.Background(), "20240613")
		require.NoError(t, err)
		assert.Equal(t, 42, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		repo, mock, mockDB := newMockCounterRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO invoice_counters`).
			WithArgs("20240613").
			WillReturnError(errors.New("connection refused"))

		seq, err := repo.NextSequence(context.Background(), "20240613")
		assert.Error(t, err)
		assert.Zero(t, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceCounterRepository_Current(t *testing.T) {
	t.Run("returns latest issued value", func(t *testing.T) {
		repo, mock, mockDB := newMockCounterRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM invoice_counters`).
			WithArgs("20240613").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

		seq, err := repo.Current(context.Background(), "20240613")
		require.NoError(t, err)
		assert.Equal(t, 7, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unused date reads as 0", func(t *testing.T) {
		repo, mock, mockDB := newMockCounterRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence\), 0\) FROM invoice_counters`).
			WithArgs("20991231").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		seq, err := repo.Current(context.Background(), "20991231")
		require.NoError(t, err)
		assert.Equal(t, 0, seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
