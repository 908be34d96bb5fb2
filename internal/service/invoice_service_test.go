package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Fakes ---

type fakeCounterRepo struct {
	mu    sync.Mutex
	seqs  map[string]int
	calls int
	err   error
}

func (f *fakeCounterRepo) NextSequence(ctx context.Context, date string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if f.seqs == nil {
		f.seqs = make(map[string]int)
	}
	f.seqs[date]++
	return f.seqs[date], nil
}

func (f *fakeCounterRepo) Current(ctx context.Context, date string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seqs[date], nil
}

type fakeInvoiceRepo struct {
	mu        sync.Mutex
	invoices  []model.Invoice
	createErr error
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	f.invoices = append(f.invoices, *invoice)
	return nil
}

func (f *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			inv := f.invoices[i]
			return &inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInvoiceRepo) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.invoices {
		if f.invoices[i].InvoiceNo == invoiceNo {
			inv := f.invoices[i]
			return &inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInvoiceRepo) List(ctx context.Context, invoiceNo string, page, limit int) ([]model.Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Invoice
	for _, inv := range f.invoices {
		if invoiceNo == "" || strings.Contains(inv.InvoiceNo, invoiceNo) {
			matched = append(matched, inv)
		}
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeInvoiceRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invoices)
}

type fakeCustomerRepo struct {
	repository.CustomerRepository
	customers map[uuid.UUID]model.Customer
	err       error
}

func (f *fakeCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

type fakeProductRepo struct {
	repository.ProductRepository
	products map[uuid.UUID]model.Product
	err      error
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- Fixture ---

type invoiceFixture struct {
	svc        *invoiceService
	invoices   *fakeInvoiceRepo
	counter    *fakeCounterRepo
	customerID uuid.UUID
	productA   model.Product
	productB   model.Product
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	customerID := uuid.New()
	productA := model.Product{
		ID:           uuid.New(),
		Name:         "Basmati Rice 25kg",
		Code:         "RICE-25",
		SellingPrice: decimal.RequireFromString("175.00"),
	}
	productB := model.Product{
		ID:           uuid.New(),
		Name:         "Sunflower Oil 5L",
		Code:         "OIL-5",
		SellingPrice: decimal.RequireFromString("45.00"),
	}

	invoices := &fakeInvoiceRepo{}
	counter := &fakeCounterRepo{}
	svc := &invoiceService{
		invoiceRepo: invoices,
		counterRepo: counter,
		customerRepo: &fakeCustomerRepo{customers: map[uuid.UUID]model.Customer{
			customerID: {ID: customerID, BusinessName: "Kumara Stores"},
		}},
		productRepo: &fakeProductRepo{products: map[uuid.UUID]model.Product{
			productA.ID: productA,
			productB.ID: productB,
		}},
		txManager: fakeTxManager{},
		now: func() time.Time {
			return time.Date(2024, 6, 13, 10, 30, 0, 0, time.UTC)
		},
	}

	return &invoiceFixture{
		svc:        svc,
		invoices:   invoices,
		counter:    counter,
		customerID: customerID,
		productA:   productA,
		productB:   productB,
	}
}

func (fx *invoiceFixture) request() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		CustomerID: fx.customerID.String(),
		Items: []InvoiceItemRequest{
			{ProductID: fx.productA.ID.String(), Quantity: 2, SellingPrice: "175.00"},
			{ProductID: fx.productB.ID.String(), Quantity: 2, SellingPrice: "45.00"},
		},
	}
}

// --- Tests ---

func TestCreateInvoice_NumbersAndTotals(t *testing.T) {
	fx := newInvoiceFixture(t)

	// Two sales on the same day, fresh counter
	first, err := fx.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		CustomerID: fx.customerID.String(),
		Items: []InvoiceItemRequest{
			{ProductID: fx.productA.ID.String(), Quantity: 2, SellingPrice: "100.00"},
			{ProductID: fx.productB.ID.String(), Quantity: 3, SellingPrice: "50.00"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "20240613001", first.InvoiceNo)
	assert.Equal(t, "Kumara Stores", first.CustomerName)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "Basmati Rice 25kg", first.Items[0].ProductName)
	assert.Equal(t, "200.00", first.Items[0].Subtotal)
	assert.Equal(t, "150.00", first.Items[1].Subtotal)
	assert.Equal(t, "350.00", first.TotalAmount)

	// Second sale overrides the price at the till
	second, err := fx.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		CustomerID: fx.customerID.String(),
		Items: []InvoiceItemRequest{
			{ProductID: fx.productA.ID.String(), Quantity: 1, SellingPrice: "90.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "20240613002", second.InvoiceNo)
	assert.Equal(t, "90.00", second.TotalAmount)

	assert.Equal(t, 2, fx.invoices.count())
}

func TestCreateInvoice_SequenceRestartsPerDay(t *testing.T) {
	fx := newInvoiceFixture(t)

	first, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.NoError(t, err)
	assert.Equal(t, "20240613001", first.InvoiceNo)

	fx.svc.now = func() time.Time {
		return time.Date(2024, 6, 14, 0, 0, 1, 0, time.UTC)
	}

	nextDay, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.NoError(t, err)
	assert.Equal(t, "20240614001", nextDay.InvoiceNo)
}

func TestCreateInvoice_ValidationRejectsBeforeStore(t *testing.T) {
	fx := newInvoiceFixture(t)

	cases := []struct {
		name string
		req  CreateInvoiceRequest
	}{
		{
			name: "malformed customer id",
			req: CreateInvoiceRequest{
				CustomerID: "not-a-uuid",
				Items:      fx.request().Items,
			},
		},
		{
			name: "empty items",
			req: CreateInvoiceRequest{
				CustomerID: fx.customerID.String(),
				Items:      []InvoiceItemRequest{},
			},
		},
		{
			name: "zero quantity",
			req: CreateInvoiceRequest{
				CustomerID: fx.customerID.String(),
				Items: []InvoiceItemRequest{
					{ProductID: fx.productA.ID.String(), Quantity: 0, SellingPrice: "175.00"},
				},
			},
		},
		{
			name: "negative price",
			req: CreateInvoiceRequest{
				CustomerID: fx.customerID.String(),
				Items: []InvoiceItemRequest{
					{ProductID: fx.productA.ID.String(), Quantity: 1, SellingPrice: "-5.00"},
				},
			},
		},
		{
			name: "unparseable price",
			req: CreateInvoiceRequest{
				CustomerID: fx.customerID.String(),
				Items: []InvoiceItemRequest{
					{ProductID: fx.productA.ID.String(), Quantity: 1, SellingPrice: "abc"},
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.CreateInvoice(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	// Rejected requests never reach the counter or the store
	assert.Equal(t, 0, fx.counter.calls)
	assert.Equal(t, 0, fx.invoices.count())
}

func TestCreateInvoice_MissingCustomer(t *testing.T) {
	fx := newInvoiceFixture(t)

	req := fx.request()
	req.CustomerID = uuid.NewString()

	_, err := fx.svc.CreateInvoice(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsReferenceNotFound(err))
	assert.Contains(t, err.Error(), "customer")

	assert.Equal(t, 0, fx.counter.calls)
	assert.Equal(t, 0, fx.invoices.count())
}

func TestCreateInvoice_MissingProductAmongSeveral(t *testing.T) {
	fx := newInvoiceFixture(t)

	missing := uuid.New()
	req := CreateInvoiceRequest{
		CustomerID: fx.customerID.String(),
		Items: []InvoiceItemRequest{
			{ProductID: fx.productA.ID.String(), Quantity: 1, SellingPrice: "175.00"},
			{ProductID: missing.String(), Quantity: 1, SellingPrice: "10.00"},
			{ProductID: fx.productB.ID.String(), Quantity: 1, SellingPrice: "45.00"},
		},
	}

	_, err := fx.svc.CreateInvoice(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsReferenceNotFound(err))
	assert.Contains(t, err.Error(), missing.String())

	// One bad line rejects the whole invoice; nothing partial is written
	assert.Equal(t, 0, fx.counter.calls)
	assert.Equal(t, 0, fx.invoices.count())
}

func TestCreateInvoice_StoreFailureIsTransientAndBurnsSequence(t *testing.T) {
	fx := newInvoiceFixture(t)
	fx.invoices.createErr = errors.New("connection reset by peer")

	_, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))

	// The failed attempt consumed sequence 1; the value is burned, not
	// reissued, so the next successful invoice takes 2
	fx.invoices.createErr = nil
	resp, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.NoError(t, err)
	assert.Equal(t, "20240613002", resp.InvoiceNo)
}

func TestCreateInvoice_CounterFailureIsTransient(t *testing.T) {
	fx := newInvoiceFixture(t)
	fx.counter.err = errors.New("timeout")

	_, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))
	assert.Equal(t, 0, fx.invoices.count())
}

func TestCreateInvoice_DuplicateNumberFailsLoudly(t *testing.T) {
	fx := newInvoiceFixture(t)
	fx.invoices.createErr = gorm.ErrDuplicatedKey

	_, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicateInvoiceNumber(err))
	assert.Contains(t, err.Error(), "20240613001")
	assert.False(t, apperror.IsTransient(err), "a duplicate number must not look retryable")

	// No retry with a fresh number: exactly one sequence was drawn
	assert.Equal(t, 1, fx.counter.calls)
}

func TestCreateInvoice_ConcurrentCreationsGetUniqueNumbers(t *testing.T) {
	fx := newInvoiceFixture(t)

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := fx.svc.CreateInvoice(context.Background(), fx.request())
			if err != nil {
				errs <- err
				return
			}
			numbers <- resp.InvoiceNo
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent create failed: %v", err)
	}

	seen := make(map[string]bool, n)
	for no := range numbers {
		assert.False(t, seen[no], "invoice number %s issued twice", no)
		seen[no] = true
	}
	assert.Len(t, seen, n)
	// The issued set is exactly 1..n with no gaps
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("20240613%03d", i)], "sequence %d never issued", i)
	}
	assert.Equal(t, n, fx.invoices.count())
}

func TestGetInvoiceByID(t *testing.T) {
	fx := newInvoiceFixture(t)

	created, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.NoError(t, err)

	fetched, err := fx.svc.GetInvoiceByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNo, fetched.InvoiceNo)
	assert.Equal(t, created.TotalAmount, fetched.TotalAmount)
	assert.Len(t, fetched.Items, 2)

	_, err = fx.svc.GetInvoiceByID(context.Background(), "not-a-uuid")
	assert.True(t, apperror.IsValidation(err))

	_, err = fx.svc.GetInvoiceByID(context.Background(), uuid.NewString())
	assert.Error(t, err)
}

func TestListInvoices_FilterAndPagination(t *testing.T) {
	fx := newInvoiceFixture(t)

	for i := 0; i < 5; i++ {
		_, err := fx.svc.CreateInvoice(context.Background(), fx.request())
		require.NoError(t, err)
	}

	page1, total, err := fx.svc.ListInvoices(context.Background(), InvoiceFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page1, 2)

	page3, total, err := fx.svc.ListInvoices(context.Background(), InvoiceFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page3, 1)

	filtered, total, err := fx.svc.ListInvoices(context.Background(), InvoiceFilter{InvoiceNo: "003", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, filtered, 1)
	assert.Equal(t, "20240613003", filtered[0].InvoiceNo)
}

func TestInvoiceNumberFormat(t *testing.T) {
	fx := newInvoiceFixture(t)

	// Padding holds through three digits, then widens naturally
	for i := 1; i <= 3; i++ {
		resp, err := fx.svc.CreateInvoice(context.Background(), fx.request())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("20240613%03d", i), resp.InvoiceNo)
	}

	fx.counter.mu.Lock()
	fx.counter.seqs["20240613"] = 999
	fx.counter.mu.Unlock()

	resp, err := fx.svc.CreateInvoice(context.Background(), fx.request())
	require.NoError(t, err)
	assert.Equal(t, "202406131000", resp.InvoiceNo)
}
