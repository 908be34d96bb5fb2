package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// storeTimeout bounds every store access of a single invoice creation so a
// hung database surfaces as a transient error instead of blocking the caller.
const storeTimeout = 5 * time.Second

// --- DTOs ---

type InvoiceItemRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required"`
	SellingPrice string `json:"selling_price" binding:"required"`
}

type CreateInvoiceRequest struct {
	CustomerID string               `json:"customer_id" binding:"required"`
	Items      []InvoiceItemRequest `json:"items" binding:"required"`
}

type InvoiceFilter struct {
	InvoiceNo string // partial match on invoice_no
	Page      int
	Limit     int
}

type InvoiceItemResponse struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	SellingPrice string `json:"selling_price"`
	Subtotal     string `json:"subtotal"`
}

type InvoiceResponse struct {
	ID           string                `json:"id"`
	InvoiceNo    string                `json:"invoice_no"`
	CustomerID   string                `json:"customer_id"`
	CustomerName string                `json:"customer_name"`
	Items        []InvoiceItemResponse `json:"items"`
	TotalAmount  string                `json:"total_amount"`
	CreatedAt    string                `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	// CreateInvoice is the single write path that turns a cart into a
	// durable invoice. It is not idempotent: submitting the same cart
	// twice produces two invoices with two distinct numbers.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoiceByID(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	counterRepo  repository.InvoiceCounterRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	txManager    repository.TransactionManager
	hub          *websocket.Hub
	now          func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	counterRepo repository.InvoiceCounterRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		counterRepo:  counterRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		txManager:    txManager,
		hub:          hub,
		now:          time.Now,
	}
}

// --- Implementation ---

// parsedItem is a line item that passed structural validation
type parsedItem struct {
	productID    uuid.UUID
	quantity     int
	sellingPrice decimal.Decimal
}

// validateRequest rejects malformed input before any store access. No
// sequence number is consumed for a request that fails here.
func validateRequest(req CreateInvoiceRequest) (uuid.UUID, []parsedItem, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return uuid.Nil, nil, apperror.Validation("invalid customer_id: %s", req.CustomerID)
	}
	if len(req.Items) == 0 {
		return uuid.Nil, nil, apperror.Validation("items must not be empty")
	}

	items := make([]parsedItem, 0, len(req.Items))
	for i, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return uuid.Nil, nil, apperror.Validation("items[%d]: invalid product_id: %s", i, item.ProductID)
		}
		if item.Quantity <= 0 {
			return uuid.Nil, nil, apperror.Validation("items[%d]: quantity must be positive", i)
		}
		price, err := decimal.NewFromString(item.SellingPrice)
		if err != nil {
			return uuid.Nil, nil, apperror.Validation("items[%d]: invalid selling_price: %s", i, item.SellingPrice)
		}
		if price.IsNegative() {
			return uuid.Nil, nil, apperror.Validation("items[%d]: selling_price must not be negative", i)
		}
		items = append(items, parsedItem{productID: productID, quantity: item.Quantity, sellingPrice: price})
	}

	return customerID, items, nil
}

// validateReferences confirms the customer and every product exist,
// failing fast on the first missing reference. The fetched records are
// returned so the composer does not re-fetch them.
func (s *invoiceService) validateReferences(ctx context.Context, customerID uuid.UUID, items []parsedItem) (*model.Customer, map[uuid.UUID]*model.Product, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &apperror.ReferenceNotFoundError{Entity: "customer", ID: customerID.String()}
		}
		return nil, nil, apperror.Transient("customer lookup", err)
	}

	products := make(map[uuid.UUID]*model.Product, len(items))
	for _, item := range items {
		if _, ok := products[item.productID]; ok {
			continue
		}
		product, err := s.productRepo.FindByID(ctx, item.productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, &apperror.ReferenceNotFoundError{Entity: "product", ID: item.productID.String()}
			}
			return nil, nil, apperror.Transient("product lookup", err)
		}
		products[item.productID] = product
	}

	return customer, products, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error) {
	customerID, items, err := validateRequest(req)
	if err != nil {
		return InvoiceResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	customer, products, err := s.validateReferences(ctx, customerID, items)
	if err != nil {
		return InvoiceResponse{}, err
	}

	lines := make([]model.InvoiceItem, 0, len(items))
	grandTotal := decimal.Zero
	for _, item := range items {
		subtotal := item.sellingPrice.Mul(decimal.NewFromInt(int64(item.quantity)))
		lines = append(lines, model.InvoiceItem{
			ProductID:    item.productID,
			ProductName:  products[item.productID].Name,
			Quantity:     item.quantity,
			SellingPrice: item.sellingPrice,
			Subtotal:     subtotal,
		})
		grandTotal = grandTotal.Add(subtotal)
	}

	// The sequence is drawn outside any transaction on purpose: if the
	// insert below fails, the value is burned rather than rolled back, so
	// it can never be handed to a second caller.
	date := s.now().Format("20060102")
	seq, err := s.counterRepo.NextSequence(ctx, date)
	if err != nil {
		return InvoiceResponse{}, apperror.Transient("issue invoice number", err)
	}
	invoiceNo := fmt.Sprintf("%s%03d", date, seq)

	invoice := model.Invoice{
		InvoiceNo:    invoiceNo,
		CustomerID:   customer.ID,
		CustomerName: customer.BusinessName,
		Items:        lines,
		TotalAmount:  grandTotal,
	}

	// Invoice row and its line items commit together
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.invoiceRepo.Create(txCtx, &invoice)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The counter guarantees this cannot happen; if the store
			// reports it anyway, the serialization guarantee was broken
			// somewhere. Fail loudly, never retry with a fresh number.
			dup := &apperror.DuplicateInvoiceNumberError{InvoiceNo: invoiceNo}
			log.Printf("ALERT: %v", dup)
			return InvoiceResponse{}, dup
		}
		// The drawn sequence value is lost here; accepted behavior.
		return InvoiceResponse{}, apperror.Transient("persist invoice", err)
	}

	resp := toInvoiceResponse(invoice)
	s.broadcastInvoiceCreated(resp)
	return resp, nil
}

func (s *invoiceService) GetInvoiceByID(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, apperror.Validation("invalid invoice id: %s", id)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, fmt.Errorf("invoice not found")
		}
		return InvoiceResponse{}, apperror.Transient("invoice lookup", err)
	}

	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, filter.InvoiceNo, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, toInvoiceResponse(inv))
	}
	return result, total, nil
}

// broadcastInvoiceCreated pushes the new invoice to connected dashboards
func (s *invoiceService) broadcastInvoiceCreated(resp InvoiceResponse) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event": "invoice.created",
		"data":  resp,
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

// --- Mapping ---

// toInvoiceResponse renders an invoice from its own stored fields only.
// Customer and product names were hard-copied at creation, so a record
// whose references were deleted later still displays.
func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ProductID:    item.ProductID.String(),
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			SellingPrice: item.SellingPrice.StringFixed(2),
			Subtotal:     item.Subtotal.StringFixed(2),
		})
	}

	return InvoiceResponse{
		ID:           inv.ID.String(),
		InvoiceNo:    inv.InvoiceNo,
		CustomerID:   inv.CustomerID.String(),
		CustomerName: inv.CustomerName,
		Items:        items,
		TotalAmount:  inv.TotalAmount.StringFixed(2),
		CreatedAt:    inv.CreatedAt.Format(time.RFC3339),
	}
}
