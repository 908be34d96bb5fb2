package service

import (
	"context"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one draft line of a sale in progress. Subtotal is kept in
// step with quantity and price by the Cart methods.
type CartItem struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Cart is the ephemeral staging area for a sale: a mutable draft of line
// items held by the POS client until committed. It has no persistence of
// its own; nothing durable exists until Commit hands it to the invoice
// service.
type Cart struct {
	CustomerID uuid.UUID
	items      []CartItem
}

// NewCart starts an empty cart for a customer
func NewCart(customerID uuid.UUID) *Cart {
	return &Cart{CustomerID: customerID}
}

// AddItem appends a line for the product at its current list price
func (c *Cart) AddItem(product model.Product, quantity int) error {
	if quantity <= 0 {
		return apperror.Validation("quantity must be positive")
	}
	qty := decimal.NewFromInt(int64(quantity))
	c.items = append(c.items, CartItem{
		ProductID:    product.ID,
		ProductName:  product.Name,
		Quantity:     quantity,
		SellingPrice: product.SellingPrice,
		Subtotal:     product.SellingPrice.Mul(qty),
	})
	return nil
}

// UpdateQuantity changes the quantity of the line at index and recomputes
// its subtotal
func (c *Cart) UpdateQuantity(index, quantity int) error {
	if index < 0 || index >= len(c.items) {
		return apperror.Validation("no cart line at index %d", index)
	}
	if quantity <= 0 {
		return apperror.Validation("quantity must be positive")
	}
	item := &c.items[index]
	item.Quantity = quantity
	item.Subtotal = item.SellingPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return nil
}

// UpdatePrice overrides the selling price of the line at index (manual
// discounting at the till) and recomputes its subtotal
func (c *Cart) UpdatePrice(index int, price decimal.Decimal) error {
	if index < 0 || index >= len(c.items) {
		return apperror.Validation("no cart line at index %d", index)
	}
	if price.IsNegative() {
		return apperror.Validation("selling price must not be negative")
	}
	item := &c.items[index]
	item.SellingPrice = price
	item.Subtotal = price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return nil
}

// RemoveItem drops the line at index
func (c *Cart) RemoveItem(index int) error {
	if index < 0 || index >= len(c.items) {
		return apperror.Validation("no cart line at index %d", index)
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// Items returns a copy of the current draft lines
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// GrandTotal is recomputed from the current lines on every read; it is
// never stored independently before commit.
func (c *Cart) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Commit hands the draft to the invoice service. On success the cart is
// cleared; on failure it is left unchanged so the user can correct and
// retry.
func (c *Cart) Commit(ctx context.Context, svc InvoiceService) (InvoiceResponse, error) {
	req := CreateInvoiceRequest{
		CustomerID: c.CustomerID.String(),
		Items:      make([]InvoiceItemRequest, 0, len(c.items)),
	}
	for _, item := range c.items {
		req.Items = append(req.Items, InvoiceItemRequest{
			ProductID:    item.ProductID.String(),
			Quantity:     item.Quantity,
			SellingPrice: item.SellingPrice.StringFixed(2),
		})
	}

	resp, err := svc.CreateInvoice(ctx, req)
	if err != nil {
		return InvoiceResponse{}, err
	}

	c.items = nil
	return resp, nil
}
