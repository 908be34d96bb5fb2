package service

import (
	"context"
	"testing"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddEditRemoveTotals(t *testing.T) {
	fx := newInvoiceFixture(t)
	cart := NewCart(fx.customerID)

	require.NoError(t, cart.AddItem(fx.productA, 2)) // 175.00 x 2 = 350.00
	require.NoError(t, cart.AddItem(fx.productB, 1)) // 45.00 x 1 = 45.00
	assert.Equal(t, "395.00", cart.GrandTotal().StringFixed(2))

	// Quantity edit recomputes the line subtotal
	require.NoError(t, cart.UpdateQuantity(1, 3))
	items := cart.Items()
	assert.Equal(t, "135.00", items[1].Subtotal.StringFixed(2))
	assert.Equal(t, "485.00", cart.GrandTotal().StringFixed(2))

	// Manual discount overrides the list price on one line only
	require.NoError(t, cart.UpdatePrice(0, decimal.RequireFromString("150.00")))
	items = cart.Items()
	assert.Equal(t, "300.00", items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "175.00", fx.productA.SellingPrice.StringFixed(2), "list price untouched")
	assert.Equal(t, "435.00", cart.GrandTotal().StringFixed(2))

	require.NoError(t, cart.RemoveItem(0))
	items = cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, fx.productB.ID, items[0].ProductID)
	assert.Equal(t, "135.00", cart.GrandTotal().StringFixed(2))
}

func TestCart_RejectsBadEdits(t *testing.T) {
	fx := newInvoiceFixture(t)
	cart := NewCart(fx.customerID)
	require.NoError(t, cart.AddItem(fx.productA, 1))

	assert.True(t, apperror.IsValidation(cart.AddItem(fx.productB, 0)))
	assert.True(t, apperror.IsValidation(cart.UpdateQuantity(0, -1)))
	assert.True(t, apperror.IsValidation(cart.UpdateQuantity(5, 1)))
	assert.True(t, apperror.IsValidation(cart.UpdatePrice(0, decimal.RequireFromString("-1.00"))))
	assert.True(t, apperror.IsValidation(cart.UpdatePrice(-1, decimal.Zero)))
	assert.True(t, apperror.IsValidation(cart.RemoveItem(3)))

	// Failed edits leave the cart untouched
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "175.00", items[0].SellingPrice.StringFixed(2))
}

func TestCart_EmptyCartTotalIsZero(t *testing.T) {
	cart := NewCart(uuid.New())
	assert.True(t, cart.GrandTotal().IsZero())
	assert.Empty(t, cart.Items())
}

func TestCart_CommitClearsOnSuccess(t *testing.T) {
	fx := newInvoiceFixture(t)
	cart := NewCart(fx.customerID)
	require.NoError(t, cart.AddItem(fx.productA, 2))
	require.NoError(t, cart.AddItem(fx.productB, 2))

	resp, err := cart.Commit(context.Background(), fx.svc)
	require.NoError(t, err)
	assert.Equal(t, "20240613001", resp.InvoiceNo)
	assert.Equal(t, "440.00", resp.TotalAmount)

	assert.Empty(t, cart.Items(), "cart clears after successful commit")
	assert.True(t, cart.GrandTotal().IsZero())
}

func TestCart_CommitKeepsItemsOnFailure(t *testing.T) {
	fx := newInvoiceFixture(t)

	// Cart holds a product that no longer exists in the catalog
	ghost := fx.productA
	ghost.ID = uuid.New()

	cart := NewCart(fx.customerID)
	require.NoError(t, cart.AddItem(fx.productB, 1))
	require.NoError(t, cart.AddItem(ghost, 1))

	_, err := cart.Commit(context.Background(), fx.svc)
	require.Error(t, err)
	assert.True(t, apperror.IsReferenceNotFound(err))

	// Unchanged so the user can fix the draft and retry
	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "220.00", cart.GrandTotal().StringFixed(2))
	assert.Equal(t, 0, fx.invoices.count())

	// Dropping the bad line makes the same cart committable
	require.NoError(t, cart.RemoveItem(1))
	resp, err := cart.Commit(context.Background(), fx.svc)
	require.NoError(t, err)
	assert.Equal(t, "45.00", resp.TotalAmount)
	assert.Empty(t, cart.Items())
}
