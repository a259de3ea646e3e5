package service

import (
	"context"
	"testing"

	"rentdesk-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotation_BuildAndSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	camera := f.publishedProduct(t, vendorA, 5, "100")
	tent := f.publishedProduct(t, vendorA, 5, "150")

	q, err := f.quotations.CreateQuotation(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusDraft, q.Status)

	q, err = f.quotations.AddLine(ctx, customer, q.ID, camera.ID, 2, janInterval(t, 1, 3))
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)
	assert.Equal(t, "200.00", q.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "DAILY", q.Lines[0].PricingType)
	assert.Equal(t, vendorA.UserID, q.Lines[0].VendorID)
	assert.Equal(t, domain.LineApprovalPending, q.Lines[0].ApprovalStatus)

	q, err = f.quotations.AddLine(ctx, customer, q.ID, tent.ID, 2, janInterval(t, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", q.Subtotal.StringFixed(2))
	assert.True(t, q.TaxAmount.IsZero())

	q, err = f.quotations.Submit(ctx, customer, q.ID, "12 Market Road")
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusSent, q.Status)
	assert.Equal(t, "180.00", q.TaxAmount.StringFixed(2))
	assert.Equal(t, "1180.00", q.TotalAmount.StringFixed(2))
	assert.Equal(t, "12 Market Road", q.DeliveryAddress)

	stored, err := f.quotations.GetQuotation(ctx, customer, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.TotalAmount.String(), stored.TotalAmount.String())
	assert.Len(t, stored.Lines, 2)

	_, err = f.quotations.AddLine(ctx, customer, q.ID, camera.ID, 1, janInterval(t, 5, 6))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestQuotation_EditLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 3, "100")

	q, err := f.quotations.CreateQuotation(ctx, customer)
	require.NoError(t, err)
	q, err = f.quotations.AddLine(ctx, customer, q.ID, p.ID, 1, janInterval(t, 1, 3))
	require.NoError(t, err)
	lineID := q.Lines[0].ID

	q, err = f.quotations.UpdateLineQuantity(ctx, customer, q.ID, lineID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Lines[0].Quantity)
	assert.Equal(t, "600.00", q.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "600.00", q.Subtotal.StringFixed(2))

	_, err = f.quotations.UpdateLineQuantity(ctx, customer, q.ID, lineID, 4)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = f.quotations.UpdateLineQuantity(ctx, customer, q.ID, lineID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.quotations.UpdateLineQuantity(ctx, customer, q.ID, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	q, err = f.quotations.RemoveLine(ctx, customer, q.ID, lineID)
	require.NoError(t, err)
	assert.Empty(t, q.Lines)
	assert.True(t, q.Subtotal.IsZero())

	_, err = f.quotations.Submit(ctx, customer, q.ID, "")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestQuotation_AddLineRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 2, "100")
	hidden := &domain.Product{Name: "Hidden", QuantityOnHand: 2, PricePerDay: decPtr("100")}
	require.NoError(t, f.products.CreateProduct(ctx, vendorA, hidden))

	q, err := f.quotations.CreateQuotation(ctx, customer)
	require.NoError(t, err)

	_, err = f.quotations.AddLine(ctx, customer, q.ID, hidden.ID, 1, janInterval(t, 1, 3))
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = f.quotations.AddLine(ctx, customer, q.ID, p.ID, 3, janInterval(t, 1, 3))
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = f.quotations.AddLine(ctx, customer, q.ID, "missing", 1, janInterval(t, 1, 3))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.quotations.AddLine(ctx, otherCustomer, q.ID, p.ID, 1, janInterval(t, 1, 3))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stored, err := f.quotations.GetQuotation(ctx, customer, q.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Lines)

	_, err = f.quotations.GetQuotation(ctx, otherCustomer, q.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.quotations.CreateQuotation(ctx, vendorA)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestQuotation_CancelAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 2, "100")

	draft, err := f.quotations.CreateQuotation(ctx, customer)
	require.NoError(t, err)
	_, err = f.quotations.Cancel(ctx, customer, draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	sent := f.submittedQuotation(t, customer, lineSpec{product: p, qty: 1, from: 1, to: 3})
	assert.ErrorIs(t, f.quotations.DeleteQuotation(ctx, customer, sent.ID), domain.ErrInvalidState)

	_, err = f.quotations.Cancel(ctx, otherCustomer, sent.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := f.quotations.Cancel(ctx, customer, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusCancelled, cancelled.Status)

	require.NoError(t, f.quotations.DeleteQuotation(ctx, customer, draft.ID))
	_, err = f.quotations.GetQuotation(ctx, customer, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuotation_Reject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 2, "100")
	q := f.submittedQuotation(t, customer, lineSpec{product: p, qty: 1, from: 1, to: 3})

	_, err := f.quotations.Reject(ctx, vendorB, q.ID, "", "no stock")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.quotations.Reject(ctx, customer, q.ID, vendorA.UserID, "nope")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	rejected, err := f.quotations.Reject(ctx, vendorA, q.ID, "", "dates unavailable")
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusRejected, rejected.Status)
	assert.Equal(t, "dates unavailable", rejected.RejectionReason)

	stored, err := f.quotations.GetQuotation(ctx, vendorA, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LineApprovalRejected, stored.Lines[0].ApprovalStatus)

	_, _, err = f.orders.Approve(ctx, vendorA, q.ID, "", "", dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestQuotation_RejectAfterOtherVendorApproved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pa := f.publishedProduct(t, vendorA, 2, "100")
	pb := f.publishedProduct(t, vendorB, 2, "50")
	q := f.submittedQuotation(t, customer,
		lineSpec{product: pa, qty: 1, from: 1, to: 3},
		lineSpec{product: pb, qty: 1, from: 1, to: 3})

	_, _, err := f.orders.Approve(ctx, vendorA, q.ID, "", "", dec("0"))
	require.NoError(t, err)

	pending, err := f.quotations.ListPendingForVendor(ctx, vendorB)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	rejected, err := f.quotations.Reject(ctx, vendorB, q.ID, "", "cannot fulfil")
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusConfirmed, rejected.Status)

	stored, err := f.quotations.GetQuotation(ctx, customer, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationStatusConfirmed, stored.Status)
	for _, l := range stored.Lines {
		switch l.VendorID {
		case vendorA.UserID:
			assert.Equal(t, domain.LineApprovalApproved, l.ApprovalStatus)
			assert.NotNil(t, l.OrderID)
		case vendorB.UserID:
			assert.Equal(t, domain.LineApprovalRejected, l.ApprovalStatus)
			assert.Equal(t, "cannot fulfil", l.RejectionReason)
		}
	}

	pending, err = f.quotations.ListPendingForVendor(ctx, vendorB)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, _, err = f.orders.Approve(ctx, vendorB, q.ID, "", "", dec("0"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = f.quotations.Reject(ctx, vendorB, q.ID, "", "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestQuotation_Lists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.publishedProduct(t, vendorA, 5, "100")
	q := f.submittedQuotation(t, customer, lineSpec{product: p, qty: 1, from: 1, to: 3})
	_, err := f.quotations.CreateQuotation(ctx, customer)
	require.NoError(t, err)

	mine, err := f.quotations.ListQuotations(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := f.quotations.ListQuotations(ctx, vendorA)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, q.ID, pending[0].ID)

	none, err := f.quotations.ListPendingForVendor(ctx, vendorB)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.quotations.ListPendingForVendor(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
