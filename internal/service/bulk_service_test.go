package service

import (
	"context"
	"testing"

	"github.com/Lixing-Zhang/storefront/internal/coupon"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/pricing"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bulkFixture() *fakeUpstream {
	return &fakeUpstream{
		products: []models.Product{
			{ID: 5, Title: "Data Science", Visible: true, LatestVersion: models.ProductVersion{ID: 50, Price: decimal.RequireFromString("250")}},
			{ID: 6, Title: "Hidden", LatestVersion: models.ProductVersion{ID: 60, Price: decimal.RequireFromString("10")}},
		},
		couponStats: map[string]*models.B2BCouponStatus{
			"BULK10": {Code: "BULK10", ProductID: 5, DiscountPercent: decimal.RequireFromString("0.1")},
		},
		checkout: &models.CheckoutResponse{Method: "POST", URL: "https://pay.example.com"},
	}
}

func newBulkService(api *fakeUpstream) *BulkService {
	catalog := NewCatalogService(api, coupon.NewFormValidator(), logger.Discard())
	return NewBulkService(api, catalog, nil, logger.Discard())
}

func TestBulkService_Quote(t *testing.T) {
	svc := newBulkService(bulkFixture())
	ctx := context.Background()

	q, err := svc.Quote(ctx, 5, 4, "")
	require.NoError(t, err)
	assert.Equal(t, "$1000", q.FormattedTotal)
	assert.Equal(t, int64(50), q.ProductVersionID)
	assert.Empty(t, q.CouponCode)

	q, err = svc.Quote(ctx, 5, 4, " BULK10 ")
	require.NoError(t, err)
	assert.Equal(t, "$900", q.FormattedTotal)
	assert.Equal(t, "$100", q.FormattedDiscount)
	assert.Equal(t, "BULK10", q.CouponCode)
	assert.Equal(t, "10%", q.DiscountPercent)
}

func TestBulkService_QuoteErrors(t *testing.T) {
	ctx := context.Background()

	svc := newBulkService(bulkFixture())
	_, err := svc.Quote(ctx, 99, 1, "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Quote(ctx, 6, 1, "")
	assert.ErrorIs(t, err, ErrNotForBulkSale)

	_, err = svc.Quote(ctx, 5, 0, "")
	assert.ErrorIs(t, err, pricing.ErrInvalidSeats)

	api := bulkFixture()
	api.statusErr = &upstream.NotFoundError{Op: "b2b coupon status"}
	_, err = newBulkService(api).Quote(ctx, 5, 1, "WRONG")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestBulkService_Checkout(t *testing.T) {
	api := bulkFixture()
	svc := newBulkService(api)

	req := models.BulkCheckoutRequest{NumSeats: 3, Email: "buyer@example.com", ProductVersionID: 50}
	action, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, action.AutoSubmit())
	assert.Equal(t, []models.BulkCheckoutRequest{req}, api.bulkReqs)
}
