package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/coupon"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_ListProducts(t *testing.T) {
	api := &fakeUpstream{products: []models.Product{
		{ID: 1, ProductType: models.ProductTypeCourseRun},
		{ID: 2, ProductType: models.ProductTypeProgram},
	}}
	svc := NewCatalogService(api, coupon.NewFormValidator(), logger.Discard())

	all, err := svc.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	programs, err := svc.ListProducts(context.Background(), models.ProductTypeProgram)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, int64(2), programs[0].ID)
}

func TestCatalogService_CreateCoupons(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := models.CouponRequest{
		Name:           "Partners",
		CouponType:     models.CouponTypeSingleUse,
		NumCouponCodes: 10,
		Amount:         decimal.RequireFromString("0.5"),
		DiscountType:   models.DiscountTypePercentOff,
		ProductIDs:     []int64{1},
		ActivationDate: start,
		ExpirationDate: start.AddDate(1, 0, 0),
		PaymentType:    "sales",
	}

	t.Run("valid form reaches upstream", func(t *testing.T) {
		api := &fakeUpstream{}
		svc := NewCatalogService(api, coupon.NewFormValidator(), logger.Discard())

		version, err := svc.CreateCoupons(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(77), version.ID)
		assert.Len(t, api.couponReqs, 1)
	})

	t.Run("invalid form stays local", func(t *testing.T) {
		api := &fakeUpstream{}
		svc := NewCatalogService(api, coupon.NewFormValidator(), logger.Discard())

		bad := req
		bad.NumCouponCodes = 0
		_, err := svc.CreateCoupons(context.Background(), bad)

		var verr *upstream.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.FieldErrors, "num_coupon_codes")
		assert.Empty(t, api.couponReqs)
	})
}
