package service

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

type fakeUpstream struct {
	mu sync.Mutex

	basket      *models.Basket
	basketErr   error
	patchErr    error
	checkout    *models.CheckoutResponse
	checkoutErr error
	patches     []models.BasketPatch
	checkouts   int

	products    []models.Product
	companies   []models.Company
	couponErr   error
	couponReqs  []models.CouponRequest
	couponStats map[string]*models.B2BCouponStatus
	statusErr   error
	bulkReqs    []models.BulkCheckoutRequest
}

func (f *fakeUpstream) GetBasket(ctx context.Context) (*models.Basket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.basketErr != nil {
		return nil, f.basketErr
	}
	b := *f.basket
	return &b, nil
}

func (f *fakeUpstream) PatchBasket(ctx context.Context, patch models.BasketPatch) (*models.Basket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	b := *f.basket
	return &b, nil
}

func (f *fakeUpstream) Checkout(ctx context.Context) (*models.CheckoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts++
	return f.checkout, f.checkoutErr
}

func (f *fakeUpstream) ListProducts(ctx context.Context) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeUpstream) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return f.companies, nil
}

func (f *fakeUpstream) CreateCoupons(ctx context.Context, req models.CouponRequest) (*models.CouponPaymentVersion, error) {
	f.couponReqs = append(f.couponReqs, req)
	if f.couponErr != nil {
		return nil, f.couponErr
	}
	return &models.CouponPaymentVersion{ID: 77, CouponType: req.CouponType}, nil
}

func (f *fakeUpstream) B2BCouponStatus(ctx context.Context, code string, productID int64) (*models.B2BCouponStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.couponStats[code], nil
}

func (f *fakeUpstream) BulkCheckout(ctx context.Context, req models.BulkCheckoutRequest) (*models.CheckoutResponse, error) {
	f.bulkReqs = append(f.bulkReqs, req)
	return f.checkout, f.checkoutErr
}

type recordedMetrics struct {
	coupons   []string
	checkouts []string
}

func (m *recordedMetrics) CouponApplied(result string) {
	m.coupons = append(m.coupons, result)
}

func (m *recordedMetrics) CheckoutStarted(kind, result string) {
	m.checkouts = append(m.checkouts, kind+":"+result)
}
