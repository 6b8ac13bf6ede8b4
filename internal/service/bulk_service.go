package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/pricing"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCoupon  = errors.New("coupon code is not valid for this product")
	ErrNotForBulkSale = errors.New("product is not available for bulk purchase")
)

// BulkAPI is the part of the upstream client the bulk service calls.
type BulkAPI interface {
	B2BCouponStatus(ctx context.Context, code string, productID int64) (*models.B2BCouponStatus, error)
	BulkCheckout(ctx context.Context, req models.BulkCheckoutRequest) (*models.CheckoutResponse, error)
}

// ProductLookup finds a catalog product. CatalogService implements it.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// Quote is a bulk price together with the product version it was computed for.
type Quote struct {
	pricing.BulkPrice
	ProductID        int64  `json:"product_id"`
	ProductVersionID int64  `json:"product_version_id"`
	CouponCode       string `json:"coupon_code,omitempty"`
	DiscountPercent  string `json:"discount_percent,omitempty"`
}

// BulkService prices and checks out B2B seat purchases
type BulkService struct {
	api      BulkAPI
	products ProductLookup
	metrics  Metrics
	logger   *slog.Logger
}

// NewBulkService creates a new bulk purchase service. metrics may be nil.
func NewBulkService(api BulkAPI, products ProductLookup, metrics Metrics, logger *slog.Logger) *BulkService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &BulkService{api: api, products: products, metrics: metrics, logger: logger}
}

// Quote prices numSeats of the product's latest version, applying code when
// it is set.
func (s *BulkService) Quote(ctx context.Context, productID int64, numSeats int, code string) (*Quote, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Visible {
		return nil, ErrNotForBulkSale
	}

	fraction := decimal.Zero
	code = strings.TrimSpace(code)
	if code != "" {
		status, err := s.api.B2BCouponStatus(ctx, code, productID)
		if err != nil {
			var nf *upstream.NotFoundError
			if errors.As(err, &nf) {
				return nil, ErrInvalidCoupon
			}
			return nil, err
		}
		fraction = status.DiscountPercent
	}

	price, err := pricing.CalculateBulkPrice(product.LatestVersion.Price, numSeats, fraction)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		BulkPrice:        price,
		ProductID:        product.ID,
		ProductVersionID: product.LatestVersion.ID,
	}
	if code != "" {
		q.CouponCode = code
		q.DiscountPercent = pricing.FormatDiscountPercent(fraction)
	}
	return q, nil
}

// Checkout starts payment for a bulk order. The request must already have
// passed validation.
func (s *BulkService) Checkout(ctx context.Context, req models.BulkCheckoutRequest) (PaymentAction, error) {
	resp, err := s.api.BulkCheckout(ctx, req)
	if err != nil {
		s.metrics.CheckoutStarted("bulk", "error")
		return PaymentAction{}, err
	}

	s.metrics.CheckoutStarted("bulk", "ok")
	s.logger.InfoContext(ctx, "bulk checkout started",
		"num_seats", req.NumSeats,
		"product_version_id", req.ProductVersionID,
	)
	return NewPaymentAction(*resp), nil
}
