package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lixing-Zhang/storefront/internal/coupon"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
)

var ErrProductNotFound = errors.New("product not found")

// CatalogAPI is the part of the upstream client the catalog service calls.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	CreateCoupons(ctx context.Context, req models.CouponRequest) (*models.CouponPaymentVersion, error)
}

// CatalogService handles business logic for products, companies and coupon creation
type CatalogService struct {
	api    CatalogAPI
	form   *coupon.FormValidator
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(api CatalogAPI, form *coupon.FormValidator, logger *slog.Logger) *CatalogService {
	return &CatalogService{api: api, form: form, logger: logger}
}

// ListProducts returns all products, or only those of productType when it is set
func (s *CatalogService) ListProducts(ctx context.Context, productType models.ProductType) ([]models.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if productType == "" {
		return products, nil
	}

	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.ProductType == productType {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetProduct returns a product by its ID
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
}

// ListCompanies returns the companies coupons can be attributed to
func (s *CatalogService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return s.api.ListCompanies(ctx)
}

// CreateCoupons validates the form and creates the coupon batch upstream.
// Local and upstream form errors both come back as *upstream.ValidationError.
func (s *CatalogService) CreateCoupons(ctx context.Context, req models.CouponRequest) (*models.CouponPaymentVersion, error) {
	if errs := s.form.Validate(req); errs != nil {
		return nil, &upstream.ValidationError{Op: "create coupons", FieldErrors: errs}
	}

	version, err := s.api.CreateCoupons(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupons created",
		"name", req.Name,
		"coupon_type", req.CouponType,
		"payment_version", version.ID,
	)
	return version, nil
}
