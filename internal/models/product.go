package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a purchasable catalog entry (course run, course or program).
type Product struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	ProductType    ProductType    `json:"product_type"`
	Visible        bool           `json:"visible_in_bulk_form"`
	LatestVersion  ProductVersion `json:"latest_version"`
	ContentTitle   string         `json:"content_title,omitempty"`
	StartDate      *time.Time     `json:"start_date,omitempty"`
	ThumbnailURL   string         `json:"thumbnail_url,omitempty"`
	RunTag         string         `json:"run_tag,omitempty"`
	CoursewareID   string         `json:"readable_id,omitempty"`
	IsPrivate      bool           `json:"is_private"`
	ActiveRunCount int            `json:"active_run_count,omitempty"`
}

// ProductVersion is the priced snapshot of a product at a point in time.
type ProductVersion struct {
	ID                     int64           `json:"id"`
	Price                  decimal.Decimal `json:"price"`
	Description            string          `json:"description"`
	RequiresEnrollmentCode bool            `json:"requires_enrollment_code"`
}

// Company is a B2B customer that coupons and enrollments can be attributed to.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CouponPaymentVersion describes how a batch of coupons was paid for.
type CouponPaymentVersion struct {
	ID                 int64           `json:"id"`
	Tag                string          `json:"tag,omitempty"`
	AutomaticAllowed   bool            `json:"automatic"`
	CouponType         string          `json:"coupon_type"`
	NumCouponCodes     int             `json:"num_coupon_codes"`
	MaxRedemptions     int             `json:"max_redemptions"`
	MaxRedemptionsUser int             `json:"max_redemptions_per_user"`
	Amount             decimal.Decimal `json:"amount"`
	DiscountType       string          `json:"discount_type"`
	ActivationDate     time.Time       `json:"activation_date"`
	ExpirationDate     time.Time       `json:"expiration_date"`
	PaymentType        string          `json:"payment_type"`
	PaymentTransaction string          `json:"payment_transaction,omitempty"`
	Company            *Company        `json:"company,omitempty"`
}

// Coupon batch types.
const (
	CouponTypePromo     = "promo"
	CouponTypeSingleUse = "single-use"
)

// CouponRequest is the body of POST /api/coupons/, filled in by the admin
// coupon-creation form.
type CouponRequest struct {
	Name                  string          `json:"name" validate:"required,max=256"`
	CouponType            string          `json:"coupon_type" validate:"required,oneof=promo single-use"`
	PromoCode             string          `json:"promo_code,omitempty" validate:"omitempty,alphanum,max=50"`
	NumCouponCodes        int             `json:"num_coupon_codes,omitempty" validate:"omitempty,min=1,max=1000"`
	MaxRedemptions        int             `json:"max_redemptions,omitempty" validate:"omitempty,min=1"`
	MaxRedemptionsPerUser int             `json:"max_redemptions_per_user,omitempty" validate:"omitempty,min=1"`
	Amount                decimal.Decimal `json:"amount"`
	DiscountType          DiscountType    `json:"discount_type" validate:"required,oneof=percent-off dollars-off"`
	ProductIDs            []int64         `json:"product_ids" validate:"required,min=1,dive,gt=0"`
	ActivationDate        time.Time       `json:"activation_date" validate:"required"`
	ExpirationDate        time.Time       `json:"expiration_date" validate:"required,gtfield=ActivationDate"`
	PaymentType           string          `json:"payment_type" validate:"required,oneof=credit_card purchase_order marketing sales staff"`
	PaymentTransaction    string          `json:"payment_transaction,omitempty" validate:"max=256"`
	CompanyID             *int64          `json:"company,omitempty"`
	Automatic             bool            `json:"automatic"`
	IncludeFutureRuns     bool            `json:"include_future_runs"`
	Tag                   string          `json:"tag,omitempty" validate:"max=256"`
}
