// Package coupon validates the admin coupon-creation form before it is sent
// upstream.
package coupon

import (
	"errors"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/pricing"
	"github.com/Lixing-Zhang/storefront/pkg/validate"
	"github.com/shopspring/decimal"
)

// FormValidator checks a CouponRequest: tag rules first, then the rules that
// depend on more than one field.
type FormValidator struct {
	v *validate.Validator
}

// NewFormValidator creates a new coupon form validator
func NewFormValidator() *FormValidator {
	return &FormValidator{v: validate.New()}
}

// Validate returns field errors keyed by JSON field name, or nil when the
// request can be submitted.
func (f *FormValidator) Validate(req models.CouponRequest) map[string]string {
	errs := f.v.Struct(req)
	if errs == nil {
		errs = make(map[string]string)
	}

	set := func(field, msg string) {
		if _, exists := errs[field]; !exists {
			errs[field] = msg
		}
	}

	switch req.CouponType {
	case models.CouponTypePromo:
		if req.PromoCode == "" {
			set("promo_code", "Promo coupons need a code.")
		}
	case models.CouponTypeSingleUse:
		if req.NumCouponCodes == 0 {
			set("num_coupon_codes", "Single-use coupons need a number of codes to generate.")
		}
		if req.PromoCode != "" {
			set("promo_code", "Single-use coupons get generated codes.")
		}
	}

	if !req.Amount.GreaterThan(decimal.Zero) {
		set("amount", "Ensure this value is greater than 0.")
	} else {
		err := pricing.ValidateCoupon(models.CouponSelection{
			Code:         req.PromoCode,
			Amount:       req.Amount,
			DiscountType: req.DiscountType,
		})
		if errors.Is(err, pricing.ErrInvalidAmount) {
			set("amount", "Percent-off discounts must be between 0 and 1.")
		}
	}

	if req.PaymentType == "purchase_order" && req.PaymentTransaction == "" {
		set("payment_transaction", "Purchase orders need a transaction number.")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
