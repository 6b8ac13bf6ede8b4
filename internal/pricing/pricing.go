// Package pricing computes basket item prices, coupon discounts and display
// strings. Every amount is a decimal.Decimal; nothing here touches float64.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDiscountType = errors.New("invalid discount type")
	ErrInvalidSeats        = errors.New("number of seats must be positive")
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a decimal string such as "100.00" or "0.20".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ValidateCoupon checks that a coupon's amount makes sense for its discount type.
func ValidateCoupon(c models.CouponSelection) error {
	if c.Amount.IsNegative() {
		return fmt.Errorf("%w: coupon %s has a negative amount", ErrInvalidAmount, c.Code)
	}
	switch discountType(c) {
	case models.DiscountTypePercentOff:
		if c.Amount.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: coupon %s discounts more than 100%%", ErrInvalidAmount, c.Code)
		}
	case models.DiscountTypeDollarsOff:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDiscountType, c.DiscountType)
	}
	return nil
}

// CalculateDiscount returns the discount the coupon grants on the item. It is
// zero when there is no coupon or the item is not one of its targets, and
// never below zero or above the item price.
func CalculateDiscount(item models.BasketItem, coupon *models.CouponSelection) decimal.Decimal {
	if coupon == nil || !coupon.AppliesTo(item.ID) {
		return decimal.Zero
	}

	discount := coupon.Amount.Mul(item.Price)
	if discountType(*coupon) == models.DiscountTypeDollarsOff {
		discount = coupon.Amount
	}
	return clamp(discount, item.Price)
}

func clamp(discount, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !discount.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(discount, price)
}

// CalculatePrice returns the item price minus its discount, rounded half-up to cents.
func CalculatePrice(item models.BasketItem, coupon *models.CouponSelection) decimal.Decimal {
	return item.Price.Sub(CalculateDiscount(item, coupon)).Round(2)
}

// FormatPrice renders a price for display: "" for nil, "$20" for whole
// amounts and "$20.01" otherwise.
func FormatPrice(price *decimal.Decimal) string {
	if price == nil {
		return ""
	}
	if price.Equal(price.Truncate(0)) {
		return "$" + price.StringFixed(0)
	}
	return "$" + price.StringFixed(2)
}

// FormatDiscountPercent renders a fraction such as 0.2 as "20%".
func FormatDiscountPercent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).Round(2).String() + "%"
}

func discountType(c models.CouponSelection) models.DiscountType {
	if c.DiscountType == "" {
		return models.DiscountTypePercentOff
	}
	return c.DiscountType
}
