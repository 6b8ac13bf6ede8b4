package pricing

import (
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// ItemSummary is the priced view of one basket item.
type ItemSummary struct {
	ItemID            int64           `json:"item_id"`
	CouponCode        string          `json:"coupon_code,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	FormattedPrice    string          `json:"formatted_price"`
	FormattedDiscount string          `json:"formatted_discount"`
	FormattedTotal    string          `json:"formatted_total"`
}

// Summary is the priced view of a whole basket.
type Summary struct {
	Items             []ItemSummary   `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	FormattedSubtotal string          `json:"formatted_subtotal"`
	FormattedDiscount string          `json:"formatted_discount"`
	FormattedTotal    string          `json:"formatted_total"`
}

// CouponFor returns the first valid coupon in the basket that targets the
// item. Coupons that fail ValidateCoupon are skipped.
func CouponFor(basket models.Basket, itemID int64) *models.CouponSelection {
	for i := range basket.Coupons {
		if basket.Coupons[i].AppliesTo(itemID) && ValidateCoupon(basket.Coupons[i]) == nil {
			return &basket.Coupons[i]
		}
	}
	return nil
}

// Summarize prices every item in the basket and totals them.
func Summarize(basket models.Basket) Summary {
	summary := Summary{
		Items:    make([]ItemSummary, 0, len(basket.Items)),
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, item := range basket.Items {
		coupon := CouponFor(basket, item.ID)
		total := CalculatePrice(item, coupon)
		discount := item.Price.Sub(total)

		is := ItemSummary{
			ItemID:   item.ID,
			Price:    item.Price,
			Discount: discount,
			Total:    total,
		}
		if coupon != nil {
			is.CouponCode = coupon.Code
		}
		is.FormattedPrice = FormatPrice(&is.Price)
		is.FormattedDiscount = FormatPrice(&is.Discount)
		is.FormattedTotal = FormatPrice(&is.Total)
		summary.Items = append(summary.Items, is)

		summary.Subtotal = summary.Subtotal.Add(item.Price)
		summary.Discount = summary.Discount.Add(discount)
		summary.Total = summary.Total.Add(total)
	}

	summary.FormattedSubtotal = FormatPrice(&summary.Subtotal)
	summary.FormattedDiscount = FormatPrice(&summary.Discount)
	summary.FormattedTotal = FormatPrice(&summary.Total)
	return summary
}
