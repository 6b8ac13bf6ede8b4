package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BulkPrice is the quote for buying several seats of one product version.
type BulkPrice struct {
	NumSeats          int             `json:"num_seats"`
	ItemPrice         decimal.Decimal `json:"item_price"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	FormattedSubtotal string          `json:"formatted_subtotal"`
	FormattedDiscount string          `json:"formatted_discount"`
	FormattedTotal    string          `json:"formatted_total"`
}

// CalculateBulkPrice prices seats at unitPrice with a fractional discount
// applied to every seat. A zero discount means no coupon.
func CalculateBulkPrice(unitPrice decimal.Decimal, seats int, discountFraction decimal.Decimal) (BulkPrice, error) {
	if seats < 1 {
		return BulkPrice{}, ErrInvalidSeats
	}
	if discountFraction.IsNegative() || discountFraction.GreaterThan(decimal.NewFromInt(1)) {
		return BulkPrice{}, fmt.Errorf("%w: discount %s is not a fraction", ErrInvalidAmount, discountFraction)
	}

	n := decimal.NewFromInt(int64(seats))
	subtotal := unitPrice.Mul(n).Round(2)
	discount := unitPrice.Mul(discountFraction).Mul(n).Round(2)
	total := subtotal.Sub(discount)

	bp := BulkPrice{
		NumSeats:  seats,
		ItemPrice: unitPrice,
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     total,
	}
	bp.FormattedSubtotal = FormatPrice(&bp.Subtotal)
	bp.FormattedDiscount = FormatPrice(&bp.Discount)
	bp.FormattedTotal = FormatPrice(&bp.Total)
	return bp, nil
}
