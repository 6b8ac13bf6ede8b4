package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutResponse tells the browser how to hand off to the payment gateway.
// Method "GET" means redirect to URL; anything else means post Payload to URL.
type CheckoutResponse struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Payload map[string]string `json:"payload"`
}

// BulkCheckoutRequest is the body of POST /api/b2b/checkout/.
type BulkCheckoutRequest struct {
	NumSeats         int    `json:"num_seats" validate:"required,min=1,max=1000"`
	Email            string `json:"email" validate:"required,email"`
	ProductVersionID int64  `json:"product_version_id" validate:"required"`
	DiscountCode     string `json:"discount_code,omitempty"`
	ContractNumber   string `json:"contract_number,omitempty" validate:"max=50"`
}

// B2BCouponStatus is the answer of GET /api/b2b/coupon_status/.
type B2BCouponStatus struct {
	Code            string          `json:"code"`
	ProductID       int64           `json:"product_id"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// B2B order statuses reported by the upstream.
const (
	OrderStatusCreated   = "created"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusFailed    = "failed"
	OrderStatusRefunded  = "refunded"
)

// B2BOrderStatus is the answer of GET /api/b2b/orders/{hash}/status/.
type B2BOrderStatus struct {
	Status         string           `json:"status"`
	NumSeats       int              `json:"num_seats"`
	ItemPrice      decimal.Decimal  `json:"item_price"`
	TotalPrice     decimal.Decimal  `json:"total_price"`
	Discount       *decimal.Decimal `json:"discount,omitempty"`
	Email          string           `json:"email"`
	ContractNumber string           `json:"contract_number,omitempty"`
	ReceiptData    map[string]any   `json:"receipt_data,omitempty"`
	CreatedOn      *time.Time       `json:"created_on,omitempty"`
	ProductVersion ProductVersion   `json:"product_version"`
}

// Done reports whether the order reached a state that polling can stop on.
func (s B2BOrderStatus) Done() bool {
	switch s.Status {
	case OrderStatusFulfilled, OrderStatusFailed, OrderStatusRefunded:
		return true
	}
	return false
}
