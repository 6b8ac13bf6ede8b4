package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType is the kind of thing a basket item sells.
type ProductType string

const (
	ProductTypeCourseRun ProductType = "courserun"
	ProductTypeCourse    ProductType = "course"
	ProductTypeProgram   ProductType = "program"
)

// DiscountType selects how CouponSelection.Amount is interpreted.
type DiscountType string

const (
	// DiscountTypePercentOff treats the amount as a fraction of the item price.
	DiscountTypePercentOff DiscountType = "percent-off"
	// DiscountTypeDollarsOff treats the amount as an absolute currency amount.
	DiscountTypeDollarsOff DiscountType = "dollars-off"
)

// CourseRun is one scheduled offering of a course.
type CourseRun struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CoursewareID string     `json:"courseware_id"`
}

// Course is a sub-course of a basket item together with its run choices.
type Course struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	CourseRuns []CourseRun `json:"courseruns"`
}

// HasRun reports whether runID is one of the course's runs.
func (c Course) HasRun(runID int64) bool {
	for _, run := range c.CourseRuns {
		if run.ID == runID {
			return true
		}
	}
	return false
}

// BasketItem is a purchasable product instance currently in the basket.
type BasketItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	Type         ProductType     `json:"type"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description,omitempty"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	Courses      []Course        `json:"courses"`
	RunIDs       []int64         `json:"run_ids"`
}

// SelectedRun returns the selected run for a course, if any.
func (i BasketItem) SelectedRun(course Course) (int64, bool) {
	for _, runID := range i.RunIDs {
		if course.HasRun(runID) {
			return runID, true
		}
	}
	return 0, false
}

// CouponSelection is a discount applied to the basket.
type CouponSelection struct {
	Code         string          `json:"code"`
	Amount       decimal.Decimal `json:"amount"`
	DiscountType DiscountType    `json:"discount_type,omitempty"`
	Targets      []int64         `json:"targets"`
}

// AppliesTo reports whether the coupon applies to the given basket item id.
func (c CouponSelection) AppliesTo(itemID int64) bool {
	for _, id := range c.Targets {
		if id == itemID {
			return true
		}
	}
	return false
}

// DataConsent is an agreement a user must accept before purchasing.
type DataConsent struct {
	ID          int64  `json:"id"`
	Company     string `json:"company"`
	ConsentText string `json:"consent_text"`
	Accepted    bool   `json:"accepted,omitempty"`
}

// Basket is the snapshot returned by the basket endpoint.
type Basket struct {
	Items        []BasketItem      `json:"items"`
	Coupons      []CouponSelection `json:"coupons"`
	DataConsents []DataConsent     `json:"data_consents"`
}

// BasketItemPatch is the item shape accepted by the basket PATCH endpoint.
type BasketItemPatch struct {
	ProductID int64   `json:"product_id"`
	RunIDs    []int64 `json:"run_ids"`
}

// CouponPatch is the coupon shape accepted by the basket PATCH endpoint.
type CouponPatch struct {
	Code string `json:"code"`
}

// BasketPatch is the body of PATCH /api/basket/. Nil fields are omitted so a
// patch only touches what it names; a non-nil empty Coupons clears coupons.
type BasketPatch struct {
	Items        []BasketItemPatch `json:"items,omitempty"`
	Coupons      *[]CouponPatch    `json:"coupons,omitempty"`
	DataConsents []int64           `json:"data_consents,omitempty"`
}
