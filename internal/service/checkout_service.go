package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/pricing"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
)

var (
	ErrEmptyBasket     = errors.New("basket is empty")
	ErrRunNotSelected  = errors.New("select a course run for every course")
	ErrConsentRequired = errors.New("data consent must be accepted before checkout")
	ErrItemNotFound    = errors.New("basket item not found")
	ErrInvalidRun      = errors.New("run does not belong to the item")
)

// BasketAPI is the part of the upstream client the checkout service calls.
type BasketAPI interface {
	GetBasket(ctx context.Context) (*models.Basket, error)
	PatchBasket(ctx context.Context, patch models.BasketPatch) (*models.Basket, error)
	Checkout(ctx context.Context) (*models.CheckoutResponse, error)
}

// Metrics receives business events. The metrics package implements it.
type Metrics interface {
	CouponApplied(result string)
	CheckoutStarted(kind, result string)
}

type nopMetrics struct{}

func (nopMetrics) CouponApplied(string)           {}
func (nopMetrics) CheckoutStarted(string, string) {}

// Cart is a basket snapshot with its prices worked out.
type Cart struct {
	Basket  models.Basket   `json:"basket"`
	Summary pricing.Summary `json:"summary"`
}

func newCart(b *models.Basket) *Cart {
	return &Cart{Basket: *b, Summary: pricing.Summarize(*b)}
}

// PaymentAction tells the browser how to reach the payment gateway: follow
// Redirect, or post Fields to URL.
type PaymentAction struct {
	Redirect string            `json:"redirect,omitempty"`
	Method   string            `json:"method"`
	URL      string            `json:"url"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// NewPaymentAction converts the upstream checkout answer.
func NewPaymentAction(resp models.CheckoutResponse) PaymentAction {
	if strings.EqualFold(resp.Method, http.MethodGet) {
		return PaymentAction{Redirect: resp.URL, Method: http.MethodGet, URL: resp.URL}
	}
	return PaymentAction{Method: http.MethodPost, URL: resp.URL, Fields: resp.Payload}
}

// AutoSubmit reports whether the action needs a posted form.
func (a PaymentAction) AutoSubmit() bool {
	return a.Redirect == ""
}

// CheckoutService handles basket and checkout business logic
type CheckoutService struct {
	api     BasketAPI
	metrics Metrics
	logger  *slog.Logger
}

// NewCheckoutService creates a new checkout service. metrics may be nil.
func NewCheckoutService(api BasketAPI, metrics Metrics, logger *slog.Logger) *CheckoutService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &CheckoutService{api: api, metrics: metrics, logger: logger}
}

// Summary returns the current basket with prices.
func (s *CheckoutService) Summary(ctx context.Context) (*Cart, error) {
	basket, err := s.api.GetBasket(ctx)
	if err != nil {
		return nil, err
	}
	return newCart(basket), nil
}

// ApplyCoupon replaces the basket's coupon with code. An empty code removes it.
// A code the upstream refuses comes back as *upstream.ValidationError.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, code string) (*Cart, error) {
	code = strings.TrimSpace(code)

	coupons := []models.CouponPatch{}
	if code != "" {
		coupons = append(coupons, models.CouponPatch{Code: code})
	}

	basket, err := s.api.PatchBasket(ctx, models.BasketPatch{Coupons: &coupons})
	if err != nil {
		var verr *upstream.ValidationError
		if errors.As(err, &verr) {
			s.metrics.CouponApplied("rejected")
		} else {
			s.metrics.CouponApplied("error")
		}
		return nil, err
	}

	if code == "" {
		s.metrics.CouponApplied("cleared")
	} else {
		s.metrics.CouponApplied("applied")
	}
	s.logger.InfoContext(ctx, "coupon updated", "code", code)
	return newCart(basket), nil
}

// SelectRun picks runID for whichever of the item's courses offers it,
// replacing that course's previous choice.
func (s *CheckoutService) SelectRun(ctx context.Context, itemID, runID int64) (*Cart, error) {
	basket, err := s.api.GetBasket(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.BasketItemPatch, 0, len(basket.Items))
	found := false
	for _, item := range basket.Items {
		runIDs := item.RunIDs
		if item.ID == itemID {
			found = true
			runIDs, err = replaceRun(item, runID)
			if err != nil {
				return nil, err
			}
		}
		items = append(items, models.BasketItemPatch{ProductID: item.ProductID, RunIDs: runIDs})
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	}

	updated, err := s.api.PatchBasket(ctx, models.BasketPatch{Items: items})
	if err != nil {
		return nil, err
	}
	return newCart(updated), nil
}

func replaceRun(item models.BasketItem, runID int64) ([]int64, error) {
	for _, course := range item.Courses {
		if !course.HasRun(runID) {
			continue
		}
		runIDs := make([]int64, 0, len(item.RunIDs)+1)
		for _, id := range item.RunIDs {
			if !course.HasRun(id) {
				runIDs = append(runIDs, id)
			}
		}
		return append(runIDs, runID), nil
	}
	return nil, fmt.Errorf("%w: run %d, item %d", ErrInvalidRun, runID, item.ID)
}

// AcceptConsents marks the given data consent agreements as accepted.
func (s *CheckoutService) AcceptConsents(ctx context.Context, ids []int64) (*Cart, error) {
	basket, err := s.api.PatchBasket(ctx, models.BasketPatch{DataConsents: ids})
	if err != nil {
		return nil, err
	}
	return newCart(basket), nil
}

// Checkout checks the basket is complete and asks the upstream for the
// payment hand-off.
func (s *CheckoutService) Checkout(ctx context.Context) (PaymentAction, error) {
	basket, err := s.api.GetBasket(ctx)
	if err != nil {
		s.metrics.CheckoutStarted("basket", "error")
		return PaymentAction{}, err
	}

	if err := readyForCheckout(basket); err != nil {
		s.metrics.CheckoutStarted("basket", "incomplete")
		return PaymentAction{}, err
	}

	resp, err := s.api.Checkout(ctx)
	if err != nil {
		s.metrics.CheckoutStarted("basket", "error")
		return PaymentAction{}, err
	}

	s.metrics.CheckoutStarted("basket", "ok")
	s.logger.InfoContext(ctx, "checkout started", "items", len(basket.Items), "method", resp.Method)
	return NewPaymentAction(*resp), nil
}

func readyForCheckout(basket *models.Basket) error {
	if len(basket.Items) == 0 {
		return ErrEmptyBasket
	}
	for _, item := range basket.Items {
		for _, course := range item.Courses {
			if _, ok := item.SelectedRun(course); !ok {
				return fmt.Errorf("%w: %s", ErrRunNotSelected, course.Title)
			}
		}
	}
	for _, consent := range basket.DataConsents {
		if !consent.Accepted {
			return fmt.Errorf("%w: %s", ErrConsentRequired, consent.Company)
		}
	}
	return nil
}
