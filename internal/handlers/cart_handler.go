package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/pkg/validate"
)

// CartHandler handles basket and checkout HTTP requests
type CartHandler struct {
	service  *service.CheckoutService
	validate *validate.Validator
	log      *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *service.CheckoutService, log *slog.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validate.New(),
		log:      log,
	}
}

type couponRequest struct {
	Code string `json:"code" validate:"max=50"`
}

type runRequest struct {
	ItemID int64 `json:"item_id" validate:"required"`
	RunID  int64 `json:"run_id" validate:"required"`
}

type consentsRequest struct {
	IDs []int64 `json:"data_consents" validate:"required,min=1,dive,gt=0"`
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Summary(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.log)
}

// ApplyCoupon handles POST /api/cart/coupon. An empty code removes the coupon.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !bindJSON(w, r, h.validate, &req, h.log) {
		return
	}

	cart, err := h.service.ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		writeUpstreamError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.log)
}

// SelectRun handles POST /api/cart/run
func (h *CartHandler) SelectRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !bindJSON(w, r, h.validate, &req, h.log) {
		return
	}

	cart, err := h.service.SelectRun(r.Context(), req.ItemID, req.RunID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			WriteError(w, http.StatusNotFound, "Basket item not found", h.log)
		case errors.Is(err, service.ErrInvalidRun):
			WriteFieldErrors(w, map[string]string{"run_id": "Select one of the item's course runs."}, h.log)
		default:
			writeUpstreamError(w, r, err, h.log)
		}
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.log)
}

// AcceptConsents handles POST /api/cart/consents
func (h *CartHandler) AcceptConsents(w http.ResponseWriter, r *http.Request) {
	var req consentsRequest
	if !bindJSON(w, r, h.validate, &req, h.log) {
		return
	}

	cart, err := h.service.AcceptConsents(r.Context(), req.IDs)
	if err != nil {
		writeUpstreamError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, cart, h.log)
}

// Checkout handles POST /api/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	action, err := h.service.Checkout(r.Context())
	if err != nil {
		h.log.Info("checkout refused", "error", err)

		switch {
		case errors.Is(err, service.ErrEmptyBasket):
			WriteError(w, http.StatusUnprocessableEntity, "Your basket is empty", h.log)
		case errors.Is(err, service.ErrRunNotSelected):
			WriteFieldErrors(w, map[string]string{"run_ids": "Select a course run for every course."}, h.log)
		case errors.Is(err, service.ErrConsentRequired):
			WriteFieldErrors(w, map[string]string{"data_consents": "Accept the data sharing agreement to continue."}, h.log)
		default:
			writeUpstreamError(w, r, err, h.log)
		}
		return
	}

	writePaymentAction(w, r, action, h.log)
}
