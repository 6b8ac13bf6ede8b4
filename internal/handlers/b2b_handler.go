package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/pricing"
	"github.com/Lixing-Zhang/storefront/internal/receipt"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// receiptWriteSlack is added to the poll deadline when extending the write
// deadline of a receipt request.
const receiptWriteSlack = 10 * time.Second

// B2BHandler handles bulk seat purchases and their receipts
type B2BHandler struct {
	service  *service.BulkService
	poller   *receipt.Poller
	deadline time.Duration
	validate *validate.Validator
	logger   *slog.Logger
}

// NewB2BHandler creates a new B2B handler. deadline is the poller's deadline.
func NewB2BHandler(service *service.BulkService, poller *receipt.Poller, deadline time.Duration, logger *slog.Logger) *B2BHandler {
	return &B2BHandler{
		service:  service,
		poller:   poller,
		deadline: deadline,
		validate: validate.New(),
		logger:   logger,
	}
}

// Quote handles GET /api/b2b/quote?product_id=&num_seats=&discount_code=
func (h *B2BHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	productID, err := strconv.ParseInt(q.Get("product_id"), 10, 64)
	if err != nil {
		WriteFieldErrors(w, map[string]string{"product_id": "Select a product."}, h.logger)
		return
	}
	numSeats, err := strconv.Atoi(q.Get("num_seats"))
	if err != nil {
		WriteFieldErrors(w, map[string]string{"num_seats": "Enter a number of seats."}, h.logger)
		return
	}

	quote, err := h.service.Quote(r.Context(), productID, numSeats, q.Get("discount_code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
		case errors.Is(err, service.ErrNotForBulkSale):
			WriteFieldErrors(w, map[string]string{"product_id": "This product is not available for bulk purchase."}, h.logger)
		case errors.Is(err, service.ErrInvalidCoupon):
			WriteFieldErrors(w, map[string]string{"discount_code": "Invalid code."}, h.logger)
		case errors.Is(err, pricing.ErrInvalidSeats):
			WriteFieldErrors(w, map[string]string{"num_seats": "Number of seats must be at least 1."}, h.logger)
		default:
			writeUpstreamError(w, r, err, h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusOK, quote, h.logger)
}

// Checkout handles POST /api/b2b/checkout
func (h *B2BHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.BulkCheckoutRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}

	action, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		writeUpstreamError(w, r, err, h.logger)
		return
	}

	writePaymentAction(w, r, action, h.logger)
}

// Receipt handles GET /api/b2b/orders/{hash}/receipt
// It holds the request open until the order is fulfilled or the poller gives up.
func (h *B2BHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		WriteError(w, http.StatusBadRequest, "Invalid order", h.logger)
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(h.deadline + receiptWriteSlack)); err != nil {
		h.logger.Debug("cannot extend write deadline", "error", err)
	}

	status, err := h.poller.Wait(r.Context(), hash)
	if err != nil {
		switch {
		case errors.Is(err, receipt.ErrReceiptTimeout):
			WriteError(w, http.StatusGatewayTimeout,
				"Your order is still being processed. Please check back later or contact support.", h.logger)
		case errors.Is(err, receipt.ErrOrderNotFulfilled):
			WriteJSON(w, http.StatusConflict, status, h.logger)
		case r.Context().Err() != nil:
			h.logger.Info("receipt request canceled", "hash", hash)
		default:
			writeUpstreamError(w, r, err, h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusOK, status, h.logger)
}
