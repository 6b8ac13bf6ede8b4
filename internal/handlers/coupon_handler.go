package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// CouponHandler handles the admin coupon-creation form
type CouponHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(service *service.CatalogService, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger,
	}
}

// CreateCoupons handles POST /api/admin/coupons
// Field errors from the form rules and from the upstream both answer 422.
func (h *CouponHandler) CreateCoupons(w http.ResponseWriter, r *http.Request) {
	var req models.CouponRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid coupon request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	version, err := h.service.CreateCoupons(r.Context(), req)
	if err != nil {
		writeUpstreamError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, version, h.logger)
}
