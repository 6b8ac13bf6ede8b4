package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProductHandler serves the catalog lists the admin coupon form picks from
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/admin/products
// An optional ?type= narrows the list to courserun, course or program.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	productType := models.ProductType(r.URL.Query().Get("type"))
	switch productType {
	case "", models.ProductTypeCourseRun, models.ProductTypeCourse, models.ProductTypeProgram:
	default:
		WriteError(w, http.StatusBadRequest, "Invalid product type", h.logger)
		return
	}

	products, err := h.service.ListProducts(r.Context(), productType)
	if err != nil {
		writeUpstreamError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
}

// GetProduct handles GET /api/admin/products/{productId}
// - 200: successful operation
// - 400: Invalid ID supplied
// - 404: Product not found
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		h.logger.Warn("invalid product ID format", "productId", chi.URLParam(r, "productId"), "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			h.logger.Info("product not found", "productId", productID)
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
			return
		}
		writeUpstreamError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// ListCompanies handles GET /api/admin/companies
func (h *ProductHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, companies, h.logger)
}
