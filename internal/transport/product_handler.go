package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"store-api/internal/domain"
	"store-api/internal/middleware"
	"store-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the create-product request payload.
// Price and Stock are pointers so the use-case can tell a missing field
// from a zero value.
type CreateProductRequest struct {
	Name         string   `json:"name"`
	SKU          string   `json:"sku"`
	Description  string   `json:"description"`
	Price        *float64 `json:"price"`
	Stock        *int     `json:"stock"`
	CategoryName string   `json:"categoryName"`
}

// SellProductRequest represents the sell-product request payload
type SellProductRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// PriceUpdateRequest is one item of the bulk-price-update payload
type PriceUpdateRequest struct {
	ProductID string   `json:"productId"`
	NewPrice  *float64 `json:"newPrice"`
}

// ProductResponse is the product summary returned by every product route
type ProductResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"createdAt"`
}

// BulkPriceUpdateResponse reports the outcome of a bulk price update
type BulkPriceUpdateResponse struct {
	SuccessCount int    `json:"successCount"`
	TotalCount   int    `json:"totalCount"`
	Message      string `json:"message"`
}

type searchQuery struct {
	Keyword string `validate:"notblank"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Post("/", h.CreateProduct)
		r.Post("/sell", h.SellProduct)
		r.Put("/bulk-price-update", h.BulkPriceUpdate)
	})
}

// ListProducts handles GET /api/products?category=<name>
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryName := r.URL.Query().Get("category")

	products, err := h.productService.ListProducts(r.Context(), categoryName)
	if err != nil {
		h.respondError(w, "List products failed", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponses(products))
}

// SearchProducts handles GET /api/products/search?keyword=<kw>
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := searchQuery{Keyword: r.URL.Query().Get("keyword")}

	if err := middleware.ValidateRequest(&query); err != nil {
		middleware.RespondWithValidationErrors(w, []string{"กรุณาระบุ keyword สำหรับค้นหา"})
		return
	}

	products, err := h.productService.SearchProducts(r.Context(), strings.TrimSpace(query.Keyword))
	if err != nil {
		h.respondError(w, "Search products failed", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponses(products))
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Create product decode failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, []string{"invalid request body"})
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), service.CreateProductInput{
		Name:         req.Name,
		SKU:          req.SKU,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		CategoryName: req.CategoryName,
	})
	if err != nil {
		h.respondError(w, "Create product failed", err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// SellProduct handles POST /api/products/sell
func (h *ProductHandler) SellProduct(w http.ResponseWriter, r *http.Request) {
	var req SellProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Sell product decode failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, []string{"invalid request body"})
		return
	}

	product, err := h.productService.SellProduct(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(w, "Sell product failed", err)
		return
	}

	h.logger.Info("Product sold",
		zap.String("product_id", product.ID.String()),
		zap.Int("remaining_stock", product.Stock),
	)
	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// BulkPriceUpdate handles PUT /api/products/bulk-price-update. The payload
// is a bare array of {productId, newPrice} items.
func (h *ProductHandler) BulkPriceUpdate(w http.ResponseWriter, r *http.Request) {
	var req []PriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Bulk price update decode failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, []string{"invalid request body"})
		return
	}

	updates := make([]service.PriceUpdate, 0, len(req))
	for _, item := range req {
		updates = append(updates, service.PriceUpdate{
			ProductID: item.ProductID,
			NewPrice:  item.NewPrice,
		})
	}

	result, err := h.productService.BulkUpdatePrices(r.Context(), updates)
	if err != nil {
		h.respondError(w, "Bulk price update failed", err)
		return
	}

	h.logger.Info("Bulk price update completed",
		zap.Int("success_count", result.SuccessCount),
		zap.Int("total_count", result.TotalCount),
	)
	middleware.RespondWithJSON(w, http.StatusOK, BulkPriceUpdateResponse{
		SuccessCount: result.SuccessCount,
		TotalCount:   result.TotalCount,
		Message:      fmt.Sprintf("อัพเดทราคาสำเร็จ %d จาก %d รายการ", result.SuccessCount, result.TotalCount),
	})
}

// respondError maps a use-case failure to the HTTP contract: validation
// batches become 400, everything else the opaque 500.
func (h *ProductHandler) respondError(w http.ResponseWriter, logMsg string, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		middleware.RespondWithValidationErrors(w, vErr.Errors)
		return
	}

	h.logger.Error(logMsg, zap.Error(err))
	middleware.RespondWithInternalError(w)
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Stock:     p.Stock,
		Category:  p.CategoryName(),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toProductResponses(products []*domain.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p))
	}
	return responses
}
