package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"store-api/internal/domain"
	"store-api/internal/repository"

	"github.com/google/uuid"
)

// Validation messages are user-facing copy carried over from the store's
// localized UI; they are part of the API contract.
const (
	msgNameRequired        = "ชื่อสินค้าต้องไม่ว่าง"
	msgSKURequired         = "รหัสสินค้าต้องไม่ว่าง"
	msgSKUTooShort         = "รหัสสินค้าต้องมีอย่างน้อย 3 ตัวอักษร"
	msgSKUTaken            = "รหัสสินค้านี้ถูกใช้งานแล้ว"
	msgPriceRequired       = "ราคาต้องระบุ"
	msgPricePositive       = "ราคาต้องมากกว่า 0"
	msgStockRequired       = "จำนวนสินค้าคงคลังต้องระบุ"
	msgStockNonNegative    = "จำนวนสินค้าคงคลังต้องไม่ติดลบ"
	msgCategoryRequired    = "หมวดหมู่ต้องระบุ"
	msgCategoryNotFound    = "หมวดหมู่ไม่พบในระบบ"
	msgCategoryInactive    = "หมวดหมู่นี้ไม่สามารถใช้งานได้"
	msgQuantityRequired    = "จำนวนที่ต้องการขายต้องระบุ"
	msgQuantityPositive    = "จำนวนที่ต้องการขายต้องมากกว่า 0"
	msgProductIDRequired   = "รหัสสินค้าต้องระบุ"
	msgProductNotFound     = "ไม่พบสินค้าในระบบ"
	msgBulkListRequired    = "กรุณาระบุรายการสินค้าที่ต้องการอัพเดทราคา"
	msgNewPriceRequired    = "ราคาใหม่ต้องระบุ"
	fmtInsufficientStock   = "สินค้าคงคลังไม่เพียงพอ (คงเหลือ: %d)"
	fmtNewPricePositive    = "ราคาใหม่ต้องมากกว่า 0 (productId: %s)"
	fmtBulkProductNotFound = "ไม่พบสินค้าในระบบ (productId: %s)"
	fmtBulkUpdateFailed    = "เกิดข้อผิดพลาดในการอัพเดทราคา (productId: %s)"
)

const minSKULength = 3

// CreateProductInput carries the fields of a create-product request.
// Price and Stock are pointers so a missing field and a zero value produce
// different validation messages.
type CreateProductInput struct {
	Name         string
	SKU          string
	Description  string
	Price        *float64
	Stock        *int
	CategoryName string
}

// PriceUpdate is one item of a bulk price update
type PriceUpdate struct {
	ProductID string
	NewPrice  *float64
}

// BulkUpdateResult reports how many items of a bulk price update succeeded
type BulkUpdateResult struct {
	SuccessCount int
	TotalCount   int
}

// ProductService defines the interface for product business logic
type ProductService interface {
	ListProducts(ctx context.Context, categoryName string) ([]*domain.Product, error)
	SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	SellProduct(ctx context.Context, productID string, quantity *int) (*domain.Product, error)
	BulkUpdatePrices(ctx context.Context, updates []PriceUpdate) (*BulkUpdateResult, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// ListProducts returns active products newest-first, optionally filtered by
// an active category's exact name.
func (s *productService) ListProducts(ctx context.Context, categoryName string) ([]*domain.Product, error) {
	products, err := s.productRepo.FindAll(ctx, categoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// SearchProducts returns active products whose name or SKU contains the
// keyword, case-insensitively. Empty keywords are rejected at the HTTP
// boundary, not here.
func (s *productService) SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error) {
	products, err := s.productRepo.SearchByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// CreateProduct validates the input, collecting every failing rule into one
// batch, and creates the product only when the batch is empty. The created
// product carries its resolved category.
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	category, err := s.validateCreate(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		SKU:         strings.TrimSpace(input.SKU),
		Description: input.Description,
		Price:       *input.Price,
		Stock:       *input.Stock,
		CategoryID:  category.ID,
		Category:    category,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrSKUAlreadyExists) {
			// A concurrent create won the SKU between the uniqueness check
			// and the insert.
			return nil, NewValidationError(msgSKUTaken)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

func (s *productService) validateCreate(ctx context.Context, input CreateProductInput) (*domain.Category, error) {
	var messages []string

	if strings.TrimSpace(input.Name) == "" {
		messages = append(messages, msgNameRequired)
	}

	sku := strings.TrimSpace(input.SKU)
	switch {
	case sku == "":
		messages = append(messages, msgSKURequired)
	case utf8.RuneCountInString(sku) < minSKULength:
		messages = append(messages, msgSKUTooShort)
	default:
		// Uniqueness is only checked once the SKU is syntactically valid.
		_, err := s.productRepo.FindBySKU(ctx, sku)
		switch {
		case err == nil:
			messages = append(messages, msgSKUTaken)
		case !errors.Is(err, repository.ErrProductNotFound):
			return nil, fmt.Errorf("failed to check SKU uniqueness: %w", err)
		}
	}

	if input.Price == nil {
		messages = append(messages, msgPriceRequired)
	} else if *input.Price <= 0 {
		messages = append(messages, msgPricePositive)
	}

	if input.Stock == nil {
		messages = append(messages, msgStockRequired)
	} else if *input.Stock < 0 {
		messages = append(messages, msgStockNonNegative)
	}

	var category *domain.Category
	if strings.TrimSpace(input.CategoryName) == "" {
		messages = append(messages, msgCategoryRequired)
	} else {
		found, err := s.categoryRepo.FindByName(ctx, strings.TrimSpace(input.CategoryName))
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			messages = append(messages, msgCategoryNotFound)
		case err != nil:
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		case !found.IsActive:
			messages = append(messages, msgCategoryInactive)
		default:
			category = found
		}
	}

	if len(messages) > 0 {
		return nil, &ValidationError{Errors: messages}
	}

	return category, nil
}

// SellProduct decrements a product's stock by the requested quantity and
// returns the updated product.
func (s *productService) SellProduct(ctx context.Context, productID string, quantity *int) (*domain.Product, error) {
	var messages []string

	if quantity == nil {
		messages = append(messages, msgQuantityRequired)
	} else if *quantity <= 0 {
		messages = append(messages, msgQuantityPositive)
	}

	if strings.TrimSpace(productID) == "" {
		messages = append(messages, msgProductIDRequired)
	}

	if len(messages) > 0 {
		return nil, &ValidationError{Errors: messages}
	}

	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, NewValidationError(msgProductNotFound)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, NewValidationError(msgProductNotFound)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if product.Stock < *quantity {
		return nil, NewValidationError(fmt.Sprintf(fmtInsufficientStock, product.Stock))
	}

	updated, err := s.productRepo.DecrementStock(ctx, id, *quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			// A concurrent sell drained the stock after our pre-read; report
			// the level the store sees now.
			current, findErr := s.productRepo.FindByID(ctx, id)
			if findErr != nil {
				return nil, fmt.Errorf("failed to re-read product stock: %w", findErr)
			}
			return nil, NewValidationError(fmt.Sprintf(fmtInsufficientStock, current.Stock))
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, NewValidationError(msgProductNotFound)
		}
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return updated, nil
}

// BulkUpdatePrices processes each item independently; one item's failure is
// recorded and processing continues. The whole call fails only when no item
// succeeded and at least one failed.
func (s *productService) BulkUpdatePrices(ctx context.Context, updates []PriceUpdate) (*BulkUpdateResult, error) {
	if len(updates) == 0 {
		return nil, NewValidationError(msgBulkListRequired)
	}

	var messages []string
	successCount := 0

	for _, update := range updates {
		if err := s.applyPriceUpdate(ctx, update); err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				messages = append(messages, vErr.Errors...)
			} else {
				messages = append(messages, fmt.Sprintf(fmtBulkUpdateFailed, update.ProductID))
			}
			continue
		}
		successCount++
	}

	if successCount == 0 && len(messages) > 0 {
		return nil, &ValidationError{Errors: messages}
	}

	return &BulkUpdateResult{
		SuccessCount: successCount,
		TotalCount:   len(updates),
	}, nil
}

func (s *productService) applyPriceUpdate(ctx context.Context, update PriceUpdate) error {
	var messages []string

	if strings.TrimSpace(update.ProductID) == "" {
		messages = append(messages, msgProductIDRequired)
	}

	if update.NewPrice == nil {
		messages = append(messages, msgNewPriceRequired)
	} else if *update.NewPrice <= 0 {
		messages = append(messages, fmt.Sprintf(fmtNewPricePositive, update.ProductID))
	}

	if len(messages) > 0 {
		return &ValidationError{Errors: messages}
	}

	id, err := uuid.Parse(strings.TrimSpace(update.ProductID))
	if err != nil {
		return NewValidationError(fmt.Sprintf(fmtBulkProductNotFound, update.ProductID))
	}

	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return NewValidationError(fmt.Sprintf(fmtBulkProductNotFound, update.ProductID))
		}
		return fmt.Errorf("failed to find product: %w", err)
	}

	if err := s.productRepo.UpdatePrice(ctx, id, *update.NewPrice); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return NewValidationError(fmt.Sprintf(fmtBulkProductNotFound, update.ProductID))
		}
		return fmt.Errorf("failed to update price: %w", err)
	}

	return nil
}
