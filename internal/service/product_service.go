package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required"`
	BuyingPrice  string `json:"buying_price" binding:"required"`
	SellingPrice string `json:"selling_price" binding:"required"`
	Quantity     int    `json:"quantity"`
	Description  string `json:"description"`
	SupplierID   string `json:"supplier_id" binding:"required"`
}

type UpdateProductRequest struct {
	Name         *string `json:"name"`
	Code         *string `json:"code"`
	BuyingPrice  *string `json:"buying_price"`
	SellingPrice *string `json:"selling_price"`
	Quantity     *int    `json:"quantity"`
	Description  *string `json:"description"`
	SupplierID   *string `json:"supplier_id"`
}

type ProductResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Code         string            `json:"code"`
	BuyingPrice  string            `json:"buying_price"`
	SellingPrice string            `json:"selling_price"`
	Quantity     int               `json:"quantity"`
	Description  string            `json:"description"`
	SupplierID   uuid.UUID         `json:"supplier_id"`
	Supplier     *SupplierResponse `json:"supplier,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// --- Interface ---

type ProductService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProducts(ctx context.Context, search string, page, limit int) ([]ProductResponse, int64, error)
}

// --- Implementation ---

type productService struct {
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
}

func NewProductService(productRepo repository.ProductRepository, supplierRepo repository.SupplierRepository) ProductService {
	return &productService{productRepo: productRepo, supplierRepo: supplierRepo}
}

func parsePrice(field, value string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %s", field, value)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s must not be negative", field)
	}
	return price, nil
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error) {
	buyingPrice, err := parsePrice("buying_price", req.BuyingPrice)
	if err != nil {
		return ProductResponse{}, err
	}
	sellingPrice, err := parsePrice("selling_price", req.SellingPrice)
	if err != nil {
		return ProductResponse{}, err
	}
	if req.Quantity < 0 {
		return ProductResponse{}, fmt.Errorf("quantity must not be negative")
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid supplier_id")
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("supplier not found: %w", err)
	}

	product := &model.Product{
		Name:         req.Name,
		Code:         req.Code,
		BuyingPrice:  buyingPrice,
		SellingPrice: sellingPrice,
		Quantity:     req.Quantity,
		Description:  req.Description,
		SupplierID:   supplier.ID,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ProductResponse{}, fmt.Errorf("product code %s already exists", req.Code)
		}
		return ProductResponse{}, fmt.Errorf("failed to create product: %w", err)
	}
	product.Supplier = supplier

	return toProductResponse(*product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product ID")
	}

	product, err := s.productRepo.FindByID(ctx, uid)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("product not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return ProductResponse{}, fmt.Errorf("name cannot be empty")
		}
		product.Name = *req.Name
	}
	if req.Code != nil {
		if *req.Code == "" {
			return ProductResponse{}, fmt.Errorf("code cannot be empty")
		}
		product.Code = *req.Code
	}
	if req.BuyingPrice != nil {
		price, err := parsePrice("buying_price", *req.BuyingPrice)
		if err != nil {
			return ProductResponse{}, err
		}
		product.BuyingPrice = price
	}
	if req.SellingPrice != nil {
		price, err := parsePrice("selling_price", *req.SellingPrice)
		if err != nil {
			return ProductResponse{}, err
		}
		product.SellingPrice = price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return ProductResponse{}, fmt.Errorf("quantity must not be negative")
		}
		product.Quantity = *req.Quantity
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.SupplierID != nil {
		supplierID, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return ProductResponse{}, fmt.Errorf("invalid supplier_id")
		}
		if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
			return ProductResponse{}, fmt.Errorf("supplier not found: %w", err)
		}
		product.SupplierID = supplierID
		product.Supplier = nil
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ProductResponse{}, fmt.Errorf("product code %s already exists", product.Code)
		}
		return ProductResponse{}, fmt.Errorf("failed to update product: %w", err)
	}

	return toProductResponse(*product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product ID")
	}
	return s.productRepo.Delete(ctx, uid)
}

func (s *productService) GetProducts(ctx context.Context, search string, page, limit int) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}
	return res, total, nil
}

// --- Response mappers ---

func toProductResponse(p model.Product) ProductResponse {
	resp := ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Code:         p.Code,
		BuyingPrice:  p.BuyingPrice.StringFixed(2),
		SellingPrice: p.SellingPrice.StringFixed(2),
		Quantity:     p.Quantity,
		Description:  p.Description,
		SupplierID:   p.SupplierID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Supplier != nil {
		sup := toSupplierResponse(*p.Supplier)
		resp.Supplier = &sup
	}
	return resp
}
