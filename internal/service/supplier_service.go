package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateSupplierRequest struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address" binding:"required"`
	ContactNo   string `json:"contact_no" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Description string `json:"description"`
}

type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	ContactNo   *string `json:"contact_no"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
}

type SupplierResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	ContactNo   string    `json:"contact_no"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Interface ---

type SupplierService interface {
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (SupplierResponse, error)
	UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (SupplierResponse, error)
	DeleteSupplier(ctx context.Context, id string) error
	GetSuppliers(ctx context.Context, search string, page, limit int) ([]SupplierResponse, int64, error)
}

// --- Implementation ---

type supplierService struct {
	supplierRepo repository.SupplierRepository
}

func NewSupplierService(supplierRepo repository.SupplierRepository) SupplierService {
	return &supplierService{supplierRepo: supplierRepo}
}

func (s *supplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (SupplierResponse, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return SupplierResponse{}, fmt.Errorf("invalid email format")
	}

	supplier := &model.Supplier{
		Name:        req.Name,
		Address:     req.Address,
		ContactNo:   req.ContactNo,
		Email:       req.Email,
		Description: req.Description,
	}

	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return SupplierResponse{}, fmt.Errorf("failed to create supplier: %w", err)
	}

	return toSupplierResponse(*supplier), nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (SupplierResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return SupplierResponse{}, fmt.Errorf("invalid supplier ID")
	}

	supplier, err := s.supplierRepo.FindByID(ctx, uid)
	if err != nil {
		return SupplierResponse{}, fmt.Errorf("supplier not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return SupplierResponse{}, fmt.Errorf("name cannot be empty")
		}
		supplier.Name = *req.Name
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	if req.ContactNo != nil {
		supplier.ContactNo = *req.ContactNo
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return SupplierResponse{}, fmt.Errorf("invalid email format")
		}
		supplier.Email = *req.Email
	}
	if req.Description != nil {
		supplier.Description = *req.Description
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return SupplierResponse{}, fmt.Errorf("failed to update supplier: %w", err)
	}

	return toSupplierResponse(*supplier), nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid supplier ID")
	}
	return s.supplierRepo.Delete(ctx, uid)
}

func (s *supplierService) GetSuppliers(ctx context.Context, search string, page, limit int) ([]SupplierResponse, int64, error) {
	suppliers, total, err := s.supplierRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for _, sup := range suppliers {
		res = append(res, toSupplierResponse(sup))
	}
	return res, total, nil
}

// --- Response mappers ---

func toSupplierResponse(s model.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		Address:     s.Address,
		ContactNo:   s.ContactNo,
		Email:       s.Email,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
