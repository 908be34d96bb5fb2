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

type CreateCustomerRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
	OwnerName    string `json:"owner_name" binding:"required"`
	Address      string `json:"address" binding:"required"`
	City         string `json:"city" binding:"required"`
	ContactNo1   string `json:"contact_no1" binding:"required"`
	ContactNo2   string `json:"contact_no2"`
	Email        string `json:"email" binding:"required"`
	Description  string `json:"description"`
}

type UpdateCustomerRequest struct {
	BusinessName *string `json:"business_name"`
	OwnerName    *string `json:"owner_name"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	ContactNo1   *string `json:"contact_no1"`
	ContactNo2   *string `json:"contact_no2"`
	Email        *string `json:"email"`
	Description  *string `json:"description"`
}

type CustomerResponse struct {
	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"business_name"`
	OwnerName    string    `json:"owner_name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	ContactNo1   string    `json:"contact_no1"`
	ContactNo2   string    `json:"contact_no2"`
	Email        string    `json:"email"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (CustomerResponse, error)
	UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string) error
	GetCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error)
}

// --- Implementation ---

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (CustomerResponse, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid email format")
	}

	customer := &model.Customer{
		BusinessName: req.BusinessName,
		OwnerName:    req.OwnerName,
		Address:      req.Address,
		City:         req.City,
		ContactNo1:   req.ContactNo1,
		ContactNo2:   req.ContactNo2,
		Email:        req.Email,
		Description:  req.Description,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to create customer: %w", err)
	}

	return toCustomerResponse(*customer), nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (CustomerResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid customer ID")
	}

	customer, err := s.customerRepo.FindByID(ctx, uid)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	if req.BusinessName != nil {
		if *req.BusinessName == "" {
			return CustomerResponse{}, fmt.Errorf("business_name cannot be empty")
		}
		customer.BusinessName = *req.BusinessName
	}
	if req.OwnerName != nil {
		customer.OwnerName = *req.OwnerName
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.City != nil {
		customer.City = *req.City
	}
	if req.ContactNo1 != nil {
		customer.ContactNo1 = *req.ContactNo1
	}
	if req.ContactNo2 != nil {
		customer.ContactNo2 = *req.ContactNo2
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return CustomerResponse{}, fmt.Errorf("invalid email format")
		}
		customer.Email = *req.Email
	}
	if req.Description != nil {
		customer.Description = *req.Description
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to update customer: %w", err)
	}

	return toCustomerResponse(*customer), nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid customer ID")
	}
	return s.customerRepo.Delete(ctx, uid)
}

func (s *customerService) GetCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	res := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		res = append(res, toCustomerResponse(c))
	}
	return res, total, nil
}

// --- Response mappers ---

func toCustomerResponse(c model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID,
		BusinessName: c.BusinessName,
		OwnerName:    c.OwnerName,
		Address:      c.Address,
		City:         c.City,
		ContactNo1:   c.ContactNo1,
		ContactNo2:   c.ContactNo2,
		Email:        c.Email,
		Description:  c.Description,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
