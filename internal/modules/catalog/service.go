package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/inventory"
)

// Service defines catalog business logic. The catalog is the sole writer of
// product identity and price; order logic only reads from it.
type Service interface {
	CreateCategory(ctx context.Context, name, slug, description string) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, categoryID string, activeOnly bool) ([]*Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Restock(ctx context.Context, id string, qty int) (*Product, error)
}

type service struct {
	repo   Repository
	ledger *inventory.Ledger
	db     inventory.Execer
}

// NewService creates a new catalog service. Stock mutations go through the
// ledger, the same primitive the order flow reserves and releases against.
func NewService(repo Repository, ledger *inventory.Ledger, db inventory.Execer) Service {
	return &service{repo: repo, ledger: ledger, db: db}
}

func (s *service) CreateCategory(ctx context.Context, name, slug, description string) (*Category, error) {
	if name == "" || slug == "" {
		return nil, fmt.Errorf("name and slug are required")
	}
	c := &Category{ID: uuid.New(), Name: name, Slug: slug, Description: description}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetCategory(ctx context.Context, id string) (*Category, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid category id: %w", err)
	}
	return s.repo.GetCategoryByID(ctx, cid)
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) DeleteCategory(ctx context.Context, id string) error {
	cid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid category id: %w", err)
	}
	return s.repo.DeleteCategory(ctx, cid)
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Name == "" || req.Slug == "" {
		return nil, fmt.Errorf("name and slug are required")
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must not be negative")
	}
	p := &Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        req.Slug,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    true,
	}
	if req.CategoryID != "" {
		cid, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category_id: %w", err)
		}
		p.CategoryID = &cid
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	return s.repo.GetProductByID(ctx, pid)
}

func (s *service) ListProducts(ctx context.Context, categoryID string, activeOnly bool) ([]*Product, error) {
	var cid *uuid.UUID
	if categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category id: %w", err)
		}
		cid = &parsed
	}
	return s.repo.ListProducts(ctx, cid, activeOnly)
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}
	return s.repo.UpdateProduct(ctx, pid, req)
}

func (s *service) Restock(ctx context.Context, id string, qty int) (*Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if _, err := s.repo.GetProductByID(ctx, pid); err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, s.db, pid, qty); err != nil {
		return nil, err
	}
	return s.repo.GetProductByID(ctx, pid)
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}
	return s.repo.DeleteProduct(ctx, pid)
}
