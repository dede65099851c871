package service

import (
	"context"
	"fmt"

	"procurement/internal/auth"
	"procurement/models"
)

type ProductService struct {
	projects ProjectStore
	products ProductStore
}

func NewProductService(projects ProjectStore, products ProductStore) *ProductService {
	return &ProductService{projects: projects, products: products}
}

func (s *ProductService) Create(ctx context.Context, p auth.Principal, projectID int64, req models.CreateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Unit:        req.Unit,
		ProjectID:   projectID,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, p auth.Principal, projectID int64, page models.Page) ([]models.Product, models.Pagination, error) {
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, models.Pagination{}, err
	}
	page = page.Normalize()
	products, total, err := s.products.ListProducts(ctx, models.ProductFilter{ProjectID: projectID}, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return products, models.NewPagination(page, total), nil
}

// ListByCategory returns all products of the category, sorted by name.
func (s *ProductService) ListByCategory(ctx context.Context, p auth.Principal, projectID int64, category models.ProductCategory) ([]models.Product, error) {
	if !models.ValidProductCategory(category) {
		return nil, fmt.Errorf("%w: unknown product category %q", ErrInvalidInput, category)
	}
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}
	return s.products.FindProducts(ctx, models.ProductFilter{ProjectID: projectID, Category: category})
}

func (s *ProductService) Get(ctx context.Context, p auth.Principal, projectID, id int64) (*models.Product, error) {
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}
	product, err := s.products.FindProduct(ctx, models.ProductFilter{ID: id, ProjectID: projectID})
	if err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, p auth.Principal, projectID, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	product, err := s.Get(ctx, p, projectID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Unit != nil {
		product.Unit = req.Unit
	}
	if err := s.products.UpdateProduct(ctx, product); err != nil {
		return nil, storeError(err, "product")
	}
	return product, nil
}

// Delete refuses to remove a product that an RFP item still references.
func (s *ProductService) Delete(ctx context.Context, p auth.Principal, projectID, id int64) error {
	if _, err := s.Get(ctx, p, projectID, id); err != nil {
		return err
	}
	return storeError(s.products.DeleteProduct(ctx, id), "product")
}
