package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"procurement/db"
	"procurement/models"
)

func productMatches(p models.Product, f models.ProductFilter) bool {
	if f.ID != 0 && p.ID != f.ID {
		return false
	}
	if f.ProjectID != 0 && p.ProjectID != f.ProjectID {
		return false
	}
	if f.IDs != nil && !slices.Contains(f.IDs, p.ID) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}

func productKey(sortBy string) func(a, b models.Product) int {
	switch sortBy {
	case "updatedAt":
		return func(a, b models.Product) int { return compareTime(a.UpdatedAt, b.UpdatedAt) }
	case "name":
		return func(a, b models.Product) int { return cmp.Compare(a.Name, b.Name) }
	case "category":
		return func(a, b models.Product) int { return cmp.Compare(a.Category, b.Category) }
	default:
		return func(a, b models.Product) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	}
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ProjectID]; !ok {
		return fmt.Errorf("%w: products_project_id_fkey", db.ErrReferenced)
	}
	p.ID = s.nextID()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = *p
	return nil
}

func (s *Store) FindProduct(_ context.Context, f models.ProductFilter) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range sortedValues(s.products) {
		if productMatches(p, f) {
			return &p, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) FindProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Product{}
	for _, p := range s.products {
		if productMatches(p, f) {
			out = append(out, p)
		}
	}
	order(out, models.Page{SortOrder: "asc"}, productKey("name"), func(p models.Product) int64 { return p.ID })
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, f models.ProductFilter, page models.Page) ([]models.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []models.Product{}
	for _, p := range s.products {
		if productMatches(p, f) && contains(page.Search, &p.Name, p.Description) {
			matched = append(matched, p)
		}
	}
	order(matched, page, productKey(page.SortBy), func(p models.Product) int64 { return p.ID })
	return paginate(matched, page), len(matched), nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.products[p.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.Category = p.Category
	stored.Unit = p.Unit
	stored.UpdatedAt = s.now()
	s.products[p.ID] = stored
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return db.ErrNotFound
	}
	for _, item := range s.rfpItems {
		if item.ProductID == id {
			return fmt.Errorf("%w: rfp_items_product_id_fkey", db.ErrReferenced)
		}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) productRef(id int64) *models.Product {
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	return &p
}
