package db

import (
	"context"

	"github.com/lib/pq"

	"procurement/models"
)

const productColumns = `p.id, p.name, p.description, p.category, p.unit, p.project_id, p.created_at, p.updated_at`

var productSort = map[string]string{
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
	"name":      "p.name",
	"category":  "p.category",
}

func productConditions(f models.ProductFilter) *conditions {
	c := &conditions{}
	if f.ID != 0 {
		c.add("p.id = ?", f.ID)
	}
	if f.ProjectID != 0 {
		c.add("p.project_id = ?", f.ProjectID)
	}
	if f.IDs != nil {
		c.add("p.id = ANY(?)", pq.Array(f.IDs))
	}
	if f.Category != "" {
		c.add("p.category = ?", f.Category)
	}
	return c
}

func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
        INSERT INTO products (name, description, category, unit, project_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Category, p.Unit, p.ProjectID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (s *Storage) FindProduct(ctx context.Context, f models.ProductFilter) (*models.Product, error) {
	where := productConditions(f)
	p := &models.Product{}
	query := s.db.Rebind(`SELECT ` + productColumns + ` FROM products p` + where.String() + ` LIMIT 1`)
	if err := s.db.GetContext(ctx, p, query, where.args...); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// FindProducts returns every matching product ordered by name.
func (s *Storage) FindProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	where := productConditions(f)
	query := s.db.Rebind(`SELECT ` + productColumns + ` FROM products p` + where.String() + ` ORDER BY p.name ASC, p.id ASC`)
	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, where.args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Storage) ListProducts(ctx context.Context, f models.ProductFilter, page models.Page) ([]models.Product, int, error) {
	where := productConditions(f)
	where.search(page.Search, "p.name", "p.description")

	total, err := s.count(ctx, "FROM products p", where)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products p` + where.String() +
		orderBy(page, productSort, "p.created_at", "p.id") + ` LIMIT ? OFFSET ?`
	args := append(where.args, page.Limit, page.Offset())

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
        UPDATE products
        SET name = $1, description = $2, category = $3, unit = $4, updated_at = NOW()
        WHERE id = $5
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Category, p.Unit, p.ID).
		Scan(&p.UpdatedAt)
	return translate(err)
}

// DeleteProduct fails with ErrReferenced while an RFP item still points at the product.
func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (s *Storage) productsByID(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	var products []models.Product
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id IN (?)`
	if err := s.selectIn(ctx, &products, query, uniqueIDs(ids)); err != nil {
		return nil, err
	}
	out := make(map[int64]*models.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}
