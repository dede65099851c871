package db

import (
	"context"

	"procurement/models"
)

const projectColumns = `p.id, p.title, p.description, p.status, p.budget, p.start_date, p.end_date, p.customer_id, p.created_at, p.updated_at`

var projectSort = map[string]string{
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
	"title":     "p.title",
	"status":    "p.status",
}

func projectConditions(f models.ProjectFilter) *conditions {
	c := &conditions{}
	if f.ID != 0 {
		c.add("p.id = ?", f.ID)
	}
	if f.CustomerID != nil {
		c.add("p.customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		c.add("p.status = ?", f.Status)
	}
	return c
}

func (s *Storage) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
        INSERT INTO projects (title, description, status, budget, start_date, end_date, customer_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		p.Title, p.Description, p.Status, p.Budget, p.StartDate, p.EndDate, p.CustomerID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (s *Storage) FindProject(ctx context.Context, f models.ProjectFilter, e models.ProjectExpand) (*models.Project, error) {
	where := projectConditions(f)
	query := s.db.Rebind(`SELECT ` + projectColumns + ` FROM projects p` + where.String() + ` LIMIT 1`)
	projects := make([]models.Project, 1)
	if err := s.db.GetContext(ctx, &projects[0], query, where.args...); err != nil {
		return nil, translate(err)
	}
	if err := s.expandProjects(ctx, projects, e); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

// ListProjects returns one page of projects with their customers and the total match count.
func (s *Storage) ListProjects(ctx context.Context, f models.ProjectFilter, page models.Page) ([]models.Project, int, error) {
	where := projectConditions(f)
	where.search(page.Search, "p.title", "p.description")

	total, err := s.count(ctx, "FROM projects p", where)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects p` + where.String() +
		orderBy(page, projectSort, "p.created_at", "p.id") + ` LIMIT ? OFFSET ?`
	args := append(where.args, page.Limit, page.Offset())

	projects := []models.Project{}
	if err := s.db.SelectContext(ctx, &projects, s.db.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	if err := s.expandProjects(ctx, projects, models.ProjectExpand{Customer: true}); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (s *Storage) CountProjects(ctx context.Context, f models.ProjectFilter) (int, error) {
	return s.count(ctx, "FROM projects p", projectConditions(f))
}

func (s *Storage) UpdateProject(ctx context.Context, p *models.Project) error {
	query := `
        UPDATE projects
        SET title = $1, description = $2, status = $3, budget = $4, start_date = $5, end_date = $6, updated_at = NOW()
        WHERE id = $7
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		p.Title, p.Description, p.Status, p.Budget, p.StartDate, p.EndDate, p.ID).
		Scan(&p.UpdatedAt)
	return translate(err)
}

// DeleteProject removes the project; products, RFPs and their proposals go with it.
func (s *Storage) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (s *Storage) expandProjects(ctx context.Context, projects []models.Project, e models.ProjectExpand) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]int64, len(projects))
	customerIDs := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		customerIDs[i] = p.CustomerID
	}

	if e.Customer {
		customers, err := s.usersByID(ctx, customerIDs)
		if err != nil {
			return err
		}
		for i := range projects {
			projects[i].Customer = customers[projects[i].CustomerID]
		}
	}

	if e.Products {
		var products []models.Product
		query := `SELECT ` + productColumns + ` FROM products p WHERE p.project_id IN (?) ORDER BY p.created_at DESC, p.id DESC`
		if err := s.selectIn(ctx, &products, query, ids); err != nil {
			return err
		}
		byProject := make(map[int64][]models.Product)
		for _, product := range products {
			byProject[product.ProjectID] = append(byProject[product.ProjectID], product)
		}
		for i := range projects {
			projects[i].Products = nonNil(byProject[projects[i].ID])
		}
	}

	if e.RFPs || e.RFPDetail {
		var rfps []models.RFP
		query := `SELECT ` + rfpColumns + ` FROM rfps r WHERE r.project_id IN (?) ORDER BY r.created_at DESC, r.id DESC`
		if err := s.selectIn(ctx, &rfps, query, ids); err != nil {
			return err
		}
		if e.RFPDetail {
			expand := models.RFPExpand{Items: true, Proposals: true, ProposalDetail: true}
			if err := s.expandRFPs(ctx, rfps, expand); err != nil {
				return err
			}
		}
		byProject := make(map[int64][]models.RFP)
		for _, rfp := range rfps {
			byProject[rfp.ProjectID] = append(byProject[rfp.ProjectID], rfp)
		}
		for i := range projects {
			projects[i].RFPs = nonNil(byProject[projects[i].ID])
		}
	}
	return nil
}

func (s *Storage) projectsByID(ctx context.Context, ids []int64, withCustomer bool) (map[int64]*models.Project, error) {
	var projects []models.Project
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id IN (?)`
	if err := s.selectIn(ctx, &projects, query, uniqueIDs(ids)); err != nil {
		return nil, err
	}
	if err := s.expandProjects(ctx, projects, models.ProjectExpand{Customer: withCustomer}); err != nil {
		return nil, err
	}
	out := make(map[int64]*models.Project, len(projects))
	for i := range projects {
		out[projects[i].ID] = &projects[i]
	}
	return out, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
