package memory

import (
	"cmp"
	"context"
	"fmt"

	"procurement/db"
	"procurement/models"
)

func projectMatches(p models.Project, f models.ProjectFilter) bool {
	if f.ID != 0 && p.ID != f.ID {
		return false
	}
	if f.CustomerID != nil && p.CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}

func projectKey(sortBy string) func(a, b models.Project) int {
	switch sortBy {
	case "updatedAt":
		return func(a, b models.Project) int { return compareTime(a.UpdatedAt, b.UpdatedAt) }
	case "title":
		return func(a, b models.Project) int { return cmp.Compare(a.Title, b.Title) }
	case "status":
		return func(a, b models.Project) int { return cmp.Compare(a.Status, b.Status) }
	default:
		return func(a, b models.Project) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	}
}

func (s *Store) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.CustomerID]; !ok {
		return fmt.Errorf("%w: projects_customer_id_fkey", db.ErrReferenced)
	}
	p.ID = s.nextID()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.projects[p.ID] = bareProject(*p)
	return nil
}

func (s *Store) FindProject(_ context.Context, f models.ProjectFilter, e models.ProjectExpand) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range sortedValues(s.projects) {
		if projectMatches(p, f) {
			expanded := s.expandProject(p, e)
			return &expanded, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) ListProjects(_ context.Context, f models.ProjectFilter, page models.Page) ([]models.Project, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []models.Project{}
	for _, p := range s.projects {
		if projectMatches(p, f) && contains(page.Search, &p.Title, p.Description) {
			matched = append(matched, p)
		}
	}
	order(matched, page, projectKey(page.SortBy), func(p models.Project) int64 { return p.ID })
	out := paginate(matched, page)
	for i := range out {
		out[i] = s.expandProject(out[i], models.ProjectExpand{Customer: true})
	}
	return out, len(matched), nil
}

func (s *Store) CountProjects(_ context.Context, f models.ProjectFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.projects {
		if projectMatches(p, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.projects[p.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.Title = p.Title
	stored.Description = p.Description
	stored.Status = p.Status
	stored.Budget = p.Budget
	stored.StartDate = p.StartDate
	stored.EndDate = p.EndDate
	stored.UpdatedAt = s.now()
	s.projects[p.ID] = stored
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return db.ErrNotFound
	}
	for rfpID, r := range s.rfps {
		if r.ProjectID == id {
			s.deleteRFP(rfpID)
		}
	}
	for productID, p := range s.products {
		if p.ProjectID == id {
			delete(s.products, productID)
		}
	}
	delete(s.projects, id)
	return nil
}

func (s *Store) expandProject(p models.Project, e models.ProjectExpand) models.Project {
	if e.Customer {
		p.Customer = s.publicUser(p.CustomerID)
	}
	if e.Products {
		products := []models.Product{}
		for _, product := range s.products {
			if product.ProjectID == p.ID {
				products = append(products, product)
			}
		}
		order(products, models.Page{}, productKey(""), func(p models.Product) int64 { return p.ID })
		p.Products = products
	}
	if e.RFPs || e.RFPDetail {
		expand := models.RFPExpand{}
		if e.RFPDetail {
			expand = models.RFPExpand{Items: true, Proposals: true, ProposalDetail: true}
		}
		p.RFPs = s.rfpsWhere(models.RFPFilter{ProjectID: p.ID}, expand)
	}
	return p
}

func bareProject(p models.Project) models.Project {
	p.Customer = nil
	p.Products = nil
	p.RFPs = nil
	return p
}
