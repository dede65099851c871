package memory

import (
	"cmp"
	"context"
	"fmt"

	"procurement/db"
	"procurement/models"
)

func (s *Store) rfpMatches(r models.RFP, f models.RFPFilter) bool {
	if f.ID != 0 && r.ID != f.ID {
		return false
	}
	if f.ProjectID != 0 && r.ProjectID != f.ProjectID {
		return false
	}
	if f.CustomerID != nil && s.projects[r.ProjectID].CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.AvailableAt != nil && !r.AvailableAt(*f.AvailableAt) {
		return false
	}
	return true
}

func rfpKey(sortBy string) func(a, b models.RFP) int {
	switch sortBy {
	case "updatedAt":
		return func(a, b models.RFP) int { return compareTime(a.UpdatedAt, b.UpdatedAt) }
	case "title":
		return func(a, b models.RFP) int { return cmp.Compare(a.Title, b.Title) }
	case "status":
		return func(a, b models.RFP) int { return cmp.Compare(a.Status, b.Status) }
	case "endDate":
		return func(a, b models.RFP) int { return compareTime(a.EndDate, b.EndDate) }
	default:
		return func(a, b models.RFP) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	}
}

func rfpID(r models.RFP) int64 { return r.ID }

// CreateRFP checks every reference before writing, so either the RFP and all
// of its items are stored or nothing is.
func (s *Store) CreateRFP(_ context.Context, r *models.RFP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[r.ProjectID]; !ok {
		return fmt.Errorf("%w: rfps_project_id_fkey", db.ErrReferenced)
	}
	for _, item := range r.Items {
		if _, ok := s.products[item.ProductID]; !ok {
			return fmt.Errorf("%w: rfp_items_product_id_fkey", db.ErrReferenced)
		}
	}

	r.ID = s.nextID()
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	for i := range r.Items {
		item := &r.Items[i]
		item.ID = s.nextID()
		item.RFPID = r.ID
		item.CreatedAt = r.CreatedAt
		stored := *item
		stored.Product = nil
		s.rfpItems[item.ID] = stored
	}
	s.rfps[r.ID] = bareRFP(*r)
	return nil
}

func (s *Store) FindRFP(_ context.Context, f models.RFPFilter, e models.RFPExpand) (*models.RFP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range sortedValues(s.rfps) {
		if s.rfpMatches(r, f) {
			expanded := s.expandRFP(r, e)
			return &expanded, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) FindRFPs(_ context.Context, f models.RFPFilter, e models.RFPExpand) ([]models.RFP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rfpsWhere(f, e), nil
}

func (s *Store) ListRFPs(_ context.Context, f models.RFPFilter, e models.RFPExpand, page models.Page) ([]models.RFP, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []models.RFP{}
	for _, r := range s.rfps {
		if s.rfpMatches(r, f) && contains(page.Search, &r.Title, r.Description) {
			matched = append(matched, r)
		}
	}
	order(matched, page, rfpKey(page.SortBy), rfpID)
	out := paginate(matched, page)
	for i := range out {
		out[i] = s.expandRFP(out[i], e)
	}
	return out, len(matched), nil
}

func (s *Store) CountRFPs(_ context.Context, f models.RFPFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.rfps {
		if s.rfpMatches(r, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateRFP(_ context.Context, r *models.RFP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rfps[r.ID]
	if !ok {
		return db.ErrNotFound
	}
	stored.Title = r.Title
	stored.Description = r.Description
	stored.Status = r.Status
	stored.IsActive = r.IsActive
	stored.StartDate = r.StartDate
	stored.EndDate = r.EndDate
	stored.UpdatedAt = s.now()
	s.rfps[r.ID] = stored
	r.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) SetRFPActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rfps[id]
	if !ok {
		return db.ErrNotFound
	}
	stored.IsActive = active
	stored.UpdatedAt = s.now()
	s.rfps[id] = stored
	return nil
}

func (s *Store) DeleteRFP(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rfps[id]; !ok {
		return db.ErrNotFound
	}
	s.deleteRFP(id)
	return nil
}

// deleteRFP cascades to items, proposals and proposal items. Callers hold the lock.
func (s *Store) deleteRFP(id int64) {
	for proposalID, p := range s.proposals {
		if p.RFPID == id {
			s.deleteProposal(proposalID)
		}
	}
	for itemID, item := range s.rfpItems {
		if item.RFPID == id {
			delete(s.rfpItems, itemID)
		}
	}
	delete(s.rfps, id)
}

func (s *Store) rfpsWhere(f models.RFPFilter, e models.RFPExpand) []models.RFP {
	out := []models.RFP{}
	for _, r := range s.rfps {
		if s.rfpMatches(r, f) {
			out = append(out, r)
		}
	}
	order(out, models.Page{}, rfpKey(""), rfpID)
	for i := range out {
		out[i] = s.expandRFP(out[i], e)
	}
	return out
}

func (s *Store) expandRFP(r models.RFP, e models.RFPExpand) models.RFP {
	if e.Project || e.Customer {
		if p, ok := s.projects[r.ProjectID]; ok {
			expanded := s.expandProject(p, models.ProjectExpand{Customer: e.Customer})
			r.Project = &expanded
		}
	}
	if e.Items {
		r.Items = s.itemsOf(r.ID)
	}
	if e.Proposals || e.ProposalDetail {
		proposals := []models.Proposal{}
		for _, p := range s.proposals {
			if p.RFPID == r.ID {
				proposals = append(proposals, p)
			}
		}
		order(proposals, models.Page{}, proposalKey("submittedAt"), proposalID)
		if e.ProposalDetail {
			for i := range proposals {
				proposals[i] = s.expandProposal(proposals[i], false)
			}
		}
		r.Proposals = proposals
	}
	return r
}

// itemsOf returns the RFP's items in insertion order with their products.
func (s *Store) itemsOf(rfpID int64) []models.RFPItem {
	items := []models.RFPItem{}
	for _, item := range sortedValues(s.rfpItems) {
		if item.RFPID == rfpID {
			item.Product = s.productRef(item.ProductID)
			items = append(items, item)
		}
	}
	return items
}

func (s *Store) rfpItemRef(id int64) *models.RFPItem {
	item, ok := s.rfpItems[id]
	if !ok {
		return nil
	}
	item.Product = s.productRef(item.ProductID)
	return &item
}

func bareRFP(r models.RFP) models.RFP {
	r.Project = nil
	r.Items = nil
	r.Proposals = nil
	return r
}
