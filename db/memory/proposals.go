package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"procurement/db"
	"procurement/models"
)

func (s *Store) proposalMatches(p models.Proposal, f models.ProposalFilter) bool {
	if f.ID != 0 && p.ID != f.ID {
		return false
	}
	if f.RFPID != 0 && p.RFPID != f.RFPID {
		return false
	}
	if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
		return false
	}
	if f.CustomerID != nil {
		r, ok := s.rfps[p.RFPID]
		if !ok || s.projects[r.ProjectID].CustomerID != *f.CustomerID {
			return false
		}
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}

func proposalKey(sortBy string) func(a, b models.Proposal) int {
	switch sortBy {
	case "updatedAt":
		return func(a, b models.Proposal) int { return compareTime(a.UpdatedAt, b.UpdatedAt) }
	case "submittedAt":
		return func(a, b models.Proposal) int { return compareTime(a.SubmittedAt, b.SubmittedAt) }
	case "totalAmount":
		return func(a, b models.Proposal) int { return a.TotalAmount.Cmp(b.TotalAmount) }
	case "status":
		return func(a, b models.Proposal) int { return cmp.Compare(a.Status, b.Status) }
	default:
		return func(a, b models.Proposal) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	}
}

func proposalID(p models.Proposal) int64 { return p.ID }

func (s *Store) HasProposal(_ context.Context, supplierID, rfpID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasProposal(supplierID, rfpID), nil
}

func (s *Store) hasProposal(supplierID, rfpID int64) bool {
	for _, p := range s.proposals {
		if p.SupplierID == supplierID && p.RFPID == rfpID {
			return true
		}
	}
	return false
}

func (s *Store) CreateProposal(_ context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasProposal(p.SupplierID, p.RFPID) {
		return fmt.Errorf("%w: proposals_supplier_rfp_key", db.ErrDuplicate)
	}
	if _, ok := s.rfps[p.RFPID]; !ok {
		return fmt.Errorf("%w: proposals_rfp_id_fkey", db.ErrReferenced)
	}
	if _, ok := s.users[p.SupplierID]; !ok {
		return fmt.Errorf("%w: proposals_supplier_id_fkey", db.ErrReferenced)
	}
	if err := s.checkItemRefs(p.Items); err != nil {
		return err
	}

	p.ID = s.nextID()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.storeItems(p.ID, p.Items)
	stored := *p
	stored.Supplier, stored.RFP, stored.Items = nil, nil, nil
	s.proposals[p.ID] = stored
	return nil
}

func (s *Store) checkItemRefs(items []models.ProposalItem) error {
	for _, item := range items {
		if _, ok := s.rfpItems[item.RFPItemID]; !ok {
			return fmt.Errorf("%w: proposal_items_rfp_item_id_fkey", db.ErrReferenced)
		}
	}
	return nil
}

func (s *Store) storeItems(proposalID int64, items []models.ProposalItem) {
	created := s.now()
	for i := range items {
		item := &items[i]
		item.ID = s.nextID()
		item.ProposalID = proposalID
		item.CreatedAt = created
		stored := *item
		stored.RFPItem = nil
		s.proposalItems[item.ID] = stored
	}
}

func (s *Store) FindProposal(_ context.Context, f models.ProposalFilter) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range sortedValues(s.proposals) {
		if s.proposalMatches(p, f) {
			expanded := s.expandProposal(p, true)
			return &expanded, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) FindProposals(_ context.Context, f models.ProposalFilter) ([]models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Proposal{}
	for _, p := range s.proposals {
		if s.proposalMatches(p, f) {
			out = append(out, p)
		}
	}
	order(out, models.Page{}, proposalKey("submittedAt"), proposalID)
	for i := range out {
		out[i] = s.expandProposal(out[i], true)
	}
	return out, nil
}

func (s *Store) ListProposals(_ context.Context, f models.ProposalFilter, page models.Page) ([]models.Proposal, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []models.Proposal{}
	for _, p := range s.proposals {
		if !s.proposalMatches(p, f) {
			continue
		}
		title := s.rfps[p.RFPID].Title
		if contains(page.Search, p.Notes, &title) {
			matched = append(matched, p)
		}
	}
	order(matched, page, proposalKey(page.SortBy), proposalID)
	out := paginate(matched, page)
	for i := range out {
		out[i] = s.expandProposal(out[i], true)
	}
	return out, len(matched), nil
}

func (s *Store) CountProposals(_ context.Context, f models.ProposalFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.proposals {
		if s.proposalMatches(p, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ReplaceProposalItems(_ context.Context, id int64, notes *string, items []models.ProposalItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.proposals[id]
	if !ok {
		return db.ErrNotFound
	}
	if stored.Status != models.ProposalPending {
		return db.ErrStale
	}
	if err := s.checkItemRefs(items); err != nil {
		return err
	}

	for itemID, item := range s.proposalItems {
		if item.ProposalID == id {
			delete(s.proposalItems, itemID)
		}
	}
	s.storeItems(id, items)

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	stored.TotalAmount = total
	if notes != nil {
		stored.Notes = notes
	}
	stored.UpdatedAt = s.now()
	s.proposals[id] = stored
	return nil
}

func (s *Store) UpdateProposalNotes(_ context.Context, id int64, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.proposals[id]
	if !ok || stored.Status != models.ProposalPending {
		return db.ErrStale
	}
	stored.Notes = notes
	stored.UpdatedAt = s.now()
	s.proposals[id] = stored
	return nil
}

func (s *Store) TransitionProposal(_ context.Context, id int64, from []models.ProposalStatus, to models.ProposalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.proposals[id]
	if !ok {
		if len(from) == 0 {
			return db.ErrNotFound
		}
		return db.ErrStale
	}
	if len(from) > 0 && !slices.Contains(from, stored.Status) {
		return db.ErrStale
	}
	stored.Status = to
	stored.UpdatedAt = s.now()
	s.proposals[id] = stored
	return nil
}

// deleteProposal removes a proposal and its items. Callers hold the lock.
func (s *Store) deleteProposal(id int64) {
	for itemID, item := range s.proposalItems {
		if item.ProposalID == id {
			delete(s.proposalItems, itemID)
		}
	}
	delete(s.proposals, id)
}

func (s *Store) expandProposal(p models.Proposal, withRFP bool) models.Proposal {
	p.Supplier = s.publicUser(p.SupplierID)
	if withRFP {
		if r, ok := s.rfps[p.RFPID]; ok {
			expanded := s.expandRFP(r, models.RFPExpand{Project: true})
			p.RFP = &expanded
		}
	}
	items := []models.ProposalItem{}
	for _, item := range sortedValues(s.proposalItems) {
		if item.ProposalID == p.ID {
			item.RFPItem = s.rfpItemRef(item.RFPItemID)
			items = append(items, item)
		}
	}
	p.Items = items
	return p
}
