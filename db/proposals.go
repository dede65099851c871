package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"procurement/models"
)

const proposalColumns = `pr.id, pr.rfp_id, pr.supplier_id, pr.status, pr.total_amount, pr.notes, pr.submitted_at, pr.created_at, pr.updated_at`

const proposalItemColumns = `pi.id, pi.proposal_id, pi.rfp_item_id, pi.unit_price, pi.total_price, pi.notes, pi.created_at`

var proposalSort = map[string]string{
	"createdAt":   "pr.created_at",
	"updatedAt":   "pr.updated_at",
	"submittedAt": "pr.submitted_at",
	"totalAmount": "pr.total_amount",
	"status":      "pr.status",
}

func proposalConditions(f models.ProposalFilter) *conditions {
	c := &conditions{}
	if f.ID != 0 {
		c.add("pr.id = ?", f.ID)
	}
	if f.RFPID != 0 {
		c.add("pr.rfp_id = ?", f.RFPID)
	}
	if f.SupplierID != nil {
		c.add("pr.supplier_id = ?", *f.SupplierID)
	}
	if f.CustomerID != nil {
		c.add(`pr.rfp_id IN (
            SELECT r.id FROM rfps r JOIN projects p ON p.id = r.project_id WHERE p.customer_id = ?)`, *f.CustomerID)
	}
	if f.Status != "" {
		c.add("pr.status = ?", f.Status)
	}
	return c
}

func (s *Storage) HasProposal(ctx context.Context, supplierID, rfpID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM proposals WHERE supplier_id = $1 AND rfp_id = $2)`
	if err := s.db.GetContext(ctx, &exists, query, supplierID, rfpID); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateProposal stores the proposal with its items atomically. A second
// proposal for the same supplier and RFP fails with ErrDuplicate.
func (s *Storage) CreateProposal(ctx context.Context, p *models.Proposal) error {
	return translate(s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO proposals (rfp_id, supplier_id, status, total_amount, notes, submitted_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			p.RFPID, p.SupplierID, p.Status, p.TotalAmount, p.Notes, p.SubmittedAt).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		return insertProposalItems(ctx, tx, p.ID, p.Items)
	}))
}

func insertProposalItems(ctx context.Context, tx *sqlx.Tx, proposalID int64, items []models.ProposalItem) error {
	query := `
        INSERT INTO proposal_items (proposal_id, rfp_item_id, unit_price, total_price, notes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	for i := range items {
		item := &items[i]
		item.ProposalID = proposalID
		err := tx.QueryRowContext(ctx, query,
			item.ProposalID, item.RFPItemID, item.UnitPrice, item.TotalPrice, item.Notes).
			Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindProposal returns a fully expanded proposal.
func (s *Storage) FindProposal(ctx context.Context, f models.ProposalFilter) (*models.Proposal, error) {
	where := proposalConditions(f)
	query := s.db.Rebind(`SELECT ` + proposalColumns + ` FROM proposals pr` + where.String() + ` LIMIT 1`)
	proposals := make([]models.Proposal, 1)
	if err := s.db.GetContext(ctx, &proposals[0], query, where.args...); err != nil {
		return nil, translate(err)
	}
	if err := s.expandProposals(ctx, proposals, true); err != nil {
		return nil, err
	}
	return &proposals[0], nil
}

// FindProposals returns every matching proposal, latest submission first.
func (s *Storage) FindProposals(ctx context.Context, f models.ProposalFilter) ([]models.Proposal, error) {
	where := proposalConditions(f)
	query := s.db.Rebind(`SELECT ` + proposalColumns + ` FROM proposals pr` + where.String() +
		` ORDER BY pr.submitted_at DESC, pr.id DESC`)
	proposals := []models.Proposal{}
	if err := s.db.SelectContext(ctx, &proposals, query, where.args...); err != nil {
		return nil, err
	}
	if err := s.expandProposals(ctx, proposals, true); err != nil {
		return nil, err
	}
	return proposals, nil
}

func (s *Storage) ListProposals(ctx context.Context, f models.ProposalFilter, page models.Page) ([]models.Proposal, int, error) {
	where := proposalConditions(f)
	where.search(page.Search, "pr.notes", "(SELECT title FROM rfps WHERE rfps.id = pr.rfp_id)")

	total, err := s.count(ctx, "FROM proposals pr", where)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals pr` + where.String() +
		orderBy(page, proposalSort, "pr.created_at", "pr.id") + ` LIMIT ? OFFSET ?`
	args := append(where.args, page.Limit, page.Offset())

	proposals := []models.Proposal{}
	if err := s.db.SelectContext(ctx, &proposals, s.db.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	if err := s.expandProposals(ctx, proposals, true); err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (s *Storage) CountProposals(ctx context.Context, f models.ProposalFilter) (int, error) {
	return s.count(ctx, "FROM proposals pr", proposalConditions(f))
}

// ReplaceProposalItems swaps the whole item set of a pending proposal and
// stores the new total in the same transaction. Notes are kept when nil.
func (s *Storage) ReplaceProposalItems(ctx context.Context, id int64, notes *string, items []models.ProposalItem) error {
	return translate(s.inTx(ctx, func(tx *sqlx.Tx) error {
		var status models.ProposalStatus
		if err := tx.GetContext(ctx, &status, `SELECT status FROM proposals WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}
		if status != models.ProposalPending {
			return ErrStale
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM proposal_items WHERE proposal_id = $1`, id); err != nil {
			return err
		}
		if err := insertProposalItems(ctx, tx, id, items); err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.TotalPrice)
		}
		query := `
            UPDATE proposals
            SET total_amount = $1, notes = COALESCE($2, notes), updated_at = NOW()
            WHERE id = $3`
		_, err := tx.ExecContext(ctx, query, total, notes, id)
		return err
	}))
}

// UpdateProposalNotes changes the notes of a pending proposal.
func (s *Storage) UpdateProposalNotes(ctx context.Context, id int64, notes *string) error {
	query := `UPDATE proposals SET notes = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := s.db.ExecContext(ctx, query, notes, id, models.ProposalPending)
	if err != nil {
		return translate(err)
	}
	if err := expectOne(res); err != nil {
		return ErrStale
	}
	return nil
}

// TransitionProposal moves the proposal to status `to` when its current
// status is one of `from`. An empty `from` applies the change unconditionally.
func (s *Storage) TransitionProposal(ctx context.Context, id int64, from []models.ProposalStatus, to models.ProposalStatus) error {
	if len(from) == 0 {
		res, err := s.db.ExecContext(ctx,
			`UPDATE proposals SET status = $1, updated_at = NOW() WHERE id = $2`, to, id)
		if err != nil {
			return translate(err)
		}
		return expectOne(res)
	}

	query := `UPDATE proposals SET status = $1, updated_at = NOW() WHERE id = $2 AND status = ANY($3)`
	res, err := s.db.ExecContext(ctx, query, to, id, pq.Array(statusStrings(from)))
	if err != nil {
		return translate(err)
	}
	if err := expectOne(res); err != nil {
		return ErrStale
	}
	return nil
}

// expandProposals attaches the supplier and items with their RFP items and
// products. withRFP also attaches the RFP and its project.
func (s *Storage) expandProposals(ctx context.Context, proposals []models.Proposal, withRFP bool) error {
	if len(proposals) == 0 {
		return nil
	}
	ids := make([]int64, len(proposals))
	supplierIDs := make([]int64, len(proposals))
	rfpIDs := make([]int64, len(proposals))
	for i, p := range proposals {
		ids[i] = p.ID
		supplierIDs[i] = p.SupplierID
		rfpIDs[i] = p.RFPID
	}

	suppliers, err := s.usersByID(ctx, supplierIDs)
	if err != nil {
		return err
	}

	var rfps map[int64]*models.RFP
	if withRFP {
		var list []models.RFP
		query := `SELECT ` + rfpColumns + ` FROM rfps r WHERE r.id IN (?)`
		if err := s.selectIn(ctx, &list, query, uniqueIDs(rfpIDs)); err != nil {
			return err
		}
		if err := s.expandRFPs(ctx, list, models.RFPExpand{Project: true}); err != nil {
			return err
		}
		rfps = make(map[int64]*models.RFP, len(list))
		for i := range list {
			rfps[list[i].ID] = &list[i]
		}
	}

	var items []models.ProposalItem
	query := `SELECT ` + proposalItemColumns + ` FROM proposal_items pi WHERE pi.proposal_id IN (?) ORDER BY pi.id`
	if err := s.selectIn(ctx, &items, query, ids); err != nil {
		return err
	}
	rfpItemIDs := make([]int64, len(items))
	for i, item := range items {
		rfpItemIDs[i] = item.RFPItemID
	}
	var rfpItems []models.RFPItem
	itemQuery := `SELECT ` + rfpItemColumns + ` FROM rfp_items i WHERE i.id IN (?)`
	if err := s.selectIn(ctx, &rfpItems, itemQuery, uniqueIDs(rfpItemIDs)); err != nil {
		return err
	}
	if err := s.attachProducts(ctx, rfpItems); err != nil {
		return err
	}
	rfpItemByID := make(map[int64]*models.RFPItem, len(rfpItems))
	for i := range rfpItems {
		rfpItemByID[rfpItems[i].ID] = &rfpItems[i]
	}

	byProposal := make(map[int64][]models.ProposalItem)
	for _, item := range items {
		item.RFPItem = rfpItemByID[item.RFPItemID]
		byProposal[item.ProposalID] = append(byProposal[item.ProposalID], item)
	}

	for i := range proposals {
		p := &proposals[i]
		p.Supplier = suppliers[p.SupplierID]
		p.Items = nonNil(byProposal[p.ID])
		if withRFP {
			p.RFP = rfps[p.RFPID]
		}
	}
	return nil
}
