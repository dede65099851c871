package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"procurement/models"
)

const rfpColumns = `r.id, r.title, r.description, r.status, r.is_active, r.start_date, r.end_date, r.project_id, r.created_at, r.updated_at`

const rfpItemColumns = `i.id, i.rfp_id, i.product_id, i.quantity, i.notes, i.created_at`

var rfpSort = map[string]string{
	"createdAt": "r.created_at",
	"updatedAt": "r.updated_at",
	"title":     "r.title",
	"status":    "r.status",
	"endDate":   "r.end_date",
}

func rfpConditions(f models.RFPFilter) *conditions {
	c := &conditions{}
	if f.ID != 0 {
		c.add("r.id = ?", f.ID)
	}
	if f.ProjectID != 0 {
		c.add("r.project_id = ?", f.ProjectID)
	}
	if f.CustomerID != nil {
		c.add("r.project_id IN (SELECT id FROM projects WHERE customer_id = ?)", *f.CustomerID)
	}
	if f.Status != "" {
		c.add("r.status = ?", f.Status)
	}
	if f.AvailableAt != nil {
		// Same predicate as models.RFP.AvailableAt.
		c.add("r.status = ? AND r.is_active AND r.end_date >= ?", models.RFPActive, *f.AvailableAt)
	}
	return c
}

// CreateRFP stores the RFP and all of its items in one transaction.
func (s *Storage) CreateRFP(ctx context.Context, r *models.RFP) error {
	return translate(s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO rfps (title, description, status, is_active, start_date, end_date, project_id)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			r.Title, r.Description, r.Status, r.IsActive, r.StartDate, r.EndDate, r.ProjectID).
			Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return err
		}

		itemQuery := `
            INSERT INTO rfp_items (rfp_id, product_id, quantity, notes)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at`
		for i := range r.Items {
			item := &r.Items[i]
			item.RFPID = r.ID
			err := tx.QueryRowContext(ctx, itemQuery, item.RFPID, item.ProductID, item.Quantity, item.Notes).
				Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *Storage) FindRFP(ctx context.Context, f models.RFPFilter, e models.RFPExpand) (*models.RFP, error) {
	where := rfpConditions(f)
	query := s.db.Rebind(`SELECT ` + rfpColumns + ` FROM rfps r` + where.String() + ` LIMIT 1`)
	rfps := make([]models.RFP, 1)
	if err := s.db.GetContext(ctx, &rfps[0], query, where.args...); err != nil {
		return nil, translate(err)
	}
	if err := s.expandRFPs(ctx, rfps, e); err != nil {
		return nil, err
	}
	return &rfps[0], nil
}

// FindRFPs returns every matching RFP, newest first.
func (s *Storage) FindRFPs(ctx context.Context, f models.RFPFilter, e models.RFPExpand) ([]models.RFP, error) {
	where := rfpConditions(f)
	query := s.db.Rebind(`SELECT ` + rfpColumns + ` FROM rfps r` + where.String() + ` ORDER BY r.created_at DESC, r.id DESC`)
	rfps := []models.RFP{}
	if err := s.db.SelectContext(ctx, &rfps, query, where.args...); err != nil {
		return nil, err
	}
	if err := s.expandRFPs(ctx, rfps, e); err != nil {
		return nil, err
	}
	return rfps, nil
}

func (s *Storage) ListRFPs(ctx context.Context, f models.RFPFilter, e models.RFPExpand, page models.Page) ([]models.RFP, int, error) {
	where := rfpConditions(f)
	where.search(page.Search, "r.title", "r.description")

	total, err := s.count(ctx, "FROM rfps r", where)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + rfpColumns + ` FROM rfps r` + where.String() +
		orderBy(page, rfpSort, "r.created_at", "r.id") + ` LIMIT ? OFFSET ?`
	args := append(where.args, page.Limit, page.Offset())

	rfps := []models.RFP{}
	if err := s.db.SelectContext(ctx, &rfps, s.db.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	if err := s.expandRFPs(ctx, rfps, e); err != nil {
		return nil, 0, err
	}
	return rfps, total, nil
}

func (s *Storage) CountRFPs(ctx context.Context, f models.RFPFilter) (int, error) {
	return s.count(ctx, "FROM rfps r", rfpConditions(f))
}

// UpdateRFP writes the scalar fields; items are left untouched.
func (s *Storage) UpdateRFP(ctx context.Context, r *models.RFP) error {
	query := `
        UPDATE rfps
        SET title = $1, description = $2, status = $3, is_active = $4, start_date = $5, end_date = $6, updated_at = NOW()
        WHERE id = $7
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		r.Title, r.Description, r.Status, r.IsActive, r.StartDate, r.EndDate, r.ID).
		Scan(&r.UpdatedAt)
	return translate(err)
}

func (s *Storage) SetRFPActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE rfps SET is_active = $1, updated_at = NOW() WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

// DeleteRFP removes the RFP together with its items and proposals.
func (s *Storage) DeleteRFP(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rfps WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (s *Storage) expandRFPs(ctx context.Context, rfps []models.RFP, e models.RFPExpand) error {
	if len(rfps) == 0 {
		return nil
	}
	ids := make([]int64, len(rfps))
	projectIDs := make([]int64, len(rfps))
	for i, r := range rfps {
		ids[i] = r.ID
		projectIDs[i] = r.ProjectID
	}

	if e.Project || e.Customer {
		projects, err := s.projectsByID(ctx, projectIDs, e.Customer)
		if err != nil {
			return err
		}
		for i := range rfps {
			rfps[i].Project = projects[rfps[i].ProjectID]
		}
	}

	if e.Items {
		var items []models.RFPItem
		query := `SELECT ` + rfpItemColumns + ` FROM rfp_items i WHERE i.rfp_id IN (?) ORDER BY i.id`
		if err := s.selectIn(ctx, &items, query, ids); err != nil {
			return err
		}
		if err := s.attachProducts(ctx, items); err != nil {
			return err
		}
		byRFP := make(map[int64][]models.RFPItem)
		for _, item := range items {
			byRFP[item.RFPID] = append(byRFP[item.RFPID], item)
		}
		for i := range rfps {
			rfps[i].Items = nonNil(byRFP[rfps[i].ID])
		}
	}

	if e.Proposals || e.ProposalDetail {
		var proposals []models.Proposal
		query := `SELECT ` + proposalColumns + ` FROM proposals pr WHERE pr.rfp_id IN (?) ORDER BY pr.submitted_at DESC, pr.id DESC`
		if err := s.selectIn(ctx, &proposals, query, ids); err != nil {
			return err
		}
		if e.ProposalDetail {
			if err := s.expandProposals(ctx, proposals, false); err != nil {
				return err
			}
		}
		byRFP := make(map[int64][]models.Proposal)
		for _, p := range proposals {
			byRFP[p.RFPID] = append(byRFP[p.RFPID], p)
		}
		for i := range rfps {
			rfps[i].Proposals = nonNil(byRFP[rfps[i].ID])
		}
	}
	return nil
}

func (s *Storage) attachProducts(ctx context.Context, items []models.RFPItem) error {
	productIDs := make([]int64, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productsByID(ctx, productIDs)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Product = products[items[i].ProductID]
	}
	return nil
}
