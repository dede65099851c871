package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement/db"
	"procurement/internal/auth"
	"procurement/models"
)

// ProposalRenderer renders a proposal summary document.
type ProposalRenderer interface {
	Proposal(p *models.Proposal) ([]byte, error)
}

type ProposalService struct {
	rfps      RFPStore
	proposals ProposalStore
	renderer  ProposalRenderer
	now       func() time.Time
}

func NewProposalService(rfps RFPStore, proposals ProposalStore, renderer ProposalRenderer) *ProposalService {
	return &ProposalService{rfps: rfps, proposals: proposals, renderer: renderer, now: time.Now}
}

// Create submits a supplier's priced response to an available RFP. Every RFP
// item must be priced exactly once, and a supplier gets one proposal per RFP
// whatever the status of an earlier one.
func (s *ProposalService) Create(ctx context.Context, p auth.Principal, req models.CreateProposalRequest) (*models.Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	now := s.now()
	rfp, err := s.rfps.FindRFP(ctx, models.RFPFilter{ID: req.RFPID, AvailableAt: &now}, models.RFPExpand{Items: true})
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: RFP not found or not accepting proposals", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := checkCompleteness(rfp, req.Items); err != nil {
		return nil, err
	}

	exists, err := s.proposals.HasProposal(ctx, p.UserID, rfp.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicateProposal
	}

	items, total, err := priceItems(rfp, req.Items)
	if err != nil {
		return nil, err
	}

	proposal := &models.Proposal{
		RFPID:       rfp.ID,
		SupplierID:  p.UserID,
		Status:      models.ProposalPending,
		TotalAmount: total,
		Notes:       req.Notes,
		SubmittedAt: now.UTC(),
		Items:       items,
	}
	if err := s.proposals.CreateProposal(ctx, proposal); err != nil {
		// The unique (supplier, rfp) constraint settles concurrent submissions.
		if errors.Is(err, db.ErrDuplicate) {
			return nil, errDuplicateProposal
		}
		return nil, storeError(err, "proposal")
	}
	return s.find(ctx, models.ProposalFilter{ID: proposal.ID})
}

var errDuplicateProposal = fmt.Errorf("%w: you have already submitted a proposal for this RFP", ErrConflict)

// Update edits a pending proposal of the supplier. When items are given the
// whole item set is re-priced against the RFP's current items and replaced.
func (s *ProposalService) Update(ctx context.Context, p auth.Principal, id int64, req models.UpdateProposalRequest) (*models.Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	proposal, err := s.pending(ctx, models.ProposalFilter{ID: id, SupplierID: authorScope(p)}, "updated")
	if err != nil {
		return nil, err
	}

	switch {
	case req.Items != nil:
		rfp, err := s.rfps.FindRFP(ctx, models.RFPFilter{ID: proposal.RFPID}, models.RFPExpand{Items: true})
		if err != nil {
			return nil, storeError(err, "RFP")
		}
		if err := checkCompleteness(rfp, req.Items); err != nil {
			return nil, err
		}
		items, _, err := priceItems(rfp, req.Items)
		if err != nil {
			return nil, err
		}
		if err := s.proposals.ReplaceProposalItems(ctx, id, req.Notes, items); err != nil {
			return nil, storeError(err, "proposal")
		}
	case req.Notes != nil:
		if err := s.proposals.UpdateProposalNotes(ctx, id, req.Notes); err != nil {
			return nil, storeError(err, "proposal")
		}
	}
	return s.find(ctx, models.ProposalFilter{ID: id})
}

// UpdateStatusByCustomer accepts or rejects a pending proposal on one of the
// customer's projects. Other proposals on the same RFP are left as they are.
func (s *ProposalService) UpdateStatusByCustomer(ctx context.Context, p auth.Principal, id int64, req models.ProposalDecisionRequest) (*models.Proposal, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := s.pending(ctx, models.ProposalFilter{ID: id, CustomerID: authorScope(p)}, "accepted or rejected"); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, id, req.Status); err != nil {
		return nil, err
	}
	return s.find(ctx, models.ProposalFilter{ID: id})
}

// Withdraw retracts a pending proposal. There is no way back.
func (s *ProposalService) Withdraw(ctx context.Context, p auth.Principal, id int64) (*models.Proposal, error) {
	if _, err := s.pending(ctx, models.ProposalFilter{ID: id, SupplierID: authorScope(p)}, "withdrawn"); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, id, models.ProposalWithdrawn); err != nil {
		return nil, err
	}
	return s.find(ctx, models.ProposalFilter{ID: id})
}

// UpdateStatus is the administrative override: any status, no precondition.
func (s *ProposalService) UpdateStatus(ctx context.Context, p auth.Principal, id int64, req models.ProposalStatusRequest) (*models.Proposal, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: administrator role required", ErrPermissionDenied)
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.proposals.TransitionProposal(ctx, id, nil, req.Status); err != nil {
		return nil, storeError(err, "proposal")
	}
	return s.find(ctx, models.ProposalFilter{ID: id})
}

// ListByRFP returns all proposals on an RFP of the customer, latest first.
func (s *ProposalService) ListByRFP(ctx context.Context, p auth.Principal, rfpID int64) ([]models.Proposal, error) {
	if _, err := s.rfps.FindRFP(ctx, models.RFPFilter{ID: rfpID, CustomerID: ownerScope(p)}, models.RFPExpand{}); err != nil {
		return nil, storeError(err, "RFP")
	}
	return s.proposals.FindProposals(ctx, models.ProposalFilter{RFPID: rfpID})
}

// List returns the supplier's proposals.
func (s *ProposalService) List(ctx context.Context, p auth.Principal, page models.Page) ([]models.Proposal, models.Pagination, error) {
	page = page.Normalize()
	proposals, total, err := s.proposals.ListProposals(ctx, models.ProposalFilter{SupplierID: ownerScope(p)}, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return proposals, models.NewPagination(page, total), nil
}

func (s *ProposalService) Get(ctx context.Context, p auth.Principal, id int64) (*models.Proposal, error) {
	return s.find(ctx, models.ProposalFilter{ID: id, SupplierID: ownerScope(p)})
}

// GetForCustomer returns a proposal made on one of the customer's projects.
func (s *ProposalService) GetForCustomer(ctx context.Context, p auth.Principal, id int64) (*models.Proposal, error) {
	return s.find(ctx, models.ProposalFilter{ID: id, CustomerID: ownerScope(p)})
}

// Document renders the proposal as PDF for its supplier, the customer who
// owns the RFP, or an administrator.
func (s *ProposalService) Document(ctx context.Context, p auth.Principal, id int64) (*File, error) {
	filter := models.ProposalFilter{ID: id}
	switch p.Role {
	case models.RoleSupplier:
		filter.SupplierID = &p.UserID
	case models.RoleCustomer:
		filter.CustomerID = &p.UserID
	}
	proposal, err := s.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.Proposal(proposal)
	if err != nil {
		return nil, fmt.Errorf("render proposal: %w", err)
	}
	return &File{
		Name:        fmt.Sprintf("proposal-%d.pdf", proposal.ID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// pending loads a proposal and requires it to still be PENDING; action
// completes the error message.
func (s *ProposalService) pending(ctx context.Context, f models.ProposalFilter, action string) (*models.Proposal, error) {
	proposal, err := s.find(ctx, f)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalPending {
		return nil, fmt.Errorf("%w: only pending proposals can be %s, proposal is %s", ErrInvalidState, action, proposal.Status)
	}
	return proposal, nil
}

func (s *ProposalService) transition(ctx context.Context, id int64, to models.ProposalStatus) error {
	err := s.proposals.TransitionProposal(ctx, id, []models.ProposalStatus{models.ProposalPending}, to)
	if errors.Is(err, db.ErrStale) {
		return fmt.Errorf("%w: proposal is no longer pending", ErrInvalidState)
	}
	return storeError(err, "proposal")
}

func (s *ProposalService) find(ctx context.Context, f models.ProposalFilter) (*models.Proposal, error) {
	proposal, err := s.proposals.FindProposal(ctx, f)
	if err != nil {
		return nil, storeError(err, "proposal")
	}
	return proposal, nil
}
