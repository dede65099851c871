package service

import (
	"context"
	"time"

	"procurement/internal/auth"
	"procurement/models"
)

const recentLimit = 5

type DashboardService struct {
	projects  ProjectStore
	rfps      RFPStore
	proposals ProposalStore
	now       func() time.Time
}

func NewDashboardService(projects ProjectStore, rfps RFPStore, proposals ProposalStore) *DashboardService {
	return &DashboardService{projects: projects, rfps: rfps, proposals: proposals, now: time.Now}
}

type CustomerDashboard struct {
	Stats           models.DashboardCounts `json:"stats"`
	RecentProjects  []models.Project       `json:"recentProjects"`
	RecentRFPs      []models.RFP           `json:"recentRFPs"`
	RecentProposals []models.Proposal      `json:"recentProposals"`
}

type SupplierDashboard struct {
	Stats           models.SupplierDashboardCounts `json:"stats"`
	RecentProposals []models.Proposal              `json:"recentProposals"`
}

func recentPage() models.Page {
	return models.Page{Page: 1, Limit: recentLimit}.Normalize()
}

func (s *DashboardService) Customer(ctx context.Context, p auth.Principal) (*CustomerDashboard, error) {
	customer := ownerScope(p)
	out := &CustomerDashboard{}

	var err error
	if out.Stats.TotalProjects, err = s.projects.CountProjects(ctx, models.ProjectFilter{CustomerID: customer}); err != nil {
		return nil, err
	}
	if out.Stats.ActiveProjects, err = s.projects.CountProjects(ctx,
		models.ProjectFilter{CustomerID: customer, Status: models.ProjectActive}); err != nil {
		return nil, err
	}
	if out.Stats.TotalRFPs, err = s.rfps.CountRFPs(ctx, models.RFPFilter{CustomerID: customer}); err != nil {
		return nil, err
	}
	if out.Stats.ActiveRFPs, err = s.rfps.CountRFPs(ctx,
		models.RFPFilter{CustomerID: customer, Status: models.RFPActive}); err != nil {
		return nil, err
	}
	if out.Stats.TotalProposals, err = s.proposals.CountProposals(ctx, models.ProposalFilter{CustomerID: customer}); err != nil {
		return nil, err
	}
	if out.Stats.PendingProposals, err = s.proposals.CountProposals(ctx,
		models.ProposalFilter{CustomerID: customer, Status: models.ProposalPending}); err != nil {
		return nil, err
	}

	page := recentPage()
	if out.RecentProjects, _, err = s.projects.ListProjects(ctx, models.ProjectFilter{CustomerID: customer}, page); err != nil {
		return nil, err
	}
	if out.RecentRFPs, _, err = s.rfps.ListRFPs(ctx, models.RFPFilter{CustomerID: customer},
		models.RFPExpand{Project: true, Proposals: true}, page); err != nil {
		return nil, err
	}
	if out.RecentProposals, _, err = s.proposals.ListProposals(ctx, models.ProposalFilter{CustomerID: customer}, page); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) Supplier(ctx context.Context, p auth.Principal) (*SupplierDashboard, error) {
	supplier := ownerScope(p)
	now := s.now()
	out := &SupplierDashboard{}

	var err error
	if out.Stats.TotalProposals, err = s.proposals.CountProposals(ctx, models.ProposalFilter{SupplierID: supplier}); err != nil {
		return nil, err
	}
	if out.Stats.PendingProposals, err = s.proposals.CountProposals(ctx,
		models.ProposalFilter{SupplierID: supplier, Status: models.ProposalPending}); err != nil {
		return nil, err
	}
	if out.Stats.AcceptedProposals, err = s.proposals.CountProposals(ctx,
		models.ProposalFilter{SupplierID: supplier, Status: models.ProposalAccepted}); err != nil {
		return nil, err
	}
	if out.Stats.AvailableRFPs, err = s.rfps.CountRFPs(ctx, models.RFPFilter{AvailableAt: &now}); err != nil {
		return nil, err
	}
	if out.RecentProposals, _, err = s.proposals.ListProposals(ctx,
		models.ProposalFilter{SupplierID: supplier}, recentPage()); err != nil {
		return nil, err
	}
	return out, nil
}
