package models

import "time"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page carries pagination, free-text search and ordering for list queries.
type Page struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// Normalize clamps the page to the accepted bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		p.Limit = DefaultPageLimit
	}
	if p.SortOrder != "asc" {
		p.SortOrder = "desc"
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	return p
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata returned with a page of results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

type ProjectFilter struct {
	ID         int64
	CustomerID *int64
	Status     ProjectStatus
}

type ProjectExpand struct {
	Customer bool
	Products bool
	RFPs     bool
	// RFPDetail loads items and proposals of every RFP; implies RFPs.
	RFPDetail bool
}

type ProductFilter struct {
	ID        int64
	ProjectID int64
	IDs       []int64
	Category  ProductCategory
}

type RFPFilter struct {
	ID         int64
	ProjectID  int64
	CustomerID *int64
	Status     RFPStatus
	// AvailableAt restricts results to RFPs accepting proposals at that instant.
	AvailableAt *time.Time
}

type RFPExpand struct {
	Project  bool
	Customer bool
	Items    bool
	// Proposals loads bare proposals; ProposalDetail adds supplier and priced items.
	Proposals      bool
	ProposalDetail bool
}

type ProposalFilter struct {
	ID         int64
	RFPID      int64
	SupplierID *int64
	CustomerID *int64
	Status     ProposalStatus
}

// DashboardCounts are the rollups shown on the customer dashboard.
type DashboardCounts struct {
	TotalProjects    int `json:"totalProjects"`
	ActiveProjects   int `json:"activeProjects"`
	TotalRFPs        int `json:"totalRFPs"`
	ActiveRFPs       int `json:"activeRFPs"`
	TotalProposals   int `json:"totalProposals"`
	PendingProposals int `json:"pendingProposals"`
}

type SupplierDashboardCounts struct {
	TotalProposals    int `json:"totalProposals"`
	PendingProposals  int `json:"pendingProposals"`
	AcceptedProposals int `json:"acceptedProposals"`
	AvailableRFPs     int `json:"availableRFPs"`
}
