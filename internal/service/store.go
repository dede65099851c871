package service

import (
	"context"

	"procurement/internal/auth"
	"procurement/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, u *models.User) error
	UpdateUserPassword(ctx context.Context, id int64, hash string) error
}

type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	FindProject(ctx context.Context, f models.ProjectFilter, e models.ProjectExpand) (*models.Project, error)
	ListProjects(ctx context.Context, f models.ProjectFilter, page models.Page) ([]models.Project, int, error)
	CountProjects(ctx context.Context, f models.ProjectFilter) (int, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int64) error
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, f models.ProductFilter) (*models.Product, error)
	FindProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter, page models.Page) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type RFPStore interface {
	CreateRFP(ctx context.Context, r *models.RFP) error
	FindRFP(ctx context.Context, f models.RFPFilter, e models.RFPExpand) (*models.RFP, error)
	FindRFPs(ctx context.Context, f models.RFPFilter, e models.RFPExpand) ([]models.RFP, error)
	ListRFPs(ctx context.Context, f models.RFPFilter, e models.RFPExpand, page models.Page) ([]models.RFP, int, error)
	CountRFPs(ctx context.Context, f models.RFPFilter) (int, error)
	UpdateRFP(ctx context.Context, r *models.RFP) error
	SetRFPActive(ctx context.Context, id int64, active bool) error
	DeleteRFP(ctx context.Context, id int64) error
}

type ProposalStore interface {
	HasProposal(ctx context.Context, supplierID, rfpID int64) (bool, error)
	CreateProposal(ctx context.Context, p *models.Proposal) error
	FindProposal(ctx context.Context, f models.ProposalFilter) (*models.Proposal, error)
	FindProposals(ctx context.Context, f models.ProposalFilter) ([]models.Proposal, error)
	ListProposals(ctx context.Context, f models.ProposalFilter, page models.Page) ([]models.Proposal, int, error)
	CountProposals(ctx context.Context, f models.ProposalFilter) (int, error)
	ReplaceProposalItems(ctx context.Context, id int64, notes *string, items []models.ProposalItem) error
	UpdateProposalNotes(ctx context.Context, id int64, notes *string) error
	TransitionProposal(ctx context.Context, id int64, from []models.ProposalStatus, to models.ProposalStatus) error
}

// Store is the full persistence contract, implemented by db.Storage and memory.Store.
type Store interface {
	UserStore
	ProjectStore
	ProductStore
	RFPStore
	ProposalStore
}

// File is a generated document ready to be streamed to the client.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// ownerScope limits queries to the caller's own records; admins are unscoped.
func ownerScope(p auth.Principal) *int64 {
	if p.IsAdmin() {
		return nil
	}
	return authorScope(p)
}

// authorScope always restricts to the caller, administrators included.
// Mutations that belong to the author or the project owner use it.
func authorScope(p auth.Principal) *int64 {
	id := p.UserID
	return &id
}
