package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"procurement/db"
	"procurement/models"
)

type seeded struct {
	customer models.User
	supplier models.User
	project  models.Project
	product  models.Product
	rfp      models.RFP
}

func seed(t *testing.T, s *Store) seeded {
	t.Helper()
	ctx := context.Background()
	out := seeded{
		customer: models.User{Email: "buyer@example.com", Role: models.RoleCustomer, PasswordHash: "hash", IsActive: true},
		supplier: models.User{Email: "seller@example.com", Role: models.RoleSupplier, PasswordHash: "hash", IsActive: true},
	}
	require.NoError(t, s.CreateUser(ctx, &out.customer))
	require.NoError(t, s.CreateUser(ctx, &out.supplier))

	out.project = models.Project{Title: "Refit", Status: models.ProjectActive, CustomerID: out.customer.ID}
	require.NoError(t, s.CreateProject(ctx, &out.project))

	out.product = models.Product{Name: "Laptop", Category: models.CategoryHardware, ProjectID: out.project.ID}
	require.NoError(t, s.CreateProduct(ctx, &out.product))

	out.rfp = models.RFP{
		Title:     "Laptops",
		Status:    models.RFPActive,
		IsActive:  true,
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ProjectID: out.project.ID,
		Items:     []models.RFPItem{{ProductID: out.product.ID, Quantity: 2}},
	}
	require.NoError(t, s.CreateRFP(ctx, &out.rfp))
	return out
}

func proposalFor(x seeded, unit string) *models.Proposal {
	price := decimal.RequireFromString(unit)
	line := price.Mul(decimal.NewFromInt(2))
	return &models.Proposal{
		RFPID:       x.rfp.ID,
		SupplierID:  x.supplier.ID,
		Status:      models.ProposalPending,
		TotalAmount: line,
		Items:       []models.ProposalItem{{RFPItemID: x.rfp.Items[0].ID, UnitPrice: price, TotalPrice: line}},
	}
}

func TestStore_UserEmailIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a@example.com"}))
	err := s.CreateUser(ctx, &models.User{Email: "A@EXAMPLE.COM"})
	require.ErrorIs(t, err, db.ErrDuplicate)

	u, err := s.FindUserByEmail(ctx, "A@example.com")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", u.Email)
}

func TestStore_ProposalUniquePerSupplier(t *testing.T) {
	s := NewStore()
	x := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateProposal(ctx, proposalFor(x, "10")))
	err := s.CreateProposal(ctx, proposalFor(x, "9"))
	require.ErrorIs(t, err, db.ErrDuplicate)

	has, err := s.HasProposal(ctx, x.supplier.ID, x.rfp.ID)
	require.NoError(t, err)
	require.True(t, has)
}

func TestStore_TransitionIsConditional(t *testing.T) {
	s := NewStore()
	x := seed(t, s)
	ctx := context.Background()
	p := proposalFor(x, "10")
	require.NoError(t, s.CreateProposal(ctx, p))

	pending := []models.ProposalStatus{models.ProposalPending}
	require.NoError(t, s.TransitionProposal(ctx, p.ID, pending, models.ProposalAccepted))
	require.ErrorIs(t, s.TransitionProposal(ctx, p.ID, pending, models.ProposalWithdrawn), db.ErrStale)
	require.ErrorIs(t, s.ReplaceProposalItems(ctx, p.ID, nil, nil), db.ErrStale)
	require.ErrorIs(t, s.UpdateProposalNotes(ctx, p.ID, nil), db.ErrStale)

	require.NoError(t, s.TransitionProposal(ctx, p.ID, nil, models.ProposalPending))
	require.ErrorIs(t, s.TransitionProposal(ctx, 999, nil, models.ProposalPending), db.ErrNotFound)
}

func TestStore_ReplaceProposalItems(t *testing.T) {
	s := NewStore()
	x := seed(t, s)
	ctx := context.Background()
	p := proposalFor(x, "10")
	require.NoError(t, s.CreateProposal(ctx, p))

	replacement := proposalFor(x, "12").Items
	notes := "revised"
	require.NoError(t, s.ReplaceProposalItems(ctx, p.ID, &notes, replacement))

	got, err := s.FindProposal(ctx, models.ProposalFilter{ID: p.ID})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "24", got.TotalAmount.String())
	require.Equal(t, "revised", *got.Notes)
	require.NotNil(t, got.Items[0].RFPItem)
	require.NotNil(t, got.RFP)
	require.Empty(t, got.Supplier.PasswordHash)
}

func TestStore_AvailabilityFilter(t *testing.T) {
	s := NewStore()
	x := seed(t, s)
	ctx := context.Background()

	during := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	after := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	n, err := s.CountRFPs(ctx, models.RFPFilter{AvailableAt: &during})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.CountRFPs(ctx, models.RFPFilter{AvailableAt: &after})
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, s.SetRFPActive(ctx, x.rfp.ID, false))
	_, err = s.FindRFP(ctx, models.RFPFilter{ID: x.rfp.ID, AvailableAt: &during}, models.RFPExpand{})
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestStore_DeleteRules(t *testing.T) {
	s := NewStore()
	x := seed(t, s)
	ctx := context.Background()
	p := proposalFor(x, "10")
	require.NoError(t, s.CreateProposal(ctx, p))

	require.ErrorIs(t, s.DeleteProduct(ctx, x.product.ID), db.ErrReferenced)

	require.NoError(t, s.DeleteProject(ctx, x.project.ID))
	_, err := s.FindProposal(ctx, models.ProposalFilter{ID: p.ID})
	require.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.FindProduct(ctx, models.ProductFilter{ID: x.product.ID})
	require.ErrorIs(t, err, db.ErrNotFound)
	require.Empty(t, s.rfpItems)
	require.Empty(t, s.proposalItems)
}

func TestStore_ListPagination(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	owner := models.User{Email: "buyer@example.com"}
	require.NoError(t, s.CreateUser(ctx, &owner))
	for _, title := range []string{"Alpha", "Bravo", "Charlie"} {
		require.NoError(t, s.CreateProject(ctx, &models.Project{Title: title, CustomerID: owner.ID}))
	}

	page := models.Page{Page: 1, Limit: 2}.Normalize()
	projects, total, err := s.ListProjects(ctx, models.ProjectFilter{CustomerID: &owner.ID}, page)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, projects, 2)
	require.Equal(t, "Charlie", projects[0].Title)
	require.NotNil(t, projects[0].Customer)

	page.Page = 2
	projects, _, err = s.ListProjects(ctx, models.ProjectFilter{}, page)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Alpha", projects[0].Title)

	search := models.Page{Search: "rav", SortBy: "title", SortOrder: "asc"}.Normalize()
	projects, total, err = s.ListProjects(ctx, models.ProjectFilter{}, search)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Bravo", projects[0].Title)
}
