package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"procurement/models"
)

func TestProposalCreate_PricesEveryItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2, 5)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{
		RFPID: rfp.ID,
		Items: pricing(rfp, "10", "3"),
	})
	require.NoError(t, err)
	require.Equal(t, models.ProposalPending, proposal.Status)
	require.True(t, price("35").Equal(proposal.TotalAmount))
	require.Equal(t, fixedNow, proposal.SubmittedAt)
	require.Len(t, proposal.Items, 2)

	lines := map[int64]string{}
	for _, item := range proposal.Items {
		lines[item.RFPItemID] = item.TotalPrice.StringFixed(2)
	}
	require.Equal(t, map[int64]string{rfp.Items[0].ID: "20.00", rfp.Items[1].ID: "15.00"}, lines)
}

func TestProposalCreate_RoundsUnitPrice(t *testing.T) {
	f := newFixture(t)
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 3)

	proposal, err := f.proposals.Create(context.Background(), supplier, models.CreateProposalRequest{
		RFPID: rfp.ID,
		Items: pricing(rfp, "1.005"),
	})
	require.NoError(t, err)
	require.Equal(t, "1.01", proposal.Items[0].UnitPrice.StringFixed(2))
	require.Equal(t, "3.03", proposal.TotalAmount.StringFixed(2))
}

func TestProposalCreate_RejectsIncompleteSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2, 5)

	_, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{
		RFPID: rfp.ID,
		Items: pricing(rfp, "10"),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "missing")

	n, err := f.store.CountProposals(ctx, models.ProposalFilter{RFPID: rfp.ID})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestProposalCreate_RejectsForeignAndRepeatedItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)
	other := f.openRFP(t, customer, 1)

	foreign := append(pricing(rfp, "10"), models.ProposalItemInput{RFPItemID: other.Items[0].ID, UnitPrice: price("1")})
	_, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: foreign})
	require.ErrorIs(t, err, ErrInvalidInput)

	repeated := append(pricing(rfp, "10"), pricing(rfp, "11")...)
	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: repeated})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "0")})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestProposalCreate_RejectsTotalBeyondMoneyRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)

	_, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "999999999999.99")})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "exceeds 999999999999.99")

	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "1000000000000")})
	require.ErrorIs(t, err, ErrInvalidInput)

	mine, _, err := f.proposals.List(ctx, supplier, models.Page{})
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestProposalCreate_OnePerSupplierAndRFP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rival := f.register(t, "rival@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)

	first, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "9")})
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.proposals.Create(ctx, rival, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "9")})
	require.NoError(t, err)

	// A withdrawn proposal still blocks a new one.
	_, err = f.proposals.Withdraw(ctx, supplier, first.ID)
	require.NoError(t, err)
	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "8")})
	require.ErrorIs(t, err, ErrConflict)
}

func TestProposalCreate_RequiresAvailableRFP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)

	expired := f.rfpWith(t, customer, fixedNow.AddDate(0, -1, 0), fixedNow.AddDate(0, 0, -5), 2)
	_, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: expired.ID, Items: pricing(expired, "10")})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.rfps.GetForSupplier(ctx, expired.ID)
	require.ErrorIs(t, err, ErrNotFound)

	active, err := f.rfps.Active(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: 999, Items: []models.ProposalItemInput{{RFPItemID: 1, UnitPrice: price("1")}}})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProposalCreate_AvailabilityFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)

	inactive := f.openRFP(t, customer, 1)
	_, err := f.rfps.ToggleActive(ctx, customer, inactive.ProjectID, inactive.ID, models.ToggleRFPRequest{IsActive: new(bool)})
	require.NoError(t, err)

	closed := f.openRFP(t, customer, 1)
	status := models.RFPClosed
	_, err = f.rfps.Update(ctx, customer, closed.ProjectID, closed.ID, models.UpdateRFPRequest{Status: &status})
	require.NoError(t, err)

	open := f.openRFP(t, customer, 1)

	for _, rfp := range []*models.RFP{inactive, closed} {
		_, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "5")})
		require.ErrorIs(t, err, ErrNotFound)
	}

	active, err := f.rfps.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, open.ID, active[0].ID)

	// An RFP ending today is still open.
	lastDay := f.rfpWith(t, customer, fixedNow.AddDate(0, 0, -1), fixedNow, 1)
	_, err = f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: lastDay.ID, Items: pricing(lastDay, "5")})
	require.NoError(t, err)
}

func TestProposalUpdate_ReplacesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2, 5)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10", "3")})
	require.NoError(t, err)

	notes := "revised"
	updated, err := f.proposals.Update(ctx, supplier, proposal.ID, models.UpdateProposalRequest{
		Items: pricing(rfp, "12", "3"),
		Notes: &notes,
	})
	require.NoError(t, err)
	require.True(t, price("39").Equal(updated.TotalAmount))
	require.Len(t, updated.Items, 2)
	require.Equal(t, "24.00", updated.Items[0].TotalPrice.StringFixed(2))
	require.Equal(t, "revised", *updated.Notes)

	_, err = f.proposals.Update(ctx, supplier, proposal.ID, models.UpdateProposalRequest{Items: pricing(rfp, "12")})
	require.ErrorIs(t, err, ErrInvalidInput)

	again, err := f.proposals.Get(ctx, supplier, proposal.ID)
	require.NoError(t, err)
	require.True(t, price("39").Equal(again.TotalAmount))
}

func TestProposalUpdate_NotesOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	notes := "ships in a week"
	updated, err := f.proposals.Update(ctx, supplier, proposal.ID, models.UpdateProposalRequest{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, notes, *updated.Notes)
	require.True(t, price("20").Equal(updated.TotalAmount))
	require.Equal(t, proposal.Items[0].ID, updated.Items[0].ID)
}

func TestProposalLifecycle_TerminalStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rival := f.register(t, "rival@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)
	sibling, err := f.proposals.Create(ctx, rival, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "11")})
	require.NoError(t, err)

	accepted, err := f.proposals.UpdateStatusByCustomer(ctx, customer, proposal.ID, models.ProposalDecisionRequest{Status: models.ProposalAccepted})
	require.NoError(t, err)
	require.Equal(t, models.ProposalAccepted, accepted.Status)

	_, err = f.proposals.Withdraw(ctx, supplier, proposal.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	notes := "late change"
	_, err = f.proposals.Update(ctx, supplier, proposal.ID, models.UpdateProposalRequest{Notes: &notes})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.proposals.UpdateStatusByCustomer(ctx, customer, proposal.ID, models.ProposalDecisionRequest{Status: models.ProposalRejected})
	require.ErrorIs(t, err, ErrInvalidState)

	still, err := f.proposals.Get(ctx, rival, sibling.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalPending, still.Status)
}

func TestProposalDecision_RejectsWithdrawnStatus(t *testing.T) {
	f := newFixture(t)
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)
	proposal, err := f.proposals.Create(context.Background(), supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	_, err = f.proposals.UpdateStatusByCustomer(context.Background(), customer, proposal.ID,
		models.ProposalDecisionRequest{Status: models.ProposalWithdrawn})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestProposalAccess_IsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	stranger := f.register(t, "other@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rival := f.register(t, "rival@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	_, err = f.proposals.Get(ctx, rival, proposal.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.proposals.Withdraw(ctx, rival, proposal.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.proposals.GetForCustomer(ctx, stranger, proposal.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.proposals.UpdateStatusByCustomer(ctx, stranger, proposal.ID, models.ProposalDecisionRequest{Status: models.ProposalAccepted})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.proposals.ListByRFP(ctx, stranger, rfp.ID)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := f.proposals.ListByRFP(ctx, customer, rfp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Supplier)
	require.Empty(t, list[0].Supplier.PasswordHash)

	mine, pagination, err := f.proposals.List(ctx, supplier, models.Page{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, 1, pagination.Total)

	theirs, _, err := f.proposals.List(ctx, rival, models.Page{})
	require.NoError(t, err)
	require.Empty(t, theirs)
}

func TestProposalUpdateStatus_AdminOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	admin := f.admin(t)
	rfp := f.openRFP(t, customer, 2)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	_, err = f.proposals.UpdateStatus(ctx, customer, proposal.ID, models.ProposalStatusRequest{Status: models.ProposalAccepted})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.proposals.Withdraw(ctx, supplier, proposal.ID)
	require.NoError(t, err)

	reopened, err := f.proposals.UpdateStatus(ctx, admin, proposal.ID, models.ProposalStatusRequest{Status: models.ProposalPending})
	require.NoError(t, err)
	require.Equal(t, models.ProposalPending, reopened.Status)

	_, err = f.proposals.UpdateStatus(ctx, admin, 999, models.ProposalStatusRequest{Status: models.ProposalAccepted})
	require.ErrorIs(t, err, ErrNotFound)

	list, err := f.proposals.ListByRFP(ctx, admin, rfp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestProposalMutations_AdminIsNotAuthorOrOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	admin := f.admin(t)
	rfp := f.openRFP(t, customer, 2)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	_, err = f.proposals.Update(ctx, admin, proposal.ID, models.UpdateProposalRequest{Items: pricing(rfp, "1")})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.proposals.UpdateStatusByCustomer(ctx, admin, proposal.ID, models.ProposalDecisionRequest{Status: models.ProposalRejected})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.proposals.Withdraw(ctx, admin, proposal.ID)
	require.ErrorIs(t, err, ErrNotFound)

	stored, err := f.proposals.Get(ctx, supplier, proposal.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalPending, stored.Status)
	require.True(t, stored.TotalAmount.Equal(price("20")))
}

func TestProposalDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.register(t, "buyer@example.com", models.RoleCustomer)
	stranger := f.register(t, "other@example.com", models.RoleCustomer)
	supplier := f.register(t, "seller@example.com", models.RoleSupplier)
	rfp := f.openRFP(t, customer, 2)

	proposal, err := f.proposals.Create(ctx, supplier, models.CreateProposalRequest{RFPID: rfp.ID, Items: pricing(rfp, "10")})
	require.NoError(t, err)

	file, err := f.proposals.Document(ctx, customer, proposal.ID)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", file.ContentType)
	require.Equal(t, "%PDF", string(file.Content))
	require.Equal(t, proposal.ID, f.renderer.rendered.ID)
	require.NotNil(t, f.renderer.rendered.RFP)

	_, err = f.proposals.Document(ctx, supplier, proposal.ID)
	require.NoError(t, err)

	_, err = f.proposals.Document(ctx, stranger, proposal.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
