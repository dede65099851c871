package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"procurement/db/memory"
	"procurement/internal/auth"
	"procurement/models"
)

func TestMain(m *testing.M) {
	auth.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type stubExporter struct{ rfps []models.RFP }

func (e *stubExporter) Comparison(_ *models.Project, rfps []models.RFP) ([]byte, error) {
	e.rfps = rfps
	return []byte("xlsx"), nil
}

type stubRenderer struct{ rendered *models.Proposal }

func (r *stubRenderer) Proposal(p *models.Proposal) ([]byte, error) {
	r.rendered = p
	return []byte("%PDF"), nil
}

type fixture struct {
	store     *memory.Store
	auth      *AuthService
	projects  *ProjectService
	products  *ProductService
	rfps      *RFPService
	proposals *ProposalService
	dashboard *DashboardService
	exporter  *stubExporter
	renderer  *stubRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:    store,
		exporter: &stubExporter{},
		renderer: &stubRenderer{},
	}
	f.auth = NewAuthService(store, auth.NewManager("test-secret", time.Hour))
	f.projects = NewProjectService(store)
	f.products = NewProductService(store, store)
	f.rfps = NewRFPService(store, store, store, f.exporter)
	f.proposals = NewProposalService(store, store, f.renderer)
	f.dashboard = NewDashboardService(store, store, store)

	clock := func() time.Time { return fixedNow }
	f.rfps.now = clock
	f.proposals.now = clock
	f.dashboard.now = clock
	return f
}

func (f *fixture) register(t *testing.T, email string, role models.Role) auth.Principal {
	t.Helper()
	res, err := f.auth.Register(context.Background(), models.RegisterRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	})
	require.NoError(t, err)
	return auth.Principal{UserID: res.User.ID, Email: res.User.Email, Role: res.User.Role}
}

func (f *fixture) admin(t *testing.T) auth.Principal {
	t.Helper()
	user, err := f.auth.CreateAdmin(context.Background(), models.CreateAdminRequest{
		Email:     "admin@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Admin",
	})
	require.NoError(t, err)
	return auth.Principal{UserID: user.ID, Email: user.Email, Role: models.RoleAdmin}
}

func ts(t time.Time) *models.Timestamp {
	v := models.NewTimestamp(t)
	return &v
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) project(t *testing.T, customer auth.Principal) *models.Project {
	t.Helper()
	project, err := f.projects.Create(context.Background(), customer, models.CreateProjectRequest{Title: "Office refit"})
	require.NoError(t, err)
	return project
}

func (f *fixture) product(t *testing.T, customer auth.Principal, projectID int64, name string) *models.Product {
	t.Helper()
	product, err := f.products.Create(context.Background(), customer, projectID, models.CreateProductRequest{
		Name:     name,
		Category: models.CategoryHardware,
	})
	require.NoError(t, err)
	return product
}

// rfpWith creates a project with one product per quantity and an RFP asking
// for those quantities inside the given window.
func (f *fixture) rfpWith(t *testing.T, customer auth.Principal, start, end time.Time, quantities ...int) *models.RFP {
	t.Helper()
	project := f.project(t, customer)
	req := models.CreateRFPRequest{
		Title:     "Laptops and support",
		StartDate: ts(start),
		EndDate:   ts(end),
	}
	for i, qty := range quantities {
		product := f.product(t, customer, project.ID, string(rune('A'+i))+" product")
		req.Items = append(req.Items, models.RFPItemInput{ProductID: product.ID, Quantity: qty})
	}
	rfp, err := f.rfps.Create(context.Background(), customer, project.ID, req)
	require.NoError(t, err)
	return rfp
}

func (f *fixture) openRFP(t *testing.T, customer auth.Principal, quantities ...int) *models.RFP {
	t.Helper()
	return f.rfpWith(t, customer, fixedNow.AddDate(0, 0, -9), fixedNow.AddDate(0, 0, 22), quantities...)
}

func pricing(rfp *models.RFP, prices ...string) []models.ProposalItemInput {
	items := make([]models.ProposalItemInput, len(prices))
	for i, p := range prices {
		items[i] = models.ProposalItemInput{RFPItemID: rfp.Items[i].ID, UnitPrice: price(p)}
	}
	return items
}
