package handlers_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"procurement/db/memory"
	"procurement/internal/auth"
	"procurement/internal/export"
	"procurement/internal/handlers"
	"procurement/internal/handlers/testutils"
	"procurement/internal/service"
	"procurement/models"
)

func TestMain(m *testing.M) {
	auth.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testServer struct {
	t       *testing.T
	handler *handlers.Handler
	router  http.Handler
	auth    *service.AuthService
}

func newTestServer(t *testing.T, limiter *handlers.RateLimiter) *testServer {
	t.Helper()
	store := memory.NewStore()
	authService := service.NewAuthService(store, auth.NewManager("test-secret", time.Hour))
	h := handlers.NewHandler(handlers.Services{
		Auth:      authService,
		Projects:  service.NewProjectService(store),
		Products:  service.NewProductService(store, store),
		RFPs:      service.NewRFPService(store, store, store, export.NewExcelGenerator()),
		Proposals: service.NewProposalService(store, store, export.NewPDFGenerator()),
		Dashboard: service.NewDashboardService(store, store, store),
	}, store, zerolog.Nop(), false)

	return &testServer{
		t:       t,
		handler: h,
		router:  handlers.NewRouter(h, handlers.RouterOptions{AuthLimiter: limiter, Log: zerolog.Nop()}),
		auth:    authService,
	}
}

func (s *testServer) do(method, path, token string, body any) *http.Response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		reader = testutils.JSONBody(s.t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		testutils.WithBearer(req, token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Result()
}

func (s *testServer) register(email string, role models.Role) string {
	s.t.Helper()
	res := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":     email,
		"password":  "password123",
		"firstName": "Test",
		"lastName":  "User",
		"role":      role,
	})
	require.Equal(s.t, http.StatusCreated, res.StatusCode)
	var out service.AuthResult
	testutils.DecodeEnvelope(s.t, res, &out)
	require.NotEmpty(s.t, out.Token)
	return out.Token
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	ctx := context.Background()
	_, err := s.auth.CreateAdmin(ctx, models.CreateAdminRequest{
		Email:     "admin@example.com",
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Admin",
	})
	require.NoError(s.t, err)
	res, err := s.auth.Login(ctx, models.LoginRequest{Email: "admin@example.com", Password: "password123"})
	require.NoError(s.t, err)
	return res.Token
}

// openRFP creates a project with two products and an RFP for 2 and 5 units
// that accepts proposals now.
func (s *testServer) openRFP(customer string) models.RFP {
	s.t.Helper()
	res := s.do(http.MethodPost, "/api/projects", customer, map[string]any{"title": "Office refit", "budget": 5000})
	require.Equal(s.t, http.StatusCreated, res.StatusCode)
	var project models.Project
	testutils.DecodeEnvelope(s.t, res, &project)

	var items []map[string]any
	for i, qty := range []int{2, 5} {
		res := s.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/products", project.ID), customer, map[string]any{
			"name":     fmt.Sprintf("Product %d", i+1),
			"category": "HARDWARE",
			"unit":     "pcs",
		})
		require.Equal(s.t, http.StatusCreated, res.StatusCode)
		var product models.Product
		testutils.DecodeEnvelope(s.t, res, &product)
		items = append(items, map[string]any{"productId": product.ID, "quantity": qty})
	}

	now := time.Now().UTC()
	res = s.do(http.MethodPost, fmt.Sprintf("/api/projects/%d/rfps", project.ID), customer, map[string]any{
		"title":     "Laptops and support",
		"startDate": now.AddDate(0, 0, -1).Format(time.RFC3339),
		"endDate":   now.AddDate(0, 1, 0).Format("2006-01-02"),
		"items":     items,
	})
	require.Equal(s.t, http.StatusCreated, res.StatusCode)
	var rfp models.RFP
	testutils.DecodeEnvelope(s.t, res, &rfp)
	require.Len(s.t, rfp.Items, 2)
	return rfp
}

func priced(rfp models.RFP, prices ...float64) []map[string]any {
	items := make([]map[string]any, len(prices))
	for i, p := range prices {
		items[i] = map[string]any{"rfpItemId": rfp.Items[i].ID, "unitPrice": p}
	}
	return items
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, nil)

	res := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.True(t, env.Success)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	res := s.do(http.MethodGet, "/api/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.False(t, env.Success)
	require.Equal(t, "route not found", env.Message)
}

func TestAuthenticate_RequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	res := s.do(http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = s.do(http.MethodGet, "/api/projects", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.False(t, env.Success)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t, nil)
	customer := s.register("buyer@example.com", models.RoleCustomer)
	supplier := s.register("seller@example.com", models.RoleSupplier)
	admin := s.adminToken()

	res := s.do(http.MethodGet, "/api/projects", supplier, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.do(http.MethodGet, "/api/proposals", customer, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.do(http.MethodGet, "/api/dashboard/supplier", customer, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.do(http.MethodGet, "/api/projects", admin, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRegisterHandler_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	res := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{"email": "not-an-email", "role": "ADMIN"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.Contains(t, env.Message, "email")

	s.register("buyer@example.com", models.RoleCustomer)
	res = s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "buyer@example.com", "password": "password123",
		"firstName": "Ann", "lastName": "Smith", "role": "SUPPLIER",
	})
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestLoginHandler(t *testing.T) {
	s := newTestServer(t, nil)
	s.register("buyer@example.com", models.RoleCustomer)

	res := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "buyer@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "buyer@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var out service.AuthResult
	testutils.DecodeEnvelope(t, res, &out)

	res = s.do(http.MethodGet, "/api/auth/profile", out.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "buyer@example.com")
	require.NotContains(t, string(body), "password")
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, handlers.NewRateLimiter(time.Minute, 2))
	login := map[string]any{"email": "nobody@example.com", "password": "password123"}

	for range 2 {
		res := s.do(http.MethodPost, "/api/auth/login", "", login)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	}
	res := s.do(http.MethodPost, "/api/auth/login", "", login)
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestProposalFlow(t *testing.T) {
	s := newTestServer(t, nil)
	customer := s.register("buyer@example.com", models.RoleCustomer)
	supplier := s.register("seller@example.com", models.RoleSupplier)
	rfp := s.openRFP(customer)

	// Suppliers browse open RFPs without a token.
	res := s.do(http.MethodGet, "/api/rfps/active", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var active []models.RFP
	testutils.DecodeEnvelope(t, res, &active)
	require.Len(t, active, 1)
	require.Empty(t, active[0].Proposals)

	res = s.do(http.MethodPost, "/api/proposals", supplier, map[string]any{"rfpId": rfp.ID, "items": priced(rfp, 10)})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = s.do(http.MethodPost, "/api/proposals", supplier, map[string]any{"rfpId": rfp.ID, "items": priced(rfp, 10, 3)})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var proposal models.Proposal
	testutils.DecodeEnvelope(t, res, &proposal)
	require.Equal(t, models.ProposalPending, proposal.Status)
	require.Equal(t, "35.00", proposal.TotalAmount.StringFixed(2))

	res = s.do(http.MethodPost, "/api/proposals", supplier, map[string]any{"rfpId": rfp.ID, "items": priced(rfp, 9, 3)})
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/proposals/%d", proposal.ID), supplier, map[string]any{"items": priced(rfp, 12, 3)})
	require.Equal(t, http.StatusOK, res.StatusCode)
	testutils.DecodeEnvelope(t, res, &proposal)
	require.Equal(t, "39.00", proposal.TotalAmount.StringFixed(2))

	res = s.do(http.MethodGet, fmt.Sprintf("/api/proposals/rfp/%d", rfp.ID), customer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list []models.Proposal
	testutils.DecodeEnvelope(t, res, &list)
	require.Len(t, list, 1)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/proposals/%d/status", proposal.ID), customer, map[string]any{"status": "ACCEPTED"})
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/proposals/customer/%d/status", proposal.ID), customer, map[string]any{"status": "ACCEPTED"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	testutils.DecodeEnvelope(t, res, &proposal)
	require.Equal(t, models.ProposalAccepted, proposal.Status)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/proposals/%d/withdraw", proposal.ID), supplier, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.Contains(t, env.Message, "only pending proposals")

	res = s.do(http.MethodGet, fmt.Sprintf("/api/proposals/%d/document", proposal.ID), supplier, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	require.Contains(t, res.Header.Get("Content-Disposition"), fmt.Sprintf("proposal-%d.pdf", proposal.ID))

	res = s.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/rfps/comparison/export", rfp.ProjectID), customer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "application/vnd.openxmlformats"))

	res = s.do(http.MethodGet, "/api/dashboard/supplier", supplier, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var dashboard service.SupplierDashboard
	testutils.DecodeEnvelope(t, res, &dashboard)
	require.Equal(t, 1, dashboard.Stats.AcceptedProposals)
}

func TestAdminStatusOverride(t *testing.T) {
	s := newTestServer(t, nil)
	customer := s.register("buyer@example.com", models.RoleCustomer)
	supplier := s.register("seller@example.com", models.RoleSupplier)
	admin := s.adminToken()
	rfp := s.openRFP(customer)

	res := s.do(http.MethodPost, "/api/proposals", supplier, map[string]any{"rfpId": rfp.ID, "items": priced(rfp, 10, 3)})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var proposal models.Proposal
	testutils.DecodeEnvelope(t, res, &proposal)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/proposals/%d/status", proposal.ID), admin, map[string]any{"status": "REJECTED"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	testutils.DecodeEnvelope(t, res, &proposal)
	require.Equal(t, models.ProposalRejected, proposal.Status)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/proposals/%d/status", proposal.ID), admin, map[string]any{"status": "CLOSED"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestProjectHandlers(t *testing.T) {
	s := newTestServer(t, nil)
	customer := s.register("buyer@example.com", models.RoleCustomer)
	other := s.register("other@example.com", models.RoleCustomer)
	rfp := s.openRFP(customer)

	res := s.do(http.MethodGet, "/api/projects?page=1&limit=5", customer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.NotNil(t, env.Pagination)
	require.Equal(t, 1, env.Pagination.Total)
	require.Equal(t, 5, env.Pagination.Limit)

	res = s.do(http.MethodGet, fmt.Sprintf("/api/projects/%d", rfp.ProjectID), other, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res = s.do(http.MethodGet, fmt.Sprintf("/api/projects/%d/products/category?category=hardware", rfp.ProjectID), customer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var products []models.Product
	testutils.DecodeEnvelope(t, res, &products)
	require.Len(t, products, 2)

	res = s.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d/products/%d", rfp.ProjectID, products[0].ID), customer, nil)
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res = s.do(http.MethodPut, fmt.Sprintf("/api/projects/%d/rfps/%d/toggle", rfp.ProjectID, rfp.ID), customer, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(http.MethodGet, fmt.Sprintf("/api/rfps/%d", rfp.ID), "", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res = s.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", rfp.ProjectID), customer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(http.MethodGet, "/api/projects/dashboard", customer, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var dashboard service.CustomerDashboard
	testutils.DecodeEnvelope(t, res, &dashboard)
	require.Zero(t, dashboard.Stats.TotalProjects)
}

func TestPublicRFPHandler_InvalidID(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rfps/abc", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"rfpId": "abc"})
	w := httptest.NewRecorder()

	s.handler.PublicRFPHandler(w, req)

	res := w.Result()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.Contains(t, env.Message, "invalid rfpId")
}

func TestRequestBodyLimit(t *testing.T) {
	s := newTestServer(t, nil)

	huge := `{"email":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(huge))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	res := w.Result()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	env := testutils.DecodeEnvelope(t, res, nil)
	require.Contains(t, env.Message, "too large")
}
