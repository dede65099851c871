package service

import (
	"context"
	"fmt"
	"time"

	"procurement/internal/auth"
	"procurement/models"
)

// ComparisonExporter renders the RFP comparison of a project as a spreadsheet.
type ComparisonExporter interface {
	Comparison(project *models.Project, rfps []models.RFP) ([]byte, error)
}

type RFPService struct {
	projects ProjectStore
	products ProductStore
	rfps     RFPStore
	exporter ComparisonExporter
	now      func() time.Time
}

func NewRFPService(projects ProjectStore, products ProductStore, rfps RFPStore, exporter ComparisonExporter) *RFPService {
	return &RFPService{
		projects: projects,
		products: products,
		rfps:     rfps,
		exporter: exporter,
		now:      time.Now,
	}
}

// Supplier-facing views embed the project and its customer but never the
// proposals of competitors.
var supplierRFPExpand = models.RFPExpand{Project: true, Customer: true, Items: true}

// Create stores an RFP whose items all reference products of the project.
// New RFPs start ACTIVE and active.
func (s *RFPService) Create(ctx context.Context, p auth.Principal, projectID int64, req models.CreateRFPRequest) (*models.RFP, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}

	ids := req.ProductIDs()
	found, err := s.products.FindProducts(ctx, models.ProductFilter{ProjectID: projectID, IDs: ids})
	if err != nil {
		return nil, err
	}
	known := make(map[int64]struct{}, len(found))
	for _, product := range found {
		known[product.ID] = struct{}{}
	}
	var unmatched []int64
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unmatched = append(unmatched, id)
		}
	}
	if len(unmatched) > 0 {
		return nil, fmt.Errorf("%w: products not found in project: %s", ErrNotFound, joinIDs(unmatched))
	}

	rfp := &models.RFP{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.RFPActive,
		IsActive:    true,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.Time,
		ProjectID:   projectID,
		Items:       make([]models.RFPItem, len(req.Items)),
	}
	for i, item := range req.Items {
		rfp.Items[i] = models.RFPItem{ProductID: item.ProductID, Quantity: item.Quantity, Notes: item.Notes}
	}
	if err := s.rfps.CreateRFP(ctx, rfp); err != nil {
		return nil, storeError(err, "RFP")
	}
	return s.find(ctx, models.RFPFilter{ID: rfp.ID}, models.RFPExpand{Project: true, Items: true})
}

func (s *RFPService) List(ctx context.Context, p auth.Principal, projectID int64, page models.Page) ([]models.RFP, models.Pagination, error) {
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, models.Pagination{}, err
	}
	page = page.Normalize()
	rfps, total, err := s.rfps.ListRFPs(ctx, models.RFPFilter{ProjectID: projectID},
		models.RFPExpand{Items: true, Proposals: true}, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return rfps, models.NewPagination(page, total), nil
}

func (s *RFPService) Get(ctx context.Context, p auth.Principal, projectID, id int64) (*models.RFP, error) {
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}
	return s.find(ctx, models.RFPFilter{ID: id, ProjectID: projectID},
		models.RFPExpand{Project: true, Items: true, ProposalDetail: true})
}

// Update changes scalar fields independently; the item set is never touched.
func (s *RFPService) Update(ctx context.Context, p auth.Principal, projectID, id int64, req models.UpdateRFPRequest) (*models.RFP, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	rfp, err := s.owned(ctx, p, projectID, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		rfp.Title = *req.Title
	}
	if req.Description != nil {
		rfp.Description = req.Description
	}
	if req.Status != nil {
		rfp.Status = *req.Status
	}
	if req.IsActive != nil {
		rfp.IsActive = *req.IsActive
	}
	if req.StartDate != nil {
		rfp.StartDate = req.StartDate.Time
	}
	if req.EndDate != nil {
		rfp.EndDate = req.EndDate.Time
	}
	if rfp.EndDate.Before(rfp.StartDate) {
		return nil, invalid(errEndBeforeStart)
	}
	if err := s.rfps.UpdateRFP(ctx, rfp); err != nil {
		return nil, storeError(err, "RFP")
	}
	return s.find(ctx, models.RFPFilter{ID: id}, models.RFPExpand{Project: true, Items: true})
}

// Delete removes the RFP with its items and proposals.
func (s *RFPService) Delete(ctx context.Context, p auth.Principal, projectID, id int64) error {
	if _, err := s.owned(ctx, p, projectID, id); err != nil {
		return err
	}
	return storeError(s.rfps.DeleteRFP(ctx, id), "RFP")
}

// ToggleActive sets the isActive flag regardless of the RFP status.
func (s *RFPService) ToggleActive(ctx context.Context, p auth.Principal, projectID, id int64, req models.ToggleRFPRequest) (*models.RFP, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := s.owned(ctx, p, projectID, id); err != nil {
		return nil, err
	}
	if err := s.rfps.SetRFPActive(ctx, id, *req.IsActive); err != nil {
		return nil, storeError(err, "RFP")
	}
	return s.find(ctx, models.RFPFilter{ID: id}, models.RFPExpand{Project: true, Items: true})
}

// Active lists the RFPs currently accepting proposals, newest first.
func (s *RFPService) Active(ctx context.Context) ([]models.RFP, error) {
	now := s.now()
	return s.rfps.FindRFPs(ctx, models.RFPFilter{AvailableAt: &now}, supplierRFPExpand)
}

// GetForSupplier returns the RFP only while it accepts proposals. Unavailable
// and missing RFPs are indistinguishable.
func (s *RFPService) GetForSupplier(ctx context.Context, id int64) (*models.RFP, error) {
	now := s.now()
	rfp, err := s.rfps.FindRFP(ctx, models.RFPFilter{ID: id, AvailableAt: &now}, supplierRFPExpand)
	if err != nil {
		return nil, storeError(err, "RFP")
	}
	return rfp, nil
}

// Comparison returns every RFP of the project with items and priced proposals.
func (s *RFPService) Comparison(ctx context.Context, p auth.Principal, projectID int64) ([]models.RFP, error) {
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}
	return s.comparison(ctx, projectID)
}

func (s *RFPService) ExportComparison(ctx context.Context, p auth.Principal, projectID int64) (*File, error) {
	project, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{Customer: true})
	if err != nil {
		return nil, err
	}
	rfps, err := s.comparison(ctx, projectID)
	if err != nil {
		return nil, err
	}
	content, err := s.exporter.Comparison(project, rfps)
	if err != nil {
		return nil, fmt.Errorf("render comparison: %w", err)
	}
	return &File{
		Name:        fmt.Sprintf("project-%d-comparison.xlsx", projectID),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func (s *RFPService) comparison(ctx context.Context, projectID int64) ([]models.RFP, error) {
	return s.rfps.FindRFPs(ctx, models.RFPFilter{ProjectID: projectID},
		models.RFPExpand{Items: true, ProposalDetail: true})
}

// owned loads an RFP of a project the principal may manage.
func (s *RFPService) owned(ctx context.Context, p auth.Principal, projectID, id int64) (*models.RFP, error) {
	if _, err := ownedProject(ctx, s.projects, p, projectID, models.ProjectExpand{}); err != nil {
		return nil, err
	}
	return s.find(ctx, models.RFPFilter{ID: id, ProjectID: projectID}, models.RFPExpand{})
}

func (s *RFPService) find(ctx context.Context, f models.RFPFilter, e models.RFPExpand) (*models.RFP, error) {
	rfp, err := s.rfps.FindRFP(ctx, f, e)
	if err != nil {
		return nil, storeError(err, "RFP")
	}
	return rfp, nil
}
