package service

import (
	"context"

	"procurement/internal/auth"
	"procurement/models"
)

type ProjectService struct {
	projects ProjectStore
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) Create(ctx context.Context, p auth.Principal, req models.CreateProjectRequest) (*models.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.ProjectActive,
		Budget:      roundBudget(req.Budget),
		StartDate:   req.StartDate.Ptr(),
		EndDate:     req.EndDate.Ptr(),
		CustomerID:  p.UserID,
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, storeError(err, "project")
	}
	return s.owned(ctx, p, project.ID, models.ProjectExpand{Customer: true})
}

func (s *ProjectService) List(ctx context.Context, p auth.Principal, page models.Page) ([]models.Project, models.Pagination, error) {
	page = page.Normalize()
	projects, total, err := s.projects.ListProjects(ctx, models.ProjectFilter{CustomerID: ownerScope(p)}, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return projects, models.NewPagination(page, total), nil
}

// Get returns the project with its customer, products and RFPs including
// items and proposals.
func (s *ProjectService) Get(ctx context.Context, p auth.Principal, id int64) (*models.Project, error) {
	return s.owned(ctx, p, id, models.ProjectExpand{Customer: true, Products: true, RFPDetail: true})
}

func (s *ProjectService) Update(ctx context.Context, p auth.Principal, id int64, req models.UpdateProjectRequest) (*models.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	project, err := s.owned(ctx, p, id, models.ProjectExpand{})
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Budget.Valid {
		project.Budget = roundBudget(req.Budget)
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate.Ptr()
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate.Ptr()
	}
	if project.StartDate != nil && project.EndDate != nil && project.EndDate.Before(*project.StartDate) {
		return nil, invalid(errEndBeforeStart)
	}

	if err := s.projects.UpdateProject(ctx, project); err != nil {
		return nil, storeError(err, "project")
	}
	return s.owned(ctx, p, id, models.ProjectExpand{Customer: true})
}

func (s *ProjectService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if _, err := s.owned(ctx, p, id, models.ProjectExpand{}); err != nil {
		return err
	}
	return storeError(s.projects.DeleteProject(ctx, id), "project")
}

func (s *ProjectService) owned(ctx context.Context, p auth.Principal, id int64, e models.ProjectExpand) (*models.Project, error) {
	return ownedProject(ctx, s.projects, p, id, e)
}

// ownedProject loads a project visible to the principal. Projects of other
// customers are reported as missing.
func ownedProject(ctx context.Context, projects ProjectStore, p auth.Principal, id int64, e models.ProjectExpand) (*models.Project, error) {
	project, err := projects.FindProject(ctx, models.ProjectFilter{ID: id, CustomerID: ownerScope(p)}, e)
	if err != nil {
		return nil, storeError(err, "project")
	}
	return project, nil
}
