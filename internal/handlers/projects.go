package handlers

import (
	"net/http"

	"procurement/models"
)

func (h *Handler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	project, err := h.projects.Create(r.Context(), p, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondCreated(w, "project created successfully", project)
}

// ListProjectsHandler returns the caller's projects, newest first by default.
func (h *Handler) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projects, pagination, err := h.projects.List(r.Context(), p, parsePage(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondPage(w, "projects retrieved successfully", projects, pagination)
}

func (h *Handler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	project, err := h.projects.Get(r.Context(), p, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "project retrieved successfully", project)
}

func (h *Handler) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.UpdateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	project, err := h.projects.Update(r.Context(), p, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "project updated successfully", project)
}

func (h *Handler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.projects.Delete(r.Context(), p, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "project deleted successfully", nil)
}

// CustomerDashboardHandler handles GET /api/projects/dashboard.
func (h *Handler) CustomerDashboardHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	dashboard, err := h.dashboard.Customer(r.Context(), p)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "dashboard data retrieved successfully", dashboard)
}

// SupplierDashboardHandler handles GET /api/dashboard/supplier.
func (h *Handler) SupplierDashboardHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	dashboard, err := h.dashboard.Supplier(r.Context(), p)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "dashboard data retrieved successfully", dashboard)
}
