package handlers

import (
	"net/http"

	"procurement/models"
)

func (h *Handler) CreateRFPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.CreateRFPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	rfp, err := h.rfps.Create(r.Context(), p, projectID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondCreated(w, "RFP created successfully", rfp)
}

func (h *Handler) ListRFPsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	rfps, pagination, err := h.rfps.List(r.Context(), p, projectID, parsePage(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondPage(w, "RFPs retrieved successfully", rfps, pagination)
}

func (h *Handler) GetRFPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, id, err := rfpPath(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	rfp, err := h.rfps.Get(r.Context(), p, projectID, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "RFP retrieved successfully", rfp)
}

func (h *Handler) UpdateRFPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, id, err := rfpPath(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.UpdateRFPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	rfp, err := h.rfps.Update(r.Context(), p, projectID, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "RFP updated successfully", rfp)
}

func (h *Handler) DeleteRFPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, id, err := rfpPath(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.rfps.Delete(r.Context(), p, projectID, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "RFP deleted successfully", nil)
}

// ToggleRFPHandler handles PUT .../rfps/{rfpId}/toggle.
func (h *Handler) ToggleRFPHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, id, err := rfpPath(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.ToggleRFPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	rfp, err := h.rfps.ToggleActive(r.Context(), p, projectID, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	message := "RFP deactivated successfully"
	if rfp.IsActive {
		message = "RFP activated successfully"
	}
	respondOK(w, message, rfp)
}

func (h *Handler) ComparisonHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	rfps, err := h.rfps.Comparison(r.Context(), p, projectID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "comparison data retrieved successfully", rfps)
}

// ExportComparisonHandler streams the comparison workbook.
func (h *Handler) ExportComparisonHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	file, err := h.rfps.ExportComparison(r.Context(), p, projectID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondFile(w, file)
}

// ActiveRFPsHandler lists RFPs open for proposals. No authentication.
func (h *Handler) ActiveRFPsHandler(w http.ResponseWriter, r *http.Request) {
	rfps, err := h.rfps.Active(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "active RFPs retrieved successfully", rfps)
}

// PublicRFPHandler returns one open RFP. No authentication.
func (h *Handler) PublicRFPHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "rfpId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	rfp, err := h.rfps.GetForSupplier(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "RFP retrieved successfully", rfp)
}

func rfpPath(r *http.Request) (projectID, id int64, err error) {
	if projectID, err = pathID(r, "projectId"); err != nil {
		return 0, 0, err
	}
	if id, err = pathID(r, "rfpId"); err != nil {
		return 0, 0, err
	}
	return projectID, id, nil
}
