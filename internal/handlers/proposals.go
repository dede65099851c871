package handlers

import (
	"net/http"

	"procurement/models"
)

// CreateProposalHandler handles POST /api/proposals.
func (h *Handler) CreateProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.CreateProposalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.Create(r.Context(), p, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondCreated(w, "proposal submitted successfully", proposal)
}

func (h *Handler) ListProposalsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	proposals, pagination, err := h.proposals.List(r.Context(), p, parsePage(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondPage(w, "proposals retrieved successfully", proposals, pagination)
}

func (h *Handler) GetProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.Get(r.Context(), p, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposal retrieved successfully", proposal)
}

func (h *Handler) UpdateProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.UpdateProposalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.Update(r.Context(), p, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposal updated successfully", proposal)
}

func (h *Handler) WithdrawProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.Withdraw(r.Context(), p, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposal withdrawn successfully", proposal)
}

// ProposalDocumentHandler streams the proposal PDF to its supplier, the RFP
// owner or an administrator.
func (h *Handler) ProposalDocumentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	file, err := h.proposals.Document(r.Context(), p, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondFile(w, file)
}

func (h *Handler) GetCustomerProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.GetForCustomer(r.Context(), p, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposal retrieved successfully", proposal)
}

// DecideProposalHandler lets the RFP owner accept or reject a pending proposal.
func (h *Handler) DecideProposalHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.ProposalDecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.UpdateStatusByCustomer(r.Context(), p, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposal status updated successfully", proposal)
}

func (h *Handler) ListRFPProposalsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	rfpID, err := pathID(r, "rfpId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	proposals, err := h.proposals.ListByRFP(r.Context(), p, rfpID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposals retrieved successfully", proposals)
}

// UpdateProposalStatusHandler is the administrative status override.
func (h *Handler) UpdateProposalStatusHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "proposalId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.ProposalStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	proposal, err := h.proposals.UpdateStatus(r.Context(), p, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "proposal status updated successfully", proposal)
}
