package handlers

import (
	"net/http"

	"procurement/models"
)

// RegisterHandler handles POST /api/auth/register.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondCreated(w, "user registered successfully", res)
}

// LoginHandler handles POST /api/auth/login.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "login successful", res)
}

func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Profile(r.Context(), p)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "profile retrieved successfully", user)
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), p, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "profile updated successfully", user)
}

func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), p, req); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "password changed successfully", nil)
}
