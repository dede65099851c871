package handlers

import (
	"net/http"
	"strings"

	"procurement/models"
)

func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	product, err := h.products.Create(r.Context(), p, projectID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondCreated(w, "product created successfully", product)
}

func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	products, pagination, err := h.products.List(r.Context(), p, projectID, parsePage(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondPage(w, "products retrieved successfully", products, pagination)
}

// ListProductsByCategoryHandler handles GET .../products/category?category=.
func (h *Handler) ListProductsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	category := models.ProductCategory(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("category"))))
	products, err := h.products.ListByCategory(r.Context(), p, projectID, category)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "products retrieved successfully", products)
}

func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	id, err := pathID(r, "productId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	product, err := h.products.Get(r.Context(), p, projectID, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "product retrieved successfully", product)
}

func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	id, err := pathID(r, "productId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req models.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	product, err := h.products.Update(r.Context(), p, projectID, id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "product updated successfully", product)
}

func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "projectId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	id, err := pathID(r, "productId")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), p, projectID, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondOK(w, "product deleted successfully", nil)
}
