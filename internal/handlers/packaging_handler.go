package handlers

import (
	"net/http"

	"go-giftstock/internal/services"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/packaging ---
func (h *Handler) GetPackagingMaterials(c *gin.Context) {
	materials, err := h.packaging.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

// --- GET: /api/packaging/:id ---
func (h *Handler) GetPackagingMaterial(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	material, err := h.packaging.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

// --- POST: /api/packaging/purchase ---
func (h *Handler) PurchasePackaging(c *gin.Context) {
	var req services.PurchasePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	material, err := h.packaging.Purchase(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, material)
}

// --- DELETE: /api/packaging/:id ---
func (h *Handler) DeletePackaging(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.packaging.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Packaging material deleted successfully"})
}

// --- GET: /api/packaging/:id/history ---
func (h *Handler) GetPackagingHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	history, err := h.packaging.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
