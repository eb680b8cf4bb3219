package handlers

import (
	"net/http"

	"go-giftstock/internal/services"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/investments ---
func (h *Handler) GetInvestments(c *gin.Context) {
	investments, err := h.invest.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, investments)
}

// --- POST: /api/investments ---
func (h *Handler) AddInvestment(c *gin.Context) {
	var req services.RecordInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	investment, err := h.invest.Record(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, investment)
}

// --- DELETE: /api/investments/:id ---
func (h *Handler) DeleteInvestment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.invest.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Investment deleted successfully"})
}
