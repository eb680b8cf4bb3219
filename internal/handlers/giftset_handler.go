package handlers

import (
	"net/http"

	"go-giftstock/internal/services"

	"github.com/gin-gonic/gin"
)

// --- POST: /api/gift-sets ---
// Reserves every constituent or nothing at all.
func (h *Handler) CreateGiftSet(c *gin.Context) {
	var req services.CreateGiftSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	giftSet, err := h.giftSets.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Gift set created successfully", "gift_set": giftSet})
}

// --- GET: /api/gift-sets ---
func (h *Handler) GetGiftSets(c *gin.Context) {
	var query struct {
		MinPrice float64 `form:"min_price"`
		MaxPrice float64 `form:"max_price"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return
	}
	giftSets, err := h.giftSets.List(c.Request.Context(), query.MinPrice, query.MaxPrice)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, giftSets)
}

// --- GET: /api/gift-sets/:id ---
func (h *Handler) GetGiftSet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	giftSet, err := h.giftSets.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, giftSet)
}

// --- DELETE: /api/gift-sets/:id ---
// Dismantles a non-sold set: constituents go back to available stock.
func (h *Handler) DismantleGiftSet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.giftSets.Dismantle(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gift set dismantled successfully"})
}

// --- POST: /api/gift-sets/:id/sell ---
func (h *Handler) SellGiftSet(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req services.SellGiftSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.GiftSetID = id
	record, err := h.giftSets.Sell(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gift set sold successfully", "sales_record": record})
}

// --- GET: /api/gift-sets/:id/sale ---
func (h *Handler) GetGiftSetSale(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	record, err := h.giftSets.SaleRecord(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
