package handlers

import (
	"net/http"

	"go-giftstock/internal/services"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/:id ---
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: /api/products/purchase ---
// Creates the product on its first purchase, replenishes it afterwards.
func (h *Handler) PurchaseProduct(c *gin.Context) {
	var req services.PurchaseProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	product, err := h.products.Purchase(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- POST: /api/products/:id/sale ---
func (h *Handler) SellProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req services.SellProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.ProductID = id
	sale, err := h.products.Sell(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Sale recorded successfully", "sale": sale})
}

// --- POST: /api/sales/:id/return ---
func (h *Handler) ReturnProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req services.ReturnProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.SaleID = id
	ret, err := h.products.Return(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Return recorded successfully", "return": ret})
}

// --- DELETE: /api/products/:id ---
// Refused while the product is reserved inside a gift set.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product and related records deleted successfully"})
}

// --- GET: /api/products/:id/history ---
func (h *Handler) GetProductHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	history, err := h.products.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
