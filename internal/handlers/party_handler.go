package handlers

import (
	"net/http"

	"go-giftstock/internal/models"

	"github.com/gin-gonic/gin"
)

// Suppliers and customers only exist here as foreign-key targets for the
// purchase/sale flows; this is deliberately minimal CRUD.

func (h *Handler) GetSuppliers(c *gin.Context) {
	suppliers, err := h.parties.ListSuppliers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) AddSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	created, err := h.parties.CreateSupplier(c.Request.Context(), supplier)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetCustomers(c *gin.Context) {
	customers, err := h.parties.ListCustomers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) AddCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	created, err := h.parties.CreateCustomer(c.Request.Context(), customer)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
