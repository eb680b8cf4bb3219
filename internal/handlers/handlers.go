// Package handlers contains the gin layer: bind the request, call the
// service, translate the error kind into an HTTP status.
package handlers

import (
	"net/http"
	"strconv"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler bundles the services behind the HTTP routes.
type Handler struct {
	db        *gorm.DB
	products  *services.ProductService
	packaging *services.PackagingService
	giftSets  *services.GiftSetService
	reconcile *services.ReconcileService
	parties   *services.PartyService
	invest    *services.InvestmentService
}

func New(db *gorm.DB) *Handler {
	return &Handler{
		db:        db,
		products:  services.NewProductService(db),
		packaging: services.NewPackagingService(db),
		giftSets:  services.NewGiftSetService(db),
		reconcile: services.NewReconcileService(db),
		parties:   services.NewPartyService(db),
		invest:    services.NewInvestmentService(db),
	}
}

// fail maps service error kinds to HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInsufficientStock, apperr.KindDuplicateName, apperr.KindInvalidState:
		status = http.StatusConflict
	case apperr.KindBusy:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": apperr.KindOf(err).String()})
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
