package handlers

import (
	"net/http"
	"time"

	"go-giftstock/internal/database"
	"go-giftstock/internal/models"

	"github.com/gin-gonic/gin"
)

// ReportData is the analytics payload for the dashboard.
type ReportData struct {
	database.SalesReportResult
	TopSelling  []database.TopSeller `json:"top_selling"`
	RecentSales []models.SaleHistory `json:"recent_sales"`
}

// --- GET: /api/reports ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	// All time unless the query narrows it down.
	start := time.Unix(0, 0)
	end := time.Now().Add(24 * time.Hour)
	if s := c.Query("start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			start = t
		}
	}
	if e := c.Query("end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			end = t.Add(24 * time.Hour)
		}
	}

	report, err := database.GetSalesReport(h.db, start, end)
	if err != nil {
		fail(c, err)
		return
	}
	data := ReportData{SalesReportResult: *report}

	if data.TopSelling, err = database.GetTopSellers(h.db, 5); err != nil {
		fail(c, err)
		return
	}
	if err := h.db.Order("sale_date desc").Limit(10).Find(&data.RecentSales).Error; err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// ValuationItem is a single row in the stock valuation report.
type ValuationItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
	TotalCost float64 `json:"total_cost"`
}

// ValuationGroup is one section of the report (products or packaging).
type ValuationGroup struct {
	GroupName string          `json:"group_name"`
	Items     []ValuationItem `json:"items"`
	Subtotal  float64         `json:"subtotal"`
}

// ValuationResponse is the final valuation payload.
type ValuationResponse struct {
	Groups     []ValuationGroup `json:"groups"`
	GrandTotal float64          `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the monetary value of everything still on
// the shelf (available stock at purchase cost basis).
func (h *Handler) GetStockValuation(c *gin.Context) {
	var products []models.Product
	if err := h.db.Find(&products).Error; err != nil {
		fail(c, err)
		return
	}
	var materials []models.PackagingMaterial
	if err := h.db.Find(&materials).Error; err != nil {
		fail(c, err)
		return
	}

	productGroup := ValuationGroup{GroupName: "Products"}
	for _, p := range products {
		itemTotal := float64(p.AvailableQuantity) * p.PurchasePricePerItem
		productGroup.Items = append(productGroup.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  float64(p.AvailableQuantity),
			CostPrice: p.PurchasePricePerItem,
			TotalCost: itemTotal,
		})
		productGroup.Subtotal += itemTotal
	}

	packagingGroup := ValuationGroup{GroupName: "Packaging"}
	for _, m := range materials {
		packagingGroup.Items = append(packagingGroup.Items, ValuationItem{
			Name:      m.Name,
			Quantity:  m.AvailableQuantity,
			CostPrice: m.PurchasePricePerUnit,
			TotalCost: m.AvailableStockCost,
		})
		packagingGroup.Subtotal += m.AvailableStockCost
	}

	c.JSON(http.StatusOK, ValuationResponse{
		Groups:     []ValuationGroup{productGroup, packagingGroup},
		GrandTotal: productGroup.Subtotal + packagingGroup.Subtotal,
	})
}

// --- GET: /api/reports/monthly ---
// Month-by-month view: sales on one side, stock purchases and other
// investments on the expense side.
func (h *Handler) GetMonthlyReport(c *gin.Context) {
	sales, err := database.GetMonthlySales(h.db)
	if err != nil {
		fail(c, err)
		return
	}
	purchases, err := database.GetMonthlyPurchases(h.db)
	if err != nil {
		fail(c, err)
		return
	}
	investments, err := database.GetMonthlyInvestments(h.db)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sales":       sales,
		"purchases":   purchases,
		"investments": investments,
	})
}

// --- GET: /api/reports/reconciliation ---
// Read-only audit: recomputes sold counts and revenue from history and
// compares with the live ledger. Mismatches are reported, never repaired.
func (h *Handler) GetReconciliation(c *gin.Context) {
	rows, err := h.reconcile.Run(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	failures := 0
	for _, row := range rows {
		if !row.OK {
			failures++
		}
	}
	c.JSON(http.StatusOK, gin.H{"entities": rows, "failures": failures})
}
