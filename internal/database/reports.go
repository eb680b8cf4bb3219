package database

import (
	"fmt"
	"time"

	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// SalesReportResult aggregates revenue across direct sales and gift sets.
type SalesReportResult struct {
	DirectRevenue  float64 `json:"direct_revenue"`
	GiftSetRevenue float64 `json:"gift_set_revenue"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalProfit    float64 `json:"total_profit"`
	SaleCount      int64   `json:"sale_count"`
	GiftSetCount   int64   `json:"gift_set_count"`
}

// GetSalesReport calculates sales within a specific date range.
func GetSalesReport(db *gorm.DB, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := db.Model(&models.SaleHistory{}).
		Where("sale_date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(selling_total_price), 0)").
		Scan(&result.DirectRevenue).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.SaleHistory{}).
		Where("sale_date BETWEEN ? AND ?", start, end).
		Count(&result.SaleCount).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.GiftSetSalesHistory{}).
		Where("sold_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(sold_price), 0)").
		Scan(&result.GiftSetRevenue).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.GiftSetSalesHistory{}).
		Where("sold_at BETWEEN ? AND ?", start, end).
		Count(&result.GiftSetCount).Error
	if err != nil {
		return nil, err
	}

	var directProfit, giftProfit float64
	err = db.Model(&models.SaleHistory{}).
		Where("sale_date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(profit), 0)").
		Scan(&directProfit).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.GiftSetSalesHistory{}).
		Where("sold_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(profit), 0)").
		Scan(&giftProfit).Error
	if err != nil {
		return nil, err
	}

	result.TotalRevenue = result.DirectRevenue + result.GiftSetRevenue
	result.TotalProfit = directProfit + giftProfit
	return &result, nil
}

// monthExpr yields a YYYY-MM grouping key for the dialect in use. SQLite is
// the test backend and has no DATE_FORMAT.
func monthExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	}
	return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", column)
}

// MonthlySales is one month of direct sales activity.
type MonthlySales struct {
	Month    string  `json:"month"` // YYYY-MM
	Revenue  float64 `json:"revenue"`
	Quantity int     `json:"quantity"`
	Profit   float64 `json:"profit"`
}

// GetMonthlySales groups direct sales by calendar month, oldest first.
func GetMonthlySales(db *gorm.DB) ([]MonthlySales, error) {
	month := monthExpr(db, "sale_date")
	var rows []MonthlySales
	err := db.Model(&models.SaleHistory{}).
		Select(month + " as month, SUM(selling_total_price) as revenue, SUM(quantity_sold) as quantity, SUM(profit) as profit").
		Group(month).
		Order("month").
		Scan(&rows).Error
	return rows, err
}

// MonthlyPurchases is one month of stock purchase spending.
type MonthlyPurchases struct {
	Month    string  `json:"month"` // YYYY-MM
	Spent    float64 `json:"spent"`
	Quantity int     `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// GetMonthlyPurchases groups product purchases by calendar month.
func GetMonthlyPurchases(db *gorm.DB) ([]MonthlyPurchases, error) {
	month := monthExpr(db, "purchase_date")
	var rows []MonthlyPurchases
	err := db.Model(&models.PurchaseHistory{}).
		Select(month + " as month, SUM(purchase_total_price) as spent, SUM(quantity_purchased) as quantity, AVG(purchase_price_per_item) as avg_price").
		Group(month).
		Order("month").
		Scan(&rows).Error
	return rows, err
}

// MonthlyInvestments is one month of non-stock spending.
type MonthlyInvestments struct {
	Month string  `json:"month"` // YYYY-MM
	Spent float64 `json:"spent"`
}

// GetMonthlyInvestments groups other investments by calendar month.
func GetMonthlyInvestments(db *gorm.DB) ([]MonthlyInvestments, error) {
	month := monthExpr(db, "date")
	var rows []MonthlyInvestments
	err := db.Model(&models.OtherInvestment{}).
		Select(month + " as month, SUM(cost) as spent").
		Group(month).
		Order("month").
		Scan(&rows).Error
	return rows, err
}

// TopSeller is one row of the best-seller ranking.
type TopSeller struct {
	ProductName string  `json:"product_name"`
	Sold        int     `json:"sold"`
	Revenue     float64 `json:"revenue"`
}

// GetTopSellers ranks products by directly sold quantity.
func GetTopSellers(db *gorm.DB, limit int) ([]TopSeller, error) {
	var top []TopSeller
	err := db.Table("sale_histories").
		Select("products.name as product_name, SUM(sale_histories.quantity_sold) as sold, SUM(sale_histories.selling_total_price) as revenue").
		Joins("JOIN products ON sale_histories.product_id = products.id").
		Group("products.name").
		Order("sold desc").
		Limit(limit).
		Scan(&top).Error
	return top, err
}
