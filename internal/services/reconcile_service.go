package services

import (
	"context"
	"math"

	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// ReconcileService recomputes sold quantities and revenue from the history
// tables and compares them with the live ledger columns. Read-only: a
// mismatch means a past operation drifted and must be surfaced, never
// silently repaired.
type ReconcileService struct {
	db *gorm.DB
}

func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db}
}

// ReconcileRow is the verdict for one entity.
type ReconcileRow struct {
	EntityType      string  `json:"entity_type"` // "product" or "packaging"
	EntityID        uint    `json:"entity_id"`
	Name            string  `json:"name"`
	LedgerSold      float64 `json:"ledger_sold"`
	ExpectedSold    float64 `json:"expected_sold"`
	LedgerRevenue   float64 `json:"ledger_revenue"`
	ExpectedRevenue float64 `json:"expected_revenue"`
	ConservationOK  bool    `json:"conservation_ok"`
	OK              bool    `json:"ok"`
}

const reconcileEpsilon = 1e-6

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < reconcileEpsilon
}

// Run audits every product and packaging material. A product's sold count
// is fed by direct sales and bundle sales and drained by returns, so all
// three histories enter the expected value.
func (s *ReconcileService) Run(ctx context.Context) ([]ReconcileRow, error) {
	tx := s.db.WithContext(ctx)

	var rows []ReconcileRow

	var products []models.Product
	if err := tx.Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		var directQty int64
		if err := tx.Model(&models.SaleHistory{}).Where("product_id = ?", p.ID).
			Select("COALESCE(SUM(quantity_sold), 0)").Scan(&directQty).Error; err != nil {
			return nil, err
		}
		var bundleQty int64
		if err := tx.Model(&models.GiftSetSalesHistoryProduct{}).Where("product_id = ?", p.ID).
			Select("COALESCE(SUM(quantity), 0)").Scan(&bundleQty).Error; err != nil {
			return nil, err
		}
		var returnedQty int64
		if err := tx.Model(&models.ReturnHistory{}).Where("product_id = ?", p.ID).
			Select("COALESCE(SUM(quantity_returned), 0)").Scan(&returnedQty).Error; err != nil {
			return nil, err
		}
		var directRevenue, refunded float64
		if err := tx.Model(&models.SaleHistory{}).Where("product_id = ?", p.ID).
			Select("COALESCE(SUM(selling_total_price), 0)").Scan(&directRevenue).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.ReturnHistory{}).Where("product_id = ?", p.ID).
			Select("COALESCE(SUM(refund_amount), 0)").Scan(&refunded).Error; err != nil {
			return nil, err
		}
		expectedSold := directQty + bundleQty - returnedQty

		row := ReconcileRow{
			EntityType:      "product",
			EntityID:        p.ID,
			Name:            p.Name,
			LedgerSold:      float64(p.SoldQuantity),
			ExpectedSold:    float64(expectedSold),
			LedgerRevenue:   p.SellingTotalPrice,
			ExpectedRevenue: directRevenue - refunded,
			ConservationOK:  p.Stock().Check() == nil,
		}
		row.OK = row.ConservationOK &&
			row.LedgerSold == row.ExpectedSold &&
			closeEnough(row.LedgerRevenue, row.ExpectedRevenue)
		rows = append(rows, row)
	}

	var materials []models.PackagingMaterial
	if err := tx.Order("id").Find(&materials).Error; err != nil {
		return nil, err
	}
	for _, m := range materials {
		var directQty, bundleQty float64
		if err := tx.Model(&models.PackagingSaleHistory{}).Where("material_id = ?", m.ID).
			Select("COALESCE(SUM(packaging_quantity), 0)").Scan(&directQty).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&models.GiftSetSalesHistoryPackaging{}).Where("material_id = ?", m.ID).
			Select("COALESCE(SUM(quantity), 0)").Scan(&bundleQty).Error; err != nil {
			return nil, err
		}

		row := ReconcileRow{
			EntityType:     "packaging",
			EntityID:       m.ID,
			Name:           m.Name,
			LedgerSold:     m.SoldQuantity,
			ExpectedSold:   directQty + bundleQty,
			ConservationOK: m.Stock().Check() == nil,
		}
		// Packaging carries no revenue column of its own; cost recovery
		// is part of the owning sale records.
		row.LedgerRevenue = 0
		row.ExpectedRevenue = 0
		row.OK = row.ConservationOK && closeEnough(row.LedgerSold, row.ExpectedSold)
		rows = append(rows, row)
	}

	return rows, nil
}
