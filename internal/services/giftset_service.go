package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// GiftSetService assembles, dismantles and sells bundles. A bundle sale
// touches every constituent row plus the bundle itself, so all of it runs
// in one transaction with rows locked in a fixed order.
type GiftSetService struct {
	db *gorm.DB
}

func NewGiftSetService(db *gorm.DB) *GiftSetService {
	return &GiftSetService{db: db}
}

// BundleLine is one request line: a product or a packaging material.
type BundleLine struct {
	ItemID   uint    `json:"item_id"`
	ItemType string  `json:"item_type"` // "product" or "packaging"
	Quantity float64 `json:"quantity"`
}

// CreateGiftSetRequest assembles a new bundle.
type CreateGiftSetRequest struct {
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	GiftSellingPrice float64      `json:"gift_selling_price"`
	Lines            []BundleLine `json:"items"`
}

// splitLines validates line shape and merges duplicate references, so two
// lines naming the same product are checked against stock as one demand.
func splitLines(lines []BundleLine) (map[uint]int, map[uint]float64, error) {
	productQty := make(map[uint]int)
	packagingQty := make(map[uint]float64)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, nil, apperr.Validationf("line quantity must be greater than 0")
		}
		switch line.ItemType {
		case ItemTypeProduct:
			qty := int(line.Quantity)
			if float64(qty) != line.Quantity {
				return nil, nil, apperr.Validationf("product %d: quantity must be a whole number", line.ItemID)
			}
			productQty[line.ItemID] += qty
		case ItemTypePackaging:
			packagingQty[line.ItemID] += line.Quantity
		default:
			return nil, nil, apperr.Validationf("unknown item type %q", line.ItemType)
		}
	}
	if len(productQty) == 0 && len(packagingQty) == 0 {
		return nil, nil, apperr.Validationf("at least one product or packaging line is required")
	}
	return productQty, packagingQty, nil
}

func sortedIDs[V any](m map[uint]V) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Create validates every line before reserving anything, then moves each
// constituent available -> reserved and persists the bundle. The bundle's
// TotalPrice is the constituent purchase cost basis, not selling prices.
func (s *GiftSetService) Create(ctx context.Context, req CreateGiftSetRequest) (*models.GiftSet, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("gift set name is required")
	}
	productQty, packagingQty, err := splitLines(req.Lines)
	if err != nil {
		return nil, err
	}

	var giftSet models.GiftSet
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GiftSet{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.DuplicateNamef("gift set %q already exists", req.Name)
		}

		// Phase 1: lock and validate everything. Fixed lock order
		// (products by id, then packaging by id) keeps concurrent
		// bundle operations deadlock-free.
		products := make(map[uint]*models.Product, len(productQty))
		for _, id := range sortedIDs(productQty) {
			var p models.Product
			if err := forUpdate(tx).First(&p, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("product %d not found", id)
				}
				return err
			}
			if p.AvailableQuantity < productQty[id] {
				return apperr.InsufficientStockf("%q: %d available, %d requested", p.Name, p.AvailableQuantity, productQty[id])
			}
			products[id] = &p
		}
		packagings := make(map[uint]*models.PackagingMaterial, len(packagingQty))
		for _, id := range sortedIDs(packagingQty) {
			var m models.PackagingMaterial
			if err := forUpdate(tx).First(&m, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("packaging material %d not found", id)
				}
				return err
			}
			if m.AvailableQuantity < packagingQty[id] {
				return apperr.InsufficientStockf("%q: %v available, %v requested", m.Name, m.AvailableQuantity, packagingQty[id])
			}
			packagings[id] = &m
		}

		// Phase 2: every line passed, reserve and persist.
		var totalPrice float64
		for _, id := range sortedIDs(productQty) {
			p := products[id]
			if err := p.Stock().Reserve(productQty[id]); err != nil {
				return err
			}
			totalPrice += p.PurchasePricePerItem * float64(productQty[id])
			if err := tx.Save(p).Error; err != nil {
				return err
			}
		}
		for _, id := range sortedIDs(packagingQty) {
			m := packagings[id]
			if err := m.Stock().Reserve(packagingQty[id]); err != nil {
				return err
			}
			totalPrice += m.PurchasePricePerUnit * packagingQty[id]
			m.RefreshDerived()
			if err := tx.Save(m).Error; err != nil {
				return err
			}
		}

		giftSet = models.GiftSet{
			Name:             req.Name,
			Description:      req.Description,
			TotalPrice:       totalPrice,
			GiftSellingPrice: req.GiftSellingPrice,
		}
		for _, line := range req.Lines {
			switch line.ItemType {
			case ItemTypeProduct:
				giftSet.Products = append(giftSet.Products, models.GiftSetProduct{
					ProductID: line.ItemID,
					Quantity:  int(line.Quantity),
				})
			case ItemTypePackaging:
				giftSet.Packagings = append(giftSet.Packagings, models.GiftSetPackaging{
					PackagingID: line.ItemID,
					Quantity:    line.Quantity,
				})
			}
		}
		return tx.Create(&giftSet).Error
	})
	if err != nil {
		return nil, asBusy(err)
	}
	return s.Get(ctx, giftSet.ID)
}

// Dismantle reverses a non-sold bundle: reserved stock goes back to
// available and the bundle with its lines is deleted.
func (s *GiftSetService) Dismantle(ctx context.Context, giftSetID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var giftSet models.GiftSet
		if err := forUpdate(tx).First(&giftSet, giftSetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("gift set %d not found", giftSetID)
			}
			return err
		}
		if giftSet.IsSold {
			return apperr.InvalidStatef("gift set %q is sold and cannot be dismantled", giftSet.Name)
		}

		var productLines []models.GiftSetProduct
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Find(&productLines).Error; err != nil {
			return err
		}
		var packagingLines []models.GiftSetPackaging
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Find(&packagingLines).Error; err != nil {
			return err
		}

		productQty := make(map[uint]int)
		for _, line := range productLines {
			productQty[line.ProductID] += line.Quantity
		}
		packagingQty := make(map[uint]float64)
		for _, line := range packagingLines {
			packagingQty[line.PackagingID] += line.Quantity
		}

		for _, id := range sortedIDs(productQty) {
			var p models.Product
			if err := forUpdate(tx).First(&p, id).Error; err != nil {
				return err
			}
			if err := p.Stock().Release(productQty[id]); err != nil {
				return err
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		}
		for _, id := range sortedIDs(packagingQty) {
			var m models.PackagingMaterial
			if err := forUpdate(tx).First(&m, id).Error; err != nil {
				return err
			}
			if err := m.Stock().Release(packagingQty[id]); err != nil {
				return err
			}
			m.RefreshDerived()
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
		}

		// Defensive cleanup: sale snapshots only exist if is_sold was
		// erroneously false, but a dangling header must not survive
		// the bundle.
		var headers []models.GiftSetSalesHistory
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Find(&headers).Error; err != nil {
			return err
		}
		for _, h := range headers {
			if err := tx.Where("sales_history_id = ?", h.ID).Delete(&models.GiftSetSalesHistoryProduct{}).Error; err != nil {
				return err
			}
			if err := tx.Where("sales_history_id = ?", h.ID).Delete(&models.GiftSetSalesHistoryPackaging{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Delete(&models.GiftSetSalesHistory{}).Error; err != nil {
			return err
		}

		if err := tx.Where("gift_set_id = ?", giftSet.ID).Delete(&models.GiftSetProduct{}).Error; err != nil {
			return err
		}
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Delete(&models.GiftSetPackaging{}).Error; err != nil {
			return err
		}
		return tx.Delete(&giftSet).Error
	})
	return asBusy(err)
}

// SellGiftSetRequest sells a bundle at an agreed price.
type SellGiftSetRequest struct {
	GiftSetID  uint      `json:"gift_set_id"`
	CustomerID *uint     `json:"customer_id"`
	SoldPrice  float64   `json:"sold_price"`
	SoldAt     time.Time `json:"sold_at"`
}

// Sell converts every constituent's reserved stock into sold, writes the
// immutable sale snapshot and marks the bundle terminal.
func (s *GiftSetService) Sell(ctx context.Context, req SellGiftSetRequest) (*models.GiftSetSalesHistory, error) {
	if req.SoldPrice <= 0 {
		return nil, apperr.Validationf("sold price must be greater than 0")
	}

	var record models.GiftSetSalesHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.CustomerID != nil {
			var customer models.Customer
			if err := tx.First(&customer, *req.CustomerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("customer %d not found", *req.CustomerID)
				}
				return err
			}
		}

		var giftSet models.GiftSet
		if err := forUpdate(tx).First(&giftSet, req.GiftSetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("gift set %d not found", req.GiftSetID)
			}
			return err
		}
		if giftSet.IsSold {
			return apperr.InvalidStatef("gift set %q is already sold", giftSet.Name)
		}

		var productLines []models.GiftSetProduct
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Find(&productLines).Error; err != nil {
			return err
		}
		var packagingLines []models.GiftSetPackaging
		if err := tx.Where("gift_set_id = ?", giftSet.ID).Find(&packagingLines).Error; err != nil {
			return err
		}

		productQty := make(map[uint]int)
		for _, line := range productLines {
			productQty[line.ProductID] += line.Quantity
		}
		packagingQty := make(map[uint]float64)
		for _, line := range packagingLines {
			packagingQty[line.PackagingID] += line.Quantity
		}

		// Snapshot rows copy name and cost basis so the sale record
		// stays correct after the bundle or catalog rows change.
		var cost float64
		var productSnaps []models.GiftSetSalesHistoryProduct
		for _, id := range sortedIDs(productQty) {
			var p models.Product
			if err := forUpdate(tx).First(&p, id).Error; err != nil {
				return err
			}
			if err := p.Stock().ConsumeReserved(productQty[id]); err != nil {
				return err
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
			cost += p.PurchasePricePerItem * float64(productQty[id])
			productSnaps = append(productSnaps, models.GiftSetSalesHistoryProduct{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    productQty[id],
				UnitCost:    p.PurchasePricePerItem,
			})
		}
		var packagingSnaps []models.GiftSetSalesHistoryPackaging
		for _, id := range sortedIDs(packagingQty) {
			var m models.PackagingMaterial
			if err := forUpdate(tx).First(&m, id).Error; err != nil {
				return err
			}
			if err := m.Stock().ConsumeReserved(packagingQty[id]); err != nil {
				return err
			}
			m.RefreshDerived()
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
			cost += m.PurchasePricePerUnit * packagingQty[id]
			packagingSnaps = append(packagingSnaps, models.GiftSetSalesHistoryPackaging{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Quantity:     packagingQty[id],
				UnitCost:     m.PurchasePricePerUnit,
			})
		}

		record = models.GiftSetSalesHistory{
			GiftSetID:  giftSet.ID,
			CustomerID: req.CustomerID,
			SoldPrice:  req.SoldPrice,
			Profit:     req.SoldPrice - cost,
			Quantity:   1,
			SoldAt:     orNow(req.SoldAt),
			Products:   productSnaps,
			Packagings: packagingSnaps,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		giftSet.IsSold = true
		giftSet.GiftSellingPrice = req.SoldPrice
		return tx.Save(&giftSet).Error
	})
	if err != nil {
		return nil, asBusy(err)
	}
	return &record, nil
}

// Get loads a bundle with its lines and their catalog entries.
func (s *GiftSetService) Get(ctx context.Context, giftSetID uint) (*models.GiftSet, error) {
	var giftSet models.GiftSet
	err := s.db.WithContext(ctx).
		Preload("Products.Product").
		Preload("Packagings.Packaging").
		First(&giftSet, giftSetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("gift set %d not found", giftSetID)
		}
		return nil, err
	}
	return &giftSet, nil
}

// List loads bundles, optionally filtered by cost price range.
func (s *GiftSetService) List(ctx context.Context, minPrice, maxPrice float64) ([]models.GiftSet, error) {
	if maxPrice <= 0 {
		maxPrice = math.MaxFloat64
	}
	var giftSets []models.GiftSet
	err := s.db.WithContext(ctx).
		Preload("Products.Product").
		Preload("Packagings.Packaging").
		Where("total_price >= ? AND total_price <= ?", minPrice, maxPrice).
		Order("id").
		Find(&giftSets).Error
	if err != nil {
		return nil, err
	}
	return giftSets, nil
}

// SaleRecord loads the immutable sale snapshot for a sold bundle.
func (s *GiftSetService) SaleRecord(ctx context.Context, giftSetID uint) (*models.GiftSetSalesHistory, error) {
	var record models.GiftSetSalesHistory
	err := s.db.WithContext(ctx).
		Preload("Products").
		Preload("Packagings").
		Where("gift_set_id = ?", giftSetID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("no sale recorded for gift set %d", giftSetID)
		}
		return nil, err
	}
	return &record, nil
}
