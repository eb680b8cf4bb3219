package services

import (
	"context"
	"errors"
	"time"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// PackagingService owns packaging materials: purchases, deletion, history.
// Consumption happens on the sale paths (ProductService, GiftSetService).
type PackagingService struct {
	db *gorm.DB
}

func NewPackagingService(db *gorm.DB) *PackagingService {
	return &PackagingService{db: db}
}

// PurchasePackagingRequest books a packaging purchase. MaterialID == 0
// means find-or-create the material by name.
type PurchasePackagingRequest struct {
	MaterialID   uint      `json:"material_id"`
	Name         string    `json:"name"`
	SupplierID   *uint     `json:"supplier_id"`
	Quantity     float64   `json:"quantity"`
	PricePerUnit float64   `json:"purchase_price_per_unit"`
	TotalPrice   float64   `json:"purchase_total_price"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// Purchase increases available/total stock, re-averages the unit cost and
// refreshes the derived cost/status columns.
func (s *PackagingService) Purchase(ctx context.Context, req PurchasePackagingRequest) (*models.PackagingMaterial, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be greater than 0")
	}
	if req.PricePerUnit <= 0 || req.TotalPrice <= 0 {
		return nil, apperr.Validationf("unit price and total price must be greater than 0")
	}
	if req.MaterialID == 0 && req.Name == "" {
		return nil, apperr.Validationf("a material id or a material name is required")
	}

	var material models.PackagingMaterial
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.SupplierID != nil {
			var supplier models.Supplier
			if err := tx.First(&supplier, *req.SupplierID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("supplier %d not found", *req.SupplierID)
				}
				return err
			}
		}

		changeType := models.ChangePurchase
		switch {
		case req.MaterialID != 0:
			if err := forUpdate(tx).First(&material, req.MaterialID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("packaging material %d not found", req.MaterialID)
				}
				return err
			}
		default:
			err := forUpdate(tx).Where("name = ?", req.Name).First(&material).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				material = models.PackagingMaterial{
					Name:        req.Name,
					SupplierID:  req.SupplierID,
					Status:      models.PackagingStatusAvailable,
					CreatedDate: orNow(req.PurchaseDate),
				}
				if err := tx.Create(&material).Error; err != nil {
					return err
				}
				changeType = models.ChangeCreate
			case err != nil:
				return err
			}
		}

		spentSoFar := material.TotalPurchaseCost
		if err := material.Stock().IncreaseAvailable(req.Quantity); err != nil {
			return err
		}
		// Weighted-average unit cost, same policy as products.
		material.PurchasePricePerUnit = (spentSoFar + req.TotalPrice) / material.TotalQuantity
		material.RefreshDerived()
		if req.SupplierID != nil {
			material.SupplierID = req.SupplierID
		}
		if err := tx.Save(&material).Error; err != nil {
			return err
		}

		date := orNow(req.PurchaseDate)
		if err := tx.Create(&models.PackagingPurchaseHistory{
			MaterialID:           material.ID,
			SupplierID:           req.SupplierID,
			QuantityPurchased:    req.Quantity,
			PurchasePricePerUnit: req.PricePerUnit,
			PurchaseTotalPrice:   req.TotalPrice,
			PurchaseDate:         date,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PackagingStockHistory{
			MaterialID:   material.ID,
			ChangeAmount: req.Quantity,
			ChangeType:   changeType,
			Timestamp:    date,
		}).Error
	})
	if err != nil {
		return nil, asBusy(err)
	}
	return &material, nil
}

// Delete removes a material and its history, refused while reserved.
func (s *PackagingService) Delete(ctx context.Context, materialID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var material models.PackagingMaterial
		if err := forUpdate(tx).First(&material, materialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("packaging material %d not found", materialID)
			}
			return err
		}
		if material.ReservedQuantity > 0 {
			return apperr.InvalidStatef("packaging %q is reserved by a gift set, dismantle it first", material.Name)
		}

		// Lines of sold gift sets; the sale snapshot keeps the record.
		if err := tx.Where("packaging_id = ?", material.ID).Delete(&models.GiftSetPackaging{}).Error; err != nil {
			return err
		}

		for _, m := range []interface{}{
			&models.PackagingSaleHistory{},
			&models.PackagingPurchaseHistory{},
			&models.PackagingStockHistory{},
		} {
			if err := tx.Where("material_id = ?", material.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&material).Error
	})
	return asBusy(err)
}

// PackagingHistory is the combined audit trail for one material.
type PackagingHistory struct {
	Stock     []models.PackagingStockHistory    `json:"stock_history"`
	Purchases []models.PackagingPurchaseHistory `json:"purchase_history"`
	Sales     []models.PackagingSaleHistory     `json:"sale_history"`
}

// History returns the material's full audit trail, oldest first.
func (s *PackagingService) History(ctx context.Context, materialID uint) (*PackagingHistory, error) {
	tx := s.db.WithContext(ctx)

	var material models.PackagingMaterial
	if err := tx.First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("packaging material %d not found", materialID)
		}
		return nil, err
	}

	var h PackagingHistory
	if err := tx.Where("material_id = ?", materialID).Order("id").Find(&h.Stock).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("material_id = ?", materialID).Order("id").Find(&h.Purchases).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("material_id = ?", materialID).Order("id").Find(&h.Sales).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// Get loads one material.
func (s *PackagingService) Get(ctx context.Context, materialID uint) (*models.PackagingMaterial, error) {
	var material models.PackagingMaterial
	if err := s.db.WithContext(ctx).Preload("Supplier").First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("packaging material %d not found", materialID)
		}
		return nil, err
	}
	return &material, nil
}

// List loads all packaging materials.
func (s *PackagingService) List(ctx context.Context) ([]models.PackagingMaterial, error) {
	var materials []models.PackagingMaterial
	if err := s.db.WithContext(ctx).Preload("Supplier").Order("id").Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}
