package services

import (
	"context"
	"errors"
	"time"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// ProductService owns the product side of the ledger: purchases, direct
// sales (optionally consuming packaging), returns, deletion and history.
type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// PurchaseProductRequest books a stock purchase. ProductID == 0 means
// find-or-create the product by name.
type PurchaseProductRequest struct {
	ProductID    uint      `json:"product_id"`
	Name         string    `json:"name"`
	SupplierID   *uint     `json:"supplier_id"`
	Quantity     int       `json:"quantity"`
	PricePerItem float64   `json:"purchase_price_per_item"`
	TotalPrice   float64   `json:"purchase_total_price"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// Purchase increases available/total stock, updates the weighted-average
// cost basis and appends the purchase + stock history pair.
func (s *ProductService) Purchase(ctx context.Context, req PurchaseProductRequest) (*models.Product, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be greater than 0")
	}
	if req.PricePerItem <= 0 || req.TotalPrice <= 0 {
		return nil, apperr.Validationf("purchase price and total price must be greater than 0")
	}
	if req.ProductID == 0 && req.Name == "" {
		return nil, apperr.Validationf("a product id or a product name is required")
	}

	var product models.Product
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
		case req.ProductID != 0:
			if err := forUpdate(tx).First(&product, req.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("product %d not found", req.ProductID)
				}
				return err
			}
		default:
			err := forUpdate(tx).Where("name = ?", req.Name).First(&product).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// First purchase of a new product.
				product = models.Product{
					Name:        req.Name,
					SupplierID:  req.SupplierID,
					CreatedDate: orNow(req.PurchaseDate),
				}
				if err := tx.Create(&product).Error; err != nil {
					return err
				}
				changeType = models.ChangeCreate
			case err != nil:
				return err
			}
		}

		if err := product.Stock().IncreaseAvailable(req.Quantity); err != nil {
			return err
		}

		// Weighted average across all purchases, not last-price-wins:
		// the cost basis of stock on hand must reflect what it cost.
		product.PurchaseTotalPrice += req.TotalPrice
		product.PurchasePricePerItem = product.PurchaseTotalPrice / float64(product.TotalQuantity)
		if req.SupplierID != nil {
			product.SupplierID = req.SupplierID
		}
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		date := orNow(req.PurchaseDate)
		if err := tx.Create(&models.PurchaseHistory{
			ProductID:            product.ID,
			SupplierID:           req.SupplierID,
			QuantityPurchased:    req.Quantity,
			PurchasePricePerItem: req.PricePerItem,
			PurchaseTotalPrice:   req.TotalPrice,
			PurchaseDate:         date,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.StockHistory{
			ProductID:    product.ID,
			ChangeAmount: req.Quantity,
			ChangeType:   changeType,
			Timestamp:    date,
		}).Error
	})
	if err != nil {
		return nil, asBusy(err)
	}
	return &product, nil
}

// SellProductRequest records a direct sale, optionally consuming packaging.
type SellProductRequest struct {
	ProductID         uint      `json:"product_id"`
	Quantity          int       `json:"quantity"`
	PricePerItem      float64   `json:"selling_price_per_item"`
	TotalPrice        float64   `json:"selling_total_price"`
	CustomerID        *uint     `json:"customer_id"`
	PackagingID       *uint     `json:"packaging_material_id"`
	PackagingQuantity float64   `json:"packaging_quantity"`
	SaleDate          time.Time `json:"sale_date"`
}

// Sell moves available stock to sold, computes profit against the
// weighted-average cost basis and appends the sale history (plus the
// packaging sale record when wrapping was consumed).
func (s *ProductService) Sell(ctx context.Context, req SellProductRequest) (*models.SaleHistory, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be greater than 0")
	}
	if req.PricePerItem <= 0 || req.TotalPrice <= 0 {
		return nil, apperr.Validationf("selling price and total price must be greater than 0")
	}
	if req.PackagingID != nil && req.PackagingQuantity <= 0 {
		return nil, apperr.Validationf("packaging quantity must be greater than 0")
	}
	if req.PackagingID == nil && req.PackagingQuantity != 0 {
		return nil, apperr.Validationf("packaging quantity given without a packaging material")
	}

	var sale models.SaleHistory
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

		var product models.Product
		if err := forUpdate(tx).First(&product, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("product %d not found", req.ProductID)
			}
			return err
		}

		var packaging *models.PackagingMaterial
		if req.PackagingID != nil {
			packaging = &models.PackagingMaterial{}
			if err := forUpdate(tx).First(packaging, *req.PackagingID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("packaging material %d not found", *req.PackagingID)
				}
				return err
			}
		}

		if err := product.Stock().SellAvailable(req.Quantity); err != nil {
			return err
		}
		product.SellingTotalPrice += req.TotalPrice
		// Selling price reflects the current market price, so the latest
		// transaction wins (unlike the purchase cost basis).
		product.SellingPricePerItem = req.PricePerItem

		var packagingCost float64
		if packaging != nil {
			if err := packaging.Stock().SellAvailable(req.PackagingQuantity); err != nil {
				return err
			}
			packagingCost = req.PackagingQuantity * packaging.PurchasePricePerUnit
			packaging.RefreshDerived()
		}

		profit := (req.PricePerItem-product.PurchasePricePerItem)*float64(req.Quantity) - packagingCost

		if err := tx.Save(&product).Error; err != nil {
			return err
		}
		if packaging != nil {
			if err := tx.Save(packaging).Error; err != nil {
				return err
			}
		}

		date := orNow(req.SaleDate)
		sale = models.SaleHistory{
			ProductID:           product.ID,
			CustomerID:          req.CustomerID,
			QuantitySold:        req.Quantity,
			SellingPricePerItem: req.PricePerItem,
			SellingTotalPrice:   req.TotalPrice,
			Profit:              profit,
			SaleDate:            date,
			PackagingMaterialID: req.PackagingID,
			PackagingQuantity:   req.PackagingQuantity,
			TotalPackagingCost:  packagingCost,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.StockHistory{
			ProductID:    product.ID,
			ChangeAmount: req.Quantity,
			ChangeType:   models.ChangeSale,
			Timestamp:    date,
		}).Error; err != nil {
			return err
		}

		if packaging != nil {
			if err := tx.Create(&models.PackagingSaleHistory{
				SaleID:             sale.ID,
				MaterialID:         packaging.ID,
				PackagingQuantity:  req.PackagingQuantity,
				TotalPackagingCost: packagingCost,
				SaleDate:           date,
			}).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.PackagingStockHistory{
				MaterialID:   packaging.ID,
				ChangeAmount: req.PackagingQuantity,
				ChangeType:   models.ChangeSale,
				Timestamp:    date,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, asBusy(err)
	}
	return &sale, nil
}

// ReturnProductRequest reverses part of a past sale.
type ReturnProductRequest struct {
	SaleID     uint      `json:"sale_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	ReturnDate time.Time `json:"return_date"`
}

// Return moves sold stock back to available and reverses the revenue at the
// sale's own unit price. Returns against one sale may never exceed what the
// sale actually sold.
func (s *ProductService) Return(ctx context.Context, req ReturnProductRequest) (*models.ReturnHistory, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be greater than 0")
	}

	var ret models.ReturnHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.SaleHistory
		if err := tx.First(&sale, req.SaleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("sale %d not found", req.SaleID)
			}
			return err
		}

		var product models.Product
		if err := forUpdate(tx).First(&product, sale.ProductID).Error; err != nil {
			return err
		}

		var alreadyReturned int64
		if err := tx.Model(&models.ReturnHistory{}).
			Where("sale_id = ?", sale.ID).
			Select("COALESCE(SUM(quantity_returned), 0)").
			Scan(&alreadyReturned).Error; err != nil {
			return err
		}
		if int(alreadyReturned)+req.Quantity > sale.QuantitySold {
			return apperr.Validationf("sale %d sold %d items, %d already returned",
				sale.ID, sale.QuantitySold, alreadyReturned)
		}

		if err := product.Stock().ReturnSold(req.Quantity); err != nil {
			return err
		}
		refund := float64(req.Quantity) * sale.SellingPricePerItem
		product.SellingTotalPrice -= refund
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		date := orNow(req.ReturnDate)
		ret = models.ReturnHistory{
			ProductID:        product.ID,
			SaleID:           sale.ID,
			CustomerID:       sale.CustomerID,
			QuantityReturned: req.Quantity,
			RefundAmount:     refund,
			ReturnReason:     req.Reason,
			ReturnDate:       date,
		}
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}
		return tx.Create(&models.StockHistory{
			ProductID:    product.ID,
			ChangeAmount: req.Quantity,
			ChangeType:   models.ChangeReturn,
			Timestamp:    date,
		}).Error
	})
	if err != nil {
		return nil, asBusy(err)
	}
	return &ret, nil
}

// Delete removes a product and its history. Refused while any quantity is
// reserved inside a gift set: dismantle the set first.
func (s *ProductService) Delete(ctx context.Context, productID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := forUpdate(tx).First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("product %d not found", productID)
			}
			return err
		}
		if product.ReservedQuantity > 0 {
			return apperr.InvalidStatef("product %q is reserved by a gift set, dismantle it first", product.Name)
		}

		// With nothing reserved, any remaining gift set lines belong to
		// sold sets. Prune them: the sale snapshot is the durable record,
		// a line pointing at a deleted product is not.
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.GiftSetProduct{}).Error; err != nil {
			return err
		}

		// Packaging sale rows hang off this product's sales.
		if err := tx.Where("sale_id IN (?)",
			tx.Model(&models.SaleHistory{}).Select("id").Where("product_id = ?", product.ID),
		).Delete(&models.PackagingSaleHistory{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{
			&models.ReturnHistory{}, &models.SaleHistory{},
			&models.PurchaseHistory{}, &models.StockHistory{},
		} {
			if err := tx.Where("product_id = ?", product.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&product).Error
	})
	return asBusy(err)
}

// ProductHistory is the combined audit trail for one product.
type ProductHistory struct {
	Stock     []models.StockHistory    `json:"stock_history"`
	Purchases []models.PurchaseHistory `json:"purchase_history"`
	Sales     []models.SaleHistory     `json:"sale_history"`
	Returns   []models.ReturnHistory   `json:"return_history"`
}

// History returns the product's full audit trail, oldest first.
func (s *ProductService) History(ctx context.Context, productID uint) (*ProductHistory, error) {
	tx := s.db.WithContext(ctx)

	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("product %d not found", productID)
		}
		return nil, err
	}

	var h ProductHistory
	if err := tx.Where("product_id = ?", productID).Order("id").Find(&h.Stock).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id = ?", productID).Order("id").Find(&h.Purchases).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id = ?", productID).Order("id").Find(&h.Sales).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id = ?", productID).Order("id").Find(&h.Returns).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// Get loads one product.
func (s *ProductService) Get(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Supplier").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("product %d not found", productID)
		}
		return nil, err
	}
	return &product, nil
}

// List loads the whole catalog.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Supplier").Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
