package services

import (
	"context"
	"testing"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPurchaseCreatesProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	product, err := svc.Purchase(context.Background(), PurchaseProductRequest{
		Name:         "Scented Candle",
		Quantity:     10,
		PricePerItem: 12.5,
		TotalPrice:   125,
	})
	require.NoError(t, err)
	require.Equal(t, 10, product.TotalQuantity)
	require.Equal(t, 10, product.AvailableQuantity)
	require.Equal(t, 0, product.ReservedQuantity)
	require.Equal(t, 0, product.SoldQuantity)
	require.InDelta(t, 12.5, product.PurchasePricePerItem, 1e-9)

	history, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, history.Stock, 1)
	require.Equal(t, models.ChangeCreate, history.Stock[0].ChangeType)
	require.Len(t, history.Purchases, 1)
	require.Equal(t, 10, history.Purchases[0].QuantityPurchased)
}

func TestPurchaseWeightedAverageCost(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	product := seedProduct(t, db, "Mug", 10, 10)
	_, err := svc.Purchase(context.Background(), PurchaseProductRequest{
		ProductID:    product.ID,
		Quantity:     10,
		PricePerItem: 20,
		TotalPrice:   200,
	})
	require.NoError(t, err)

	product = reloadProduct(t, db, product.ID)
	require.Equal(t, 20, product.TotalQuantity)
	require.Equal(t, 20, product.AvailableQuantity)
	// (10*10 + 10*20) / 20
	require.InDelta(t, 15, product.PurchasePricePerItem, 1e-9)
	require.InDelta(t, 300, product.PurchaseTotalPrice, 1e-9)

	history, err := svc.History(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, history.Stock, 2)
	require.Equal(t, models.ChangePurchase, history.Stock[1].ChangeType)
}

func TestPurchaseValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, PurchaseProductRequest{Name: "X", Quantity: 0, PricePerItem: 1, TotalPrice: 1})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Purchase(ctx, PurchaseProductRequest{Name: "X", Quantity: 1, PricePerItem: 0, TotalPrice: 1})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Purchase(ctx, PurchaseProductRequest{Quantity: 1, PricePerItem: 1, TotalPrice: 1})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Purchase(ctx, PurchaseProductRequest{ProductID: 999, Quantity: 1, PricePerItem: 1, TotalPrice: 1})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	missing := uint(42)
	_, err = svc.Purchase(ctx, PurchaseProductRequest{Name: "X", SupplierID: &missing, Quantity: 1, PricePerItem: 1, TotalPrice: 1})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSellProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	product := seedProduct(t, db, "Teapot", 10, 10)
	customer := seedCustomer(t, db, "Olena")

	sale, err := svc.Sell(context.Background(), SellProductRequest{
		ProductID:    product.ID,
		Quantity:     4,
		PricePerItem: 25,
		TotalPrice:   100,
		CustomerID:   &customer.ID,
	})
	require.NoError(t, err)
	// (25 - 10) * 4
	require.InDelta(t, 60, sale.Profit, 1e-9)

	product = reloadProduct(t, db, product.ID)
	require.Equal(t, 6, product.AvailableQuantity)
	require.Equal(t, 4, product.SoldQuantity)
	require.Equal(t, 10, product.TotalQuantity)
	require.InDelta(t, 100, product.SellingTotalPrice, 1e-9)
	require.InDelta(t, 25, product.SellingPricePerItem, 1e-9)
	require.NoError(t, product.Stock().Check())
}

func TestSellProductWithPackaging(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	product := seedProduct(t, db, "Teapot", 5, 10)
	material := seedPackaging(t, db, "Ribbon", 2, 3)

	sale, err := svc.Sell(context.Background(), SellProductRequest{
		ProductID:         product.ID,
		Quantity:          1,
		PricePerItem:      30,
		TotalPrice:        30,
		PackagingID:       &material.ID,
		PackagingQuantity: 2,
	})
	require.NoError(t, err)
	// (30 - 10) * 1 - 2 * 3
	require.InDelta(t, 14, sale.Profit, 1e-9)
	require.InDelta(t, 6, sale.TotalPackagingCost, 1e-9)

	material = reloadPackaging(t, db, material.ID)
	require.InDelta(t, 0, material.AvailableQuantity, 1e-9)
	require.InDelta(t, 2, material.SoldQuantity, 1e-9)
	require.InDelta(t, 2, material.TotalQuantity, 1e-9)
	require.InDelta(t, 0, material.AvailableStockCost, 1e-9)
	require.Equal(t, models.PackagingStatusUsed, material.Status)
	require.NoError(t, material.Stock().Check())

	var pkgSales []models.PackagingSaleHistory
	require.NoError(t, db.Where("sale_id = ?", sale.ID).Find(&pkgSales).Error)
	require.Len(t, pkgSales, 1)
	require.InDelta(t, 2, pkgSales[0].PackagingQuantity, 1e-9)
}

func TestSellRejectsPackagingQuantityWithoutMaterial(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	product := seedProduct(t, db, "Teapot", 5, 10)

	_, err := svc.Sell(context.Background(), SellProductRequest{
		ProductID:         product.ID,
		Quantity:          1,
		PricePerItem:      30,
		TotalPrice:        30,
		PackagingQuantity: 7,
	})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var saleCount int64
	require.NoError(t, db.Model(&models.SaleHistory{}).Count(&saleCount).Error)
	require.Zero(t, saleCount)

	// An unwrapped sale keeps all packaging fields at their zero values.
	sale, err := svc.Sell(context.Background(), SellProductRequest{
		ProductID:    product.ID,
		Quantity:     1,
		PricePerItem: 30,
		TotalPrice:   30,
	})
	require.NoError(t, err)
	require.Nil(t, sale.PackagingMaterialID)
	require.Zero(t, sale.PackagingQuantity)
	require.Zero(t, sale.TotalPackagingCost)
}

func TestSellInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	product := seedProduct(t, db, "Teapot", 3, 10)
	material := seedPackaging(t, db, "Ribbon", 1, 3)

	// Product side fails: nothing persisted.
	_, err := svc.Sell(context.Background(), SellProductRequest{
		ProductID:    product.ID,
		Quantity:     4,
		PricePerItem: 30,
		TotalPrice:   120,
	})
	require.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	// Packaging side fails after the product moved in memory: the
	// transaction rollback must leave both rows untouched.
	_, err = svc.Sell(context.Background(), SellProductRequest{
		ProductID:         product.ID,
		Quantity:          1,
		PricePerItem:      30,
		TotalPrice:        30,
		PackagingID:       &material.ID,
		PackagingQuantity: 5,
	})
	require.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	product = reloadProduct(t, db, product.ID)
	require.Equal(t, 3, product.AvailableQuantity)
	require.Equal(t, 0, product.SoldQuantity)
	material = reloadPackaging(t, db, material.ID)
	require.InDelta(t, 1, material.AvailableQuantity, 1e-9)

	var saleCount int64
	require.NoError(t, db.Model(&models.SaleHistory{}).Count(&saleCount).Error)
	require.Zero(t, saleCount)
}

func TestReturnProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	product := seedProduct(t, db, "Vase", 10, 10)

	sale, err := svc.Sell(context.Background(), SellProductRequest{
		ProductID:    product.ID,
		Quantity:     5,
		PricePerItem: 20,
		TotalPrice:   100,
	})
	require.NoError(t, err)

	ret, err := svc.Return(context.Background(), ReturnProductRequest{
		SaleID:   sale.ID,
		Quantity: 2,
		Reason:   "chipped glaze",
	})
	require.NoError(t, err)
	require.InDelta(t, 40, ret.RefundAmount, 1e-9)

	product = reloadProduct(t, db, product.ID)
	require.Equal(t, 7, product.AvailableQuantity)
	require.Equal(t, 3, product.SoldQuantity)
	require.InDelta(t, 60, product.SellingTotalPrice, 1e-9)
	require.NoError(t, product.Stock().Check())

	// Cumulative returns are capped at what the sale sold.
	_, err = svc.Return(context.Background(), ReturnProductRequest{SaleID: sale.ID, Quantity: 4})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Return(context.Background(), ReturnProductRequest{SaleID: 999, Quantity: 1})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteProductRefusedWhileReserved(t *testing.T) {
	db := newTestDB(t)
	products := NewProductService(db)
	giftSets := NewGiftSetService(db)
	product := seedProduct(t, db, "Candle", 5, 8)

	giftSet, err := giftSets.Create(context.Background(), CreateGiftSetRequest{
		Name:  "Cozy Evening",
		Lines: []BundleLine{{ItemID: product.ID, ItemType: ItemTypeProduct, Quantity: 2}},
	})
	require.NoError(t, err)

	err = products.Delete(context.Background(), product.ID)
	require.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	require.NoError(t, giftSets.Dismantle(context.Background(), giftSet.ID))
	require.NoError(t, products.Delete(context.Background(), product.ID))

	_, err = products.Get(context.Background(), product.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	var stockRows int64
	require.NoError(t, db.Model(&models.StockHistory{}).Where("product_id = ?", product.ID).Count(&stockRows).Error)
	require.Zero(t, stockRows)
}

func TestDeleteProductPrunesSoldGiftSetLines(t *testing.T) {
	db := newTestDB(t)
	products := NewProductService(db)
	packaging := NewPackagingService(db)
	giftSets := NewGiftSetService(db)
	product := seedProduct(t, db, "Candle", 5, 8)
	material := seedPackaging(t, db, "Ribbon", 5, 2)

	giftSet, err := giftSets.Create(context.Background(), CreateGiftSetRequest{
		Name: "Sold Out",
		Lines: []BundleLine{
			{ItemID: product.ID, ItemType: ItemTypeProduct, Quantity: 2},
			{ItemID: material.ID, ItemType: ItemTypePackaging, Quantity: 1},
		},
	})
	require.NoError(t, err)
	_, err = giftSets.Sell(context.Background(), SellGiftSetRequest{GiftSetID: giftSet.ID, SoldPrice: 30})
	require.NoError(t, err)

	// Nothing reserved anymore, so deletion goes through and must not
	// leave line rows pointing at vanished catalog entries.
	require.NoError(t, products.Delete(context.Background(), product.ID))
	require.NoError(t, packaging.Delete(context.Background(), material.ID))

	var productLines, packagingLines int64
	require.NoError(t, db.Model(&models.GiftSetProduct{}).Where("product_id = ?", product.ID).Count(&productLines).Error)
	require.NoError(t, db.Model(&models.GiftSetPackaging{}).Where("packaging_id = ?", material.ID).Count(&packagingLines).Error)
	require.Zero(t, productLines)
	require.Zero(t, packagingLines)

	// The sale snapshot is the durable record and survives untouched.
	record, err := giftSets.SaleRecord(context.Background(), giftSet.ID)
	require.NoError(t, err)
	require.Len(t, record.Products, 1)
	require.Equal(t, "Candle", record.Products[0].ProductName)
	require.InDelta(t, 8, record.Products[0].UnitCost, 1e-9)
	require.Len(t, record.Packagings, 1)
	require.Equal(t, "Ribbon", record.Packagings[0].MaterialName)
}

func TestPackagingPurchaseWeightedAverage(t *testing.T) {
	db := newTestDB(t)
	svc := NewPackagingService(db)

	material := seedPackaging(t, db, "Wrapping Paper", 10, 2)
	_, err := svc.Purchase(context.Background(), PurchasePackagingRequest{
		MaterialID:   material.ID,
		Quantity:     10,
		PricePerUnit: 4,
		TotalPrice:   40,
	})
	require.NoError(t, err)

	material = reloadPackaging(t, db, material.ID)
	require.InDelta(t, 20, material.TotalQuantity, 1e-9)
	// (10*2 + 10*4) / 20
	require.InDelta(t, 3, material.PurchasePricePerUnit, 1e-9)
	require.InDelta(t, 60, material.TotalPurchaseCost, 1e-9)
	require.InDelta(t, 60, material.AvailableStockCost, 1e-9)
	require.Equal(t, models.PackagingStatusAvailable, material.Status)
}

func TestPackagingHistoryAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewPackagingService(db)
	giftSets := NewGiftSetService(db)
	material := seedPackaging(t, db, "Ribbon", 5, 1.5)

	history, err := svc.History(context.Background(), material.ID)
	require.NoError(t, err)
	require.Len(t, history.Stock, 1)
	require.Len(t, history.Purchases, 1)

	giftSet, err := giftSets.Create(context.Background(), CreateGiftSetRequest{
		Name:  "Ribbon Box",
		Lines: []BundleLine{{ItemID: material.ID, ItemType: ItemTypePackaging, Quantity: 1.5}},
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), material.ID)
	require.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	require.NoError(t, giftSets.Dismantle(context.Background(), giftSet.ID))
	require.NoError(t, svc.Delete(context.Background(), material.ID))
	_, err = svc.Get(context.Background(), material.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPartyDuplicateNames(t *testing.T) {
	db := newTestDB(t)
	svc := NewPartyService(db)
	ctx := context.Background()

	_, err := svc.CreateSupplier(ctx, models.Supplier{Name: "Lviv Crafts"})
	require.NoError(t, err)
	_, err = svc.CreateSupplier(ctx, models.Supplier{Name: "Lviv Crafts"})
	require.Equal(t, apperr.KindDuplicateName, apperr.KindOf(err))

	seedCustomer(t, db, "Olena")
	_, err = svc.CreateCustomer(ctx, models.Customer{Name: "Olena"})
	require.Equal(t, apperr.KindDuplicateName, apperr.KindOf(err))
}
