package services

import (
	"context"
	"testing"

	"go-giftstock/internal/models"

	"github.com/stretchr/testify/require"
)

func TestReconcileCleanLedger(t *testing.T) {
	db := newTestDB(t)
	products := NewProductService(db)
	giftSets := NewGiftSetService(db)
	product := seedProduct(t, db, "Candle", 10, 8)
	material := seedPackaging(t, db, "Ribbon", 5, 2)

	// Mix every flow that touches sold_quantity: a wrapped direct sale,
	// a bundle sale and a partial return.
	sale, err := products.Sell(context.Background(), SellProductRequest{
		ProductID:         product.ID,
		Quantity:          3,
		PricePerItem:      15,
		TotalPrice:        45,
		PackagingID:       &material.ID,
		PackagingQuantity: 1,
	})
	require.NoError(t, err)

	giftSet, err := giftSets.Create(context.Background(), CreateGiftSetRequest{
		Name: "Mixed",
		Lines: []BundleLine{
			{ItemID: product.ID, ItemType: ItemTypeProduct, Quantity: 2},
			{ItemID: material.ID, ItemType: ItemTypePackaging, Quantity: 0.5},
		},
	})
	require.NoError(t, err)
	_, err = giftSets.Sell(context.Background(), SellGiftSetRequest{GiftSetID: giftSet.ID, SoldPrice: 40})
	require.NoError(t, err)

	_, err = products.Return(context.Background(), ReturnProductRequest{SaleID: sale.ID, Quantity: 1})
	require.NoError(t, err)

	rows, err := NewReconcileService(db).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.True(t, row.OK, "%s %q: sold %v vs %v, revenue %v vs %v",
			row.EntityType, row.Name, row.LedgerSold, row.ExpectedSold, row.LedgerRevenue, row.ExpectedRevenue)
		require.True(t, row.ConservationOK)
	}

	// Direct 3 + bundle 2 - returned 1.
	require.Equal(t, "product", rows[0].EntityType)
	require.InDelta(t, 4, rows[0].ExpectedSold, 1e-9)
	// Revenue 45 minus one refunded unit at 15.
	require.InDelta(t, 30, rows[0].ExpectedRevenue, 1e-9)

	// Wrapped 1 + bundled 0.5.
	require.Equal(t, "packaging", rows[1].EntityType)
	require.InDelta(t, 1.5, rows[1].ExpectedSold, 1e-9)
}

func TestReconcileFlagsDrift(t *testing.T) {
	db := newTestDB(t)
	products := NewProductService(db)
	product := seedProduct(t, db, "Candle", 10, 8)

	_, err := products.Sell(context.Background(), SellProductRequest{
		ProductID: product.ID, Quantity: 2, PricePerItem: 15, TotalPrice: 30,
	})
	require.NoError(t, err)

	// Corrupt the ledger behind the services' back.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("sold_quantity", 5).Error)

	rows, err := NewReconcileService(db).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].OK)
	require.False(t, rows[0].ConservationOK)
	require.InDelta(t, 5, rows[0].LedgerSold, 1e-9)
	require.InDelta(t, 2, rows[0].ExpectedSold, 1e-9)

	// Drift that keeps conservation intact must still be flagged.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"sold_quantity": 3, "available_quantity": 7}).Error)
	rows, err = NewReconcileService(db).Run(context.Background())
	require.NoError(t, err)
	require.True(t, rows[0].ConservationOK)
	require.False(t, rows[0].OK)
}
