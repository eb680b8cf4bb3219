package services

import (
	"context"
	"path/filepath"
	"testing"

	"go-giftstock/internal/database"
	"go-giftstock/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database so the real transaction and
// rollback paths run in tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "giftstock.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// seedProduct buys qty items at unitCost through the real purchase flow.
func seedProduct(t *testing.T, db *gorm.DB, name string, qty int, unitCost float64) *models.Product {
	t.Helper()
	product, err := NewProductService(db).Purchase(context.Background(), PurchaseProductRequest{
		Name:         name,
		Quantity:     qty,
		PricePerItem: unitCost,
		TotalPrice:   unitCost * float64(qty),
	})
	require.NoError(t, err)
	return product
}

// seedPackaging buys qty units at unitCost through the real purchase flow.
func seedPackaging(t *testing.T, db *gorm.DB, name string, qty, unitCost float64) *models.PackagingMaterial {
	t.Helper()
	material, err := NewPackagingService(db).Purchase(context.Background(), PurchasePackagingRequest{
		Name:         name,
		Quantity:     qty,
		PricePerUnit: unitCost,
		TotalPrice:   unitCost * qty,
	})
	require.NoError(t, err)
	return material
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, id).Error)
	return &product
}

func reloadPackaging(t *testing.T, db *gorm.DB, id uint) *models.PackagingMaterial {
	t.Helper()
	var material models.PackagingMaterial
	require.NoError(t, db.First(&material, id).Error)
	return &material
}

func seedCustomer(t *testing.T, db *gorm.DB, name string) *models.Customer {
	t.Helper()
	customer, err := NewPartyService(db).CreateCustomer(context.Background(), models.Customer{Name: name})
	require.NoError(t, err)
	return customer
}
