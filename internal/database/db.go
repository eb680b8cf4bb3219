package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"go-giftstock/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the MySQL database from the DB_DSN env variable and syncs
// the schema. The handle is returned, not stored in a package global, so
// every service gets it injected explicitly.
func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN not found in .env file, please configure your database")
	}

	var db *gorm.DB
	var err error

	// Wait for the DB container to come up.
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after 5 attempts: %w", err)
	}

	log.Println("✅ Successfully connected to MySQL!")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Println("✅ Database Schema Synced!")

	return db, nil
}

// Migrate syncs every model. Tests call this directly against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.Customer{},
		&models.Product{},
		&models.PackagingMaterial{},
		&models.GiftSet{},
		&models.GiftSetProduct{},
		&models.GiftSetPackaging{},
		&models.StockHistory{},
		&models.PurchaseHistory{},
		&models.SaleHistory{},
		&models.ReturnHistory{},
		&models.PackagingStockHistory{},
		&models.PackagingPurchaseHistory{},
		&models.PackagingSaleHistory{},
		&models.GiftSetSalesHistory{},
		&models.GiftSetSalesHistoryProduct{},
		&models.GiftSetSalesHistoryPackaging{},
		&models.OtherInvestment{},
	)
}
