package services

import (
	"context"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// PartyService is the minimal supplier/customer CRUD the ledger needs for
// its foreign keys. Full contact management lives outside this service.
type PartyService struct {
	db *gorm.DB
}

func NewPartyService(db *gorm.DB) *PartyService {
	return &PartyService{db: db}
}

func (s *PartyService) CreateSupplier(ctx context.Context, supplier models.Supplier) (*models.Supplier, error) {
	if supplier.Name == "" {
		return nil, apperr.Validationf("supplier name is required")
	}
	supplier.ID = 0
	supplier.IsActive = true
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Supplier{}).Where("name = ?", supplier.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.DuplicateNamef("supplier %q already exists", supplier.Name)
		}
		return tx.Create(&supplier).Error
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *PartyService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := s.db.WithContext(ctx).Order("id").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *PartyService) CreateCustomer(ctx context.Context, customer models.Customer) (*models.Customer, error) {
	if customer.Name == "" {
		return nil, apperr.Validationf("customer name is required")
	}
	customer.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Customer{}).Where("name = ?", customer.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.DuplicateNamef("customer %q already exists", customer.Name)
		}
		return tx.Create(&customer).Error
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *PartyService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Order("id").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
