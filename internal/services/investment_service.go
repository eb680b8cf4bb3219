package services

import (
	"context"
	"errors"
	"time"

	"go-giftstock/internal/apperr"
	"go-giftstock/internal/models"

	"gorm.io/gorm"
)

// InvestmentService tracks money spent outside stock purchases: rent,
// equipment, advertising. These rows never touch the quantity ledger, they
// only widen the expense side of the monthly report.
type InvestmentService struct {
	db *gorm.DB
}

func NewInvestmentService(db *gorm.DB) *InvestmentService {
	return &InvestmentService{db: db}
}

// RecordInvestmentRequest books one expense.
type RecordInvestmentRequest struct {
	TypeName string    `json:"type_name"`
	Supplier string    `json:"supplier"`
	Cost     float64   `json:"cost"`
	Date     time.Time `json:"date"`
}

func (s *InvestmentService) Record(ctx context.Context, req RecordInvestmentRequest) (*models.OtherInvestment, error) {
	if req.TypeName == "" {
		return nil, apperr.Validationf("investment type name is required")
	}
	if req.Cost <= 0 {
		return nil, apperr.Validationf("investment cost must be greater than 0")
	}

	investment := models.OtherInvestment{
		TypeName: req.TypeName,
		Supplier: req.Supplier,
		Cost:     req.Cost,
		Date:     orNow(req.Date),
	}
	if err := s.db.WithContext(ctx).Create(&investment).Error; err != nil {
		return nil, err
	}
	return &investment, nil
}

func (s *InvestmentService) List(ctx context.Context) ([]models.OtherInvestment, error) {
	var investments []models.OtherInvestment
	if err := s.db.WithContext(ctx).Order("id").Find(&investments).Error; err != nil {
		return nil, err
	}
	return investments, nil
}

func (s *InvestmentService) Delete(ctx context.Context, investmentID uint) error {
	var investment models.OtherInvestment
	if err := s.db.WithContext(ctx).First(&investment, investmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("investment %d not found", investmentID)
		}
		return err
	}
	return s.db.WithContext(ctx).Delete(&investment).Error
}
