package models

import (
	"time"

	"go-giftstock/internal/ledger"
)

// User - whoever operates the shop (admin or staff)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"` // Never return this in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Supplier of goods. Contact details only; money lives in purchase history.
type Supplier struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:255" json:"name"`
	ContactInfo string `json:"contact_info"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// Customer buying goods or gift sets.
type Customer struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:255" json:"name"`
	ContactInfo string `json:"contact_info"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
}

// Product - a purchasable good. The four quantity columns are the stock
// ledger: TotalQuantity == Available + Reserved + Sold at all times.
type Product struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"size:255" json:"name"`
	SupplierID           *uint     `json:"supplier_id"`
	Supplier             *Supplier `json:"supplier,omitempty"`
	TotalQuantity        int       `json:"total_quantity"`
	AvailableQuantity    int       `json:"available_quantity"`
	ReservedQuantity     int       `json:"reserved_quantity"`
	SoldQuantity         int       `json:"sold_quantity"`
	PurchaseTotalPrice   float64   `json:"purchase_total_price"`
	PurchasePricePerItem float64   `json:"purchase_price_per_item"` // weighted average across purchases
	SellingTotalPrice    float64   `json:"selling_total_price"`
	SellingPricePerItem  float64   `json:"selling_price_per_item"` // last sale price
	CreatedDate          time.Time `json:"created_date"`
}

// Stock exposes the product's quantity columns to the ledger operations.
func (p *Product) Stock() ledger.Counts[int] {
	return ledger.Counts[int]{
		Label:     p.Name,
		Total:     &p.TotalQuantity,
		Available: &p.AvailableQuantity,
		Reserved:  &p.ReservedQuantity,
		Sold:      &p.SoldQuantity,
	}
}

// Packaging material statuses.
const (
	PackagingStatusAvailable = "available"
	PackagingStatusUsed      = "used"
)

// PackagingMaterial - boxes, ribbon, paper. Quantities are float64 because
// materials are bought in fractional units (meters, kilograms).
type PackagingMaterial struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"uniqueIndex;size:255" json:"name"`
	Status               string    `gorm:"size:50;default:available" json:"status"`
	SupplierID           *uint     `json:"supplier_id"`
	Supplier             *Supplier `json:"supplier,omitempty"`
	TotalQuantity        float64   `json:"total_quantity"`
	AvailableQuantity    float64   `json:"available_quantity"`
	ReservedQuantity     float64   `json:"reserved_quantity"`
	SoldQuantity         float64   `json:"sold_quantity"`
	PurchasePricePerUnit float64   `json:"purchase_price_per_unit"`
	TotalPurchaseCost    float64   `json:"total_purchase_cost"`
	AvailableStockCost   float64   `json:"available_stock_cost"`
	CreatedDate          time.Time `json:"created_date"`
}

// Stock exposes the material's quantity columns to the ledger operations.
func (m *PackagingMaterial) Stock() ledger.Counts[float64] {
	return ledger.Counts[float64]{
		Label:     m.Name,
		Total:     &m.TotalQuantity,
		Available: &m.AvailableQuantity,
		Reserved:  &m.ReservedQuantity,
		Sold:      &m.SoldQuantity,
	}
}

// RefreshDerived recomputes the cost aggregates and the status label from
// the quantity columns. Call it after any quantity change.
func (m *PackagingMaterial) RefreshDerived() {
	m.TotalPurchaseCost = m.TotalQuantity * m.PurchasePricePerUnit
	m.AvailableStockCost = m.AvailableQuantity * m.PurchasePricePerUnit
	if m.AvailableQuantity <= 0 {
		m.Status = PackagingStatusUsed
	} else {
		m.Status = PackagingStatusAvailable
	}
}

// GiftSet - a bundle of products and packaging reserved together. Once sold
// it is terminal: no dismantle, no second sale.
type GiftSet struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Name             string  `gorm:"uniqueIndex;size:255" json:"name"`
	Description      string  `json:"description"`
	TotalPrice       float64 `json:"total_price"` // constituent cost basis at assembly time
	GiftSellingPrice float64 `json:"gift_selling_price"`
	IsSold           bool    `json:"is_sold"`

	Products   []GiftSetProduct   `gorm:"foreignKey:GiftSetID" json:"products"`
	Packagings []GiftSetPackaging `gorm:"foreignKey:GiftSetID" json:"packagings"`
}

// GiftSetProduct - one product line inside a gift set.
type GiftSetProduct struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	GiftSetID uint    `json:"gift_set_id"`
	ProductID uint    `json:"product_id"`
	Product   Product `json:"product"`
	Quantity  int     `gorm:"default:1" json:"quantity"`
}

// GiftSetPackaging - one packaging line inside a gift set.
type GiftSetPackaging struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	GiftSetID   uint              `json:"gift_set_id"`
	PackagingID uint              `json:"packaging_id"`
	Packaging   PackagingMaterial `json:"packaging"`
	Quantity    float64           `gorm:"default:1" json:"quantity"`
}

// OtherInvestment - money spent on the shop outside stock purchases (rent,
// equipment, advertising). Kept so the profit picture is not just goods.
type OtherInvestment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TypeName string    `gorm:"size:255" json:"type_name"`
	Supplier string    `gorm:"size:255" json:"supplier"`
	Cost     float64   `json:"cost"`
	Date     time.Time `json:"date"`
}

// Stock history change classifications.
const (
	ChangeCreate   = "create"
	ChangeAdd      = "add"
	ChangeSubtract = "subtract"
	ChangePurchase = "purchase"
	ChangeSale     = "sale"
	ChangeReturn   = "return"
)

// StockHistory - append-only trail of every product quantity change.
type StockHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"constraint:OnDelete:CASCADE" json:"product_id"`
	ChangeAmount int       `json:"change_amount"`
	ChangeType   string    `gorm:"size:50" json:"change_type"`
	Timestamp    time.Time `json:"timestamp"`
}

// PurchaseHistory - one row per product purchase.
type PurchaseHistory struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ProductID            uint      `gorm:"constraint:OnDelete:CASCADE" json:"product_id"`
	SupplierID           *uint     `json:"supplier_id"`
	QuantityPurchased    int       `json:"quantity_purchased"`
	PurchasePricePerItem float64   `json:"purchase_price_per_item"`
	PurchaseTotalPrice   float64   `json:"purchase_total_price"`
	PurchaseDate         time.Time `json:"purchase_date"`
}

// SaleHistory - one row per direct product sale. Packaging linkage is
// embedded so a receipt can show what the item was wrapped in.
type SaleHistory struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ProductID           uint      `gorm:"constraint:OnDelete:CASCADE" json:"product_id"`
	CustomerID          *uint     `json:"customer_id"`
	QuantitySold        int       `json:"quantity_sold"`
	SellingPricePerItem float64   `json:"selling_price_per_item"`
	SellingTotalPrice   float64   `json:"selling_total_price"`
	Profit              float64   `json:"profit"`
	SaleDate            time.Time `json:"sale_date"`

	PackagingMaterialID *uint   `json:"packaging_material_id"`
	PackagingQuantity   float64 `json:"packaging_quantity"`
	TotalPackagingCost  float64 `json:"total_packaging_cost"`
}

// ReturnHistory - a customer return against a past sale. RefundAmount is
// recorded so revenue reconciliation stays exact.
type ReturnHistory struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductID        uint      `gorm:"constraint:OnDelete:CASCADE" json:"product_id"`
	SaleID           uint      `json:"sale_id"`
	CustomerID       *uint     `json:"customer_id"`
	QuantityReturned int       `json:"quantity_returned"`
	RefundAmount     float64   `json:"refund_amount"`
	ReturnReason     string    `json:"return_reason"`
	ReturnDate       time.Time `json:"return_date"`
}

// PackagingStockHistory - append-only trail of packaging quantity changes.
type PackagingStockHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MaterialID   uint      `gorm:"constraint:OnDelete:CASCADE" json:"material_id"`
	ChangeAmount float64   `json:"change_amount"`
	ChangeType   string    `gorm:"size:50" json:"change_type"`
	Timestamp    time.Time `json:"timestamp"`
}

// PackagingPurchaseHistory - one row per packaging purchase.
type PackagingPurchaseHistory struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	MaterialID           uint      `gorm:"constraint:OnDelete:CASCADE" json:"material_id"`
	SupplierID           *uint     `json:"supplier_id"`
	QuantityPurchased    float64   `json:"quantity_purchased"`
	PurchasePricePerUnit float64   `json:"purchase_price_per_unit"`
	PurchaseTotalPrice   float64   `json:"purchase_total_price"`
	PurchaseDate         time.Time `json:"purchase_date"`
}

// PackagingSaleHistory - packaging consumed by a direct product sale.
type PackagingSaleHistory struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SaleID             uint      `gorm:"constraint:OnDelete:CASCADE" json:"sale_id"`
	MaterialID         uint      `json:"material_id"`
	PackagingQuantity  float64   `json:"packaging_quantity"`
	TotalPackagingCost float64   `json:"total_packaging_cost"`
	SaleDate           time.Time `json:"sale_date"`
}

// GiftSetSalesHistory - header row for one gift set sale. The line rows
// below snapshot everything they need at sale time, because the gift set
// and its lines can be deleted later while the sale record must survive.
type GiftSetSalesHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GiftSetID  uint      `json:"gift_set_id"`
	CustomerID *uint     `json:"customer_id"`
	SoldPrice  float64   `json:"sold_price"`
	Profit     float64   `json:"profit"`
	Quantity   int       `gorm:"default:1" json:"quantity"`
	SoldAt     time.Time `json:"sold_at"`

	Products   []GiftSetSalesHistoryProduct   `gorm:"foreignKey:SalesHistoryID" json:"products"`
	Packagings []GiftSetSalesHistoryPackaging `gorm:"foreignKey:SalesHistoryID" json:"packagings"`
}

// GiftSetSalesHistoryProduct - immutable snapshot of one product line.
type GiftSetSalesHistoryProduct struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	SalesHistoryID uint    `gorm:"constraint:OnDelete:CASCADE" json:"sales_history_id"`
	ProductID      uint    `json:"product_id"`
	ProductName    string  `gorm:"size:255" json:"product_name"`
	Quantity       int     `json:"quantity"`
	UnitCost       float64 `json:"unit_cost"` // purchase cost basis at sale time
}

// GiftSetSalesHistoryPackaging - immutable snapshot of one packaging line.
type GiftSetSalesHistoryPackaging struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	SalesHistoryID uint    `gorm:"constraint:OnDelete:CASCADE" json:"sales_history_id"`
	MaterialID     uint    `json:"material_id"`
	MaterialName   string  `gorm:"size:255" json:"material_name"`
	Quantity       float64 `json:"quantity"`
	UnitCost       float64 `json:"unit_cost"`
}
