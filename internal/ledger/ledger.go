// Package ledger implements the available/reserved/sold quantity state
// machine shared by products (integer units) and packaging materials
// (fractional units like meters of ribbon).
//
// Every operation keeps the conservation invariant:
//
//	total == available + reserved + sold
//
// On failure the counts are left untouched, so a caller inside a database
// transaction can simply roll back.
package ledger

import (
	"go-giftstock/internal/apperr"
)

// Quantity covers both stock unit types used in the shop.
type Quantity interface {
	~int | ~int64 | ~float64
}

// Counts is a view over an entity's live stock fields. The pointers alias
// the gorm model, so mutating the view mutates the row about to be saved.
type Counts[Q Quantity] struct {
	Label     string // entity name, used in error messages
	Total     *Q
	Available *Q
	Reserved  *Q
	Sold      *Q
}

// IncreaseAvailable books newly purchased stock: both total and available
// grow by qty.
func (c Counts[Q]) IncreaseAvailable(qty Q) error {
	if qty <= 0 {
		return apperr.Validationf("quantity for %q must be greater than 0", c.Label)
	}
	*c.Total += qty
	*c.Available += qty
	return nil
}

// Reserve moves stock from available to reserved (bundle composition).
func (c Counts[Q]) Reserve(qty Q) error {
	if qty <= 0 {
		return apperr.Validationf("quantity for %q must be greater than 0", c.Label)
	}
	if *c.Available < qty {
		return apperr.InsufficientStockf("%q: %v available, %v requested", c.Label, *c.Available, qty)
	}
	*c.Available -= qty
	*c.Reserved += qty
	return nil
}

// Release returns reserved stock to available (bundle dismantled).
func (c Counts[Q]) Release(qty Q) error {
	if qty <= 0 {
		return apperr.Validationf("quantity for %q must be greater than 0", c.Label)
	}
	if *c.Reserved < qty {
		return apperr.InsufficientStockf("%q: %v reserved, %v requested", c.Label, *c.Reserved, qty)
	}
	*c.Reserved -= qty
	*c.Available += qty
	return nil
}

// ConsumeReserved converts reserved stock into sold (bundle sale).
func (c Counts[Q]) ConsumeReserved(qty Q) error {
	if qty <= 0 {
		return apperr.Validationf("quantity for %q must be greater than 0", c.Label)
	}
	if *c.Reserved < qty {
		return apperr.InsufficientStockf("%q: %v reserved, %v requested", c.Label, *c.Reserved, qty)
	}
	*c.Reserved -= qty
	*c.Sold += qty
	return nil
}

// SellAvailable converts available stock straight into sold (direct sale).
func (c Counts[Q]) SellAvailable(qty Q) error {
	if qty <= 0 {
		return apperr.Validationf("quantity for %q must be greater than 0", c.Label)
	}
	if *c.Available < qty {
		return apperr.InsufficientStockf("%q: %v available, %v requested", c.Label, *c.Available, qty)
	}
	*c.Available -= qty
	*c.Sold += qty
	return nil
}

// ReturnSold moves sold stock back to available (customer return).
func (c Counts[Q]) ReturnSold(qty Q) error {
	if qty <= 0 {
		return apperr.Validationf("quantity for %q must be greater than 0", c.Label)
	}
	if *c.Sold < qty {
		return apperr.Validationf("%q: only %v sold, cannot return %v", c.Label, *c.Sold, qty)
	}
	*c.Sold -= qty
	*c.Available += qty
	return nil
}

// Check verifies the conservation invariant and non-negativity.
func (c Counts[Q]) Check() error {
	if *c.Available < 0 || *c.Reserved < 0 || *c.Sold < 0 || *c.Total < 0 {
		return apperr.InvalidStatef("%q: negative stock count", c.Label)
	}
	if *c.Total != *c.Available+*c.Reserved+*c.Sold {
		return apperr.InvalidStatef("%q: total %v != available %v + reserved %v + sold %v",
			c.Label, *c.Total, *c.Available, *c.Reserved, *c.Sold)
	}
	return nil
}
