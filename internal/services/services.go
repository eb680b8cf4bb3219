// Package services implements the inventory and sales operations. Every
// operation runs inside a single gorm transaction: the quantity ledger
// mutation and its history records commit together or not at all.
//
// Rows are locked with SELECT ... FOR UPDATE before validation, and when an
// operation touches several rows (gift sets) they are locked in a fixed
// order (products by id, then packaging by id) so concurrent bundle
// operations cannot deadlock each other.
package services

import (
	"strings"
	"time"

	"go-giftstock/internal/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Item type labels used in bundle line requests.
const (
	ItemTypeProduct   = "product"
	ItemTypePackaging = "packaging"
)

// forUpdate adds a row lock. SQLite (the test backend) rejects FOR UPDATE
// and serializes writers on its own, so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// asBusy maps MySQL lock contention (1205 lock wait timeout, 1213 deadlock)
// to the retryable Busy kind. Everything else passes through unchanged.
func asBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Error 1205") || strings.Contains(msg, "Error 1213") {
		return apperr.Busyf("stock ledger busy, try again: %v", err)
	}
	return err
}

// orNow defaults a zero timestamp to the current time.
func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
