package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Income     TransactionType = "income"
	Receivable TransactionType = "receivable"
	Expense    TransactionType = "expense"
)

const (
	// NoItem is stored when no item could be extracted from a command.
	NoItem = "-"
	// DeletedPrefix marks item names whose registry entry was removed.
	DeletedPrefix = "[Deleted] "
)

type (
	TransactionType string

	// Intent is the structured result of interpreting one command sentence.
	// CustomerName is empty and Amount is zero when they could not be found.
	Intent struct {
		IsReport     bool            `json:"is_report"`
		CustomerName string          `json:"customer_name,omitempty"`
		Amount       float64         `json:"amount,omitempty"`
		Type         TransactionType `json:"type,omitempty"`
		Item         string          `json:"item,omitempty"`
		Date         string          `json:"date,omitempty"`         // YYYY-MM-DD
		DisplayDate  string          `json:"display_date,omitempty"` // DD-MM-YYYY
		Time         string          `json:"time,omitempty"`
	}

	// Transaction is one ledger row. Field names follow the persisted format.
	Transaction struct {
		Serial       int     `json:"sr_no"`
		CustomerName string  `json:"customer_name"`
		ItemName     string  `json:"item_name"`
		Amount       float64 `json:"amount"`
		Date         string  `json:"date"`
		Time         string  `json:"time"`
		Due          float64 `json:"due"`
		Paid         float64 `json:"paid"`
		Expense      float64 `json:"expense"`
	}

	// Entry addresses a transaction inside its partition.
	Entry struct {
		Transaction
		PartitionKey string `json:"partition_key"`
		Position     int    `json:"position"`
	}

	// TransactionPatch holds the editable fields of a transaction. Nil fields
	// are left untouched.
	TransactionPatch struct {
		CustomerName *string  `json:"customer_name,omitempty"`
		ItemName     *string  `json:"item_name,omitempty"`
		Amount       *float64 `json:"amount,omitempty"`
		Due          *float64 `json:"due,omitempty"`
		Paid         *float64 `json:"paid,omitempty"`
		Expense      *float64 `json:"expense,omitempty"`
	}

	// Item is a catalog entry. Date is the DD-MM-YYYY day it was first seen.
	Item struct {
		Name string `json:"name"`
		Date string `json:"date"`
	}
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("transaction not found")
	ErrMissingCustomer = fmt.Errorf("%w: missing customer name", ErrValidation)
	ErrMissingAmount   = fmt.Errorf("%w: missing amount", ErrValidation)
	ErrNegativeAmount  = fmt.Errorf("%w: amounts cannot be negative", ErrValidation)
)

// IsValid reports whether t is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Receivable, Expense:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// Validate checks that the intent carries enough data to become a transaction.
func (i Intent) Validate() error {
	if strings.TrimSpace(i.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if i.Amount <= 0 {
		return ErrMissingAmount
	}
	if i.DisplayDate == "" {
		return fmt.Errorf("%w: missing date", ErrValidation)
	}
	return nil
}

// Split returns the due, paid and expense columns for an amount of the
// given type. Exactly one of them is non-zero.
func (t TransactionType) Split(amount float64) (due, paid, expense float64) {
	switch t {
	case Income:
		return 0, amount, 0
	case Expense:
		return 0, 0, amount
	default:
		return amount, 0, 0
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.CustomerName == nil && p.ItemName == nil && p.Amount == nil &&
		p.Due == nil && p.Paid == nil && p.Expense == nil
}

func (p TransactionPatch) Validate() error {
	if p.CustomerName != nil && strings.TrimSpace(*p.CustomerName) == "" {
		return ErrMissingCustomer
	}
	for _, v := range []*float64{p.Amount, p.Due, p.Paid, p.Expense} {
		if v != nil && *v < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// Apply overwrites the fields set in p. Derived columns are not recomputed.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.CustomerName != nil {
		t.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.ItemName != nil {
		t.ItemName = strings.TrimSpace(*p.ItemName)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Due != nil {
		t.Due = *p.Due
	}
	if p.Paid != nil {
		t.Paid = *p.Paid
	}
	if p.Expense != nil {
		t.Expense = *p.Expense
	}
}

// IsDeletedItem reports whether name carries the soft-delete marker.
func IsDeletedItem(name string) bool {
	return strings.HasPrefix(name, DeletedPrefix)
}
