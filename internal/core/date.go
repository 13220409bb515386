package core

import (
	"fmt"
	"time"
)

const (
	// PartitionLayout is the DD-MM-YYYY form used as ledger partition key.
	PartitionLayout = "02-01-2006"
	// ISOLayout is used for range filters.
	ISOLayout = "2006-01-02"
	// TimeLayout renders times like "03:04 pm".
	TimeLayout = "03:04 pm"
)

// PartitionKey returns the ledger partition key for t.
func PartitionKey(t time.Time) string {
	return t.Format(PartitionLayout)
}

// ParsePartitionKey parses a DD-MM-YYYY key into a UTC calendar date.
func ParsePartitionKey(key string) (time.Time, error) {
	d, err := time.Parse(PartitionLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse partition key %q: %w", key, err)
	}
	return d, nil
}

// ParseISODate parses a YYYY-MM-DD date into a UTC calendar date.
func ParseISODate(s string) (time.Time, error) {
	d, err := time.Parse(ISOLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return d, nil
}

// ISOToPartitionKey converts YYYY-MM-DD into DD-MM-YYYY.
func ISOToPartitionKey(s string) (string, error) {
	d, err := ParseISODate(s)
	if err != nil {
		return "", err
	}
	return PartitionKey(d), nil
}
