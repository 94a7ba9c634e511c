package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expenses TransactionType = "expenses"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single recorded income or expense event. Amount is a
	// magnitude; its effect on totals is carried by Type, not by a sign.
	Transaction struct {
		ID       string
		Date     Date
		Type     TransactionType
		Category string
		Amount   Money
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidSort   = errors.New("invalid sort order")
	ErrUnknownType   = errors.New("unknown transaction type")
	ErrEmptyCategory = errors.New("empty category")
)

// ParseType validates a raw type string against the enum.
func ParseType(s string) (TransactionType, error) {
	switch TransactionType(strings.TrimSpace(s)) {
	case Income:
		return Income, nil
	case Expenses:
		return Expenses, nil
	default:
		return "", ErrUnknownType
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expenses:
		return nil
	default:
		return ErrUnknownType
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the calendar month, 1-based.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	return tx.Amount.Validate()
}
