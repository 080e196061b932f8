package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrNotFound          = errors.New("not found")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

type TransitionError struct {
	Entity string
	ID     int
	From   string
	To     string
	// Reason replaces the from/to wording when the conflict is not a plain
	// status change.
	Reason string
}

func (e TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s %d: cannot go from %s to %s", e.Entity, e.ID, e.From, e.To)
}

func (e TransitionError) Unwrap() error { return ErrInvalidTransition }

// InvalidPriceError blocks billing and names the first offending line.
type InvalidPriceError struct {
	ItemID int
	Name   string
	Price  float64
}

func (e InvalidPriceError) Error() string {
	return fmt.Sprintf("item %d (%s) has invalid price %v", e.ItemID, e.Name, e.Price)
}

func (e InvalidPriceError) Unwrap() error { return ErrInvalidPrice }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

func TableNotFound(id int) error {
	return NotFoundError{Entity: "table", ID: fmt.Sprint(id)}
}

func OrderNotFound(tableID int) error {
	return NotFoundError{Entity: "active order for table", ID: fmt.Sprint(tableID)}
}
