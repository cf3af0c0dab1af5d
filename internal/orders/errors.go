package orders

import (
	"errors"
	"fmt"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
)

var (
	ErrNotFound    = errors.New("order not found")
	ErrPersistence = postgres.ErrPersistence
)

// ValidationError is raised before any store round trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func persistence(op string, err error) error { return postgres.Persistence(op, err) }
