// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let handlers distinguish failure
// scenarios with errors.Is and map them onto HTTP statuses.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested row does not exist or is not
// visible to the caller.  Handlers translate it into 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller touches a resource owned by
// someone else.
var ErrForbidden = errors.New("forbidden")

// ErrOutOfStock is matched by *StockError.
var ErrOutOfStock = errors.New("insufficient stock")

// ErrDuplicate is returned on unique key violations (MySQL error 1062).
var ErrDuplicate = errors.New("duplicate")

// StockError reports how many units were left when an order asked for more.
type StockError struct {
	Requested uint32
	Available uint32
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrOutOfStock }
