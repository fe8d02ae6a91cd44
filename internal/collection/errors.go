package collection

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrInvalidMode   = errors.New("invalid game mode")
	ErrInvalidRecord = errors.New("plate needs a region and a title")
)

// CapacityError is returned by CreateGame when the game limit is reached.
type CapacityError struct {
	Max int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("game limit reached: at most %d games", e.Max)
}

// DuplicateError is returned by CreateGame when the name is already taken.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("a game named %q already exists", e.Name)
}
