package service

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every NotFoundError via errors.Is
var ErrNotFound = errors.New("not found")

// NotFoundError reports that no current record exists for an id
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(id uint64) error {
	return &NotFoundError{Msg: fmt.Sprintf("message with id=%d not found", id)}
}
