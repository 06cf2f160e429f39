package core

import (
	"errors"
	"fmt"
)

var (
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrPriceNotFound      = errors.New("price not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrDuplicate          = errors.New("duplicate active subscription")
)

// PersistenceError wraps a storage failure. It aborts the surrounding
// transaction and is never retried in-process.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err, returning nil when err is nil
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (p *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s: %v", p.Op, p.Err)
}

func (p *PersistenceError) Unwrap() error {
	return p.Err
}
