package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")

	ErrInvalidYear   = fmt.Errorf("%w: invalid year", ErrInvalidRequest)
	ErrInvalidMonth  = fmt.Errorf("%w: invalid month", ErrInvalidRequest)
	ErrInvalidDay    = fmt.Errorf("%w: invalid day", ErrInvalidRequest)
	ErrInvalidDate   = fmt.Errorf("%w: invalid date", ErrInvalidRequest)
	ErrInvalidScope  = fmt.Errorf("%w: month requires a year", ErrInvalidRequest)
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrInvalidRequest)
	ErrMissingUser   = fmt.Errorf("%w: missing user id", ErrInvalidRequest)

	ErrMissingCredential   = errors.New("missing credential")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpiredCredential   = fmt.Errorf("%w: expired", ErrMalformedCredential)

	ErrStorage = errors.New("storage failure")

	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidLogin = errors.New("invalid credentials")
)

// StorageError reports a failed store operation. It matches ErrStorage.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError wraps err unless it already reports a storage failure.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
