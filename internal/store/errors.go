package store

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("todo not found")
	ErrStorageCorrupt     = errors.New("storage corrupt")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageConflict    = errors.New("storage conflict")
	ErrBusy               = errors.New("store busy")
)
