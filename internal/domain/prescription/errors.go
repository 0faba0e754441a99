package prescription

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidBackupFormat = errors.New("invalid backup format")
	ErrNotFound            = errors.New("record not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)
