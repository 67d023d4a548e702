package repository

import "errors"

// Sentinel kinds for dataset store errors.
var (
	ErrNotFound = errors.New("dataset not found")
	ErrClosed   = errors.New("dataset store closed")
)
