package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidDataset = errors.New("invalid dataset")
	ErrBackpressure   = errors.New("analysis queue is full")
	ErrNotStarted     = errors.New("service not started")
)
