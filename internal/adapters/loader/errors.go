package loader

import "errors"

// Sentinel kinds for dataset loading errors.
var (
	ErrInvalidDataset    = errors.New("invalid dataset")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)
