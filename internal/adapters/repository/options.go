package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/hirepulse/internal/domain/model"
)

type options struct {
	now   func() time.Time
	newID func() string
}

func defaultOptions() options {
	return options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Option configures a Store implementation.
type Option func(*options)

// WithClock sets the clock used to stamp ImportedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the function used to assign dataset IDs.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

func (o options) stamp(ds *model.Dataset) {
	if ds.ID == "" {
		ds.ID = o.newID()
	}
	if ds.ImportedAt.IsZero() {
		ds.ImportedAt = o.now()
	}
}
