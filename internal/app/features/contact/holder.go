// internal/app/features/contact/holder.go
package contact

import (
	"context"

	"github.com/foliokit/contactd/internal/domain/models"
)

// Holder owns one visitor's FormRecord and in-flight flag.
type Holder interface {
	Form(ctx context.Context) (models.FormRecord, error)
	SetField(ctx context.Context, f models.Field, value string) error
	Reset(ctx context.Context) error

	InFlight(ctx context.Context) (bool, error)
	// Acquire sets the in-flight flag and reports whether this caller set
	// it. It returns false when a cycle is already running.
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// HolderSource returns the Holder for a visitor id.
type HolderSource interface {
	Holder(visitorID string) Holder
}

// HolderSourceFunc adapts a func to HolderSource.
type HolderSourceFunc func(visitorID string) Holder

func (f HolderSourceFunc) Holder(visitorID string) Holder { return f(visitorID) }

// ApplyChange copies one input edit into h. Unknown input names return
// models.ErrUnknownField and leave the record untouched.
func ApplyChange(ctx context.Context, h Holder, input, value string) error {
	f, err := models.ParseField(input)
	if err != nil {
		return err
	}
	return h.SetField(ctx, f, value)
}

// ApplyForm copies every field of r into h, in page order.
func ApplyForm(ctx context.Context, h Holder, r models.FormRecord) error {
	for _, f := range models.Fields {
		if err := h.SetField(ctx, f, r.Get(f)); err != nil {
			return err
		}
	}
	return nil
}
