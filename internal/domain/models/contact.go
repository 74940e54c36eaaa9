// internal/domain/models/contact.go
package models

import (
	"errors"
	"fmt"
)

// FormRecord is the visitor's in-progress contact message.
type FormRecord struct {
	Name    string `json:"name" schema:"name"`
	Email   string `json:"email" schema:"email"`
	Message string `json:"message" schema:"message"`
}

// Field names one FormRecord input. The values are the input names used
// by the page and the field-change endpoint.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldMessage Field = "message"
)

// Fields lists every Field in page order.
var Fields = []Field{FieldName, FieldEmail, FieldMessage}

// ErrUnknownField is returned for an input name that is not a Field.
var ErrUnknownField = errors.New("unknown form field")

// ParseField maps an input name to its Field.
func ParseField(name string) (Field, error) {
	switch f := Field(name); f {
	case FieldName, FieldEmail, FieldMessage:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Get returns the value of f.
func (r FormRecord) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldMessage:
		return r.Message
	}
	return ""
}

// With returns a copy of r with f set to value; the other fields keep
// their values. An unknown f leaves the copy unchanged.
func (r FormRecord) With(f Field, value string) FormRecord {
	switch f {
	case FieldName:
		r.Name = value
	case FieldEmail:
		r.Email = value
	case FieldMessage:
		r.Message = value
	}
	return r
}

// IsZero reports whether every field is empty.
func (r FormRecord) IsZero() bool {
	return r == FormRecord{}
}

// Severity is the kind of a Toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Toast is a transient notice shown to the visitor.
type Toast struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Identity is a name/address pair. The site owner's Identity is the
// recipient of notifications and the sender of acknowledgments.
type Identity struct {
	Name  string
	Email string
}
