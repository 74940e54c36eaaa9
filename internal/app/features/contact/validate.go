// internal/app/features/contact/validate.go
package contact

import (
	"regexp"

	"github.com/foliokit/contactd/internal/domain/models"
)

// Visitor-facing messages.
const (
	MsgMissingField = "Please fill all the fields."
	MsgInvalidEmail = "Please enter a valid email address."
	MsgSent         = "Message sent!"
	MsgSendFailed   = "Failed to send message. Please try again."
)

// Reason classifies a ValidationError.
type Reason string

const (
	ReasonMissingField Reason = "missing_field"
	ReasonInvalidEmail Reason = "invalid_email"
)

// ValidationError is returned by Validate. Message is shown to the visitor as is.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return "contact: " + string(e.Reason) + ": " + e.Message }

// notSpaceOrAt is any character except '@' and whitespace, where whitespace
// is the browser set: ASCII space and controls, NBSP, the Unicode space
// separators, line/paragraph separators and the BOM.
const notSpaceOrAt = `[^\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}@]`

var emailShape = regexp.MustCompile(`^` + notSpaceOrAt + `+@` + notSpaceOrAt + `+\.` + notSpaceOrAt + `+$`)

// Validate checks that every field is non-empty and that email has the
// local@domain.tld shape. Values are not trimmed: a single space counts as
// filled in.
func Validate(r models.FormRecord) error {
	if r.Name == "" || r.Email == "" || r.Message == "" {
		return &ValidationError{Reason: ReasonMissingField, Message: MsgMissingField}
	}
	if !ValidEmail(r.Email) {
		return &ValidationError{Reason: ReasonInvalidEmail, Message: MsgInvalidEmail}
	}
	return nil
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailShape.MatchString(s)
}
