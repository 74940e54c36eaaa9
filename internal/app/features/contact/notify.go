// internal/app/features/contact/notify.go
package contact

import "github.com/foliokit/contactd/internal/domain/models"

// Notifier shows a transient notice to the visitor.
type Notifier interface {
	Notify(severity models.Severity, message string)
}

// Toasts collects notices for rendering into the response.
type Toasts []models.Toast

func (t *Toasts) Notify(severity models.Severity, message string) {
	*t = append(*t, models.Toast{Severity: severity, Message: message})
}
