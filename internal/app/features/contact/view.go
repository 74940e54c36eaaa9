// internal/app/features/contact/view.go
package contact

import "github.com/foliokit/contactd/internal/domain/models"

// Submit button labels.
const (
	LabelSend    = "Send"
	LabelSending = "Sending..."
)

// Motion is the entrance animation applied to the two panels. Delays and
// Duration are in seconds.
type Motion struct {
	Style      string
	Duration   float64
	FormDelay  float64
	DecorDelay float64
}

// DefaultMotion staggers the panels so they do not enter together.
var DefaultMotion = Motion{Style: "tween", Duration: 1, FormDelay: 0.2, DecorDelay: 0.4}

// Panel is one animated region of the page.
type Panel struct {
	ID        string
	Direction string // "left" or "right": the side it slides in from
	Style     string
	Delay     float64
	Duration  float64
}

// Input is one controlled form control.
type Input struct {
	Name        string
	Label       string
	Placeholder string
	Type        string // "text", "email" or "textarea"
	Rows        int
	Value       string
}

// View is everything the page shows for a given form state.
type View struct {
	Subtitle    string
	Heading     string
	Inputs      []Input
	SubmitLabel string
	Disabled    bool
	FormPanel   Panel
	DecorPanel  Panel
}

type inputSpec struct {
	label, placeholder, kind string
	rows                     int
}

var inputSpecs = map[models.Field]inputSpec{
	models.FieldName:    {"Your Name", "What's your good name?", "text", 0},
	models.FieldEmail:   {"Your email", "What's your web address?", "email", 0},
	models.FieldMessage: {"Your Message", "What you want to say?", "textarea", 7},
}

// Render maps the form state to a View. It has no side effects.
func Render(form models.FormRecord, inFlight bool, m Motion) View {
	inputs := make([]Input, 0, len(models.Fields))
	for _, f := range models.Fields {
		spec := inputSpecs[f]
		inputs = append(inputs, Input{
			Name:        string(f),
			Label:       spec.label,
			Placeholder: spec.placeholder,
			Type:        spec.kind,
			Rows:        spec.rows,
			Value:       form.Get(f),
		})
	}

	label := LabelSend
	if inFlight {
		label = LabelSending
	}

	return View{
		Subtitle:    "Get in touch",
		Heading:     "Contact.",
		Inputs:      inputs,
		SubmitLabel: label,
		Disabled:    inFlight,
		FormPanel:   Panel{ID: "contact-form", Direction: "left", Style: m.Style, Delay: m.FormDelay, Duration: m.Duration},
		DecorPanel:  Panel{ID: "contact-decor", Direction: "right", Style: m.Style, Delay: m.DecorDelay, Duration: m.Duration},
	}
}
