// templates/funcs.go
package templates

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,
		// {{ seconds 0.2 }} -> "0.2s", for CSS animation properties
		"seconds": func(v float64) string { return fmt.Sprintf("%gs", v) },
		"toJSON": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},
	}
}
