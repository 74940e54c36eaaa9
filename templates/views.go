// templates/views.go
package templates

import "io/fs"

// Set is one group of templates loaded from an embedded filesystem.
// The set named SharedSet holds the layout and partials every page uses;
// each file of any other set is compiled into its own clone of it.
type Set struct {
	Name     string
	FS       fs.FS
	Patterns []string // e.g. []string{"templates/*.gohtml"}
}

// SharedSet is the name of the layout set.
const SharedSet = "shared"
