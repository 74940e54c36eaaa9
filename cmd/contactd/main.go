// cmd/contactd/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/foliokit/contactd/app"
	"github.com/foliokit/contactd/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintln(os.Stderr, "contactd:", err)
		os.Exit(1)
	}
}
