// internal/app/bootstrap/deps.go
package bootstrap

import (
	"context"

	"github.com/foliokit/contactd/internal/app/features/contact"
	"github.com/foliokit/contactd/internal/app/relay"
	"github.com/foliokit/contactd/internal/app/store"
	"github.com/redis/go-redis/v9"
)

// Deps holds the connected backends.
type Deps struct {
	Relay   relay.Sender
	Holders contact.HolderSource

	// Exactly one of these is set, matching state_backend.
	Redis  *redis.Client
	Memory *store.MemoryRegistry

	stopSweep context.CancelFunc
}
