// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foliokit/contactd/app"
	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/internal/app/features/contact"
	"github.com/foliokit/contactd/internal/app/relay"
	"github.com/foliokit/contactd/internal/app/store"
	"go.uber.org/zap"
)

// sweepInterval is how often idle in-memory form state is dropped.
const sweepInterval = time.Minute

// LoadConfig loads the core config and the service keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.Load(logger, AppEnvPrefix, appKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg := appConfigFrom(vals)
	if err := appCfg.validate(); err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appCfg, nil
}

// Connect builds the relay client and the form state store.
func Connect(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	sender, err := relay.New(appCfg.Relay, logger)
	if err != nil {
		return Deps{}, err
	}
	deps := Deps{Relay: sender}

	switch appCfg.StateBackend {
	case "redis":
		opts := appCfg.Redis
		opts.Timeout = coreCfg.BackendConnectTimeout
		client, err := store.Connect(ctx, opts)
		if err != nil {
			return Deps{}, err
		}
		reg := store.NewRedisRegistry(client, appCfg.RedisKeyPrefix, appCfg.StateTTL, appCfg.InFlightTTL)
		deps.Redis = client
		deps.Holders = contact.HolderSourceFunc(func(id string) contact.Holder { return reg.Holder(id) })
		logger.Info("form state in redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	default:
		reg := store.NewMemoryRegistry(appCfg.StateTTL)
		sweepCtx, stop := context.WithCancel(context.Background())
		go reg.Run(sweepCtx, sweepInterval)
		deps.Memory = reg
		deps.stopSweep = stop
		deps.Holders = contact.HolderSourceFunc(func(id string) contact.Holder { return reg.Holder(id) })
		logger.Info("form state in memory", zap.Duration("ttl", appCfg.StateTTL))
	}
	return deps, nil
}

type checker interface {
	Check(ctx context.Context) error
}

// Warmup probes relays that can be probed without sending mail. A failure
// is logged, not fatal: the page still renders and the relay may recover.
func Warmup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) error {
	c, ok := deps.Relay.(checker)
	if !ok {
		logger.Info("relay ready", zap.String("provider", appCfg.Relay.Provider))
		return nil
	}
	if err := c.Check(ctx); err != nil {
		logger.Warn("relay check failed; sends may fail until it recovers",
			zap.String("provider", appCfg.Relay.Provider), zap.Error(err))
		return nil
	}
	logger.Info("relay reachable", zap.String("provider", appCfg.Relay.Provider))
	return nil
}

// Shutdown closes the backends opened by Connect.
func Shutdown(_ context.Context, deps Deps, logger *zap.Logger) error {
	if deps.stopSweep != nil {
		deps.stopSweep()
	}
	var errs []error
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	logger.Info("backends closed")
	return errors.Join(errs...)
}

// Hooks wires the service into the app lifecycle.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         "contactd",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	Warmup:       Warmup,
	BuildHandler: BuildHandler,
	Shutdown:     Shutdown,
}
