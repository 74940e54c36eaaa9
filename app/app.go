// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/logging"
	"github.com/foliokit/contactd/metrics"
	"github.com/foliokit/contactd/server"
	"go.uber.org/zap"
)

// Hooks are the integration points a service supplies to Run.
// C is the service config, D the bundle of connected backends.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the service config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Connect opens backends (redis, mail relay clients). It should honor
	// core.BackendConnectTimeout.
	Connect func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// Warmup runs startup checks that need the backends. Optional.
	Warmup func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler returns the complete http.Handler.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Shutdown releases backends after the server has stopped. Optional.
	Shutdown func(ctx context.Context, deps D, logger *zap.Logger) error
}

// Run executes the startup sequence and blocks until the server stops:
//
//  1. bootstrap logger
//  2. load config (Hooks.LoadConfig)
//  3. final logger from config
//  4. default metrics
//  5. connect backends (Hooks.Connect)
//  6. warmup (Hooks.Warmup, if set)
//  7. shutdown signals
//  8. build handler (Hooks.BuildHandler)
//  9. serve until shutdown, then Hooks.Shutdown
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("app", hooks.Name),
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger := logging.MustBuildLogger(coreCfg.LogLevel, coreCfg.Env)
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", hooks.Name))

	metrics.RegisterDefault(logger)

	connectCtx, cancelConnect := context.WithTimeout(ctx, coreCfg.BackendConnectTimeout)
	deps, err := hooks.Connect(connectCtx, coreCfg, appCfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if hooks.Shutdown == nil {
			return
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), coreCfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := hooks.Shutdown(closeCtx, deps, logger); err != nil {
			logger.Warn("backend shutdown failed", zap.Error(err))
		}
	}()

	if hooks.Warmup != nil {
		warmCtx, cancel := context.WithTimeout(ctx, coreCfg.BackendConnectTimeout)
		err := hooks.Warmup(warmCtx, coreCfg, appCfg, deps, logger)
		cancel()
		if err != nil {
			logger.Error("warmup failed", zap.Error(err))
			return fmt.Errorf("warmup: %w", err)
		}
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
