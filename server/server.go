// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/foliokit/contactd/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The cancel func also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over plain HTTP, manual TLS or
// Let's Encrypt (http-01) depending on cfg, and blocks until ctx is
// canceled or a listener fails. In the TLS modes a second server on :80
// redirects to HTTPS (and answers ACME challenges).
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return errors.New("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newServer(cfg, handler, logger)

	var (
		aux      *http.Server
		auxErr   chan error // nil unless aux runs; a nil channel never fires in select
		ln       net.Listener
		serveErr = make(chan error, 1)
	)

	startAux := func(h http.Handler) {
		aux = newServer(cfg, h, logger)
		aux.Addr = ":80"
		auxErr = make(chan error, 1)
		go func() {
			err := aux.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			auxErr <- err
		}()
		logger.Info("HTTP redirect server listening", zap.String("addr", aux.Addr))
	}
	stopAux := func(ctx context.Context) {
		if aux != nil {
			_ = aux.Shutdown(ctx)
		}
	}

	switch {
	case !cfg.HTTP.UseHTTPS:
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	case cfg.TLS.UseLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		startAux(m.HTTPHandler(redirectHandler()))

		if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
			logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
		}
		var err error
		if ln, err = listenTLS(cfg, &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}); err != nil {
			stopAux(context.Background())
			return err
		}
		logger.Info("HTTPS server (Let's Encrypt) listening",
			zap.String("addr", ln.Addr().String()), zap.String("domain", cfg.TLS.Domain))

	default:
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		startAux(redirectHandler())
		if ln, err = listenTLS(cfg, &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}); err != nil {
			stopAux(context.Background())
			return err
		}
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", ln.Addr().String()), zap.String("cert_file", cfg.TLS.CertFile))
	}

	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server")
			// ctx is already done; give shutdown its own window
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			stopAux(shutdownCtx)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			stopAux(context.Background())
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				return fmt.Errorf("redirect server error: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

func newServer(cfg *config.CoreConfig, h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

func listenTLS(cfg *config.CoreConfig, tlsCfg *tls.Config) (net.Listener, error) {
	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen https %s: %w", addr, err)
	}
	return tls.NewListener(ln, tlsCfg), nil
}

// redirectHandler sends every request to the https:// form of the same URL.
func redirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isValidHost(r.Host) || !isPrintable(r.URL.RequestURI()) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
}

// isValidHost rejects Host headers that could inject headers or redirect
// somewhere other than this host.
func isValidHost(host string) bool {
	if host == "" {
		return false
	}
	name := host
	if h, port, err := net.SplitHostPort(host); err == nil {
		if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
			return false
		}
		name = h
	}
	if name == "" {
		return false
	}
	for _, c := range host {
		if c <= ' ' || c == 0x7f || c == '/' || c == '\\' || c == '@' {
			return false
		}
	}
	return true
}

func isPrintable(s string) bool {
	for _, c := range s {
		if c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

// waitForCert polls autocert until host has a certificate, ctx is done or
// timeout elapses.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w (last error: %v)", host, ctx.Err(), err)
		case <-tick.C:
		}
	}
}
