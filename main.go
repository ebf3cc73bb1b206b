// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Agora serves the forum's markup engine over HTTP: previews while composing,
plain text for notifications and search, and batch rendering for imports.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"

	"codeberg.org/agora/agora/config"
	"codeberg.org/agora/agora/core/audit"
	"codeberg.org/agora/agora/core/preview"
	"codeberg.org/agora/agora/server/router"
	"codeberg.org/agora/agora/server/routes"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 10 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
)

var (
	errChmodSocket = errors.New("failed to change unix socket permissions")
	errChownSocket = errors.New("failed to change unix socket ownership")
)

// main is the entry point of the application.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run orchestrates the application startup and graceful shutdown.
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	handler, err := newHandler(&config.Global)
	if err != nil {
		return err
	}

	// Create http.Server instance
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Channel to listen for server errors
	serverErrors := make(chan error, 1)

	// Start main server in a goroutine
	go func() {
		listener, err := chooseListener(&config.Global)
		if err != nil {
			serverErrors <- fmt.Errorf("failed to create listener: %w", err)

			return
		}

		serverErrors <- server.Serve(listener)
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until a shutdown signal or a server error is received
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case s := <-quit:
		log.Info().Str("signal", s.String()).Msg("Shutdown signal received")
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)

		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}

// newHandler builds the preview service and the gzip-wrapped router from cfg.
func newHandler(cfg *config.ServerConfig) (http.Handler, error) {
	cacheSize := 0
	if cfg.Cache.Enabled {
		cacheSize = cfg.Cache.Size
	}

	service, err := preview.NewService(preview.Options{
		CacheSize:        cacheSize,
		Compress:         cfg.Cache.Compress,
		Sanitize:         cfg.Markup.Sanitize,
		SnippetLength:    cfg.Markup.SnippetLength,
		BatchConcurrency: cfg.Markup.BatchConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create preview service: %w", err)
	}

	r := router.NewRouter()
	r.DefineRoutes(&routes.API{Service: service, BatchLimit: cfg.Markup.BatchLimit}, cfg.Development.InDevelopment)

	if err := r.RegisterMiddleware(cfg); err != nil {
		return nil, fmt.Errorf("failed to register middleware: %w", err)
	}

	return gzhttp.GzipHandler(r), nil
}

func chooseListener(cfg *config.ServerConfig) (net.Listener, error) {
	// Check if we should use a Unix domain socket
	if cfg.Basic.UnixSocket != "" {
		unixAddr := cfg.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(context.Background(), "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err = setupSocket(cfg); err != nil {
			_ = unixListener.Close()

			return nil, err
		}

		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	// Otherwise, fall back to TCP listener
	addr := net.JoinHostPort(cfg.Basic.Host, cfg.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	// Extract the port for logging
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		_ = tcpListener.Close()

		return nil, fmt.Errorf("failed to parse listener address %q: %w", addr, err)
	}

	log.Info().
		Str("address", addr).
		Str("port", port).
		Str("url", fmt.Sprintf("http://localhost:%v/healthz", port)).
		Msg("Listening on address")

	return tcpListener, nil
}

func setupSocket(cfg *config.ServerConfig) error {
	uid, gid := -1, -1

	var err error

	if cfg.Basic.UnixSocketUser != "" {
		uid, err = parseUserOrGroupID(cfg.Basic.UnixSocketUser, "user")
		if err != nil {
			return err
		}
	}

	if cfg.Basic.UnixSocketGroup != "" {
		gid, err = parseUserOrGroupID(cfg.Basic.UnixSocketGroup, "group")
		if err != nil {
			return err
		}
	}

	if uid != -1 || gid != -1 {
		if err := os.Chown(cfg.Basic.UnixSocket, uid, gid); err != nil {
			return fmt.Errorf("%w: %w", errChownSocket, err)
		}
	}

	mode, err := cfg.SocketMode()
	if err != nil {
		return err
	}

	if err := os.Chmod(cfg.Basic.UnixSocket, mode); err != nil {
		return fmt.Errorf("%w: %w", errChmodSocket, err)
	}

	return nil
}

// parseUserOrGroupID attempts to parse a user or group identifier.
//
// It first tries to convert the value to an integer. If that fails, it
// performs a system lookup for the given kind ("user" or "group").
func parseUserOrGroupID(value, kind string) (int, error) {
	if id, err := strconv.Atoi(value); err == nil {
		return id, nil
	}

	var idStr string

	if kind == "user" {
		u, err := user.Lookup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup user '%s': %w", value, err)
		}

		idStr = u.Uid
	} else { // kind == "group"
		g, err := user.LookupGroup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup group '%s': %w", value, err)
		}

		idStr = g.Gid
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return -1, fmt.Errorf("failed to parse %s ID from looked-up value '%s': %w", kind, value, err)
	}

	return id, nil
}
