// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"fmt"
	"net/netip"

	"codeberg.org/agora/agora/config"
	"codeberg.org/agora/agora/server/middleware"
	"codeberg.org/agora/agora/server/middleware/limiter"
)

func (router *Router) RegisterMiddleware(cfg *config.ServerConfig) error {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders) // all responses need this
	router.Use(middleware.LimitBody(cfg.Markup.MaxInputBytes))

	if cfg.Limiter.Enabled {
		l, err := newLimiter(cfg)
		if err != nil {
			return err
		}

		router.Use(l.Evaluate)
	}

	return nil
}

func newLimiter(cfg *config.ServerConfig) (*limiter.Limiter, error) {
	passList := make([]netip.Prefix, 0, len(cfg.Limiter.PassIPs))

	for _, entry := range cfg.Limiter.PassIPs {
		prefix, err := config.ParsePassListEntry(entry)
		if err != nil {
			return nil, err
		}

		passList = append(passList, prefix)
	}

	l, err := limiter.New(limiter.Options{
		Rate:       cfg.Limiter.Rate,
		Burst:      cfg.Limiter.Burst,
		IdleTTL:    cfg.Limiter.IdleTTL,
		IPv4Prefix: cfg.Limiter.IPv4Prefix,
		IPv6Prefix: cfg.Limiter.IPv6Prefix,
		PassList:   passList,
	})
	if err != nil {
		return nil, fmt.Errorf("creating limiter: %w", err)
	}

	return l, nil
}
