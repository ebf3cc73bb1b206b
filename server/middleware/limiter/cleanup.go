// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"time"

	"github.com/rs/zerolog/log"
)

// maybeCleanup sweeps idle buckets at most once per CleanupInterval.
func (l *Limiter) maybeCleanup() {
	now := l.now()
	last := l.lastCleanup.Load()

	if now.Sub(time.Unix(0, last)) < CleanupInterval {
		return
	}

	if !l.lastCleanup.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	go l.cleanupExpired(now)
}

// cleanupExpired removes buckets that have not been used for IdleTTL.
func (l *Limiter) cleanupExpired(now time.Time) int {
	expired := 0

	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket) //nolint:forcetypeassert // only *bucket is stored

		b.mu.Lock()
		idle := now.Sub(b.lastAccess)
		b.mu.Unlock()

		if idle > l.opts.IdleTTL {
			l.buckets.Delete(key)

			expired++
		}

		return true
	})

	if expired > 0 {
		log.Info().
			Int("count", expired).
			Dur("dur", time.Since(now)).
			Msg("Cleaned up idle limiters")
	}

	return expired
}
