// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"

	"github.com/rs/zerolog/log"
)

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("instance", cfg.Instance.InstanceID).
		Msg("Starting Agora")

	log.Info().
		Msg("Application configuration:")

	if err := cfg.WriteYAML(os.Stderr); err != nil {
		log.Error().Err(err).Msg("Failed to print configuration")
	}
}
