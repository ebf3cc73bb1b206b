// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// useDotEnv loads environment variables from a .env file in the current
// working directory or, failing that, next to the binary.
//
// A missing or unreadable file is logged and skipped.
func useDotEnv() error {
	if cwd, err := os.Getwd(); err == nil {
		if loadDotEnv(filepath.Join(cwd, ".env")) {
			return nil
		}
	} else {
		log.Warn().
			Err(err).
			Msg("Could not get current working directory")
	}

	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}

	loadDotEnv(filepath.Join(dir, ".env"))

	return nil
}

// loadDotEnv reads KEY=VALUE lines from envPath and exports the ones that are
// not already set. It reports whether the file existed and was read.
func loadDotEnv(envPath string) bool {
	data, err := os.ReadFile(envPath) // #nosec G304 -- envPath comes from known safe locations
	if os.IsNotExist(err) {
		log.Debug().
			Str("path", envPath).
			Msg("No .env file found, skipping")

		return false
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("path", envPath).
			Msg("Could not read .env file")

		return false
	}

	for lineNumber, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			log.Warn().
				Str("path", envPath).
				Int("line", lineNumber+1).
				Msg("Invalid format in .env file")

			continue
		}

		key, value = strings.TrimSpace(key), unquote(strings.TrimSpace(value))

		if _, set := os.LookupEnv(key); set {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			log.Warn().
				Err(err).
				Str("key", key).
				Msg("Could not set environment variable")
		}
	}

	log.Info().
		Str("path", envPath).
		Msg("Loaded configuration from .env file")

	return true
}

// unquote strips one pair of matching single or double quotes.
func unquote(value string) string {
	if len(value) >= 2 && value[0] == value[len(value)-1] && (value[0] == '"' || value[0] == '\'') {
		return value[1 : len(value)-1]
	}

	return value
}
