// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "flag"

// parseCommandLineArgs defines and parses flags, returning the value of the
// "config" flag and whether it was set explicitly.
func parseCommandLineArgs() (string, bool) {
	configFilePath := "./config.yaml"

	if flag.Lookup("config") == nil {
		flag.StringVar(&configFilePath, "config", configFilePath, "Path to an Agora configuration file in YAML format.")
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if f := flag.Lookup("config"); f != nil {
		configFilePath = f.Value.String()
	}

	return configFilePath, configFlagSet()
}
