// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Genconfig writes the example configuration files shipped in deploy/.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/agora/agora/config"
	"codeberg.org/agora/agora/core/audit"
)

const (
	envOutputFile  = "deploy/.env.example"
	yamlOutputFile = "deploy/config.yaml.example"
	filePerm       = 0o644
	dirPerm        = 0o755

	envFileHeader = `# Agora configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# Agora configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`
)

// essentialEnvVars are written uncommented in the .env example.
var essentialEnvVars = map[string]bool{
	"AGORA_HOST": true,
	"AGORA_PORT": true,
}

func main() {
	audit.SetDefaultLogger()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	writeFile(envOutputFile, func(w io.Writer) error { return writeEnvExample(w, cfg) })
	writeFile(yamlOutputFile, func(w io.Writer) error { return writeYAMLExample(w, cfg) })
}

func writeFile(path string, generate func(io.Writer) error) {
	var sb strings.Builder

	if err := generate(&sb); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to generate file")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(path, []byte(sb.String()), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write file")
	}

	log.Info().Str("path", path).Msg("Successfully generated file")
}

// writeEnvExample writes one commented variable per env-tagged field,
// grouped by configuration section.
func writeEnvExample(w io.Writer, cfg *config.ServerConfig) error {
	var sb strings.Builder
	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	// Iterate over the top-level struct fields.
	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structValue.Kind() != reflect.Struct || structField.Name == "Build" || structField.Name == "Instance" {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n", structField.Name)

		// Iterate over the fields of the nested struct.
		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			field := innerTyp.Field(j)
			value := structValue.Field(j)

			tag, ok := field.Tag.Lookup("env")
			if !ok {
				continue
			}

			envVarName, _, _ := strings.Cut(tag, ",")

			switch {
			case essentialEnvVars[envVarName]:
				fmt.Fprintf(&sb, "%s=\"%v\"\n", envVarName, value.Interface())
			case value.Kind() == reflect.Slice:
				fmt.Fprintf(&sb, "# %s=%s\n", envVarName, joinSlice(value))
			case value.Kind() == reflect.String && value.Len() == 0:
				// Omit the value to prompt user input.
				fmt.Fprintf(&sb, "# %s=\n", envVarName)
			default:
				fmt.Fprintf(&sb, "# %s=%v\n", envVarName, value.Interface())
			}
		}

		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

func joinSlice(value reflect.Value) string {
	parts := make([]string, value.Len())
	for i := range value.Len() {
		parts[i] = fmt.Sprint(value.Index(i).Interface())
	}

	return strings.Join(parts, ",")
}

// writeYAMLExample writes the defaults as YAML with every value commented
// out, keeping section headers so the file stays valid.
func writeYAMLExample(w io.Writer, cfg *config.ServerConfig) error {
	var yamlContent strings.Builder

	if err := cfg.WriteYAML(&yamlContent); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	// Process the marshaled YAML line-by-line to create a clean template.
	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "basic:") are treated as section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)

			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
