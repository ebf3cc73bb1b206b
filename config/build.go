// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"strings"
)

// BuildVersion is the latest tagged release of Agora.
const BuildVersion string = "v0.4.0"

// shortRevisionLength is how much of the commit hash Revision shows.
const shortRevisionLength = 8

type buildInfo struct {
	VcsRevision string
	VcsTime     string
	VcsModified bool
}

// Revision formats the VCS stamp as "<date>-<short hash>[+dirty]", or
// "unknown" for builds without VCS information.
func (b *buildInfo) Revision() string {
	if b.VcsRevision == "" {
		return "unknown"
	}

	date, _, _ := strings.Cut(b.VcsTime, "T")

	s := date + "-" + b.VcsRevision[:min(shortRevisionLength, len(b.VcsRevision))]
	if b.VcsModified {
		s += "+dirty"
	}

	return s
}

func (b *buildInfo) load() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			b.VcsRevision = kv.Value
		case "vcs.time":
			b.VcsTime = kv.Value
		case "vcs.modified":
			b.VcsModified = kv.Value == "true"
		}
	}
}
