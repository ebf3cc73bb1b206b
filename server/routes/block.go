// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
)

type BlockData struct {
	Reason string `json:"reason"`
}

// BlockPage writes a block response as JSON.
//
// It is used by the limiter, which runs before CatchError and therefore
// writes its responses directly.
func BlockPage(w http.ResponseWriter, data BlockData, statusCode int) {
	w.Header().Set("Cache-Control", "no-store")

	writeJSON(w, statusCode, data)
}
