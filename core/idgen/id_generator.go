// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import "github.com/google/uuid"

// Make returns a new request ID.
//
// IDs are version 7 UUIDs, so IDs made later sort after earlier ones. If the
// clock cannot be read a random version 4 UUID is returned instead.
func Make() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
