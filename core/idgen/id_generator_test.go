// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	t.Parallel()

	first := Make()
	second := Make()

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, first[:13], second[:13], "time prefix must not go backwards")
}
