// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newCommand()
	cmd.Reader = strings.NewReader(stdin)
	cmd.Writer = &out
	cmd.ErrWriter = &out

	err := cmd.Run(t.Context(), append([]string{"agoramark"}, args...))

	return out.String(), err
}

func TestAgoramark(t *testing.T) {
	t.Parallel()

	const source = "**Hello** _brave_ [new](https://agora.example) world"

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "html by default",
			want: `<p><strong>Hello</strong> <em>brave</em> <a href="https://agora.example" target="_blank" rel="noopener noreferrer">new</a> world</p>` + "\n",
		},
		{
			name: "plain text",
			args: []string{"--plain"},
			want: "Hello brave new world\n",
		},
		{
			name: "snippet",
			args: []string{"--snippet", "12"},
			want: "Hello brave…\n",
		},
		{
			name: "tokens",
			args: []string{"--tokens"},
			want: "hello\nbrave\nnew\nworld\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := runCommand(t, source, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestAgoramark_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")

	require.NoError(t, os.WriteFile(first, []byte("- a"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("> b"), 0o600))

	out, err := runCommand(t, "", first, second)
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>a</li></ul>\n<blockquote>b</blockquote>\n", out)

	_, err = runCommand(t, "", filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "missing.txt")
}
