// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Agoramark renders forum markup from files or standard input.

Usage:

	agoramark [--plain | --snippet N | --tokens] [FILE...]

Without flags each input is printed as an HTML fragment.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"codeberg.org/agora/agora/core/audit"
	"codeberg.org/agora/agora/core/preview"
)

func main() {
	audit.SetDefaultLogger()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("agoramark failed")
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "agoramark",
		Usage:     "render forum markup",
		ArgsUsage: "[FILE...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "plain",
				Aliases: []string{"p"},
				Usage:   "print plain text instead of HTML",
			},
			&cli.IntFlag{
				Name:  "snippet",
				Usage: "print a one-line excerpt of at most `N` runes",
			},
			&cli.BoolFlag{
				Name:  "tokens",
				Usage: "print search tokens, one per line",
			},
			&cli.BoolFlag{
				Name:  "sanitize",
				Value: true,
				Usage: "pass HTML through the output allowlist",
			},
		},
		Action: render,
	}
}

func render(ctx context.Context, cmd *cli.Command) error {
	service, err := preview.NewService(preview.Options{Sanitize: cmd.Bool("sanitize")})
	if err != nil {
		return err
	}

	sources, err := readSources(cmd)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer

	for _, source := range sources {
		var rendered string

		switch {
		case cmd.Int("snippet") > 0:
			rendered = service.Snippet(ctx, source, cmd.Int("snippet"))
		case cmd.Bool("tokens"):
			rendered = strings.Join(service.Tokens(ctx, source), "\n")
		case cmd.Bool("plain"):
			rendered = service.PlainText(ctx, source)
		default:
			rendered = service.HTML(ctx, source)
		}

		if _, err := fmt.Fprintln(out, rendered); err != nil {
			return err
		}
	}

	return nil
}

// readSources returns the contents of every FILE argument, or of standard
// input when there are none. "-" also names standard input.
func readSources(cmd *cli.Command) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"-"}
	}

	sources := make([]string, 0, len(args))

	for _, name := range args {
		var (
			data []byte
			err  error
		)

		if name == "-" {
			data, err = io.ReadAll(cmd.Root().Reader)
		} else {
			data, err = os.ReadFile(name) // #nosec:G304
		}

		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		sources = append(sources, string(data))
	}

	return sources, nil
}
