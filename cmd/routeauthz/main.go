package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/chr1sbest/routeauthz/cmd/routeauthz/common"
	"github.com/chr1sbest/routeauthz/cmd/routeauthz/subcommands/extract"
	"github.com/chr1sbest/routeauthz/cmd/routeauthz/subcommands/generate"
	"github.com/chr1sbest/routeauthz/cmd/routeauthz/subcommands/index"
	"github.com/chr1sbest/routeauthz/cmd/routeauthz/subcommands/serve"
)

func main() {
	cmd := &cli.Command{
		Name:  "routeauthz",
		Usage: "Compute Keycloak security constraints from a declared route and policy table",
		Commands: []*cli.Command{
			{
				Name:  "extract",
				Usage: "Print the security constraints and adapter configuration of an application",
				Flags: append(common.ManifestFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format, one of 'json' or 'table'",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the security document to `FILE`",
					},
				),
				Action: extract.Execute,
			},
			{
				Name:  "generate",
				Usage: "Generate Go source declaring the constraint table",
				Flags: append(common.ManifestFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write generated code to `FILE`, or '-' for stdout",
					},
					&cli.StringFlag{
						Name:  "pkg",
						Usage: "Package name for generated code",
						Value: "httproutes",
					},
				),
				Action: generate.Execute,
			},
			{
				Name:  "index",
				Usage: "Write the resource index of a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "manifest",
						Aliases:  []string{"m"},
						Usage:    "Load the route and policy table from `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the index to `FILE`, or '-' for stdout",
					},
				},
				Action: index.Execute,
			},
			{
				Name:  "serve",
				Usage: "Serve the computed constraint table over HTTP for inspection",
				Flags: append(common.ManifestFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				),
				Action: serve.Execute,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
