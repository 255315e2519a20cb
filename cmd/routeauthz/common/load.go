package common

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/chr1sbest/routeauthz/internal/bootstrap"
	"github.com/chr1sbest/routeauthz/internal/config"
	"github.com/chr1sbest/routeauthz/internal/discovery"
	"github.com/chr1sbest/routeauthz/internal/manifest"
	"github.com/chr1sbest/routeauthz/internal/model"
	"github.com/chr1sbest/routeauthz/internal/sink"
)

// Session holds everything a subcommand needs after loading a manifest.
type Session struct {
	Manifest    *manifest.Manifest
	Initializer *bootstrap.Initializer
}

// Load reads configuration and the manifest named by --manifest, registers
// its resources and prepares an Initializer around s. When --index is set
// resources are discovered from that file; otherwise manifest order is used.
func Load(cmd *cli.Command, s sink.Configurer) (*Session, error) {
	cfg, err := config.Load(config.New())
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(cmd.String("manifest"))
	if err != nil {
		return nil, err
	}

	reg := discovery.NewRegistry()
	if err := m.Register(reg); err != nil {
		return nil, err
	}

	var opts []bootstrap.Option
	if idx := cmd.String("index"); idx != "" {
		cfg.IndexPath = idx
	} else {
		d := discovery.New(reg)
		opts = append(opts, bootstrap.WithResourceSource(func(app *model.Application) []model.Described {
			return d.Resolve(app, m.Index())
		}))
	}

	boot := bootstrap.New(cfg, reg, s, opts...)
	boot.Register(&m.Application)
	return &Session{Manifest: m, Initializer: boot}, nil
}

// Compute runs the extraction pass for the loaded application.
func (s *Session) Compute() (*model.Config, error) {
	cfg, err := s.Initializer.Compute(&s.Manifest.Application)
	if err != nil {
		return nil, errors.Wrap(err, "compute constraints")
	}
	return cfg, nil
}

// ManifestFlags are shared by every subcommand that reads a manifest.
func ManifestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "manifest",
			Aliases:  []string{"m"},
			Usage:    "Load the route and policy table from `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "index",
			Usage: "Discover resources from the newline-delimited index `FILE` instead of manifest order",
		},
	}
}

// Writer returns the output stream of the root command.
func Writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
