package index

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/chr1sbest/routeauthz/cmd/routeauthz/common"
	"github.com/chr1sbest/routeauthz/internal/discovery"
	"github.com/chr1sbest/routeauthz/internal/manifest"
)

// Execute writes the resource index of a manifest.
func Execute(_ context.Context, cmd *cli.Command) error {
	m, err := manifest.Load(cmd.String("manifest"))
	if err != nil {
		return err
	}

	out := cmd.String("output")
	if out == "" || out == "-" {
		return discovery.WriteIndex(common.Writer(cmd), m.Index())
	}
	if err := m.WriteIndex(out); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
