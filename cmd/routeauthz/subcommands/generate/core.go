package generate

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/chr1sbest/routeauthz/cmd/routeauthz/common"
	"github.com/chr1sbest/routeauthz/internal/generator"
	"github.com/chr1sbest/routeauthz/internal/sink"
)

// Execute writes the constraint table of the manifest as Go source.
func Execute(_ context.Context, cmd *cli.Command) error {
	s, err := common.Load(cmd, &sink.Recorder{})
	if err != nil {
		return err
	}

	cfg, err := s.Compute()
	if err != nil {
		return err
	}

	code, err := generator.Generate(cmd.String("pkg"), cfg)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	out := cmd.String("output")
	if out == "" || out == "-" {
		_, err := common.Writer(cmd).Write(code)
		return err
	}
	if err := os.WriteFile(out, code, 0o644); err != nil { // #nosec G306 -- generated source is not secret
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
