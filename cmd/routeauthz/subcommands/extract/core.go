package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/urfave/cli/v3"

	"github.com/chr1sbest/routeauthz/cmd/routeauthz/common"
	"github.com/chr1sbest/routeauthz/internal/model"
	"github.com/chr1sbest/routeauthz/internal/sink"
)

// Execute runs the extraction pass through the same sinks a host would use
// and prints the result.
func Execute(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != "json" && format != "table" {
		return fmt.Errorf("unsupported format: %s", format)
	}

	rec := &sink.Recorder{}
	sinks := sink.Multi{rec}
	if out := cmd.String("output"); out != "" {
		sinks = append(sinks, &sink.FileWriter{Path: out})
	}

	s, err := common.Load(cmd, sinks)
	if err != nil {
		return err
	}
	if err := s.Initializer.Init(ctx); err != nil {
		return err
	}

	calls := rec.Calls()
	if len(calls) == 0 {
		return fmt.Errorf("no application configured")
	}
	call := calls[0]

	w := common.Writer(cmd)
	if format == "table" {
		return RenderTable(w, call.Constraints)
	}
	return RenderJSON(w, call)
}

// RenderJSON writes call in the same layout as the file sink.
func RenderJSON(w io.Writer, call sink.Call) error {
	doc := sink.Document{
		Config:        json.RawMessage(call.JSONConfig),
		DeclaredRoles: call.DeclaredRoles,
		Constraints:   call.Constraints,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// RenderTable writes one row per constraint.
func RenderTable(w io.Writer, constraints []model.SecurityConstraint) error {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader([]string{"Method", "Pattern", "Access"}),
		tablewriter.WithAlignment(tw.MakeAlign(3, tw.AlignLeft)),
	)

	for _, c := range constraints {
		if err := table.Append([]string{c.Method, c.URLPattern, access(c)}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func access(c model.SecurityConstraint) string {
	switch {
	case c.IsOpen():
		return "open"
	case c.IsDenied():
		return "deny"
	default:
		return strings.Join(c.Roles, ",")
	}
}
