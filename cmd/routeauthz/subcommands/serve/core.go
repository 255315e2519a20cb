package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/chr1sbest/routeauthz/cmd/routeauthz/common"
	"github.com/chr1sbest/routeauthz/internal/inspect"
	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/sink"
)

var logger = logging.GetLogger("routeauthz.serve")

const shutdownTimeout = 5 * time.Second

// Execute computes the constraint table and serves it read-only until ctx
// is cancelled.
func Execute(ctx context.Context, cmd *cli.Command) error {
	s, err := common.Load(cmd, &sink.Log{Logger: logger})
	if err != nil {
		return err
	}
	if err := s.Initializer.Init(ctx); err != nil {
		return err
	}

	cfg, err := s.Compute()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cmd.String("addr"),
		Handler:           inspect.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("serving constraint table", "addr", srv.Addr, "application", cfg.Application)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
