package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, os.Stderr)
			if err != nil {
				return err
			}
			web, err := a.web()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           web.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.store.Run(ctx, 0)
				return nil
			})
			g.Go(func() error {
				a.log.WithField("addr", cfg.HTTP.Addr).Info("listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	f := cmd.Flags()
	f.String("http-addr", ":8080", "listen address")
	f.Int("http-max-upload-mb", 20, "largest accepted upload in MiB")
	f.Int("image-display-width", 700, "width of the selection canvas in pixels")
	f.Duration("session-ttl", 30*time.Minute, "evict sessions idle this long")
	return cmd
}
