package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/palette"
)

// #region serve-feedback

func newServeFeedbackCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-feedback",
		Short: "Serve the local feedback hook over gRPC",
		Long: `Exposes the local feedback hook as the oneiric ApplyPolicy service so
other processes can use it as their remote feedback endpoint. Stops
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hook := feedback.NewLocalHook(palette.Default())
			return serveFeedback(ctx, lis, hook, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":50061", "listen address")
	return cmd
}

// serveFeedback serves hook on lis until ctx is done, then stops gracefully.
func serveFeedback(ctx context.Context, lis net.Listener, hook feedback.Hook, logger *zap.Logger) error {
	srv := grpc.NewServer()
	feedback.RegisterOneiricServer(srv, hook)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("feedback server listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("feedback server stopping")
		srv.GracefulStop()
		return nil
	})
	return g.Wait()
}

// #endregion serve-feedback
