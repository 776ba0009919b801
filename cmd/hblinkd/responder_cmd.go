// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ManuGH/hblink/internal/heartbeat"
	"github.com/spf13/cobra"
)

func newResponderCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "responder",
		Short: "Run a UDP heartbeat echo server",
		Long:  "Run the server side of the heartbeat link. Useful for local testing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r, err := heartbeat.Listen(listen)
			if err != nil {
				return err
			}
			return r.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8363", "UDP listen address")
	return cmd
}
