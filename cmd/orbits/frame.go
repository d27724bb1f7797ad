package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/orbit-viz/internal/rpc"
)

func newFrameCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		watch   uint64
	)
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Fetch frames from a running server over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			defer conn.Close()
			client := rpc.NewClient(conn)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			enc := json.NewEncoder(cmd.OutOrStdout())

			if watch == 0 {
				frame, err := client.GetFrame(ctx)
				if err != nil {
					return err
				}
				enc.SetIndent("", "  ")
				return enc.Encode(frame)
			}

			frames, err := client.WatchFrames(ctx)
			if err != nil {
				return err
			}
			for i := uint64(0); i < watch; i++ {
				frame, err := frames.Recv()
				if err != nil {
					return err
				}
				if err := enc.Encode(frame); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC address of a running server")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall request timeout")
	cmd.Flags().Uint64Var(&watch, "watch", 0, "stream this many frames instead of fetching the latest one")
	return cmd
}
