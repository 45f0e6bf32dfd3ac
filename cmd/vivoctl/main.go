// Command vivoctl replays recorded detector streams through a session and
// scores embeddings offline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vivo/internal/api/handler"
)

var rootCmd = &cobra.Command{
	Use:           "vivoctl",
	Short:         "Offline tools for liveness sessions",
	Version:       handler.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(newReplayCmd(), newCompareCmd(), newVerifySignatureCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
