package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the relay connection state and link quality",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := connect()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer manager.Close()

		// Give the post-connect resync a moment to land.
		time.Sleep(500 * time.Millisecond)

		snap := manager.Snapshot()
		fmt.Printf("state:    %s\n", snap.State)
		if snap.StateReason != "" {
			fmt.Printf("reason:   %s\n", snap.StateReason)
		}
		fmt.Printf("quality:  %s\n", snap.Quality)
		if snap.AverageLatency > 0 {
			fmt.Printf("latency:  %s\n", snap.AverageLatency)
		}
		fmt.Printf("credits:  %d\n", snap.CreditsRemaining)
		fmt.Printf("queued:   %d\n", snap.QueuedMessages)
		fmt.Printf("pending:  %d\n", snap.PendingRequests)
	},
}
