package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "ask the phone for the remaining translation credits",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := connect()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer manager.Close()

		done := make(chan struct{})
		err = manager.RequestCreditsUpdate(func(remaining int64, err error) {
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			} else {
				fmt.Printf("credits remaining: %d\n", remaining)
			}
			close(done)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		select {
		case <-done:
		case <-time.After(waitFor):
			fmt.Fprintln(os.Stderr, "timed out waiting for credits")
			os.Exit(1)
		}
	},
}
