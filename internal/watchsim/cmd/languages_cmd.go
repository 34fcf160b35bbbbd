package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages source target",
	Short: "sync the active language pair to the phone",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := connect()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer manager.Close()

		done := make(chan struct{})
		err = manager.SyncLanguages(args[0], args[1], func(err error) {
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			} else {
				fmt.Printf("language pair set to %s -> %s\n", args[0], args[1])
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
			fmt.Fprintln(os.Stderr, "timed out waiting for language sync ack")
			os.Exit(1)
		}
	},
}
