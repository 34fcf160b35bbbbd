// Package cmd implements the watchsim CLI, a stand-in for the watch app
// that drives the relay against a running phoned.
package cmd

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicebridge/watchlink/internal/logger"
	"github.com/voicebridge/watchlink/internal/relay"
	"github.com/voicebridge/watchlink/internal/transport"
)

var (
	peerURL    string
	deviceID   string
	sourceLang string
	targetLang string
	waitFor    time.Duration
)

var rootCmd = &cobra.Command{
	Use:  `watchsim`,
	Long: `watchsim simulates the watch side of the translation relay`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&peerURL, "peer", "ws://localhost:9040/relay", "phoned relay endpoint")
	rootCmd.PersistentFlags().StringVar(&deviceID, "device", "watchsim", "device id identifying this watch")
	rootCmd.PersistentFlags().StringVar(&sourceLang, "source", "en", "source language code")
	rootCmd.PersistentFlags().StringVar(&targetLang, "target", "es", "target language code")
	rootCmd.PersistentFlags().DurationVar(&waitFor, "wait", 30*time.Second, "how long to wait for a reply")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(creditsCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(statusCmd)
}

// connect dials phoned and blocks until the relay reports CONNECTED.
func connect() (*relay.Manager, error) {
	log := logger.NewWithLevel("warn")

	u, err := url.Parse(peerURL)
	if err != nil {
		return nil, fmt.Errorf("bad peer url: %w", err)
	}
	q := u.Query()
	q.Set("device", deviceID)
	u.RawQuery = q.Encode()

	session := transport.Dial(u.String(), log)
	manager := relay.NewManager(session, relay.Config{Logger: log})
	manager.Start()
	if err := manager.Activate(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		if manager.Snapshot().State == relay.StateConnected {
			return manager, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	_ = manager.Close()
	return nil, fmt.Errorf("could not reach phoned at %s", peerURL)
}
