package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicebridge/watchlink/internal/protocol"
)

var sendCmd = &cobra.Command{
	Use:   "send \"text to translate\"",
	Short: "relay one utterance to the phone and print the translation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := connect()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer manager.Close()

		type outcome struct {
			res *protocol.TranslationResponse
			err error
		}
		done := make(chan outcome, 1)

		err = manager.SendTranslationRequest(&protocol.TranslationRequest{
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Text:       args[0],
		}, func(res *protocol.TranslationResponse, err error) {
			done <- outcome{res: res, err: err}
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		select {
		case out := <-done:
			if out.err != nil {
				fmt.Fprintln(os.Stderr, out.err)
				os.Exit(1)
			}
			if out.res.Err != "" {
				fmt.Fprintf(os.Stderr, "phone reported: %s\n", out.res.Err)
				os.Exit(1)
			}
			fmt.Println(out.res.TranslatedText)
			fmt.Printf("credits remaining: %d\n", out.res.CreditsRemaining)
		case <-time.After(waitFor):
			fmt.Fprintln(os.Stderr, "timed out waiting for translation")
			os.Exit(1)
		}
	},
}
