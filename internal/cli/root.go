// Package cli holds the facelabel commands and builds the handles each one needs.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facelabel",
	Short: "Face extraction pipeline and labeling bot",
	Long: `facelabel detects faces in uploaded photos, crops each face into the faces
bucket and lets a human name them through a Telegram bot.

Stages:
  detect   find faces in a photo and queue one crop task per face
  crop     consume crop tasks and store the face objects
  serve    Telegram webhook, storage event trigger and image routes`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
}
