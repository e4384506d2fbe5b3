package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facecam",
	Short: "Records a camera in rotating sessions and saves deduplicated face crops",
	Long: `facecam captures frames from a camera, detects faces with a Haar cascade,
saves one crop per screen region and cooldown window, draws a status overlay
and writes the annotated stream to time-boxed video files.

Settings come from the environment (optionally a .env file); flags override them.`,
	SilenceUsage: true,
}

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
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
