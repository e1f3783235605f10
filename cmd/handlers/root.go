/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsforge/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsforge",
		Short: "Newsforge turns raw news feeds into verified, published articles.",
		Long: `Newsforge is an automated news production pipeline.

It fetches headlines from NewsAPI, the Guardian, and the New York Times,
deduplicates and ranks them into candidate topics, then outlines, drafts,
polishes, and verifies articles with Gemini before publishing.

Typical usage:
  # Full daily run
  newsforge run

  # Fetch and rank only, inspect before generating
  newsforge run --stop-after-ranking

  # Preview what a run would do
  newsforge run --dry-run`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newsforge.yaml)")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewFetchCmd())
	rootCmd.AddCommand(NewRankCmd())
	rootCmd.AddCommand(NewCleanupCmd())
	rootCmd.AddCommand(NewStatsCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
