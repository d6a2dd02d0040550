// calbolt is a calendar-booking chat assistant. It connects an LLM to a
// Cal.com account through a small set of scheduling tools and exposes the
// conversation over a terminal REPL, a REST API, or a web chat.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calbolt/calbolt/pkg/config"
	"github.com/calbolt/calbolt/pkg/httpapi"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "calbolt",
		Short: "Calendar-booking chat assistant",
		Long: `CalBolt is a chat assistant for managing your calendar through Cal.com.

It can book, list, cancel, and reschedule meetings, and check availability,
all through natural-language conversation.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: .calbolt.json)")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(webCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("calbolt %s\n", httpapi.Version)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Configuration OK\n")
			fmt.Printf("  Model:         %s (%s)\n", cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
			fmt.Printf("  Event type:    %d\n", cfg.Calcom.EventTypeID)
			fmt.Printf("  User:          %s\n", cfg.User.Email)
			fmt.Printf("  Timezone:      %s\n", cfg.User.Timezone)
			if cfg.Transcript.DatabaseURL != "" {
				fmt.Printf("  Transcripts:   postgres\n")
			} else {
				fmt.Printf("  Transcripts:   in-memory\n")
			}
			return nil
		},
	}
}

// loadConfig loads the configured file, or searches the default locations
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}
