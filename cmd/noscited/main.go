package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noscite/noscite-assistant/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "noscited",
		Short:         "Noscite assistant daemon and CLI",
		Long:          "Noscite assistant daemon for serving the chat and contact endpoints and managing the knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.KnowledgeCmd())
	rootCmd.AddCommand(admin.RoleCmd())
	rootCmd.AddCommand(admin.TokenCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
