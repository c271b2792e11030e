package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/notesweb/core/cmd/notesweb/commands"
)

// @title Notesweb
// @version 1.0
// @description Serves a directory of markdown notes as HTML pages

// @host localhost:8080
// @BasePath /

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "notesweb",
		Short:        "Markdown notes web server",
		Long:         `notesweb renders a directory tree of markdown notes to HTML and serves them with an index page and static assets.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./notesweb.yaml)")

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand(&configFile))
	rootCmd.AddCommand(commands.NewListCommand(&configFile))
	rootCmd.AddCommand(commands.NewRenderCommand(&configFile))
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
