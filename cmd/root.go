package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/dobprotocol/doblink/internal/config"
	"github.com/spf13/cobra"
)

// Cfg is the global variable that will contain the loaded configuration.
// It is accessible to all Cobra commands throughout the application.
var Cfg *config.Config

// RootCmd is the base command for the CLI application. All other commands
// (run-server, create-widget, stats, migrate, seed) are added as
// subcommands from their own packages.
var RootCmd = &cobra.Command{
	Use:   "doblink",
	Short: "DOB Link widget and analytics backend",
	Long: `DOB Link lets projects mint embeddable investment widgets, distribute
them via a hash-addressed embed snippet, and track the analytics events
(views, sales, wallet connects) those embeds generate.`,
}

// Execute is the main entry point for the Cobra application. It is called
// from main and handles command execution and error handling.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Commands register themselves on RootCmd via their own init()
	// functions; only configuration loading is hooked here.
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration before any command runs.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
