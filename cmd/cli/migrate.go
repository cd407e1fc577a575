package cli

import (
	"fmt"
	"log"

	"github.com/dobprotocol/doblink/cmd"
	"github.com/dobprotocol/doblink/internal/config"
	"github.com/spf13/cobra"
)

// MigrateCmd represents the 'migrate' command
// This command handles database schema creation and updates
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite)
and executes GORM automatic migrations to create the 'liquidity_pools',
'token_metrics', 'widgets' and 'widget_analytics' tables based on the Go models.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		// Load configuration to get database connection settings
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// openDatabase runs the GORM automatic migrations as part of
		// opening the connection, so nothing else is needed here.
		db, err := openDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	// Register this command with the root command so it can be executed via CLI
	cmd.RootCmd.AddCommand(MigrateCmd)
}
