package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dobprotocol/doblink/cmd"
	"github.com/dobprotocol/doblink/internal/config"
	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/repository"
	"github.com/dobprotocol/doblink/internal/services"
	"github.com/spf13/cobra"
)

// StatsCmd represents the 'stats' command
var StatsCmd = &cobra.Command{
	Use:   "stats [widget-hash]",
	Short: "Get analytics counters for a widget",
	Long:  `Prints the aggregated analytics counters and the total number of recorded events for the given widget hash.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
	cmd.RootCmd.AddCommand(DashboardCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	hash := args[0]

	if hash == "" {
		fmt.Println("Error: widget hash is required")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
	}
	defer sqlDB.Close()

	widgetRepo := repository.NewWidgetRepository(db)
	eventRepo := repository.NewEventRepository(db)
	analyticsService := services.NewAnalyticsService(widgetRepo, eventRepo)

	widget, totalEvents, err := analyticsService.WidgetStats(hash)
	if err != nil {
		if errors.Is(err, customerrors.ErrWidgetNotFound) {
			fmt.Printf("Error: widget '%s' not found\n", hash)
		} else {
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Statistics for widget: %s\n", hash)
	fmt.Printf("Token: %s (scope %s)\n", widget.TokenID, widget.ScopeID)
	fmt.Printf("Views: %d\n", widget.Views)
	fmt.Printf("Tokens sold: %d\n", widget.TokensSold)
	fmt.Printf("Revenue: %.2f %s\n", widget.Revenue, widget.PreferredCurrency)
	fmt.Printf("Conversions: %.2f%%\n", widget.Conversions)
	fmt.Printf("Total events: %d\n", totalEvents)
	fmt.Printf("Last updated: %s\n", widget.LastUpdated.Format("2006-01-02 15:04:05"))
}

// DashboardCmd represents the 'dashboard' command
var DashboardCmd = &cobra.Command{
	Use:   "dashboard [scope-id]",
	Short: "Print the aggregated dashboard rollup",
	Long:  `Sums the analytics counters across every widget, or across the widgets of one scope when a scope id is given.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cobraCmd *cobra.Command, args []string) {
		scopeID := ""
		if len(args) == 1 {
			scopeID = args[0]
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := openDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		widgetRepo := repository.NewWidgetRepository(db)
		eventRepo := repository.NewEventRepository(db)
		analyticsService := services.NewAnalyticsService(widgetRepo, eventRepo)

		rollup, err := analyticsService.Rollup(scopeID)
		if err != nil {
			log.Fatalf("Failed to compute rollup: %v", err)
		}

		if scopeID == "" {
			fmt.Println("Dashboard rollup (all scopes)")
		} else {
			fmt.Printf("Dashboard rollup for scope: %s\n", scopeID)
		}
		fmt.Printf("Widgets: %d\n", rollup.Widgets)
		fmt.Printf("Active links: %d\n", rollup.ActiveLinks)
		fmt.Printf("Views: %d\n", rollup.Views)
		fmt.Printf("Tokens sold: %d\n", rollup.TokensSold)
		fmt.Printf("Revenue: %.2f\n", rollup.Revenue)
	},
}
