package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/dobprotocol/doblink/cmd"
	"github.com/dobprotocol/doblink/internal/config"
	"github.com/dobprotocol/doblink/internal/hashgen"
	"github.com/dobprotocol/doblink/internal/repository"
	"github.com/dobprotocol/doblink/internal/services"
	"github.com/spf13/cobra"
)

var (
	tokenIDFlag  string
	scopeIDFlag  string
	themeFlag    string
	positionFlag string
	currencyFlag string
)

// CreateWidgetCmd represents the 'create-widget' command
var CreateWidgetCmd = &cobra.Command{
	Use:   "create-widget",
	Short: "Mints a new widget and prints its hash and embed snippet.",
	Long: `This command creates a widget for the given token and scope, mints its
hash and prints the embed artifacts a third-party page needs.

Example:
  doblink create-widget --token=SOL --scope=solar-project-001 --theme=dark`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if tokenIDFlag == "" || scopeIDFlag == "" {
			fmt.Println("Error: --token and --scope flags are required")
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
		widgetService := services.NewWidgetService(widgetRepo, hashgen.New(), cfg.Server.BaseURL, cfg.Server.ScriptURL)

		widget, err := widgetService.Create(services.CreateWidgetParams{
			TokenID:           tokenIDFlag,
			ScopeID:           scopeIDFlag,
			Theme:             themeFlag,
			Position:          positionFlag,
			PreferredCurrency: currencyFlag,
		})
		if err != nil {
			log.Fatalf("Failed to create widget: %v", err)
		}

		fmt.Printf("Widget created successfully:\n")
		fmt.Printf("Hash: %s\n", widget.Hash)
		fmt.Printf("Embed URL: %s\n", widget.EmbedURL)
		fmt.Printf("Embed snippet:\n%s\n", widget.EmbedCode)
	},
}

func init() {
	CreateWidgetCmd.Flags().StringVar(&tokenIDFlag, "token", "", "The token id the widget sells access to")
	CreateWidgetCmd.Flags().StringVar(&scopeIDFlag, "scope", "", "The owning project or liquidity pool id")
	CreateWidgetCmd.Flags().StringVar(&themeFlag, "theme", "", "Widget theme: light or dark")
	CreateWidgetCmd.Flags().StringVar(&positionFlag, "position", "", "Widget position: bottom-right, bottom-left, top-right, top-left")
	CreateWidgetCmd.Flags().StringVar(&currencyFlag, "currency", "", "Preferred display currency")

	CreateWidgetCmd.MarkFlagRequired("token")
	CreateWidgetCmd.MarkFlagRequired("scope")

	cmd.RootCmd.AddCommand(CreateWidgetCmd)
}
