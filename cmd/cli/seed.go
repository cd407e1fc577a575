package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/dobprotocol/doblink/cmd"
	"github.com/dobprotocol/doblink/internal/config"
	"github.com/dobprotocol/doblink/internal/hashgen"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/repository"
	"github.com/dobprotocol/doblink/internal/services"
	"github.com/spf13/cobra"
)

// SeedCmd represents the 'seed' command
var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populates the database with sample pools, widgets and events.",
	Long: `This command inserts a small set of sample liquidity pools, widgets and
analytics events so the API and dashboard have data to show during development.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
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
		poolRepo := repository.NewPoolRepository(db)

		widgetService := services.NewWidgetService(widgetRepo, hashgen.New(), cfg.Server.BaseURL, cfg.Server.ScriptURL)
		analyticsService := services.NewAnalyticsService(widgetRepo, eventRepo)
		poolService := services.NewPoolService(poolRepo)

		fmt.Println("Seeding database...")

		pools := []*models.LiquidityPool{
			{
				Name:           "Solar Farm Alpha",
				Description:    "Tokenized solar installation in northern Chile",
				TokenSymbol:    "SOLA",
				TokenAddress:   "0x1111111111111111111111111111111111111111",
				LPAddress:      "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				Network:        "base",
				WalletAddress:  "0x2222222222222222222222222222222222222222",
				TotalLiquidity: 250000,
				APY:            8.4,
				MinInvestment:  100,
				MaxInvestment:  50000,
			},
			{
				Name:           "Wind Park Beta",
				Description:    "Coastal wind park revenue pool",
				TokenSymbol:    "WNDB",
				TokenAddress:   "0x3333333333333333333333333333333333333333",
				LPAddress:      "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				Network:        "base",
				WalletAddress:  "0x4444444444444444444444444444444444444444",
				TotalLiquidity: 120000,
				APY:            6.1,
				MinInvestment:  50,
				MaxInvestment:  20000,
			},
		}

		for _, pool := range pools {
			created, err := poolService.Create(pool)
			if err != nil {
				log.Fatalf("Failed to seed pool '%s': %v", pool.Name, err)
			}

			if _, err := poolService.RecordMetric(&models.TokenMetric{
				LPID:              created.ID,
				PriceUSD:          1.27,
				MarketCap:         317500,
				Volume24h:         15400,
				CirculatingSupply: 250000,
				TotalSupply:       500000,
				PriceChange24h:    2.3,
				VolumeChange24h:   -1.1,
			}); err != nil {
				log.Fatalf("Failed to seed metric for pool '%s': %v", pool.Name, err)
			}

			widget, err := widgetService.Create(services.CreateWidgetParams{
				TokenID:           pool.TokenSymbol,
				ScopeID:           created.ID,
				Theme:             models.ThemeDark,
				Position:          models.PositionBottomRight,
				PreferredCurrency: "USD",
			})
			if err != nil {
				log.Fatalf("Failed to seed widget for pool '%s': %v", pool.Name, err)
			}

			events := []models.EventMessage{
				{WidgetHash: widget.Hash, EventType: models.EventTypeEmbed, Domain: "investor.example.com", UserAgent: "seed"},
				{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "investor.example.com", UserAgent: "seed"},
				{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "investor.example.com", UserAgent: "seed"},
				{WidgetHash: widget.Hash, EventType: models.EventTypeWalletConnect, Domain: "investor.example.com", UserAgent: "seed"},
				{WidgetHash: widget.Hash, EventType: models.EventTypeSale, Domain: "investor.example.com", UserAgent: "seed", Amount: 125.50, Currency: "USD"},
			}
			for _, msg := range events {
				msg.Timestamp = time.Now()
				if _, err := analyticsService.Record(msg); err != nil {
					log.Fatalf("Failed to seed event for widget '%s': %v", widget.Hash, err)
				}
			}

			fmt.Printf("Seeded pool '%s' with widget %s\n", pool.Name, widget.Hash)
		}

		fmt.Println("Database seeded successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(SeedCmd)
}
