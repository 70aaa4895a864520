package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/patronus-pay/patronus/internal/account"
	"github.com/patronus-pay/patronus/internal/assets"
	"github.com/patronus-pay/patronus/internal/config"
	"github.com/patronus-pay/patronus/internal/http_api"
	"github.com/patronus-pay/patronus/internal/notificator"
	"github.com/patronus-pay/patronus/internal/patronus"
	"github.com/patronus-pay/patronus/internal/repository"
	"github.com/patronus-pay/patronus/internal/transfer"
	"github.com/patronus-pay/patronus/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "patronus",
		Usage: "Patronus is a sponsored transfer relay service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "node-url", Aliases: []string{"n"}, Usage: "Chain node RPC URL"},
			&cli.StringFlag{Name: "bundler-url", Aliases: []string{"b"}, Usage: "ERC-4337 bundler RPC URL"},
			&cli.StringFlag{Name: "paymaster-url", Aliases: []string{"m"}, Usage: "Paymaster sponsorship RPC URL"},
			&cli.StringFlag{Name: "account-address", Aliases: []string{"a"}, Usage: "Sponsored smart account address"},
			&cli.StringFlag{Name: "chain-id", Aliases: []string{"c"}, Usage: "Chain ID"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("node-url") {
		cfg.NodeURL = c.String("node-url")
	}
	if c.IsSet("bundler-url") {
		cfg.BundlerURL = c.String("bundler-url")
	}
	if c.IsSet("paymaster-url") {
		cfg.PaymasterURL = c.String("paymaster-url")
	}
	if c.IsSet("account-address") {
		cfg.AccountAddress = c.String("account-address")
	}
	if c.IsSet("chain-id") {
		chainID, ok := new(big.Int).SetString(c.String("chain-id"), 10)
		if ok {
			cfg.ChainID = chainID
		}
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log.Named("repository"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Initialize the account client
	bundler := account.NewBundler(cfg, log.Named("account"))
	if err := bundler.Run(); err != nil {
		return fmt.Errorf("failed to start account client: %v", err)
	}
	defer bundler.Close()

	// Initialize the asset registry
	registry, err := assets.NewRegistry(cfg, log.Named("assets"))
	if err != nil {
		return fmt.Errorf("failed to build asset registry: %v", err)
	}

	// Initialize operator notifications
	var telNotif *notificator.TelegramNotificator
	if cfg.TelegramBotToken != "" {
		telNotif, err = notificator.NewTelegramNotificator(log, cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("failed to start telegram notificator: %v", err)
		}
	}
	var emailNotif *notificator.EmailNotificator
	if cfg.SMTPHost != "" {
		emailNotif = notificator.NewEmailNotificator(log, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender)
	}
	notif := notificator.NewNotificator(log.Named("notificator"), telNotif, emailNotif, cfg.OperatorChatID, cfg.OperatorEmail)

	// Create Patronus instance
	submitter := transfer.NewSubmitter(registry, cfg.ExplorerBase(), log.Named("transfer"))
	patronusApp := patronus.NewPatronus(db, bundler, registry, submitter, notif, log.Named("patronus"))
	patronusApp.Start()
	defer patronusApp.Stop()

	apiServer := http_api.NewHTTPServer(patronusApp, cfg.APIPort, cfg.AccountAddress, log.Named("api"))
	go apiServer.Start()

	// Wait for a termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	return apiServer.Stop(context.Background())
}
