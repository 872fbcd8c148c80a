package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradelab/crypto-risk-engine/internal/config"
	"github.com/tradelab/crypto-risk-engine/internal/engine"
	"github.com/tradelab/crypto-risk-engine/internal/logger"
	"github.com/tradelab/crypto-risk-engine/internal/monitoring"
	"github.com/tradelab/crypto-risk-engine/internal/notifications"
	"github.com/tradelab/crypto-risk-engine/internal/portfolio"
	"github.com/tradelab/crypto-risk-engine/internal/strategy"
	"github.com/tradelab/crypto-risk-engine/pkg/data"
	"github.com/tradelab/crypto-risk-engine/pkg/reporting"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file (e.g., btc_1h.json)")
		envFile    = flag.String("env", ".env", "Environment file path")
		reportPath = flag.String("report", "", "Write an Excel portfolio snapshot here on shutdown")
	)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Please specify a config file with -config flag")
	}

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), checking environment variables...", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	console := reporting.NewConsoleReporter(nil)
	console.PrintStartup(cfg)

	engineLog, err := logger.NewLogger("risk_engine", cfg.Engine.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer engineLog.Close()

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open position store: %v", err)
	}
	tracker := portfolio.NewTracker(cfg.Engine.InitialBalance, store)

	notifier := buildNotifier(cfg)
	if notifier != nil {
		if err := notifier.SendAlert(notifications.LevelInfo, fmt.Sprintf("Risk engine starting for %s", cfg.Engine.Symbol)); err != nil {
			log.Printf("Failed to send startup notification: %v", err)
		}
	}

	health := monitoring.NewHealthChecker()
	status := monitoring.NewStatusHandler()
	if cfg.Monitoring.Enabled {
		startMonitoringServers(cfg, health, status)
	}

	signals, err := strategy.NewEvaluator(cfg.Engine.Symbol, cfg.Strategy)
	if err != nil {
		log.Fatalf("Failed to initialize strategy: %v", err)
	}

	if cfg.Engine.DataFile == "" {
		log.Fatal("No data_file configured: the engine needs a candle series to replay")
	}
	warmup := cfg.Risk.VolatilityPeriod + 1
	market, err := data.LoadReplayMarket(cfg.Engine.DataFile, warmup)
	if err != nil {
		log.Fatalf("Failed to load market data from %s: %v", cfg.Engine.DataFile, err)
	}

	deps := engine.Deps{
		Market:   market,
		Signals:  signals,
		Store:    store,
		Tracker:  tracker,
		Logger:   engineLog,
		Notifier: notifier,
		Health:   health,
		Status:   status,
	}
	if !cfg.Engine.TestMode {
		// No exchange executor is wired in; decisions are recorded only.
		log.Println("Warning: no order executor configured, running with no-op execution")
		deps.Executor = engine.NoopExecutor{}
	}

	eng, err := engine.New(cfg, deps)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	if err := eng.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutdown signal received...")

	eng.Stop()
	health.SetRunning(false)

	if snapshot, err := tracker.Snapshot(); err != nil {
		log.Printf("Failed to snapshot portfolio: %v", err)
	} else {
		console.PrintPortfolio(snapshot)
		if *reportPath != "" {
			if err := reporting.NewExcelReporter().WriteSnapshot(snapshot, cfg.Risk.Limits, *reportPath); err != nil {
				log.Printf("Failed to write report: %v", err)
			} else {
				log.Printf("Report written to %s", *reportPath)
			}
		}
	}

	if notifier != nil {
		if err := notifier.SendAlert(notifications.LevelInfo, "Risk engine stopped"); err != nil {
			log.Printf("Failed to send shutdown notification: %v", err)
		}
	}
	fmt.Println("Engine stopped successfully")
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}

func buildStore(cfg *config.Config) (portfolio.Store, error) {
	if cfg.Engine.TestMode {
		return portfolio.NewMemoryStore(), nil
	}
	return portfolio.NewFileStore(cfg.Engine.StateFile)
}

func buildNotifier(cfg *config.Config) notifications.Notifier {
	nc := cfg.Notifications
	if nc == nil || !nc.Enabled {
		return nil
	}

	var channels []notifications.Notifier
	if nc.TelegramToken != "" && nc.TelegramChat != "" {
		channels = append(channels, notifications.NewTelegramNotifier(nc.TelegramToken, nc.TelegramChat))
	}
	if nc.EmailEnabled {
		channels = append(channels, notifications.NewEmailNotifier(
			nc.SMTPHost, nc.SMTPPort, nc.SMTPUser, nc.SMTPPassword, nc.EmailFrom, nc.EmailTo))
	}
	if len(channels) == 0 {
		return nil
	}
	return notifications.NewMultiNotifier(channels...)
}

func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker, status *monitoring.StatusHandler) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", monitoring.NewMetricsHandler())
	go serveHTTP(cfg.Monitoring.PrometheusPort, metricsMux, "metrics")

	healthMux := http.NewServeMux()
	healthMux.Handle("/health", health)
	healthMux.Handle("/status", status)
	go serveHTTP(cfg.Monitoring.HealthPort, healthMux, "health")
}

func serveHTTP(port int, handler http.Handler, name string) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("Serving %s endpoint on :%d", name, port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("%s server error: %v", name, err)
	}
}
