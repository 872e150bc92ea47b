package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cyberguard/config"
	"cyberguard/internal/hub"
	inputredis "cyberguard/internal/input/redis"
	"cyberguard/internal/intake"
	"cyberguard/internal/logger"
	"cyberguard/internal/metrics"
	"cyberguard/internal/notify"
	"cyberguard/internal/pipeline"
	"cyberguard/internal/rules"
	"cyberguard/internal/source"
	"cyberguard/internal/store"
	"cyberguard/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("cyberguard.yml"); err == nil {
		return "cyberguard.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "cyberguard.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "cyberguard.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.CyberGuard.Store.Backend == "" {
		cfg.CyberGuard.Store.Backend = "memory"
	}
	if cfg.CyberGuard.Store.CommitTimeout <= 0 {
		cfg.CyberGuard.Store.CommitTimeout = 5 * time.Second
	}
	if cfg.CyberGuard.Store.MemoryCapacity <= 0 {
		cfg.CyberGuard.Store.MemoryCapacity = 500
	}
	if cfg.CyberGuard.Store.Mongo.Database == "" {
		cfg.CyberGuard.Store.Mongo.Database = "cyberguard"
	}
	if cfg.CyberGuard.Store.Mongo.Collection == "" {
		cfg.CyberGuard.Store.Mongo.Collection = "threats"
	}
	if cfg.CyberGuard.Store.Redis.Addr == "" {
		cfg.CyberGuard.Store.Redis.Addr = "127.0.0.1:6379"
	}

	if cfg.CyberGuard.Hub.SubscriberBuffer <= 0 {
		cfg.CyberGuard.Hub.SubscriberBuffer = 16
	}

	if cfg.CyberGuard.Alerts.Transport == "" {
		cfg.CyberGuard.Alerts.Transport = "smtp"
	}
	if cfg.CyberGuard.Alerts.MinSeverity == "" {
		cfg.CyberGuard.Alerts.MinSeverity = string(models.SeverityLow)
	}
	if cfg.CyberGuard.Alerts.QueueSize <= 0 {
		cfg.CyberGuard.Alerts.QueueSize = 64
	}
	if cfg.CyberGuard.Alerts.SendTimeout <= 0 {
		cfg.CyberGuard.Alerts.SendTimeout = 10 * time.Second
	}
	if cfg.CyberGuard.Alerts.SMTP.Port == 0 {
		cfg.CyberGuard.Alerts.SMTP.Port = 587
	}

	if cfg.CyberGuard.Generator.MinInterval <= 0 {
		cfg.CyberGuard.Generator.MinInterval = 10 * time.Second
	}
	if cfg.CyberGuard.Generator.MaxInterval <= 0 {
		cfg.CyberGuard.Generator.MaxInterval = 30 * time.Second
	}

	if cfg.CyberGuard.Intake.Key == "" {
		cfg.CyberGuard.Intake.Key = "security_signals"
	}
	if cfg.CyberGuard.Intake.BlockTimeout <= 0 {
		cfg.CyberGuard.Intake.BlockTimeout = 5 * time.Second
	}
	if cfg.CyberGuard.Intake.Redis.Addr == "" {
		cfg.CyberGuard.Intake.Redis.Addr = "127.0.0.1:6379"
	}

	if cfg.CyberGuard.Metrics.Listen == "" {
		cfg.CyberGuard.Metrics.Listen = ":9090"
	}

	if cfg.CyberGuard.Logging.Level == "" {
		cfg.CyberGuard.Logging.Level = "info"
	}
}

func parseSeverity(raw string) models.Severity {
	switch models.Severity(strings.ToUpper(strings.TrimSpace(raw))) {
	case models.SeverityMedium:
		return models.SeverityMedium
	case models.SeverityHigh:
		return models.SeverityHigh
	case models.SeverityCritical:
		return models.SeverityCritical
	default:
		return models.SeverityLow
	}
}

func openDurable(ctx context.Context, cfg config.StoreConfig) store.Durable {
	switch cfg.Backend {
	case "mongo":
		durable, err := store.NewMongo(ctx, store.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Timeout:    cfg.CommitTimeout,
		})
		if err != nil {
			logger.Errorf("Failed to connect to MongoDB, starting degraded: %v", err)
			return nil
		}
		logger.Infof("Store backend: mongo (%s.%s)", cfg.Mongo.Database, cfg.Mongo.Collection)
		return durable
	case "redis":
		durable, err := store.NewRedis(ctx, store.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			logger.Errorf("Failed to connect to Redis, starting degraded: %v", err)
			return nil
		}
		logger.Infof("Store backend: redis (%s)", cfg.Redis.Addr)
		return durable
	default:
		logger.Infof("Store backend: memory")
		return nil
	}
}

func buildTransport(cfg config.AlertsConfig) notify.Transport {
	switch cfg.Transport {
	case "resend":
		return notify.NewResendTransport(notify.ResendConfig{
			APIKey: cfg.Resend.APIKey,
			From:   cfg.Resend.From,
		})
	default:
		return notify.NewSMTPTransport(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
}

func buildEngine(cfg config.RulesConfig) rules.Engine {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; rule tagging disabled")
		return nil
	}

	engine, stats, err := rules.NewSigmaEngine(cfg.Path)
	if err != nil {
		logger.Errorf("Failed to load detection rules from %s: %v", cfg.Path, err)
		log.Fatalf("Failed to load detection rules: %v", err)
	}
	logger.Infof("Detection rules loaded: loaded=%d skipped_complex=%d skipped_invalid=%d files=%d",
		stats.Loaded, stats.SkippedComplex, stats.SkippedInvalid, stats.TotalFiles)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible detection rules loaded; rule tagging is effectively disabled")
	}
	return engine
}

func loadConfig(args []string) *config.Config {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("No config file found; using defaults")
		cfg = &config.Config{}
		cfg.CyberGuard.Logging.Enabled = true
		cfg.CyberGuard.Logging.Console = true
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.CyberGuard.Logging.Enabled, cfg.CyberGuard.Logging.Level, cfg.CyberGuard.Logging.File, cfg.CyberGuard.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Infof("Config loaded from: %s", configPath)
	return cfg
}

func runServe(args []string) {
	cfg := loadConfig(args)
	logger.Infof("CyberGuard starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	durable := openDurable(ctx, cfg.CyberGuard.Store)
	st := store.New(store.Config{
		CommitTimeout:  cfg.CyberGuard.Store.CommitTimeout,
		MemoryCapacity: cfg.CyberGuard.Store.MemoryCapacity,
	}, durable)

	h := hub.New(cfg.CyberGuard.Hub.SubscriberBuffer)

	dispatcher := notify.NewDispatcher(notify.Config{
		Enabled:     cfg.CyberGuard.Alerts.Enabled,
		MinSeverity: parseSeverity(cfg.CyberGuard.Alerts.MinSeverity),
		QueueSize:   cfg.CyberGuard.Alerts.QueueSize,
		SendTimeout: cfg.CyberGuard.Alerts.SendTimeout,
		Recipient:   cfg.CyberGuard.Alerts.Recipient,
	}, buildTransport(cfg.CyberGuard.Alerts))

	pipe := pipeline.New(st, h, dispatcher, buildEngine(cfg.CyberGuard.Rules))

	if cfg.CyberGuard.Metrics.Enabled {
		logger.Infof("Metrics listening on %s", cfg.CyberGuard.Metrics.Listen)
		go metrics.Serve(cfg.CyberGuard.Metrics.Listen)
	}

	if cfg.CyberGuard.Generator.Enabled {
		gen := source.NewGenerator(source.GeneratorConfig{
			MinInterval: cfg.CyberGuard.Generator.MinInterval,
			MaxInterval: cfg.CyberGuard.Generator.MaxInterval,
		}, pipe)
		go gen.Run(ctx)
	}

	var consumer *inputredis.Consumer
	if cfg.CyberGuard.Intake.Enabled {
		var err error
		consumer, err = inputredis.NewConsumer(inputredis.Config{
			Addr:         cfg.CyberGuard.Intake.Redis.Addr,
			Password:     cfg.CyberGuard.Intake.Redis.Password,
			DB:           cfg.CyberGuard.Intake.Redis.DB,
			Key:          cfg.CyberGuard.Intake.Key,
			BlockTimeout: cfg.CyberGuard.Intake.BlockTimeout,
		})
		if err != nil {
			logger.Errorf("Failed to create signal consumer: %v", err)
			log.Fatalf("Failed to create signal consumer: %v", err)
		}
		go intake.NewRunner(consumer, pipe).Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for {
		sig := <-sigCh
		if sig == syscall.SIGHUP {
			// Reconnection is deliberate: operators send SIGHUP once the
			// durable backend is back.
			if err := st.Reconnect(ctx); err != nil {
				logger.Errorf("Reconnect failed: %v", err)
			}
			continue
		}
		break
	}

	logger.Infof("Shutting down")
	cancel()
	time.Sleep(1 * time.Second)

	dispatcher.Close()
	h.Close()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Errorf("Error closing signal consumer: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		logger.Errorf("Error closing store: %v", err)
	}

	logger.Infof("CyberGuard stopped")
}

func runReplay(args []string) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	input := fs.String("input", "capture/signals.jsonl", "Raw threat input JSONL path")
	configArg := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := loadConfig([]string{*configArg})

	ctx := context.Background()
	st := store.New(store.Config{
		CommitTimeout:  cfg.CyberGuard.Store.CommitTimeout,
		MemoryCapacity: cfg.CyberGuard.Store.MemoryCapacity,
	}, openDurable(ctx, cfg.CyberGuard.Store))
	h := hub.New(cfg.CyberGuard.Hub.SubscriberBuffer)
	dispatcher := notify.NewDispatcher(notify.Config{
		Enabled:     cfg.CyberGuard.Alerts.Enabled,
		MinSeverity: parseSeverity(cfg.CyberGuard.Alerts.MinSeverity),
		QueueSize:   cfg.CyberGuard.Alerts.QueueSize,
		SendTimeout: cfg.CyberGuard.Alerts.SendTimeout,
		Recipient:   cfg.CyberGuard.Alerts.Recipient,
	}, buildTransport(cfg.CyberGuard.Alerts))
	pipe := pipeline.New(st, h, dispatcher, buildEngine(cfg.CyberGuard.Rules))

	f, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open input: %v\n", err)
		return 1
	}
	defer f.Close()

	ingested := 0
	rejected := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var in pipeline.Input
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			rejected++
			continue
		}
		if _, err := pipe.Ingest(ctx, in); err != nil {
			rejected++
			continue
		}
		ingested++
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		return 1
	}

	dispatcher.Close()
	h.Close()

	fmt.Printf("replayed ingested=%d rejected=%d %s\n", ingested, rejected, replaySummary(ctx, pipe, st))
	return 0
}

// replaySummary reads the final counters and then releases the store. The
// reads come first: querying a closed backend fails and would report a
// degraded run that actually persisted fine.
func replaySummary(ctx context.Context, pipe *pipeline.Pipeline, st *store.Store) string {
	stats := pipe.Stats(ctx)
	mode := pipe.StorageMode()
	if err := st.Close(); err != nil {
		logger.Errorf("Error closing store: %v", err)
	}
	return fmt.Sprintf("total=%d critical=%d mode=%s", stats.Total, stats.Critical, mode)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "replay":
			os.Exit(runReplay(os.Args[2:]))
		default:
			// Backward-compatible mode: first arg is config path.
			runServe(os.Args[1:])
			return
		}
	}

	runServe(nil)
}
