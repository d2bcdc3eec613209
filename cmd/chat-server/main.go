/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for NeuronChat server
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cmd/chat-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neurondb/NeuronChat/internal/api"
	"github.com/neurondb/NeuronChat/internal/chat"
	"github.com/neurondb/NeuronChat/internal/collector"
	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/entity"
	"github.com/neurondb/NeuronChat/internal/federation"
	"github.com/neurondb/NeuronChat/internal/knowledge"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/routing"
	"github.com/neurondb/NeuronChat/internal/session"
	"github.com/neurondb/NeuronChat/internal/workflow"
	"github.com/neurondb/NeuronChat/pkg/neurondb"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion      = flag.Bool("version", false, "Show version information")
		showVersionShort = flag.Bool("v", false, "Show version information (short)")
		configPath       = flag.String("c", "", "Path to configuration file")
		configPathLong   = flag.String("config", "", "Path to configuration file")
		showHelp         = flag.Bool("help", false, "Show help message")
		showHelpShort    = flag.Bool("h", false, "Show help message (short)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "NeuronChat Server - conversational orchestration server for NeuronDB\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml     Start server with custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version          Show version information\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConfiguration:\n")
		fmt.Fprintf(os.Stderr, "  - Command line flag: -c or --config\n")
		fmt.Fprintf(os.Stderr, "  - Environment variable: CONFIG_PATH\n")
		fmt.Fprintf(os.Stderr, "  - Environment variables (see config package for details)\n")
	}
	flag.Parse()

	if *showVersion || *showVersionShort {
		fmt.Printf("neuronchat version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}
	if *showHelp || *showHelpShort {
		flag.Usage()
		os.Exit(0)
	}

	/* Load configuration */
	cfg := config.DefaultConfig()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}

	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v, using defaults\n", err)
			cfg = config.DefaultConfig()
		}
	} else {
		config.LoadFromEnv(cfg)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	database, err := db.NewDB(cfg.Database.ConnString(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Connection: host=%s port=%d user=%s dbname=%s\n",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
		os.Exit(1)
	}
	defer database.Close()

	/* Run migrations */
	if err := db.Migrate(context.Background(), database); err != nil {
		fmt.Printf("Warning: Migration failed: %v\n", err)
	}

	/* Initialize components */
	queries := db.NewQueries(database.DB)

	neurondbClient := neurondb.NewClient(database.DB)
	generator := llm.NewNeuronDBGenerator(neurondbClient.LLM, cfg.Routing.ClassifierModel, cfg.Routing.ClassifierTimeout)
	searcher := knowledge.NewNeuronDBSearcher(database.DB, cfg.Knowledge.EmbedModel)

	/* Session management */
	sessionCache := session.NewCache(cfg.Session.CacheTTL, cfg.Session.CacheSize)
	defer sessionCache.Stop()
	sessionStore := session.NewStore(queries, sessionCache, cfg.Session.TTL)
	sessionCleanup := session.NewCleanupService(queries, cfg.Session.CleanupInterval)
	sessionCleanup.Start()
	defer sessionCleanup.Stop()

	/* Workflow engine */
	entityStore := entity.NewSQLStore(database.DB, map[string]string{
		"customer": "neurondb_chat.customers",
		"invoice":  "neurondb_chat.invoices",
		"product":  "neurondb_chat.products",
	})
	workflowRegistry := workflow.NewRegistry()
	registerWorkflows(workflowRegistry, entityStore)
	engine := workflow.NewEngine(workflowRegistry, entityStore, cfg.Workflow)

	/* Federation */
	nodeRegistry := federation.NewSQLNodeRegistry(queries)
	forwarder := federation.NewHTTPForwarder(cfg.Federation.ForwardTimeout)
	policy := federation.NewRoutedSessionPolicy(nodeRegistry, generator, cfg.Federation)
	coordinator := federation.NewNodeRoutingCoordinator(nodeRegistry, generator, cfg.Federation)

	/* Collectors */
	collectorRegistry := collector.NewRegistry(nil)
	collectors := collector.NewExecutionCoordinator(collectorRegistry, engine, queries, nodeRegistry, forwarder)

	/* Router */
	intents := routing.NewIntentClassifier(cfg.Routing.MaxPositionalIndex)
	followUp := routing.NewFollowUpResolver(generator, intents, cfg.Routing)
	positional := routing.NewPositionalResolver(generator, intents, cfg.Routing)
	router := routing.NewRouter(intents, followUp, positional, generator,
		coordinator, policy, collectorRegistry, cfg.Routing, cfg.Federation)

	/* Orchestrator */
	orchestrator := chat.NewOrchestrator(sessionStore, router, engine, workflowRegistry,
		collectors, nodeRegistry, forwarder, searcher, generator, cfg)

	/* HTTP API */
	handlers := api.NewHandlers(orchestrator, sessionStore, queries, nodeRegistry, collectorRegistry, workflowRegistry)
	httpRouter := handlers.Routes(metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		fmt.Printf("Server starting on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed to start on %s: %v\n", addr, err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v\n", err)
	}

	fmt.Println("Server exited")
}
