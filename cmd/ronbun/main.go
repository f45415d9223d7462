// Package main is the ronbun CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hikari/ronbun/internal/config"
	"github.com/hikari/ronbun/internal/fetch"
	"github.com/hikari/ronbun/internal/markdown"
	"github.com/hikari/ronbun/internal/parse"
	"github.com/hikari/ronbun/internal/resolve"
	"github.com/hikari/ronbun/internal/server"
	"github.com/hikari/ronbun/internal/store"
	"github.com/hikari/ronbun/internal/syncer"
	"github.com/hikari/ronbun/internal/translate"
	"github.com/hikari/ronbun/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ronbun/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "ronbun server" from the project dir uses the project's
// config (including debug).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "resolve":
		runResolve()
	case "translate":
		runTranslate()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ronbun version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the wired processing pipeline.
type components struct {
	Layout     *store.Layout
	Durable    store.ObjectStore
	Ledger     *resolve.Ledger
	Translator *translate.Translator
	Resolver   *resolve.Resolver
}

// Close releases held resources.
func (c *components) Close() {
	if c.Ledger != nil {
		_ = c.Ledger.Close()
	}
	if c.Durable != nil {
		_ = c.Durable.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	layout := store.NewLayout(cfg.Storage.Namespace, cfg.Storage.LocalRoot)

	var durable store.ObjectStore
	if cfg.Storage.OSS.Enabled() {
		oss, err := store.NewOSSStore(
			cfg.Storage.OSS.Endpoint,
			cfg.Storage.OSS.AccessKeyID,
			cfg.Storage.OSS.AccessKeySecret,
			cfg.Storage.OSS.Bucket,
		)
		if err != nil {
			return nil, fmt.Errorf("durable store: %w", err)
		}
		durable = oss
		logger.Info("durable store enabled", zap.String("bucket", cfg.Storage.OSS.Bucket))
	} else {
		logger.Info("durable store not configured, local tier only")
	}

	var ledger *resolve.Ledger
	if cfg.Storage.LedgerPath != "" {
		l, err := resolve.NewLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
		ledger = l
	}

	fetcher := fetch.NewFetcher(
		layout,
		durable,
		cfg.Fetch.DirectURLTemplate,
		cfg.Fetch.LandingURLTemplate,
		cfg.Fetch.UserAgent,
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		logger,
	)
	parser := parse.NewParser(
		cfg.Parse.ServiceURL,
		time.Duration(cfg.Parse.TimeoutMinutes)*time.Minute,
		logger,
	)

	// An interface holding a typed nil would dodge the translator's
	// missing-capability check.
	var completer translate.Completer
	if c := translate.NewOpenAIClient(cfg.Translate); c != nil {
		completer = c
	} else {
		logger.Warn("no translation API key, translations will be placeholders")
	}
	translator := translate.NewTranslator(
		completer,
		cfg.Translate.MaxChars,
		time.Duration(cfg.Translate.TimeoutSeconds)*time.Second,
		logger,
	)

	resolver := resolve.NewResolver(
		layout,
		durable,
		fetcher,
		parser,
		translator,
		ledger,
		markdown.ParseStyle(cfg.Translate.Style),
		cfg.Translate.MinHeadingLevel,
		cfg.Translate.TargetLang,
		logger,
	)
	return &components{
		Layout:     layout,
		Durable:    durable,
		Ledger:     ledger,
		Translator: translator,
		Resolver:   resolver,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	syncCtx, syncCancel := context.WithCancel(context.Background())
	defer syncCancel()
	if cfg.Sync.Enabled && comps.Durable != nil {
		sync := syncer.New(comps.Layout, comps.Durable, 0, logger)
		if err := sync.Start(syncCtx); err != nil {
			logger.Fatal("Failed to start artifact sync", zap.Error(err))
		}
		defer sync.Stop()
	}

	srv := server.NewServer(comps.Resolver, comps.Translator, comps.Ledger, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	syncCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runResolve() {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	bilingual := fs.Bool("bilingual", true, "produce the bilingual rendition")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ronbun resolve [flags] <paper-id>")
		os.Exit(1)
	}
	paperID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer comps.Close()

	content, err := comps.Resolver.Resolve(context.Background(), paperID, *bilingual)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(content)
}

func runTranslate() {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	lang := fs.String("lang", "", "target language (default from config)")
	mock := fs.Bool("mock", false, "use placeholder translations")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ronbun translate [flags] <markdown-file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *lang != "" {
		cfg.Translate.TargetLang = *lang
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	var completer translate.Completer
	if !*mock {
		if c := translate.NewOpenAIClient(cfg.Translate); c != nil {
			completer = c
		}
	}
	translator := translate.NewTranslator(
		completer,
		cfg.Translate.MaxChars,
		time.Duration(cfg.Translate.TimeoutSeconds)*time.Second,
		logger,
	)
	chunks := markdown.Chunk(string(data), cfg.Translate.MinHeadingLevel)
	doc := translator.TranslateDocument(context.Background(), filepath.Base(path), cfg.Translate.TargetLang, chunks)
	fmt.Print(markdown.RenderBilingual(doc, markdown.ParseStyle(cfg.Translate.Style)))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
}

func printUsage() {
	fmt.Println(`ronbun - bilingual paper reader backend

Usage:
  ronbun server [-config path] [-debug]       Start the HTTP server
  ronbun resolve [-bilingual=false] <id>      Resolve a paper's content to stdout
  ronbun translate [-lang zh] [-mock] <file>  Translate a local Markdown file
  ronbun status [-server url]                 Show server status
  ronbun version                              Show version`)
}
