package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/evanblasband/spectrum/internal/cache"
	"github.com/evanblasband/spectrum/internal/engine"
	"github.com/evanblasband/spectrum/internal/fetch"
	"github.com/evanblasband/spectrum/internal/search"
	"github.com/evanblasband/spectrum/pkg/ai"
	aiconfig "github.com/evanblasband/spectrum/pkg/ai/config"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	envConfigFile           = "SPECTRUM_CONFIG_FILE"
	defaultConfigFilePath   = "config/spectrum.json"
	alternateConfigFilePath = "bin/config/spectrum.json"

	defaultRequestTimeout = 3 * time.Minute
)

type appConfig struct {
	logLevel slog.Level

	providers aiconfig.Config

	gnewsAPIKey string

	cachePolicies map[cache.EntryType]cache.Policy

	fetcherUserAgent string
	fetcherTimeout   time.Duration

	maxConcurrentAnalyses int
	maxPoints             int
	retries               uint64
}

type fileConfig struct {
	LogLevel string               `json:"log_level"`
	AI       json.RawMessage      `json:"ai"`
	Cache    map[string]fileCache `json:"cache"`
	Fetcher  fileFetcherConfig    `json:"fetcher"`
	Search   fileSearchConfig     `json:"search"`
	Engine   fileEngineConfig     `json:"engine"`
}

type fileCache struct {
	TTL        string `json:"ttl"`
	MaxEntries *int   `json:"max_entries"`
}

type fileFetcherConfig struct {
	UserAgent string `json:"user_agent"`
	Timeout   string `json:"timeout"`
}

type fileSearchConfig struct {
	GNewsAPIKey    string `json:"gnews_api_key"`
	GNewsAPIKeyEnv string `json:"gnews_api_key_env"`
}

type fileEngineConfig struct {
	MaxConcurrentAnalyses *int    `json:"max_concurrent_analyses"`
	MaxPoints             *int    `json:"max_points"`
	Retries               *uint64 `json:"retries"`
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: spectrum <analyze|compare|related|health|cache-stats> [flags]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.logLevel}))
	slog.SetDefault(logger)

	analysisEngine, err := buildEngine(logger, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	switch command := args[0]; command {
	case "analyze":
		return runAnalyze(ctx, analysisEngine, args[1:])
	case "compare":
		return runCompare(ctx, analysisEngine, args[1:])
	case "related":
		return runRelated(ctx, analysisEngine, args[1:])
	case "health":
		return runHealth(ctx, analysisEngine)
	case "cache-stats":
		return printJSON(analysisEngine.CacheStats())
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runAnalyze(ctx context.Context, analysisEngine *engine.Engine, args []string) error {
	flags := flag.NewFlagSet("analyze", flag.ContinueOnError)
	forceRefresh := flags.Bool("force", false, "bypass the cached analysis")
	skipPoints := flags.Bool("no-points", false, "skip key point extraction")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: spectrum analyze [-force] [-no-points] <url>")
	}

	analysis, err := analysisEngine.Analyze(ctx, flags.Arg(0), spectrum.AnalyzeOptions{
		ForceRefresh:  *forceRefresh,
		IncludePoints: !*skipPoints,
	})
	if err != nil {
		return err
	}

	return printJSON(analysis)
}

func runCompare(ctx context.Context, analysisEngine *engine.Engine, args []string) error {
	flags := flag.NewFlagSet("compare", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 2 {
		return fmt.Errorf("usage: spectrum compare <url> <url> [url...]")
	}

	comparison, err := analysisEngine.CompareMany(ctx, flags.Args())
	if err != nil {
		return err
	}

	return printJSON(comparison)
}

func runRelated(ctx context.Context, analysisEngine *engine.Engine, args []string) error {
	flags := flag.NewFlagSet("related", flag.ContinueOnError)
	limit := flags.Int("limit", 10, "maximum related articles")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: spectrum related [-limit n] <url>")
	}

	related, err := analysisEngine.FindRelated(ctx, flags.Arg(0), *limit)
	if err != nil {
		return err
	}

	return printJSON(related)
}

func runHealth(ctx context.Context, analysisEngine *engine.Engine) error {
	if err := analysisEngine.Health(ctx); err != nil {
		return err
	}

	return printJSON(map[string]string{"status": "ok"})
}

func buildEngine(logger *slog.Logger, cfg appConfig) (*engine.Engine, error) {
	registry, err := ai.BuildRegistry(cfg.providers)
	if err != nil {
		return nil, err
	}
	provider, err := registry.Resolve(cfg.providers.DefaultProvider)
	if err != nil {
		return nil, err
	}

	fetcherOptions := []fetch.Option{fetch.WithLogger(logger)}
	if cfg.fetcherUserAgent != "" {
		fetcherOptions = append(fetcherOptions, fetch.WithUserAgent(cfg.fetcherUserAgent))
	}
	if cfg.fetcherTimeout > 0 {
		fetcherOptions = append(fetcherOptions, fetch.WithHTTPClient(newHTTPClient(cfg.fetcherTimeout)))
	}
	scraper := fetch.NewScraper(fetcherOptions...)

	storeOptions := make([]cache.Option, 0, len(cfg.cachePolicies))
	for entryType, policy := range cfg.cachePolicies {
		storeOptions = append(storeOptions, cache.WithPolicy(entryType, policy))
	}

	engineOptions := []engine.Option{
		engine.WithLogger(logger),
		engine.WithStore(cache.NewStore(storeOptions...)),
		engine.WithRetries(cfg.retries),
	}
	if cfg.maxConcurrentAnalyses > 0 {
		engineOptions = append(engineOptions, engine.WithMaxConcurrentAnalyses(cfg.maxConcurrentAnalyses))
	}
	if cfg.maxPoints > 0 {
		engineOptions = append(engineOptions, engine.WithMaxPoints(cfg.maxPoints))
	}
	if cfg.gnewsAPIKey != "" {
		searcher, err := search.NewGNewsClient(cfg.gnewsAPIKey, search.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		engineOptions = append(engineOptions, engine.WithSearcher(searcher))
	}

	return engine.New(provider, scraper, engineOptions...)
}

func loadConfig() (appConfig, error) {
	configFile, err := resolveConfigFilePath()
	if err != nil {
		return appConfig{}, err
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return appConfig{}, fmt.Errorf("read config file %s: %w", configFile, err)
	}

	var decoded fileConfig
	if err := json.Unmarshal(data, &decoded); err != nil {
		return appConfig{}, fmt.Errorf("parse config file %s: %w", configFile, err)
	}

	cfg, err := buildAppConfig(decoded)
	if err != nil {
		return appConfig{}, fmt.Errorf("validate config file %s: %w", configFile, err)
	}

	return cfg, nil
}

func buildAppConfig(decoded fileConfig) (appConfig, error) {
	cfg := appConfig{
		logLevel:      slog.LevelInfo,
		cachePolicies: make(map[cache.EntryType]cache.Policy),
	}

	if level := strings.TrimSpace(decoded.LogLevel); level != "" {
		if err := cfg.logLevel.UnmarshalText([]byte(level)); err != nil {
			return appConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
	}

	if len(decoded.AI) == 0 {
		return appConfig{}, fmt.Errorf("missing ai section")
	}
	providers, err := aiconfig.Parse(decoded.AI)
	if err != nil {
		return appConfig{}, err
	}
	cfg.providers = providers

	for name, entry := range decoded.Cache {
		policy, err := parseCachePolicy(entry)
		if err != nil {
			return appConfig{}, fmt.Errorf("parse cache.%s: %w", name, err)
		}
		cfg.cachePolicies[cache.EntryType(name)] = policy
	}

	cfg.fetcherUserAgent = strings.TrimSpace(decoded.Fetcher.UserAgent)
	if timeout := strings.TrimSpace(decoded.Fetcher.Timeout); timeout != "" {
		parsed, err := time.ParseDuration(timeout)
		if err != nil {
			return appConfig{}, fmt.Errorf("parse fetcher.timeout: %w", err)
		}
		cfg.fetcherTimeout = parsed
	}

	cfg.gnewsAPIKey = strings.TrimSpace(decoded.Search.GNewsAPIKey)
	if keyEnv := strings.TrimSpace(decoded.Search.GNewsAPIKeyEnv); keyEnv != "" {
		if fromEnv := strings.TrimSpace(os.Getenv(keyEnv)); fromEnv != "" {
			cfg.gnewsAPIKey = fromEnv
		}
	}

	if decoded.Engine.MaxConcurrentAnalyses != nil {
		cfg.maxConcurrentAnalyses = *decoded.Engine.MaxConcurrentAnalyses
	}
	if decoded.Engine.MaxPoints != nil {
		cfg.maxPoints = *decoded.Engine.MaxPoints
	}
	cfg.retries = 2
	if decoded.Engine.Retries != nil {
		cfg.retries = *decoded.Engine.Retries
	}

	return cfg, nil
}

func parseCachePolicy(entry fileCache) (cache.Policy, error) {
	policy := cache.Policy{}
	if ttl := strings.TrimSpace(entry.TTL); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return cache.Policy{}, fmt.Errorf("parse ttl: %w", err)
		}
		policy.TTL = parsed
	}
	if entry.MaxEntries != nil {
		policy.MaxEntries = *entry.MaxEntries
	}
	if policy.TTL <= 0 || policy.MaxEntries <= 0 {
		return cache.Policy{}, fmt.Errorf("ttl and max_entries must both be positive")
	}

	return policy, nil
}

func resolveConfigFilePath() (string, error) {
	if configFile := strings.TrimSpace(os.Getenv(envConfigFile)); configFile != "" {
		return configFile, nil
	}

	candidates := []string{defaultConfigFilePath, alternateConfigFilePath}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config file %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf(
		"config file not found; create %s or %s, or set %s",
		defaultConfigFilePath,
		alternateConfigFilePath,
		envConfigFile,
	)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
