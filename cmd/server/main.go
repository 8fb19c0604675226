// Command server runs the promptstream completion gateway.
//
// Configuration is loaded by pkg/config from defaults, .env files, a YAML
// file, and environment variables. The most common settings:
//
//	OPENAI_API_KEY         - API key for the hosted completion endpoint
//	OPENAI_BASE_URL        - Alternative OpenAI-compatible endpoint
//	PROMPTSTREAM_CONFIG    - Path to a YAML config file
//	PROMPTSTREAM_PORT      - Listen port (default: 8080)
//	PROMPTSTREAM_DEBUG     - Debug categories (providers,transport,streaming,config,all)
//	PROMPTSTREAM_LOG_LEVEL - TRACE, DEBUG, INFO, WARN, ERROR
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rhuss/promptstream/pkg/completion"
	"github.com/rhuss/promptstream/pkg/config"
	"github.com/rhuss/promptstream/pkg/debug"
	"github.com/rhuss/promptstream/pkg/provider/openai"
	transporthttp "github.com/rhuss/promptstream/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})
	debug.Log("config", "configuration loaded",
		"route", cfg.Completion.Route,
		"model", cfg.Completion.Model,
		"max_tokens", cfg.Completion.MaxTokens,
		"base_url", cfg.Provider.BaseURL,
		"stream_data", cfg.Completion.StreamDataEnabled,
	)

	// Create provider.
	prov, err := openai.New(openai.Config{
		BaseURL:      cfg.Provider.BaseURL,
		APIKey:       cfg.Provider.APIKey,
		Organization: cfg.Provider.Organization,
		Timeout:      cfg.Provider.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	defer prov.Close()

	checkBackend(prov)

	invoker := completion.New(prov, completion.Settings{
		Model:     cfg.Completion.Model,
		MaxTokens: cfg.Completion.MaxTokens,
	})

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithRoute(cfg.Completion.Route),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithStreamData(cfg.Completion.StreamDataValue()),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(slog.Default()),
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithMetrics(cfg.Observability.Metrics.Path))
	}

	slog.Info("completion gateway configured",
		"provider", prov.Name(),
		"model", cfg.Completion.Model,
		"max_tokens", cfg.Completion.MaxTokens,
		"route", cfg.Completion.Route,
	)

	return transporthttp.NewServer(invoker, opts...).ListenAndServe()
}

// checkBackend lists the backend's models once at startup. Failures are
// logged and do not stop the server.
func checkBackend(prov *openai.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := prov.ListModels(ctx)
	if err != nil {
		slog.Warn("backend model listing failed", "error", err)
		return
	}
	debug.Log("providers", "backend reachable", "models", len(models))
}
