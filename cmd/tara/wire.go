package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"tara"
	"tara/analysis"
	"tara/completion"
	"tara/completion/bedrock"
	"tara/completion/mock"
	"tara/completion/openai"
	"tara/foods"
	"tara/foods/source"
	"tara/prompt"
)

// newCompleter builds the fallback client over the configured backend and
// wraps it with the global tracer and meter providers.
func newCompleter(ctx context.Context, cfg tara.CompletionConfig, logger tara.AttemptLogger) (*completion.InstrumentedClient, error) {
	var (
		backend   completion.Backend
		providers []string
	)
	switch cfg.Backend {
	case "openai":
		catalog, err := openai.LoadCatalog(cfg.ProvidersFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Info("SETUP: No providers file, using the default catalog", "path", cfg.ProvidersFile)
			catalog = openai.DefaultCatalog()
		case err != nil:
			return nil, fmt.Errorf("load providers: %w", err)
		}
		backend = openai.NewBackend(&http.Client{Timeout: cfg.Timeout}, catalog, openai.Options{
			MaxTokens:   int(cfg.MaxTokens),
			Temperature: float64(cfg.Temperature),
			TopP:        float64(cfg.TopP),
		})
		providers = catalog.Names()
	case "bedrock":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		backend = bedrock.NewBackend(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		})
		providers = []string{"bedrock"}
	case "mock":
		backend = mock.NewBackend()
		providers = []string{"mock"}
	default:
		return nil, fmt.Errorf("unknown completion backend %q (want openai, bedrock or mock)", cfg.Backend)
	}

	client := completion.NewClient(backend, completion.Options{
		Models:    cfg.ModelList(),
		Providers: providers,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	})
	slog.Info("SETUP: Completion client ready", "backend", cfg.Backend, "models", client.Models(), "providers", providers)
	return completion.NewInstrumentedClient(client, otel.GetTracerProvider(), otel.GetMeterProvider())
}

// loadFoods reads the food table from S3 when a bucket is configured and from
// disk otherwise. The --foods flag wins over both.
func loadFoods(ctx context.Context, cfg tara.FoodsConfig) (*foods.DB, error) {
	var src source.Source
	switch path := viper.GetString("foods"); {
	case path != "":
		src = source.NewFileSource(path)
	case cfg.S3Bucket != "":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		src = source.NewS3Source(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key)
	default:
		src = source.NewFileSource(cfg.Path)
	}
	return foods.Load(ctx, src)
}

// newAnalyzer grounds prompts in db when it loaded.
func newAnalyzer(c analysis.Completer, db *foods.DB) *analysis.Analyzer {
	var lookup prompt.FoodLookup
	if db != nil {
		lookup = db
	}
	return analysis.New(c, lookup)
}
