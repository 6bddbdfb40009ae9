package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel"

	"tara"
	"tara/analysis"
	"tara/calculator"
	"tara/completion"
	"tara/completion/bedrock"
	"tara/foods"
	"tara/foods/source"
	"tara/prompt"
)

type Params struct {
	Profile  calculator.Input `json:"profile"`
	MenuText string           `json:"menu_text"`
	MealType string           `json:"meal_type"`
}

func main() {
	fn := func(ctx context.Context, params Params) (analysis.Result, error) {
		in := params.Profile.WithDefaults()
		if err := in.Validate(); err != nil {
			return analysis.Result{}, err
		}
		menu := strings.TrimSpace(params.MenuText)
		if menu == "" {
			return analysis.Result{}, errors.New("menu_text is required")
		}
		mealType := params.MealType
		if mealType == "" {
			mealType = prompt.DefaultMealType
		}

		var completionCfg tara.CompletionConfig
		if err := decodeEnv(&completionCfg); err != nil {
			return analysis.Result{}, err
		}
		var foodsCfg tara.FoodsConfig
		if err := decodeEnv(&foodsCfg); err != nil {
			return analysis.Result{}, err
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return analysis.Result{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		telemetry, err := tara.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return analysis.Result{}, err
		}
		if telemetry != nil {
			defer func() {
				if err := telemetry.Shutdown(ctx); err != nil {
					slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
				}
			}()
		}

		var lookup prompt.FoodLookup
		if db, err := loadFoods(ctx, awsCfg, foodsCfg); err != nil {
			slog.Warn("SETUP: Food table unavailable, analysing without reference data", "error", err)
		} else {
			lookup = db
		}

		backend := bedrock.NewBackend(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			MaxTokens:   completionCfg.MaxTokens,
			Temperature: completionCfg.Temperature,
			TopP:        completionCfg.TopP,
		})
		client := completion.NewClient(backend, completion.Options{
			Models:    completionCfg.ModelList(),
			Providers: []string{"bedrock"},
			Timeout:   completionCfg.Timeout,
			Logger:    tara.NewStdoutAttemptLogger(),
		})
		completer, err := completion.NewInstrumentedClient(client, otel.GetTracerProvider(), otel.GetMeterProvider())
		if err != nil {
			return analysis.Result{}, err
		}

		profile := calculator.Calculate(in)
		rec, err := analysis.New(completer, lookup).AnalyzeMenu(ctx, profile, menu, mealType)
		if err != nil {
			slog.Error("RESULT: Error analysing menu", "error", err)
			return analysis.Result{}, err
		}
		return analysis.Result{Profile: profile, Recommendation: rec}, nil
	}

	lambda.Start(fn)
}

func loadFoods(ctx context.Context, awsCfg aws.Config, cfg tara.FoodsConfig) (*foods.DB, error) {
	if cfg.S3Bucket == "" || cfg.S3Key == "" {
		return nil, errors.New("missing S3 config: FOODS_S3_BUCKET and FOODS_S3_KEY must be set")
	}
	return foods.Load(ctx, source.NewS3Source(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Key))
}

func decodeEnv(v any) error {
	if err := envdecode.Decode(v); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}
