package tara

import (
	"strings"
	"time"
)

type AppConfig struct {
	Env                       string `env:"APP_ENV,default=development"`
	SecretKey                 string `env:"SECRET_KEY,default=dev-secret-change-me"`
	AccessTokenExpiresMinutes int    `env:"ACCESS_TOKEN_EXPIRES_MINUTES,default=15"`
	RefreshTokenExpiresDays   int    `env:"REFRESH_TOKEN_EXPIRES_DAYS,default=30"`
	APIBaseURL                string `env:"API_BASE_URL,default=http://localhost:8000"`
	GoogleClientIDs           string `env:"GOOGLE_CLIENT_IDS"`
	DatabasePath              string `env:"DATABASE_PATH,default=tara.db"`
	SlackWebhookURL           string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel              string `env:"SLACK_CHANNEL,default=#tara"`
	AnalyzeJobTimeoutSeconds  int    `env:"ANALYZE_JOB_TIMEOUT_SECONDS,default=180"`
}

// ClientIDs splits GoogleClientIDs, dropping blanks.
func (c AppConfig) ClientIDs() []string {
	var ids []string
	for _, id := range strings.Split(c.GoogleClientIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c AppConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiresMinutes) * time.Minute
}

func (c AppConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiresDays) * 24 * time.Hour
}

type CompletionConfig struct {
	Backend       string        `env:"COMPLETION_BACKEND,default=openai"`
	Models        string        `env:"COMPLETION_MODELS,default=gpt-5.2;gpt-5-mini;gpt-4o"`
	Timeout       time.Duration `env:"COMPLETION_TIMEOUT,default=25s"`
	ProvidersFile string        `env:"COMPLETION_PROVIDERS_FILE,default=providers.yaml"`
	MaxTokens     int32         `env:"MAX_TOKENS,default=2048"`
	Temperature   float32       `env:"TEMPERATURE,default=0.2"`
	TopP          float32       `env:"TOP_P,default=0.9"`
}

// ModelList splits Models on ";" or ",".
func (c CompletionConfig) ModelList() []string {
	fields := strings.FieldsFunc(c.Models, func(r rune) bool { return r == ';' || r == ',' })
	models := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			models = append(models, f)
		}
	}
	return models
}

type FoodsConfig struct {
	Path     string `env:"FOODS_PATH,default=data/taco.jsonl"`
	S3Bucket string `env:"FOODS_S3_BUCKET"`
	S3Key    string `env:"FOODS_S3_KEY"`
}
