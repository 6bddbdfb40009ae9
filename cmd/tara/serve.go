package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tara"
	"tara/auth"
	"tara/foods"
	"tara/jobs"
	"tara/server"
	"tara/slack"
	"tara/store"
	"tara/tools"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var appCfg tara.AppConfig
			if err := decodeEnv(&appCfg); err != nil {
				return err
			}
			var completionCfg tara.CompletionConfig
			if err := decodeEnv(&completionCfg); err != nil {
				return err
			}
			var foodsCfg tara.FoodsConfig
			if err := decodeEnv(&foodsCfg); err != nil {
				return err
			}

			telemetry, err := tara.InitOtel(ctx)
			if err != nil {
				return err
			}
			if telemetry != nil {
				defer func() {
					if err := telemetry.Shutdown(context.Background()); err != nil {
						slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
					}
				}()
			}

			st, err := store.Open(appCfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			completer, err := newCompleter(ctx, completionCfg, tara.NewStdoutAttemptLogger())
			if err != nil {
				return err
			}

			var registry *tools.Registry
			db, err := loadFoods(ctx, foodsCfg)
			if err != nil {
				slog.Warn("SETUP: Food table unavailable, serving without tools or reference data", "error", err)
				db = nil
			} else {
				registry = tools.NewRegistry(db)
			}

			trackerOpts := jobs.Options{}
			if appCfg.SlackWebhookURL != "" {
				notifier := slack.NewNotifier(slack.NewClient(appCfg.SlackWebhookURL, http.DefaultClient), appCfg.SlackChannel)
				trackerOpts.OnFinish = notifier.Notify
			}
			tracker := jobs.New(trackerOpts)

			verifier := auth.NewDevVerifier(appCfg.SecretKey, appCfg.ClientIDs())
			issuer := auth.NewIssuer(appCfg.SecretKey, appCfg.AccessTokenTTL())

			handler, err := server.New(server.Config{
				Auth:           auth.NewService(verifier, issuer, st, appCfg.RefreshTokenTTL()),
				Store:          st,
				Jobs:           tracker,
				Analyzer:       newAnalyzer(completer, db),
				Tools:          registry,
				BasePath:       basePath,
				AnalyzeTimeout: time.Duration(appCfg.AnalyzeJobTimeoutSeconds) * time.Second,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			slog.Info("SERVER: Listening", "addr", addr, "base_path", basePath, "env", appCfg.Env, "foods", foodsCount(db))

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("SERVER: Shutdown failed", "error", err)
			}
			if err := tracker.Wait(shutdownCtx); err != nil {
				slog.Warn("SERVER: Jobs still running at shutdown", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", server.DefaultBasePath, "API base path")
	return cmd
}

func foodsCount(db *foods.DB) int {
	if db == nil {
		return 0
	}
	return db.Len()
}
