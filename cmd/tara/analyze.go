package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tara"
	"tara/analysis"
	"tara/calculator"
	"tara/prompt"
)

func analyzeCmd() *cobra.Command {
	var (
		menuFile, mealType, attemptLogDir string
		flags                             *profileFlags
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Recommend portions from a menu for one meal",
		Long: `Runs the menu analysis synchronously and prints the profile and the
recommendation as JSON. The menu is read from --menu-file, or stdin when
the file is "-".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			menu, err := readMenu(menuFile)
			if err != nil {
				return err
			}

			var completionCfg tara.CompletionConfig
			if err := decodeEnv(&completionCfg); err != nil {
				return err
			}

			logger, flush, err := newAttemptLogger(attemptLogDir, completionCfg.ModelList())
			if err != nil {
				return err
			}
			defer func() {
				if err := flush(); err != nil {
					slog.Error("Failed to flush attempt log", "error", err)
				}
			}()

			completer, err := newCompleter(ctx, completionCfg, logger)
			if err != nil {
				return err
			}

			db, err := openFoods(cmd)
			if err != nil {
				slog.Warn("SETUP: Food table unavailable, analysing without reference data", "error", err)
				db = nil
			}

			profile := calculator.Calculate(in)
			rec, err := newAnalyzer(completer, db).AnalyzeMenu(ctx, profile, menu, mealType)
			if err != nil {
				return err
			}
			return printJSON(analysis.Result{Profile: profile, Recommendation: rec})
		},
	}
	flags = addProfileFlags(cmd)
	cmd.Flags().StringVar(&menuFile, "menu-file", "", `menu text file, "-" for stdin`)
	cmd.Flags().StringVar(&mealType, "meal-type", prompt.DefaultMealType, "meal slot, e.g. almoco or jantar")
	cmd.Flags().StringVar(&attemptLogDir, "attempt-log", "", "directory for a JSON log of completion attempts")
	_ = cmd.MarkFlagRequired("menu-file")
	return cmd
}

func readMenu(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read menu: %w", err)
	}
	menu := strings.TrimSpace(string(data))
	if menu == "" {
		return "", errors.New("menu is empty")
	}
	return menu, nil
}

// newAttemptLogger writes attempts to a file under dir on flush, or discards
// them when dir is empty.
func newAttemptLogger(dir string, models []string) (tara.AttemptLogger, func() error, error) {
	if dir == "" {
		return tara.NewNoOpAttemptLogger(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	first := "default"
	if len(models) > 0 {
		first = models[0]
	}
	path := tara.NewAttemptLogFilePath(dir, first)
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	logger := tara.NewFileAttemptLogger(f)
	return logger, func() error {
		slog.Info("Attempt log written", "path", path)
		return errors.Join(logger.Flush(), f.Close())
	}, nil
}
