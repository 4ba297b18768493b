package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/subgemma/subtrans/internal/config"
	"github.com/subgemma/subtrans/internal/httpapi"
	"github.com/subgemma/subtrans/internal/jobs"
	"github.com/subgemma/subtrans/internal/llm"
	"github.com/subgemma/subtrans/internal/persistence"
	"github.com/subgemma/subtrans/internal/service"
	"github.com/subgemma/subtrans/internal/translator"
	"github.com/subgemma/subtrans/pkg/log"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subtrans",
		Short: "Batch subtitle and text translation through a local LLM endpoint",
		Long: `subtrans translates SRT subtitle and plain-text files in batches
through an Ollama or OpenAI-compatible endpoint, with forced Traditional
Chinese script normalization when the target language calls for it.

Configuration comes from environment variables (a .env file is honored).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newServeCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads .env when present and resolves the environment into the
// application configuration.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, err
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))
	return cfg, nil
}

// translatorFactory builds per-run translators against the configured
// endpoint. The run's model overrides the endpoint default when set.
func translatorFactory(llmCfg llm.Config) service.TranslatorFactory {
	return func(cfg service.RunConfiguration) (translator.Translator, error) {
		endpoint := llmCfg
		if cfg.Model != "" {
			endpoint.Model = cfg.Model
		}
		client, err := llm.NewClient(&endpoint)
		if err != nil {
			return nil, err
		}
		return translator.New(client, translator.Config{
			SourceLanguage: cfg.SourceLanguage,
			TargetLanguage: cfg.TargetLanguage,
			Style:          cfg.Style,
		}), nil
	}
}

func newRunCmd() *cobra.Command {
	var (
		inputRoot  string
		outputRoot string
		fileType   string
		targetLang string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Translate every matching file under the input root once, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if inputRoot != "" {
				cfg.Translate.InputRoot = inputRoot
			}
			if outputRoot != "" {
				cfg.Translate.OutputRoot = outputRoot
			}
			if fileType != "" {
				cfg.Translate.FileType = fileType
			}
			if targetLang != "" {
				cfg.Translate.TargetLanguage = targetLang
			}

			runCfg, err := cfg.RunConfiguration()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := service.NewRunner(translatorFactory(cfg.LLM))
			report, err := runner.Run(ctx, runCfg, func(p service.Progress) {
				if p.CurrentFile != "" {
					log.Debug("progress: %s batch %d/%d", p.CurrentFile, p.BatchesDone, p.BatchesTotal)
				}
			})
			if err != nil {
				return err
			}

			log.Info("run finished: %d translated, %d failed", report.Translated, report.Failed)
			for _, f := range report.Files {
				if f.Status == service.FileFailed {
					log.Error("  %s: %s", f.Path, f.Error)
				}
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", report.Failed, len(report.Files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputRoot, "input", "", "Input root directory (overrides INPUT_ROOT)")
	cmd.Flags().StringVar(&outputRoot, "output", "", "Output root directory (overrides OUTPUT_ROOT)")
	cmd.Flags().StringVar(&fileType, "file-type", "", "File type to translate, srt or txt (overrides FILE_TYPE)")
	cmd.Flags().StringVar(&targetLang, "target-language", "", "Target language label (overrides TARGET_LANGUAGE)")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled translation service with the status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runCfg, err := cfg.RunConfiguration()
			if err != nil {
				return err
			}

			store, err := persistence.NewSQLiteStore(cfg.Server.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			queue := jobs.NewQueue(store)
			factory := translatorFactory(cfg.LLM)
			queue.Start(func(ctx context.Context, job *jobs.RunJob, progress service.ProgressFunc) (*service.RunReport, error) {
				checkpoints, err := store.Checkpoints(ctx, job.ID)
				if err != nil {
					return nil, err
				}
				runner := service.NewRunner(factory).WithCheckpoints(checkpoints)
				return runner.Run(ctx, job.Config, progress)
			})

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(cfg.Translate.CronExpr, func() {
				job, created := queue.TriggerScheduled(runCfg)
				if created {
					log.Info("scheduled scan enqueued as %s", job.ID)
				}
			}); err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", cfg.Translate.CronExpr, err)
			}
			scheduler.Start()

			server := httpapi.NewServer(queue, runCfg)
			errCh := make(chan error, 1)
			go func() {
				log.Info("status API listening on %s", cfg.Server.HTTPAddr)
				errCh <- server.ListenAndServe(cfg.Server.HTTPAddr)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			<-scheduler.Stop().Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown: %v", err)
			}
			queue.Stop()
			return nil
		},
	}
}
