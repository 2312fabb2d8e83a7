package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/karne/internal/cache"
	"github.com/pavelanni/karne/internal/handler"
	appI18n "github.com/pavelanni/karne/internal/i18n"
	"github.com/pavelanni/karne/internal/llm"
	"github.com/pavelanni/karne/internal/model"
	"github.com/pavelanni/karne/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "karne",
		Short: "LGS exam report analysis with a local dashboard",
	}

	serve := serveCmd()
	root.AddCommand(serve, analyzeCmd(), historyCmd(), coachCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `karne --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local dashboard host",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "127.0.0.1:8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /karne)")
	f.Int64("max-upload", handler.DefaultMaxUpload, "Maximum upload size in bytes")
	f.Bool("skip-ping", false, "Start without checking the analysis service")
	addStoreFlags(f)
	addLLMFlags(f)
	addCommonFlags(f)
	return cmd
}

func addStoreFlags(f *pflag.FlagSet) {
	f.String("db", "karne.db", "SQLite database path")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-provider", llm.ProviderOpenAI, "Analysis service provider (openai, gemini)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the analysis service")
	f.String("llm-model", "", "Model name (provider default when empty)")
	f.Duration("llm-timeout", 2*time.Minute, "Timeout for a single analysis request")
	f.Int("cache-size", cache.DefaultSize, "Number of recent analyses kept in memory (0 disables)")
}

func addCommonFlags(f *pflag.FlagSet) {
	f.StringP("lang", "l", appI18n.DefaultLang, "Message language (tr, en)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("KARNE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("karne")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/karne")
	v.AddConfigPath("/etc/karne")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// initI18n loads translations and returns a context carrying the localizer.
func initI18n(ctx context.Context, v *viper.Viper) (context.Context, error) {
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return ctx, fmt.Errorf("init i18n: %w", err)
	}
	return appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang)), nil
}

func newLLMClient(ctx context.Context, v *viper.Viper) (*llm.Client, error) {
	var c *cache.Analyses
	if size := v.GetInt("cache-size"); size > 0 {
		var err error
		if c, err = cache.New(size); err != nil {
			return nil, err
		}
	}
	client, err := llm.New(ctx, llm.Config{
		Provider: v.GetString("llm-provider"),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   v.GetString("llm-key"),
		Model:    v.GetString("llm-model"),
		Timeout:  v.GetDuration("llm-timeout"),
	}, c)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return client, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang := v.GetString("lang")
	ctx, err = initI18n(ctx, v)
	if err != nil {
		return err
	}

	llmClient, err := newLLMClient(ctx, v)
	if err != nil {
		return err
	}
	if !v.GetBool("skip-ping") {
		if err := llmClient.Ping(ctx); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "provider", v.GetString("llm-provider"), "model", v.GetString("llm-model"))
	}

	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	h, err := handler.New(db, llmClient, model.HostConfig{
		Lang:      lang,
		MaxUpload: v.GetInt64("max-upload"),
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	slog.Info(appI18n.Td(ctx, "ServerListening", map[string]any{"Addr": addr}),
		"provider", v.GetString("llm-provider"),
		"lang", lang,
		"base_path", basePath,
		"cache_size", v.GetInt("cache-size"),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
