// ABOUTME: Entry point for the freshbot Teams gateway
// ABOUTME: Subcommands: serve, health, version; wires config, providers, and the HTTP server

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
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/grepton/freshbot/internal/bot"
	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/gateway"
	"github.com/grepton/freshbot/internal/history"
	"github.com/grepton/freshbot/internal/provider"
	"github.com/grepton/freshbot/internal/token"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
   __               _     _           _
  / _|_ __ ___  ___| |__ | |__   ___ | |_
 | |_| '__/ _ \/ __| '_ \| '_ \ / _ \| __|
 |  _| | |  __/\__ \ | | | |_) | (_) | |_
 |_| |_|  \___||___/_| |_|_.__/ \___/ \__|
`

// getConfigPath returns the path to the gateway config file, or "" when the
// configuration should come from the environment alone.
// Priority: FRESHBOT_CONFIG env var > ./freshbot.yaml (if present) > env only.
func getConfigPath() string {
	if envPath := os.Getenv("FRESHBOT_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("freshbot.yaml"); err == nil {
		return "freshbot.yaml"
	}
	return ""
}

// loadConfig resolves the configuration from file or environment. An optional
// .env file is folded into the environment first, replacing the original
// bot's import-time settings loading with an explicit step.
func loadConfig() (*config.Store, string, error) {
	_ = godotenv.Load()

	path := getConfigPath()
	if path == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, "", err
		}
		return config.NewStore("", cfg), "(environment)", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return config.NewStore(path, cfg), path, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: freshbot <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the bot gateway")
		fmt.Println("  health    Check gateway health")
		fmt.Println("  version   Print version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	store, configSource, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := store.Snapshot()

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configSource)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Provider:  %s\n", cfg.LLM.Provider)
	fmt.Println()

	logger.Info("starting freshbot",
		"config", configSource,
		"http_addr", cfg.Server.HTTPAddr,
		"llm_provider", cfg.LLM.Provider)

	// Wire the components. History and the token cache are the only stateful
	// pieces; everything else reads the config snapshot per request.
	tokens := token.NewCache(store, logger)
	hist := history.NewStore()
	router := provider.NewRouter(store, hist, logger)
	delivery := bot.NewDelivery(store, tokens, logger)
	dispatcher := bot.NewDispatcher(store, router, delivery, logger)
	gw := gateway.New(store, dispatcher, router, logger)

	// SIGHUP swaps in a fresh config snapshot; the next request sees it.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for range hup {
			if err := store.Reload(); err != nil {
				logger.Error("config reload failed, keeping previous config", "error", err)
				continue
			}
			logger.Info("config reloaded", "llm_provider", store.Snapshot().LLM.Provider)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context) error {
	store, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := store.Snapshot().Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	url := fmt.Sprintf("http://%s/api/health", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
