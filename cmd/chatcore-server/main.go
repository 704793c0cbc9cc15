// ABOUTME: Entry point for the chatcore session API server
// ABOUTME: Serves session CRUD, the chat proxy, and transcript views over HTTP

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hartlabs/chatcore/internal/api"
	"github.com/hartlabs/chatcore/internal/config"
	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/store"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// getConfigPath returns the path to the server config file.
// Priority: CHATCORE_CONFIG env var > XDG_CONFIG_HOME/chatcore/server.yaml > ~/.config/chatcore/server.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CHATCORE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chatcore", "server.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: chatcore-server <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                Start the session API server")
		fmt.Println("  token --user USER    Mint a signed identity token for a user")
		fmt.Println("  version              Print the version")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe()
	case "token":
		runToken()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

// setupLogging configures the default slog logger from config.
func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", getConfigPath(), "path to config file")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)
	logger := slog.Default()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	verifier := identity.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	server := api.NewServer(st, verifier, cfg.Backend.URL, logger)
	server.SetBackendTimeout(cfg.Backend.Timeout)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chatcore-server listening", "addr", cfg.Server.HTTPAddr, "version", version)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// runToken mints a signed JWT for local development and testing. Production
// deployments get tokens from the auth provider, not from this command.
func runToken() {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configPath := fs.String("config", getConfigPath(), "path to config file")
	user := fs.String("user", "", "user id for the token's sub claim")
	expiry := fs.Duration("expiry", 30*24*time.Hour, "token lifetime")
	_ = fs.Parse(os.Args[2:])

	if *user == "" {
		fmt.Fprintln(os.Stderr, "token: --user is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	verifier := identity.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate(*user, *expiry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
