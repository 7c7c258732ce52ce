package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/socialvault/socialvault/internal/api"
	"github.com/socialvault/socialvault/internal/completion"
	"github.com/socialvault/socialvault/internal/config"
	"github.com/socialvault/socialvault/internal/ingest"
	"github.com/socialvault/socialvault/internal/persist"
	"github.com/socialvault/socialvault/internal/pipeline"
	"github.com/socialvault/socialvault/internal/storage"
	"github.com/socialvault/socialvault/internal/teamdata"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SocialVault server (foreground)",
		RunE: func(cmd *cobra.Command, args []string) error {
			withMCP, _ := cmd.Flags().GetBool("mcp")
			return runServer(withMCP)
		},
	}
	cmd.Flags().Bool("mcp", false, "also serve MCP over stdio")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running SocialVault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return stopServer()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show SocialVault status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus()
		},
	}
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "socialvault.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "socialvault version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// A server without a usable provider would answer every request with
	// the fallback, so refuse to start.
	client, err := completion.New(completion.Config{
		Provider: cfg.Completion.Provider,
		BaseURL:  cfg.Completion.BaseURL,
		Model:    cfg.Completion.Model,
		APIKey:   cfg.Completion.APIKey,
	})
	if err != nil {
		return fmt.Errorf("configuring completion provider: %w", err)
	}

	apiToken, err := config.APIToken(cfg, config.NewFileSecrets(config.SecretsFilePath()))
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(localURL(cfg.Server) + "/health"); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("socialvault is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("socialvault is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	runner := pipeline.NewRunner(client, persist.NewStoreSink(store, logger), pipeline.WithLogger(logger))
	hooks := teamdata.NewHooks(store,
		teamdata.WithNotifier(teamdata.NewLogNotifier(logger)),
		teamdata.WithTTL(cfg.Cache.TTL),
	)

	handler := api.NewAppHandler(api.AppDeps{
		Runner:        runner,
		Hooks:         hooks,
		Store:         store,
		Extractor:     ingest.NewExtractor(nil),
		Token:         apiToken,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "socialvault listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Runner:      runner,
			Competitors: hooks.Competitors,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("socialvault is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop socialvault (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to socialvault (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(localURL(cfg.Server) + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		var health struct {
			Status string `json:"status"`
		}
		json.NewDecoder(resp.Body).Decode(&health)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on %s (%s)", cfg.Server.Addr(), health.Status)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if _, err := completion.New(completion.Config{
		Provider: cfg.Completion.Provider,
		BaseURL:  cfg.Completion.BaseURL,
		Model:    cfg.Completion.Model,
		APIKey:   cfg.Completion.APIKey,
	}); err != nil {
		printStatus("Completion", "%s (%v)", colorize(colorRed, "not configured"), err)
	} else {
		printStatus("Completion", "%s", cfg.Completion.Provider)
	}
	if cfg.Completion.Model != "" {
		printStatus("Model", "%s", cfg.Completion.Model)
	}

	if pid, err := readPIDFile(pidFilePath(cfg.Storage.DataDir)); err == nil {
		printStatus("PID", "%d", pid)
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Config file", "%s", config.ConfigFilePath())
	return nil
}

func countLabel(count, limit int) string {
	if limit > 0 && count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
