package cmd

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"

	"github.com/teemow/deskgate/internal/google"
	"github.com/teemow/deskgate/internal/instrumentation"
	"github.com/teemow/deskgate/internal/server"
)

func TestServeFlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	defaults := map[string]string{
		"transport":       "stdio",
		"http-addr":       ":8080",
		"debug":           "false",
		"yolo":            "false",
		"default-limit":   "10",
		"metrics-enabled": "true",
		"metrics-addr":    ":9090",
	}
	for name, want := range defaults {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("flag %q not registered", name)
			continue
		}
		if flag.DefValue != want {
			t.Errorf("flag %q default = %q, want %q", name, flag.DefValue, want)
		}
	}
}

// envTestCmd registers the flags applyServeEnv inspects without running the
// serve command itself.
func envTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("metrics-enabled", true, "")
	cmd.Flags().String("metrics-addr", ":9090", "")
	cmd.Flags().Int("default-limit", 10, "")
	return cmd
}

func TestApplyServeEnv(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_ADDR", ":7070")
	t.Setenv("DEFAULT_LIMIT", "25")

	opts := serveOptions{metricsEnabled: true, metricsAddr: ":9090", defaultLimit: 10}
	applyServeEnv(envTestCmd(), &opts)

	if opts.metricsEnabled {
		t.Error("metricsEnabled = true, want false from METRICS_ENABLED")
	}
	if opts.metricsAddr != ":7070" {
		t.Errorf("metricsAddr = %q, want %q", opts.metricsAddr, ":7070")
	}
	if opts.defaultLimit != 25 {
		t.Errorf("defaultLimit = %d, want 25", opts.defaultLimit)
	}
}

func TestApplyServeEnvFlagTakesPrecedence(t *testing.T) {
	t.Setenv("METRICS_ADDR", ":7070")

	cmd := envTestCmd()
	if err := cmd.Flags().Set("metrics-addr", ":1111"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	opts := serveOptions{metricsAddr: ":1111"}
	applyServeEnv(cmd, &opts)

	if opts.metricsAddr != ":1111" {
		t.Errorf("metricsAddr = %q, want flag value %q", opts.metricsAddr, ":1111")
	}
}

func TestApplyServeEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "maybe")
	t.Setenv("DEFAULT_LIMIT", "nope")

	opts := serveOptions{metricsEnabled: true, defaultLimit: 10}
	applyServeEnv(envTestCmd(), &opts)

	if !opts.metricsEnabled {
		t.Error("metricsEnabled changed by unparseable METRICS_ENABLED")
	}
	if opts.defaultLimit != 10 {
		t.Errorf("defaultLimit = %d, want 10 after unparseable DEFAULT_LIMIT", opts.defaultLimit)
	}
}

func TestRegisterAllTools(t *testing.T) {
	for _, yolo := range []bool{false, true} {
		name := "read-only"
		if yolo {
			name = "yolo"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
				ServiceName:     "deskgate",
				MetricsExporter: instrumentation.ExporterNone,
			})
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			conf := &oauth2.Config{
				ClientID:     "client",
				ClientSecret: "secret",
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://auth.example.com/auth",
					TokenURL: "https://auth.example.com/token",
				},
			}
			store := google.NewStore(conf, filepath.Join(t.TempDir(), "google.json"), logger)
			serverContext := server.NewServerContext(ctx, store)
			defer serverContext.Shutdown()

			mcpSrv := mcpserver.NewMCPServer("deskgate", "test",
				mcpserver.WithToolCapabilities(true),
			)
			if err := registerAllTools(mcpSrv, serverContext, provider, logger, 10, yolo); err != nil {
				t.Fatalf("registerAllTools() error = %v", err)
			}
		})
	}
}
