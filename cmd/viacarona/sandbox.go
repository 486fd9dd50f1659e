package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "viacarona/internal/jwt_token"
	"viacarona/internal/platform/httpserver"
	"viacarona/internal/platform/logger"
	"viacarona/internal/platform/metrics"
	"viacarona/internal/sandbox"
)

const (
	sandboxIssuer   = "viacarona-sandbox"
	sandboxAudience = "viacarona"
)

// NewSandboxCmd creates the sandbox subcommand.
func NewSandboxCmd() *cobra.Command {
	var identities []string

	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run an in-memory auth API for local development",
		Long: `Run an in-memory implementation of the auth API. Verification codes and
reset tokens are written to the log instead of being emailed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSandbox(ctx, cmd, identities)
		},
	}

	cmd.Flags().StringArrayVar(&identities, "identity", nil,
		"accepted Google id token as token=subject,email,name[,pictureURL] (repeatable)")

	return cmd
}

// runSandbox serves until ctx is cancelled.
func runSandbox(ctx context.Context, cmd *cobra.Command, identities []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New("viacarona-sandbox", cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	ids := sandbox.NewStaticIdentities()
	for _, raw := range identities {
		token, id, err := parseIdentity(raw)
		if err != nil {
			return err
		}
		ids.Add(token, id)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tokens := jwttoken.NewJWTService(cfg.Sandbox.SigningKey, sandboxIssuer, sandboxAudience)
	svc, err := sandbox.New(sandbox.NewStore(), tokens,
		sandbox.WithLogger(log),
		sandbox.WithMetrics(m),
		sandbox.WithOutbox(sandbox.LogOutbox{Logger: log}),
		sandbox.WithIdentityVerifier(ids),
		sandbox.WithCodeTTL(cfg.Sandbox.CodeTTL),
		sandbox.WithTokenTTL(cfg.Sandbox.TokenTTL),
	)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Sandbox.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Sandbox.Addr, err)
	}
	srv := httpserver.New(ln.Addr().String(), sandbox.Router(sandbox.NewHandler(svc, tokens, log), reg, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, ln, log)
	})
	log.Info("sandbox ready", "addr", ln.Addr().String(), "identities", len(identities))
	return g.Wait()
}

// parseIdentity reads token=subject,email,name[,pictureURL].
func parseIdentity(raw string) (string, sandbox.Identity, error) {
	token, rest, ok := strings.Cut(raw, "=")
	parts := strings.Split(rest, ",")
	if !ok || token == "" || len(parts) < 3 || len(parts) > 4 {
		return "", sandbox.Identity{}, fmt.Errorf("identity %q: want token=subject,email,name[,pictureURL]", raw)
	}
	id := sandbox.Identity{Subject: parts[0], Email: parts[1], Name: parts[2]}
	if len(parts) == 4 {
		id.PictureURL = parts[3]
	}
	return token, id, nil
}
