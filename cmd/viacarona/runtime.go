package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"viacarona/internal/gateway"
	"viacarona/internal/locality"
	"viacarona/internal/onboarding/flow"
	"viacarona/internal/onboarding/models"
	"viacarona/internal/platform/config"
	"viacarona/internal/platform/logger"
	"viacarona/internal/platform/metrics"
	"viacarona/internal/tokenstore"
)

// clientRuntime holds what the onboarding commands share.
type clientRuntime struct {
	cfg      *config.Config
	logger   *slog.Logger
	locality *locality.Client
	tokens   tokenstore.Store
	nav      *terminalNavigator
	machine  *flow.Machine

	closeTokens func() error
}

func newClientRuntime(ctx context.Context, cmd *cobra.Command) (*clientRuntime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New("viacarona", cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	m := metrics.New(prometheus.NewRegistry())

	gw, err := gateway.New(cfg.API.BaseURL,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(log),
		gateway.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	tokens, closeTokens, err := tokenstore.New(ctx, cfg, log, m)
	if err != nil {
		return nil, err
	}

	nav := newTerminalNavigator()
	machine, err := flow.New(gw, tokens, nav,
		flow.WithLogger(log),
		flow.WithMetrics(m),
		flow.WithRedirectDelay(cfg.Onboarding.RedirectDelay),
		flow.WithResendWindow(cfg.Onboarding.ResendWindow),
		flow.WithMaxResendAttempts(cfg.Onboarding.MaxResendAttempts),
	)
	if err != nil {
		_ = closeTokens()
		return nil, err
	}

	return &clientRuntime{
		cfg:    cfg,
		logger: log,
		locality: locality.New(cfg.Locality.BaseURL,
			locality.WithHTTPClient(&http.Client{Timeout: cfg.Locality.Timeout}),
			locality.WithLogger(log),
		),
		tokens:      tokens,
		nav:         nav,
		machine:     machine,
		closeTokens: closeTokens,
	}, nil
}

func (rt *clientRuntime) Close() error {
	rt.machine.Close()
	return rt.closeTokens()
}

// terminalNavigator queues transitions for the command loop to pick up.
type terminalNavigator struct {
	moves chan models.Transition
}

func newTerminalNavigator() *terminalNavigator {
	return &terminalNavigator{moves: make(chan models.Transition, 8)}
}

func (n *terminalNavigator) Navigate(t models.Transition) {
	select {
	case n.moves <- t:
	default:
	}
}

// next blocks until the machine navigates.
func (n *terminalNavigator) next(ctx context.Context) (models.Transition, error) {
	select {
	case t := <-n.moves:
		return t, nil
	case <-ctx.Done():
		return models.Transition{}, ctx.Err()
	}
}

func (n *terminalNavigator) drain() {
	for {
		select {
		case <-n.moves:
		default:
			return
		}
	}
}

// prompter reads one answer per line. After the first read error every ask
// returns "" and err holds the cause.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	err error
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(label string) string {
	if p.err != nil {
		return ""
	}
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		p.err = p.in.Err()
		if p.err == nil {
			p.err = io.EOF
		}
		return ""
	}
	return strings.TrimRight(p.in.Text(), "\r")
}
