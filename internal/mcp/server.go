// Package mcp serves the taskpulse tools, resources and prompts over the
// Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	mcplocal "github.com/felixgeelhaar/taskpulse/adapter/mcp"
	"github.com/felixgeelhaar/taskpulse/pkg/config"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// ServerName identifies taskpulse to MCP clients.
const ServerName = "taskpulse-mcp"

// NewServer registers every tool, resource and prompt backed by cliApp.
func NewServer(cfg *config.Config, cliApp *cli.App) (*mcpgo.Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cliApp == nil {
		return nil, errors.New("CLI app is required")
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    ServerName,
		Version: cli.Version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})
	deps := mcplocal.ToolDependencies{App: cliApp, Channel: cfg.SlackChannel}

	for name, register := range map[string]func(*mcpgo.Server, mcplocal.ToolDependencies) error{
		"tools":     mcplocal.RegisterCLITools,
		"resources": mcplocal.RegisterResources,
		"prompts":   mcplocal.RegisterPrompts,
	} {
		if err := register(srv, deps); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return srv, nil
}

// Serve listens on cfg.MCPAddr until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	srv, err := NewServer(cfg, cliApp)
	if err != nil {
		return err
	}

	stack := middlewareStack(cfg.MCPAuthToken, slogBridge{logger})
	if cfg.MCPAuthToken == "" {
		logger.Warn("MCP_AUTH_TOKEN not set; requests will be unauthenticated")
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(stack...))
}

// middlewareStack puts bearer auth in front of the default stack when a
// token is configured.
func middlewareStack(token string, log slogBridge) []middleware.Middleware {
	stack := middleware.DefaultStack(log)
	if token == "" {
		return stack
	}
	auth := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: "taskpulse", Name: "taskpulse"},
	}))
	return append([]middleware.Middleware{middleware.Auth(auth, middleware.WithAuthLogger(log))}, stack...)
}

// slogBridge satisfies the middleware logger with slog.
type slogBridge struct {
	logger *slog.Logger
}

func (b slogBridge) Debug(msg string, fields ...middleware.Field) {
	b.log(slog.LevelDebug, msg, fields)
}
func (b slogBridge) Info(msg string, fields ...middleware.Field) { b.log(slog.LevelInfo, msg, fields) }
func (b slogBridge) Warn(msg string, fields ...middleware.Field) { b.log(slog.LevelWarn, msg, fields) }
func (b slogBridge) Error(msg string, fields ...middleware.Field) {
	b.log(slog.LevelError, msg, fields)
}

func (b slogBridge) log(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	b.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
