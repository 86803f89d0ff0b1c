package mcp

import (
	"testing"

	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/felixgeelhaar/taskpulse/pkg/config"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("requires config and app", func(t *testing.T) {
		_, err := NewServer(nil, &cli.App{})
		assert.Error(t, err)
		_, err = NewServer(&config.Config{}, nil)
		assert.Error(t, err)
	})

	t.Run("registers the reconcile tools", func(t *testing.T) {
		srv, err := NewServer(&config.Config{SlackChannel: "#daily"}, &cli.App{})
		require.NoError(t, err)

		tc := testutil.NewTestClient(t, srv)
		defer tc.Close()

		tools, err := tc.ListTools()
		require.NoError(t, err)
		names := make([]any, 0, len(tools))
		for _, tool := range tools {
			names = append(names, tool["name"])
		}
		assert.Contains(t, names, "reconcile.time_entry")
		assert.Contains(t, names, "tasks.sweep")
	})
}

func TestMiddlewareStack(t *testing.T) {
	log := slogBridge{observability.DiscardLogger()}

	open := middlewareStack("", log)
	withAuth := middlewareStack("secret", log)

	assert.NotEmpty(t, open)
	assert.Len(t, withAuth, len(open)+1)
}
