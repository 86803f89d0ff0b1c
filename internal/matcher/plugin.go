// Package matcher runs task matchers out of process through hashicorp
// go-plugin over gRPC.
package matcher

import (
	"context"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
)

// PluginName is the key a matcher is dispensed under.
const PluginName = "matcher"

// Handshake is shared by the host and every matcher binary. A mismatch makes
// go-plugin refuse the connection.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "TASKPULSE_MATCHER_PLUGIN",
	MagicCookieValue: "b1d3f0c2-6a4e-4c0b-9e7f-5d2a8c1e4f60",
}

// Candidate is the part of a task a plugin gets to see.
type Candidate struct {
	ID      string
	Content string
}

// Service is implemented by matcher plugins.
type Service interface {
	Match(ctx context.Context, key string, candidates []Candidate) (id string, found bool, err error)
}

// MatcherPlugin is the plugin.GRPCPlugin for a Service.
type MatcherPlugin struct {
	plugin.Plugin
	Impl Service
}

// GRPCServer registers the implementation on the plugin side.
func (p *MatcherPlugin) GRPCServer(_ *plugin.GRPCBroker, s *grpc.Server) error {
	s.RegisterService(&serviceDesc, &server{impl: p.Impl})
	return nil
}

// GRPCClient returns a Service talking to the plugin process.
func (p *MatcherPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return &grpcClient{conn: c}, nil
}

var _ plugin.GRPCPlugin = (*MatcherPlugin)(nil)

// PluginMap builds the map passed to go-plugin on both sides.
func PluginMap(impl Service) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &MatcherPlugin{Impl: impl},
	}
}
