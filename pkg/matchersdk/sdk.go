// Package matchersdk is used by out-of-process matcher binaries.
//
// A plugin's main function calls Serve with its implementation:
//
//	func main() {
//		matchersdk.ServeTaskMatcher(task.TokenMatcher{FoldCase: true})
//	}
package matchersdk

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/matcher"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/hashicorp/go-plugin"
)

// Candidate re-exports the wire view of a task.
type Candidate = matcher.Candidate

// Service is what a plugin implements.
type Service = matcher.Service

// Serve runs svc as a matcher plugin. It blocks until the host disconnects.
func Serve(svc Service) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: matcher.Handshake,
		Plugins:         matcher.PluginMap(svc),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}

// ServeTaskMatcher runs an in-process task.Matcher as a plugin.
func ServeTaskMatcher(m task.Matcher) {
	Serve(FromTaskMatcher(m))
}

// FromTaskMatcher adapts a task.Matcher to Service.
func FromTaskMatcher(m task.Matcher) Service {
	return taskMatcherService{m: m}
}

type taskMatcherService struct {
	m task.Matcher
}

func (s taskMatcherService) Match(ctx context.Context, key string, candidates []Candidate) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	tasks := make([]*task.Task, 0, len(candidates))
	for _, c := range candidates {
		tasks = append(tasks, &task.Task{ID: c.ID, Content: c.Content})
	}
	t, ok := s.m.Match(key, tasks)
	if !ok {
		return "", false, nil
	}
	return t.ID, true, nil
}
