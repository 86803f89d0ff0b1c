package commands

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/notification"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	"github.com/felixgeelhaar/taskpulse/internal/shared/domain"
	"github.com/stretchr/testify/mock"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, description string) (services.Match, bool, error) {
	args := m.Called(ctx, description)
	return args.Get(0).(services.Match), args.Bool(1), args.Error(2)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Apply(ctx context.Context, taskID string, assigned *int, logged int) (services.CompletionResult, error) {
	args := m.Called(ctx, taskID, assigned, logged)
	return args.Get(0).(services.CompletionResult), args.Error(1)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) Sweep(ctx context.Context) (services.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.SweepResult), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvents(ctx context.Context, events ...domain.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

type mockHistory struct {
	mock.Mock
	history.NopRepository
}

func (m *mockHistory) SaveRecord(ctx context.Context, r history.ReconciliationRecord) error {
	return m.Called(ctx, r).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, msg notification.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockNotifier) Name() string { return "mock" }
