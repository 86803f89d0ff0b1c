package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/stretchr/testify/mock"
)

type txKey struct{}

type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) FindByFilter(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *mockTaskRepo) Complete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTaskRepo) UpdateContent(ctx context.Context, id, content string) error {
	return m.Called(ctx, id, content).Error(0)
}

func (m *mockTaskRepo) RescheduleRecurring(ctx context.Context, id, dateString string, newDate *time.Time, forward bool) error {
	return m.Called(ctx, id, dateString, newDate, forward).Error(0)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockActivityLog struct {
	mock.Mock
}

func (m *mockActivityLog) Recent(ctx context.Context) ([]task.ActivityEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.ActivityEvent), args.Error(1)
}

type mockKarma struct {
	mock.Mock
}

func (m *mockKarma) KarmaTrend(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func testRules() task.Rules {
	return task.NewRules(task.DurationPolicy{EveryDay: 30, EveryWeekday: 60, SomeWeekday: 90})
}

// expectOverdue stubs the seven overdue queries; byOffset maps a day offset
// to its tasks and missing offsets return nothing.
func expectOverdue(repo *mockTaskRepo, ctx any, byOffset map[int][]*task.Task) {
	for _, f := range task.OverdueFilters() {
		tasks := byOffset[f.DaysBefore()]
		if tasks == nil {
			tasks = []*task.Task{}
		}
		repo.On("FindByFilter", ctx, f).Return(tasks, nil).Once()
	}
}
