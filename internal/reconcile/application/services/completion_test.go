package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		assigned *int
		logged   int
		want     Decision
	}{
		{"untimed", nil, 0, DecisionComplete},
		{"logged exceeds", intPtr(30), 35, DecisionComplete},
		{"logged equals", intPtr(30), 30, DecisionComplete},
		{"zero assignment", intPtr(0), 0, DecisionComplete},
		{"partial", intPtr(30), 10, DecisionPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.assigned, tt.logged))
		})
	}

	for assigned := 0; assigned <= 120; assigned += 15 {
		for logged := 0; logged <= 150; logged += 5 {
			got := Decide(intPtr(assigned), logged)
			if logged >= assigned {
				assert.Equal(t, DecisionComplete, got, "assigned=%d logged=%d", assigned, logged)
			} else {
				assert.Equal(t, DecisionPartial, got, "assigned=%d logged=%d", assigned, logged)
			}
		}
	}
}

func TestCompletionEngine_Apply(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "batch")

	t.Run("partial progress rewrites remaining minutes", func(t *testing.T) {
		repo := new(mockTaskRepo)
		uow := new(mockUnitOfWork)
		engine := NewCompletionEngine(repo, uow, testRules())

		tk := &task.Task{ID: "1", Content: "30분 보고서 작성", DateString: "10월 18일"}
		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "1").Return(tk, nil)
		repo.On("UpdateContent", txCtx, "1", "20분 보고서 작성").Return(nil)
		uow.On("Commit", txCtx).Return(nil)

		result, err := engine.Apply(ctx, "1", intPtr(30), 10)

		require.NoError(t, err)
		assert.Equal(t, OutcomeProgressed, result.Outcome)
		assert.Equal(t, 20, result.Remaining)
		assert.Equal(t, "20분 보고서 작성", result.Content)
		require.Len(t, result.Events, 1)
		assert.Equal(t, task.RoutingKeyProgressed, result.Events[0].RoutingKey())
		repo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "RescheduleRecurring", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		uow.AssertNumberOfCalls(t, "Commit", 1)
	})

	t.Run("one-off task completes after normalizing", func(t *testing.T) {
		repo := new(mockTaskRepo)
		uow := new(mockUnitOfWork)
		engine := NewCompletionEngine(repo, uow, testRules())

		tk := &task.Task{ID: "1", Content: "30분 보고서 작성", DateString: "10월 18일"}
		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "1").Return(tk, nil)
		repo.On("UpdateContent", txCtx, "1", "90분 보고서 작성").Return(nil).Once()
		repo.On("Complete", txCtx, "1").Return(nil).Once()
		uow.On("Commit", txCtx).Return(nil).Once()

		result, err := engine.Apply(ctx, "1", intPtr(30), 35)

		require.NoError(t, err)
		assert.Equal(t, OutcomeCompleted, result.Outcome)
		repo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("recurring task advances instead of completing", func(t *testing.T) {
		repo := new(mockTaskRepo)
		uow := new(mockUnitOfWork)
		engine := NewCompletionEngine(repo, uow, testRules())

		tk := &task.Task{ID: "7", Content: "10분 운동", DateString: "매일"}
		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "7").Return(tk, nil)
		repo.On("UpdateContent", txCtx, "7", "30분 운동").Return(nil)
		repo.On("RescheduleRecurring", txCtx, "7", "매일", (*time.Time)(nil), true).Return(nil)
		uow.On("Commit", txCtx).Return(nil)

		result, err := engine.Apply(ctx, "7", intPtr(10), 10)

		require.NoError(t, err)
		assert.Equal(t, OutcomeAdvanced, result.Outcome)
		assert.Equal(t, task.RoutingKeyAdvanced, result.Events[0].RoutingKey())
		repo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		uow.AssertNumberOfCalls(t, "Commit", 1)
	})

	t.Run("untimed task completes without content update", func(t *testing.T) {
		repo := new(mockTaskRepo)
		uow := new(mockUnitOfWork)
		engine := NewCompletionEngine(repo, uow, testRules())

		tk := &task.Task{ID: "2", Content: "call mom"}
		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "2").Return(tk, nil)
		repo.On("Complete", txCtx, "2").Return(nil)
		uow.On("Commit", txCtx).Return(nil)

		result, err := engine.Apply(ctx, "2", nil, 5)

		require.NoError(t, err)
		assert.Equal(t, OutcomeCompleted, result.Outcome)
		repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fetch failure rolls back", func(t *testing.T) {
		repo := new(mockTaskRepo)
		uow := new(mockUnitOfWork)
		engine := NewCompletionEngine(repo, uow, testRules())

		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "9").Return(nil, task.ErrBackendUnavailable)
		uow.On("Rollback", txCtx).Return(nil)

		_, err := engine.Apply(ctx, "9", nil, 5)

		assert.ErrorIs(t, err, task.ErrBackendUnavailable)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("commit failure is returned", func(t *testing.T) {
		repo := new(mockTaskRepo)
		uow := new(mockUnitOfWork)
		engine := NewCompletionEngine(repo, uow, testRules())

		tk := &task.Task{ID: "2", Content: "call mom"}
		uow.On("Begin", ctx).Return(txCtx, nil)
		repo.On("FindByID", txCtx, "2").Return(tk, nil)
		repo.On("Complete", txCtx, "2").Return(nil)
		uow.On("Commit", txCtx).Return(task.ErrCommitFailed)

		result, err := engine.Apply(ctx, "2", nil, 5)

		assert.True(t, errors.Is(err, task.ErrCommitFailed))
		assert.Empty(t, result.Events)
	})
}
