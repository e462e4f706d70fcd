package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/pipeline"
	"github.com/dmitrymomot/menumail/internal/tasks"
	"github.com/dmitrymomot/menumail/pkg/job"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/menuapi"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*pipeline.Report)
	return r, args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) (*job.Enqueued, error) {
	args := m.Called(ctx, name, payload, len(opts))
	e, _ := args.Get(0).(*job.Enqueued)
	return e, args.Error(1)
}

func TestDailyMenu(t *testing.T) {
	t.Parallel()

	t.Run("runs for today", func(t *testing.T) {
		t.Parallel()

		runner := &MockRunner{}
		runner.On("Run", mock.Anything, pipeline.Request{}).
			Return(&pipeline.Report{Date: "2024-03-07", Status: delivery.StatusSent}, nil).Once()

		task := tasks.NewDailyMenu(runner, "0 6 * * 1-5", nil)
		assert.Equal(t, tasks.DailyMenuName, task.Name())
		assert.Equal(t, "0 6 * * 1-5", task.Schedule())
		require.NoError(t, task.Handle(context.Background()))
		runner.AssertExpectations(t)
	})

	t.Run("propagates run failure", func(t *testing.T) {
		t.Parallel()

		runner := &MockRunner{}
		runner.On("Run", mock.Anything, mock.Anything).Return(nil, pipeline.ErrFetch).Once()

		err := tasks.NewDailyMenu(runner, "0 6 * * *", nil).Handle(context.Background())
		require.ErrorIs(t, err, pipeline.ErrFetch)
	})
}

func TestHandle_FinalFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		noRetry bool
	}{
		{name: "fetch budget exhausted", err: errors.Join(pipeline.ErrFetch, &menuapi.FetchError{Kind: menuapi.KindTimeout, Attempts: 12}), noRetry: true},
		{name: "vendor rejected request", err: errors.Join(pipeline.ErrFetch, &menuapi.FetchError{Kind: menuapi.KindClientError, StatusCode: 401, Attempts: 1}), noRetry: true},
		{name: "send failure", err: pipeline.ErrDispatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &MockRunner{}
			runner.On("Run", mock.Anything, mock.Anything).Return(nil, tt.err).Twice()

			errs := []error{
				tasks.NewDailyMenu(runner, "0 6 * * *", nil).Handle(context.Background()),
				tasks.NewSendMenu(runner, time.UTC).Handle(context.Background(), tasks.SendMenuPayload{}),
			}
			for _, err := range errs {
				require.ErrorIs(t, err, tt.err)
				assert.Equal(t, tt.noRetry, errors.Is(err, job.ErrNoRetry))
			}
			runner.AssertExpectations(t)
		})
	}
}

func TestJobTimeout(t *testing.T) {
	t.Parallel()

	timeout := tasks.JobTimeout(menuapi.Policy{MaxElapsed: time.Hour})
	assert.Greater(t, timeout, time.Hour)
	assert.LessOrEqual(t, timeout, 2*time.Hour)
}

func TestSendMenu_Handle(t *testing.T) {
	t.Parallel()

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	t.Run("parses the date in the configured location", func(t *testing.T) {
		t.Parallel()

		want := pipeline.Request{Date: time.Date(2024, 3, 7, 0, 0, 0, 0, chicago), Force: true}
		runner := &MockRunner{}
		runner.On("Run", mock.Anything, mock.MatchedBy(func(r pipeline.Request) bool {
			return r.Date.Equal(want.Date) && r.Force && !r.DryRun
		})).Return(&pipeline.Report{}, nil).Once()

		task := tasks.NewSendMenu(runner, chicago)
		assert.Equal(t, tasks.SendMenuName, task.Name())
		require.NoError(t, task.Handle(context.Background(), tasks.SendMenuPayload{Date: "2024-03-07", Force: true}))
		runner.AssertExpectations(t)
	})

	t.Run("invalid date is not retried", func(t *testing.T) {
		t.Parallel()

		runner := &MockRunner{}
		err := tasks.NewSendMenu(runner, chicago).Handle(context.Background(), tasks.SendMenuPayload{Date: "03/07/2024"})
		require.ErrorIs(t, err, job.ErrInvalidPayload)
		require.ErrorIs(t, err, menu.ErrInvalidDate)
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})
}

func TestSendMenuPayload_Request(t *testing.T) {
	t.Parallel()

	req, err := tasks.SendMenuPayload{DryRun: true}.Request(time.UTC)
	require.NoError(t, err)
	assert.True(t, req.Date.IsZero())
	assert.True(t, req.DryRun)
}

func TestEnqueueSendMenu(t *testing.T) {
	t.Parallel()

	t.Run("enqueues with uniqueness options", func(t *testing.T) {
		t.Parallel()

		p := tasks.SendMenuPayload{Date: "2024-03-07"}
		enq := &MockEnqueuer{}
		enq.On("Enqueue", mock.Anything, tasks.SendMenuName, p, 3).
			Return(&job.Enqueued{ID: 7, Duplicate: true}, nil).Once()

		res, err := tasks.EnqueueSendMenu(context.Background(), enq, p)
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		enq.AssertExpectations(t)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		t.Parallel()

		enq := &MockEnqueuer{}
		_, err := tasks.EnqueueSendMenu(context.Background(), enq, tasks.SendMenuPayload{Date: "tomorrow"})
		require.ErrorIs(t, err, menu.ErrInvalidDate)
		enq.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates enqueue errors", func(t *testing.T) {
		t.Parallel()

		enq := &MockEnqueuer{}
		enq.On("Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("db down")).Once()

		_, err := tasks.EnqueueSendMenu(context.Background(), enq, tasks.SendMenuPayload{})
		require.Error(t, err)
	})
}
