package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Date  string `json:"date"`
	Force bool   `json:"force"`
}

type testTask struct {
	name     string
	executed bool
	payload  testPayload
	err      error
}

func (t *testTask) Name() string { return t.name }

func (t *testTask) Handle(ctx context.Context, p testPayload) error {
	t.executed = true
	t.payload = p
	return t.err
}

func TestTaskRegistry_RegisterAndGet(t *testing.T) {
	registry := newTaskRegistry()

	// Register a task
	task := &testTask{name: "test_task"}
	wrapper := newTaskWrapper[testPayload, *testTask](task)
	registry.register("test_task", wrapper)

	// Get the task
	executor, ok := registry.get("test_task")
	assert.True(t, ok)
	assert.NotNil(t, executor)

	// Try to get non-existent task
	executor, ok = registry.get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, executor)
}

func TestTaskRegistry_Names(t *testing.T) {
	registry := newTaskRegistry()

	// Empty registry
	assert.Empty(t, registry.names())

	// Add tasks
	registry.register("send_menu", newTaskWrapper[testPayload](&testTask{name: "send_menu"}))
	registry.register("daily_menu", &scheduledTaskExecutor{handler: func(context.Context) error { return nil }})

	assert.Equal(t, []string{"daily_menu", "send_menu"}, registry.names())
}

func TestTaskWrapper_Execute(t *testing.T) {
	t.Run("successful execution", func(t *testing.T) {
		task := &testTask{name: "test_task"}
		wrapper := newTaskWrapper[testPayload, *testTask](task)

		payload := testPayload{Date: "2024-03-07", Force: true}
		rawPayload, err := json.Marshal(payload)
		require.NoError(t, err)

		err = wrapper.Execute(context.Background(), rawPayload)
		assert.NoError(t, err)
		assert.True(t, task.executed)
		assert.Equal(t, "2024-03-07", task.payload.Date)
		assert.True(t, task.payload.Force)
	})

	t.Run("empty payload", func(t *testing.T) {
		task := &testTask{name: "test_task"}
		wrapper := newTaskWrapper[testPayload, *testTask](task)

		err := wrapper.Execute(context.Background(), nil)
		assert.NoError(t, err)
		assert.True(t, task.executed)
		assert.Equal(t, testPayload{}, task.payload)
	})

	t.Run("invalid payload", func(t *testing.T) {
		task := &testTask{name: "test_task"}
		wrapper := newTaskWrapper[testPayload, *testTask](task)

		err := wrapper.Execute(context.Background(), []byte("invalid json"))
		require.ErrorIs(t, err, ErrInvalidPayload)
		assert.Contains(t, err.Error(), "test_task")
		assert.False(t, task.executed)
	})

	t.Run("task returns error", func(t *testing.T) {
		taskErr := errors.New("task failed")
		task := &testTask{name: "test_task", err: taskErr}
		wrapper := newTaskWrapper[testPayload, *testTask](task)

		err := wrapper.Execute(context.Background(), nil)
		assert.ErrorIs(t, err, taskErr)
	})
}

type emptyPayloadTask struct {
	executed bool
}

func (t *emptyPayloadTask) Name() string { return "empty_payload" }

func (t *emptyPayloadTask) Handle(ctx context.Context, p struct{}) error {
	t.executed = true
	return nil
}

func TestTaskWrapper_EmptyPayload(t *testing.T) {
	task := &emptyPayloadTask{}
	wrapper := newTaskWrapper[struct{}, *emptyPayloadTask](task)

	err := wrapper.Execute(context.Background(), nil)
	assert.NoError(t, err)
	assert.True(t, task.executed)
}
