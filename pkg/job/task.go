package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// executor runs one task invocation from its stored JSON payload.
type executor interface {
	Execute(ctx context.Context, payload json.RawMessage) error
}

// taskRegistry maps task names (send_menu, daily_menu) to executors.
// Registration happens while options are applied; lookups happen on worker goroutines.
type taskRegistry struct {
	executors map[string]executor
	mu        sync.RWMutex
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{executors: make(map[string]executor)}
}

func (r *taskRegistry) register(name string, e executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = e
}

func (r *taskRegistry) get(name string) (executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[name]
	return e, ok
}

// names returns the registered task names in sorted order.
func (r *taskRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.executors))
}

// typedTask decodes the payload into P before calling Handle.
// An empty payload leaves P at its zero value, so {"date":""} and no payload both mean today.
type typedTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}] struct {
	task T
}

func newTaskWrapper[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) *typedTask[P, T] {
	return &typedTask[P, T]{task: task}
}

func (w *typedTask[P, T]) Execute(ctx context.Context, raw json.RawMessage) error {
	var payload P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, fmt.Errorf("%s: %w", w.task.Name(), err))
		}
	}
	return w.task.Handle(ctx, payload)
}

// scheduledTaskExecutor runs a periodic handler; periodic jobs carry no payload.
type scheduledTaskExecutor struct {
	handler scheduledHandler
}

func (e *scheduledTaskExecutor) Execute(ctx context.Context, _ json.RawMessage) error {
	return e.handler(ctx)
}
