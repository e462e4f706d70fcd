package job

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the job manager health check fails.
var ErrHealthcheckFailed = errors.New("job: healthcheck failed")

var (
	errManagerNil        = errors.New("manager is nil")
	errManagerNotStarted = errors.New("manager not started")
	errSchemaMissing     = errors.New("river_job table not found, run migrations")
)

// Healthcheck passes when the manager is started and River's job table is
// reachable through its pool. A ping alone succeeds against an unmigrated
// database, where every enqueue would then fail.
func Healthcheck(m *Manager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m == nil {
			return errors.Join(ErrHealthcheckFailed, errManagerNil)
		}
		if !m.running() {
			return errors.Join(ErrHealthcheckFailed, errManagerNotStarted)
		}

		var ok bool
		if err := m.pool.QueryRow(ctx, `SELECT to_regclass('river_job') IS NOT NULL`).Scan(&ok); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if !ok {
			return errors.Join(ErrHealthcheckFailed, errSchemaMissing)
		}
		return nil
	}
}

func (m *Manager) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}
