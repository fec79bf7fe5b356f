package server

import (
	"context"
	"time"

	"github.com/greggjuri/chaos-dungeon/internal/observability"
)

// MetricsService runs an observability.Server under a Lifecycle.
type MetricsService struct {
	srv     *observability.Server
	timeout time.Duration
	stopped chan struct{}
}

// NewMetricsService wraps srv. Stop waits at most timeout for in-flight
// scrapes.
//
// Precondition: srv must be non-nil.
func NewMetricsService(srv *observability.Server, timeout time.Duration) *MetricsService {
	return &MetricsService{srv: srv, timeout: timeout, stopped: make(chan struct{})}
}

// Start serves until Stop is called or serving fails.
func (m *MetricsService) Start() error {
	select {
	case <-m.stopped:
		return nil
	default:
	}
	errCh, err := m.srv.Start()
	if err != nil {
		return err
	}
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		// Closed without error: shut down by Stop.
		<-m.stopped
		return nil
	case <-m.stopped:
		return nil
	}
}

// Stop shuts the server down.
func (m *MetricsService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	_ = m.srv.Stop(ctx)
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
}
