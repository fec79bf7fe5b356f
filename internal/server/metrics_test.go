package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/greggjuri/chaos-dungeon/internal/observability"
)

func TestMetricsService_StartFailsWhenAddressTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	svc := NewMetricsService(observability.NewServer(ln.Addr().String(), zaptest.NewLogger(t)), time.Second)
	assert.Error(t, svc.Start())
}

func TestMetricsService_StopIsIdempotent(t *testing.T) {
	svc := NewMetricsService(observability.NewServer("127.0.0.1:0", zaptest.NewLogger(t)), time.Second)
	svc.Stop()
	svc.Stop()
	assert.NoError(t, svc.Start(), "a stopped service returns immediately")
}
