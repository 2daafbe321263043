package observability

import (
	"testing"
	"time"

	"github.com/danmuck/pktframe/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("framectl", "GET", "/health", 200, 12*time.Millisecond)
	RecordBytes("ttyUSB0", 5)
	RecordDropped("ttyUSB0", 2)
	RecordPacket("ttyUSB0", "valid", 5)
	RecordPacket("ttyUSB0", "invalid", 0)

	if got := testutil.ToFloat64(receiverPackets.WithLabelValues("ttyUSB0", "valid")); got != 1 {
		t.Fatalf("valid packets got=%v", got)
	}
	if got := testutil.ToFloat64(receiverBytes.WithLabelValues("ttyUSB0")); got != 5 {
		t.Fatalf("bytes got=%v", got)
	}
	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}
