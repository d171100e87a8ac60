//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRelayCounters(t *testing.T) {
	before := testutil.ToFloat64(messagesForwardedTotal.WithLabelValues("text"))
	IncForwarded(" TEXT ")
	if got := testutil.ToFloat64(messagesForwardedTotal.WithLabelValues("text")); got != before+1 {
		t.Fatalf("expected forwarded counter to grow by 1, got %v -> %v", before, got)
	}

	IncReplyDelivered("photo", false)
	if got := testutil.ToFloat64(repliesDeliveredTotal.WithLabelValues("photo", "failed")); got < 1 {
		t.Fatalf("expected failed reply counter, got %v", got)
	}

	SetCorrelationEntries(3)
	if got := testutil.ToFloat64(correlationEntries); got != 3 {
		t.Fatalf("expected gauge 3, got %v", got)
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}
