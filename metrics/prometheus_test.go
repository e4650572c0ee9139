package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordToolCall(t *testing.T) {
	before := testutil.ToFloat64(toolCallsTotal.WithLabelValues("book_flight", "ok"))
	RecordToolCall("book_flight", "ok", 5*time.Millisecond)
	after := testutil.ToFloat64(toolCallsTotal.WithLabelValues("book_flight", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordRerankFallback(t *testing.T) {
	before := testutil.ToFloat64(rerankFallbacksTotal)
	RecordRerankFallback()
	assert.Equal(t, before+1, testutil.ToFloat64(rerankFallbacksTotal))
}

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("error"))
	RecordRequest("error")
	assert.Equal(t, before+1, testutil.ToFloat64(requestsTotal.WithLabelValues("error")))
}
