package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Parsed("fenced")
	c.Parsed("fenced")
	c.Rejected("open_keyword")
	c.Fallback("domain_analysis")
	c.Transition("validate_idea", "completed")
	c.DuplicatesDropped(3)
	c.LLMRequest("ok", 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.parses.WithLabelValues("fenced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejections.WithLabelValues("open_keyword")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("domain_analysis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsComplete))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.llmRequests.WithLabelValues("ok")))
}

func TestCollector_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg)
	b := New(reg)
	a.Fallback("profile")
	b.Fallback("profile")
	assert.Equal(t, 2.0, testutil.ToFloat64(a.fallbacks.WithLabelValues("profile")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Parsed("raw")
		c.Fallback("x")
		c.Transition("a", "b")
		c.DuplicatesDropped(1)
		c.LLMRequest("error", time.Second)
		c.OperationStarted()()
	})
}

func TestOperationStarted(t *testing.T) {
	c := New(prometheus.NewRegistry())
	done := c.OperationStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsActive))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(c.sessionsActive))
}
