package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpstream(t *testing.T) {
	ObserveUpstream("meta", time.Now(), nil)
	ObserveUpstream("meta", time.Now(), errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(UpstreamRequestDuration))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(QueueJobs.WithLabelValues("entity-sync", "completed"))
	QueueJobs.WithLabelValues("entity-sync", "completed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(QueueJobs.WithLabelValues("entity-sync", "completed")))
}
