package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEntities(t *testing.T) {
	before := testutil.ToFloat64(importEntities.WithLabelValues("skus", "created"))

	RecordEntities("skus", 3, 1, 2, 0)

	assert.Equal(t, before+3, testutil.ToFloat64(importEntities.WithLabelValues("skus", "created")))
}

func TestRecordLookup_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(lookupErrors.WithLabelValues("sku_validation"))

	RecordLookup("sku_validation", 10*time.Millisecond, nil)
	RecordLookup("sku_validation", 10*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, before+1, testutil.ToFloat64(lookupErrors.WithLabelValues("sku_validation")))
}

func TestJobsInFlight(t *testing.T) {
	before := testutil.ToFloat64(jobsInFlight)

	JobStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(jobsInFlight))

	JobFinished()
	assert.Equal(t, before, testutil.ToFloat64(jobsInFlight))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("/jobs/:id", "GET", "404"))

	RecordHTTPRequest("/jobs/:id", "GET", 404)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/jobs/:id", "GET", "404")))
}
