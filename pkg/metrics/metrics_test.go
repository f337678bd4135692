package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordQuery(t *testing.T) {
	okBefore := testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusOK))
	errBefore := testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusError))

	t.Run("successful query", func(t *testing.T) {
		RecordQuery(100*time.Millisecond, nil)
		assert.Equal(t, okBefore+1, testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusOK)))
		assert.Equal(t, errBefore, testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusError)))
	})

	t.Run("failed query", func(t *testing.T) {
		RecordQuery(200*time.Millisecond, assert.AnError)
		assert.Equal(t, okBefore+1, testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusOK)))
		assert.Equal(t, errBefore+1, testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusError)))
	})
}

func TestMetrics_ConcurrentQueries(t *testing.T) {
	tests := []struct {
		name     string
		ops      func()
		expected float64
	}{
		{
			name: "increment only",
			ops: func() {
				IncrementConcurrentQueries()
			},
			expected: 1,
		},
		{
			name: "increment and decrement",
			ops: func() {
				IncrementConcurrentQueries()
				DecrementConcurrentQueries()
			},
			expected: 0,
		},
		{
			name: "multiple increments",
			ops: func() {
				IncrementConcurrentQueries()
				IncrementConcurrentQueries()
				IncrementConcurrentQueries()
			},
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ConcurrentQueries.Set(0)

			tt.ops()

			assert.Equal(t, tt.expected, testutil.ToFloat64(ConcurrentQueries))
		})
	}
}

func TestMetrics_Concurrency(t *testing.T) {
	ConcurrentQueries.Set(0)
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusOK))

	const goroutines = 100
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			IncrementConcurrentQueries()
			RecordQuery(100*time.Millisecond, nil)
			DecrementConcurrentQueries()
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(0), testutil.ToFloat64(ConcurrentQueries))
	assert.Equal(t, before+goroutines, testutil.ToFloat64(QueriesTotal.WithLabelValues(StatusOK)))
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		label string
	}{
		{name: "success", code: 200, label: "200"},
		{name: "rate limited", code: 429, label: "429"},
		{name: "no response", code: 0, label: "transport_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.label))
			RecordAPIRequest(tt.code)
			assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.label)))
		})
	}
}
