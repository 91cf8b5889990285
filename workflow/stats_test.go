package workflow

import (
	"testing"
	"time"

	"github.com/TritonDataCenter/manta-chum/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	for s, want := range map[string]OutputMode{
		"human":         OutputHuman,
		"human-verbose": OutputHumanVerbose,
		"tabular":       OutputTabular,
	} {
		m, ok := ParseOutput(s)
		require.True(t, ok)
		assert.Equal(t, want, m)
	}
	_, ok := ParseOutput("csv")
	assert.False(t, ok)
}

func TestWorkerStatFoldVsMerge(t *testing.T) {
	recs := []models.Record{
		{Op: models.OpWrite, Size: 128, TTFB: 2 * time.Millisecond, RTT: 5 * time.Millisecond},
		{Op: models.OpWrite, Size: 256, TTFB: 4 * time.Millisecond, RTT: 9 * time.Millisecond},
		{Op: models.OpWrite, Size: 512, TTFB: 6 * time.Millisecond, RTT: 13 * time.Millisecond},
	}

	// folding record by record and merging partial aggregates must agree
	var all WorkerStat
	for _, r := range recs {
		all.Add(r)
	}

	var a, b WorkerStat
	a.Add(recs[0])
	b.Add(recs[1])
	b.Add(recs[2])
	a.Merge(b)

	assert.Equal(t, all, a)
	assert.Equal(t, uint64(3), a.Objs)
	assert.Equal(t, uint64(896), a.Bytes)

	a.Clear()
	assert.Equal(t, WorkerStat{}, a)
}

func TestReportZeroActivity(t *testing.T) {
	// an operation kind that saw traffic earlier but none this tick must
	// render without dividing by zero
	c := &Collector{Output: OutputHumanVerbose}
	c.start = time.Now()
	c.tick = map[models.Operation]*WorkerStat{models.OpRead: {}}
	c.agg = map[models.Operation]*WorkerStat{models.OpRead: {}}
	c.threads = map[models.Operation]map[int]*WorkerStat{
		models.OpRead: {0: {}},
	}

	assert.NotPanics(t, func() { c.report() })
	assert.NotPanics(t, func() { c.reportFinal() })
}

func TestCollectorFoldsAndFinishes(t *testing.T) {
	results := make(chan models.Record, 16)
	for i := 0; i < 5; i++ {
		results <- models.Record{Worker: i % 2, Op: models.OpWrite, Size: 100,
			TTFB: time.Millisecond, RTT: 2 * time.Millisecond}
	}
	results <- models.Record{Worker: 0, Op: models.OpRead, Size: 100,
		TTFB: time.Millisecond, RTT: 2 * time.Millisecond}
	close(results)

	c := &Collector{
		Results:  results,
		Interval: 10 * time.Millisecond,
		Output:   OutputTabular,
		StopAll:  func() {},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not finish after its stream closed")
	}

	require.NotNil(t, c.agg[models.OpWrite])
	assert.Equal(t, uint64(5), c.agg[models.OpWrite].Objs)
	assert.Equal(t, uint64(500), c.agg[models.OpWrite].Bytes)
	require.NotNil(t, c.agg[models.OpRead])
	assert.Equal(t, uint64(1), c.agg[models.OpRead].Objs)

	// only writes count against the cap
	assert.Equal(t, uint64(500), c.Written.Load())
}

func TestCollectorStopsOnCap(t *testing.T) {
	results := make(chan models.Record, 4)
	results <- models.Record{Worker: 0, Op: models.OpWrite, Size: 2048}

	stopped := make(chan struct{})
	c := &Collector{
		Results:  results,
		Interval: 10 * time.Millisecond,
		Output:   OutputTabular,
		Cap:      ByteCap(1024),
	}
	c.StopAll = func() {
		select {
		case <-stopped:
		default:
			close(stopped)
			// workers gone, the run loop closes the stream
			close(results)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run()
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("cap crossing never triggered the stop broadcast")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not finish after the stop broadcast")
	}
}
