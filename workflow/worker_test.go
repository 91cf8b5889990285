package workflow

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TritonDataCenter/manta-chum/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend scripts backend outcomes for worker tests.
type stubBackend struct {
	worker int
	size   uint64
	err    error
	noop   bool
}

func (b *stubBackend) op(op models.Operation) (*models.Record, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.noop {
		return nil, nil
	}
	return &models.Record{Worker: b.worker, Op: op, Size: b.size,
		TTFB: time.Microsecond, RTT: 2 * time.Microsecond}, nil
}

func (b *stubBackend) Write() (*models.Record, error)  { return b.op(models.OpWrite) }
func (b *stubBackend) Read() (*models.Record, error)   { return b.op(models.OpRead) }
func (b *stubBackend) Delete() (*models.Record, error) { return b.op(models.OpDelete) }

func runWorker(t *testing.T, w *Worker) chan struct{} {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(1)
	go w.Run(&wg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	return done
}

func TestWorkerStopsOnBroadcast(t *testing.T) {
	results := make(chan models.Record, 16)
	stop := make(chan struct{})
	w := &Worker{
		ID:      3,
		Backend: &stubBackend{worker: 3, size: 128},
		Results: results,
		Stop:    stop,
		Ops:     []models.Operation{models.OpWrite},
	}
	done := runWorker(t, w)

	// the worker must keep producing until told otherwise
	for i := 0; i < 5; i++ {
		select {
		case rec := <-results:
			assert.Equal(t, 3, rec.Worker)
			assert.Equal(t, models.OpWrite, rec.Op)
			assert.Equal(t, uint64(128), rec.Size)
		case <-time.After(5 * time.Second):
			t.Fatal("worker produced no records")
		}
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after the stop broadcast")
	}
}

func TestWorkerStopUnblocksFullChannel(t *testing.T) {
	// nobody drains results: the worker must still notice the broadcast
	// while blocked on the send
	results := make(chan models.Record, 1)
	stop := make(chan struct{})
	w := &Worker{
		ID:      0,
		Backend: &stubBackend{size: 64},
		Results: results,
		Stop:    stop,
		Ops:     []models.Operation{models.OpWrite},
	}
	done := runWorker(t, w)

	time.Sleep(50 * time.Millisecond)
	close(stop)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker stayed blocked on a full results channel")
	}
}

func TestWorkerNoOpNotReported(t *testing.T) {
	results := make(chan models.Record, 16)
	stop := make(chan struct{})
	w := &Worker{
		ID:      0,
		Backend: &stubBackend{noop: true},
		Results: results,
		Stop:    stop,
		Ops:     []models.Operation{models.OpRead},
	}
	done := runWorker(t, w)

	time.Sleep(50 * time.Millisecond)
	close(stop)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
	}
	assert.Empty(t, results, "no-op outcomes must not be reported")
}

func TestWorkerErrorBecomesErrorRecord(t *testing.T) {
	results := make(chan models.Record, 16)
	stop := make(chan struct{})
	w := &Worker{
		ID:      7,
		Backend: &stubBackend{err: errors.New("connection refused")},
		Results: results,
		Stop:    stop,
		Pause:   10 * time.Millisecond,
		Ops:     []models.Operation{models.OpWrite},
	}
	done := runWorker(t, w)

	var rec models.Record
	select {
	case rec = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("failed operation produced no record")
	}
	require.Equal(t, models.OpError, rec.Op)
	assert.Equal(t, 7, rec.Worker)
	assert.Zero(t, rec.Size)

	close(stop)
	<-done
}

func TestWorkerPanicIsolated(t *testing.T) {
	results := make(chan models.Record, 1)
	stop := make(chan struct{})
	w := &Worker{
		ID:      0,
		Backend: panicBackend{},
		Results: results,
		Stop:    stop,
		Ops:     []models.Operation{models.OpWrite},
	}
	done := runWorker(t, w)

	// the panic must be contained; the worker goroutine just ends
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("panicking worker never finished")
	}
}

type panicBackend struct{}

func (panicBackend) Write() (*models.Record, error)  { panic("backend bug") }
func (panicBackend) Read() (*models.Record, error)   { panic("backend bug") }
func (panicBackend) Delete() (*models.Record, error) { panic("backend bug") }
