package workflow

import (
	"math/rand"
	"sync"
	"time"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/models"
	. "github.com/TritonDataCenter/manta-chum/pkg/logger"
	"github.com/TritonDataCenter/manta-chum/pkg/vis"
)

// Worker drives one concurrency slot: sample an operation from the mix
// pool, run it through the backend, report the outcome, pause, repeat.
//
// Cancellation is cooperative. The stop channel is polled between
// operations, never preempting in-flight I/O; a worker that observes the
// stop after a completed operation discards that result and exits without
// sending anything further.
type Worker struct {
	ID      int
	Backend client.Backend
	Results chan<- models.Record
	Stop    <-chan struct{}
	Pause   time.Duration
	Ops     []models.Operation
	Feed    *vis.Feed

	rng *rand.Rand
}

// Run is the worker loop. A panic out of the backend is isolated here so a
// single misbehaving backend cannot take the whole generator down.
func (w *Worker) Run(wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("worker %d panicked: %v", w.ID, r)
		}
	}()

	// Per-worker random source; the queue is the only shared state.
	w.rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(w.ID)))

	for {
		op := w.Ops[w.rng.Intn(len(w.Ops))]
		w.Feed.Emit(vis.Event{Worker: w.ID, State: vis.StateIO, Op: op.String(), Time: time.Now()})

		var (
			rec *models.Record
			err error
		)
		switch op {
		case models.OpRead:
			rec, err = w.Backend.Read()
		case models.OpWrite:
			rec, err = w.Backend.Write()
		case models.OpDelete:
			rec, err = w.Backend.Delete()
		}

		if !w.process(rec, err) {
			w.Feed.Emit(vis.Event{Worker: w.ID, State: vis.StateStopped, Time: time.Now()})
			Logger.Debugf("worker %d stopped", w.ID)
			return
		}

		if w.Pause > 0 {
			w.Feed.Emit(vis.Event{Worker: w.ID, State: vis.StatePause, Time: time.Now()})
			time.Sleep(w.Pause)
		}
	}
}

// process turns one backend outcome into at most one record on the results
// channel. Returns false when the loop must terminate.
func (w *Worker) process(rec *models.Record, err error) bool {
	if err != nil {
		Logger.Errorf("worker %d: %v", w.ID, err)
		if w.stopped() {
			return false
		}
		// Failed operations stay visible in the aggregates as their own
		// kind. No retry: the job is to keep generating load.
		return w.send(models.Record{Worker: w.ID, Op: models.OpError})
	}

	if rec == nil {
		// Precondition not met (e.g. nothing to read yet). Not reportable.
		return !w.stopped()
	}

	// The collector may have stopped listening while this operation was in
	// flight. The work happened but goes unaccounted; stop the worker.
	if w.stopped() {
		return false
	}
	return w.send(*rec)
}

// send delivers a record unless the stop broadcast arrives first.
func (w *Worker) send(rec models.Record) bool {
	select {
	case w.Results <- rec:
		return true
	case <-w.Stop:
		return false
	}
}

func (w *Worker) stopped() bool {
	select {
	case <-w.Stop:
		return true
	default:
		return false
	}
}
