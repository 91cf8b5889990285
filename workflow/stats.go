package workflow

import (
	"fmt"
	"time"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/models"
	. "github.com/TritonDataCenter/manta-chum/pkg/logger"
	"github.com/TritonDataCenter/manta-chum/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/minio/pkg/console"
	"go.uber.org/atomic"
)

// OutputMode selects how the collector renders a tick.
type OutputMode uint8

const (
	OutputHuman        OutputMode = iota // aggregate summary
	OutputHumanVerbose                   // adds the per-worker breakdown
	OutputTabular                        // fixed columns for downstream parsing
)

// ParseOutput parses the CLI output format name.
func ParseOutput(s string) (OutputMode, bool) {
	switch s {
	case "human":
		return OutputHuman, true
	case "human-verbose":
		return OutputHumanVerbose, true
	case "tabular":
		return OutputTabular, true
	}
	return OutputHuman, false
}

// WorkerStat aggregates records. Records can be folded in one at a time or
// merged from partial aggregates; the fields are plain sums, so either path
// yields the same totals.
type WorkerStat struct {
	Objs  uint64
	Bytes uint64
	TTFB  time.Duration
	RTT   time.Duration
}

func (s *WorkerStat) Add(r models.Record) {
	s.Objs++
	s.Bytes += r.Size
	s.TTFB += r.TTFB
	s.RTT += r.RTT
}

func (s *WorkerStat) Merge(o WorkerStat) {
	s.Objs += o.Objs
	s.Bytes += o.Bytes
	s.TTFB += o.TTFB
	s.RTT += o.RTT
}

func (s *WorkerStat) Clear() {
	*s = WorkerStat{}
}

// serializeRelative renders a stat when the caller doesn't care about
// elapsed time. Callers must guard Objs == 0.
func (s *WorkerStat) serializeRelative() string {
	return fmt.Sprintf("%d objects, %s, avg ttfb %dms, avg rtt %dms",
		s.Objs, humanize.IBytes(s.Bytes),
		(s.TTFB / time.Duration(s.Objs)).Milliseconds(),
		(s.RTT / time.Duration(s.Objs)).Milliseconds())
}

// serializeAbsolute renders a stat against total elapsed run time, for
// average throughput. Callers must guard Objs == 0 and elapsed == 0.
func (s *WorkerStat) serializeAbsolute(elapsed time.Duration) string {
	secs := elapsed.Seconds()
	return fmt.Sprintf("%d objects, %s, %ds, avg %.2f objs/s, avg %s/s",
		s.Objs, humanize.IBytes(s.Bytes), int64(secs),
		utils.Decimal(float64(s.Objs)/secs, 2),
		humanize.IBytes(uint64(float64(s.Bytes)/secs)))
}

// reportOps is the fixed render order for operation kinds.
var reportOps = []models.Operation{
	models.OpRead, models.OpWrite, models.OpDelete, models.OpError,
}

// Collector is the single consumer of every worker's result stream. Once
// per interval it drains whatever is buffered (a quiet interval is a valid,
// reportable state), folds records into the per-worker-tick, per-tick and
// cumulative aggregates, renders a report and evaluates the data cap.
type Collector struct {
	Results  <-chan models.Record
	Interval time.Duration
	Output   OutputMode
	Cap      DataCap
	Prober   client.FillProber
	OpLog    *OpLog

	// StopAll broadcasts the stop signal to every worker. Must be safe to
	// call more than once.
	StopAll func()

	// Written is the cumulative bytes-written counter the data cap is
	// evaluated against. Readable from other goroutines.
	Written atomic.Uint64

	start   time.Time
	tickN   uint64
	tick    map[models.Operation]*WorkerStat
	agg     map[models.Operation]*WorkerStat
	threads map[models.Operation]map[int]*WorkerStat
}

// Run loops until the results channel is closed, which happens only after
// every worker has quiesced. The final cumulative report is rendered on the
// way out.
func (c *Collector) Run() {
	c.start = time.Now()
	c.tick = make(map[models.Operation]*WorkerStat)
	c.agg = make(map[models.Operation]*WorkerStat)
	c.threads = make(map[models.Operation]map[int]*WorkerStat)

	if c.Output == OutputTabular {
		c.printTabularHeader()
	}

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for range ticker.C {
		closed := c.drain()
		c.report()
		c.clearTick()
		if closed {
			c.reportFinal()
			return
		}
		if c.Cap.Active() && c.Cap.Exceeded(c.Written.Load(), c.Prober) {
			Logger.Warnf("data cap reached (%s), stopping workers", c.Cap)
			if c.Output != OutputTabular {
				console.Infoln("Data cap reached:", c.Cap.String())
			}
			c.StopAll()
		}
	}
}

// drain catches up with the results workers sent while the collector slept.
// Never blocks waiting for new data. Returns true once the channel is
// closed and fully drained.
func (c *Collector) drain() bool {
	for {
		select {
		case res, ok := <-c.Results:
			if !ok {
				return true
			}
			c.fold(res)
		default:
			return false
		}
	}
}

func (c *Collector) fold(res models.Record) {
	byWorker, ok := c.threads[res.Op]
	if !ok {
		byWorker = make(map[int]*WorkerStat)
		c.threads[res.Op] = byWorker
	}
	if byWorker[res.Worker] == nil {
		byWorker[res.Worker] = &WorkerStat{}
	}
	byWorker[res.Worker].Add(res)

	if c.tick[res.Op] == nil {
		c.tick[res.Op] = &WorkerStat{}
	}
	c.tick[res.Op].Add(res)

	if c.agg[res.Op] == nil {
		c.agg[res.Op] = &WorkerStat{}
	}
	c.agg[res.Op].Add(res)

	if res.Op == models.OpWrite {
		c.Written.Add(res.Size)
	}
	if c.OpLog != nil {
		c.OpLog.Add(res)
	}
}

func (c *Collector) clearTick() {
	for _, s := range c.tick {
		s.Clear()
	}
	for _, byWorker := range c.threads {
		for _, s := range byWorker {
			s.Clear()
		}
	}
}

func (c *Collector) report() {
	c.tickN++
	if c.Output == OutputTabular {
		c.reportTabular()
		return
	}

	console.Println("---")
	if c.Output == OutputHumanVerbose {
		for _, op := range reportOps {
			byWorker, ok := c.threads[op]
			if !ok {
				continue
			}
			console.Println(fmt.Sprintf("Thread (%s)", op))
			for id, s := range byWorker {
				if s.Objs == 0 {
					// no activity, nothing to average
					continue
				}
				console.Println(fmt.Sprintf("\t%d: %s", id, s.serializeRelative()))
			}
		}
	}

	for _, op := range reportOps {
		s, ok := c.tick[op]
		if !ok {
			continue
		}
		if s.Objs == 0 {
			console.Println(fmt.Sprintf("Tick (%s)\tNo activity this tick", op))
			continue
		}
		console.Println(fmt.Sprintf("Tick (%s)\t%s", op, s.serializeRelative()))
	}

	elapsed := time.Since(c.start)
	for _, op := range reportOps {
		s, ok := c.agg[op]
		if !ok {
			continue
		}
		if s.Objs == 0 || elapsed < time.Second {
			console.Println(fmt.Sprintf("Total (%s)\tNo activity", op))
			continue
		}
		console.Println(fmt.Sprintf("Total (%s)\t%s", op, s.serializeAbsolute(elapsed)))
	}
}

func (c *Collector) printTabularHeader() {
	fmt.Printf("%-6s %-8s %-8s %12s %14s %10s %10s %12s %14s\n",
		"TICK", "TIME", "OP",
		"T_OBJS", "T_BYTES", "T_TTFB_MS", "T_RTT_MS",
		"TOT_OBJS", "TOT_BYTES")
}

// reportTabular prints one fixed-width row per operation kind seen so far.
func (c *Collector) reportTabular() {
	now := time.Now().Format("15:04:05")
	seq := utils.Zfill(fmt.Sprint(c.tickN), 4)
	for _, op := range reportOps {
		agg, ok := c.agg[op]
		if !ok {
			continue
		}
		var ttfbMs, rttMs int64
		s := c.tick[op]
		if s == nil {
			s = &WorkerStat{}
		}
		if s.Objs > 0 {
			ttfbMs = (s.TTFB / time.Duration(s.Objs)).Milliseconds()
			rttMs = (s.RTT / time.Duration(s.Objs)).Milliseconds()
		}
		fmt.Printf("%-6s %-8s %-8s %12d %14d %10d %10d %12d %14d\n",
			seq, now, op,
			s.Objs, s.Bytes, ttfbMs, rttMs,
			agg.Objs, agg.Bytes)
	}
}

// reportFinal renders the cumulative aggregates once all workers stopped.
func (c *Collector) reportFinal() {
	if c.Output == OutputTabular {
		return
	}
	elapsed := time.Since(c.start)
	console.Println("--- run complete ---")
	for _, op := range reportOps {
		s, ok := c.agg[op]
		if !ok || s.Objs == 0 {
			continue
		}
		if elapsed < time.Second {
			console.Println(fmt.Sprintf("Total (%s)\t%s", op, s.serializeRelative()))
			continue
		}
		console.Println(fmt.Sprintf("Total (%s)\t%s", op, s.serializeAbsolute(elapsed)))
	}
}
