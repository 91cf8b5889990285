package workflow

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/config"
	"github.com/TritonDataCenter/manta-chum/models"
	. "github.com/TritonDataCenter/manta-chum/pkg/logger"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"
	"github.com/TritonDataCenter/manta-chum/pkg/utils"
	"github.com/TritonDataCenter/manta-chum/pkg/vis"

	"github.com/cheggaaa/pb"
	"github.com/minio/pkg/console"
)

// Config is the full configuration surface of one run, produced by the CLI
// layer and consumed here.
type Config struct {
	Target      string
	Concurrency int
	Pause       time.Duration

	Sizes []uint64           // expanded file-size pool
	Ops   []models.Operation // expanded operation-mix pool

	Mode     queue.Mode
	QueueCap int

	Interval time.Duration
	Output   OutputMode
	Cap      DataCap

	Sync      string // listing file to pre-seed the queue from
	VisAddr   string // state-trace feed listen address, empty to disable
	OpLogPath string // compressed operation log, empty to disable
	CmdLine   string

	// backend transport settings
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	TLS       bool
	Insecure  bool
}

func (cfg Config) validate() error {
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if len(cfg.Sizes) == 0 {
		return fmt.Errorf("empty file-size pool")
	}
	if len(cfg.Ops) == 0 {
		return fmt.Errorf("empty operation-mix pool")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", cfg.Interval)
	}
	return nil
}

// Run executes one full load-generation run: build one backend per worker,
// spawn the workers and the stats collector, then join everything. Under
// normal operation the run ends only through the data cap or an interrupt.
func Run(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	q := queue.New(cfg.Mode, cfg.QueueCap)
	if cfg.Sync != "" {
		if err := seedQueue(q, cfg.Sync); err != nil {
			return fmt.Errorf("unable to pre-seed queue: %w", err)
		}
	}

	// One backend per worker; construction failures are fatal before any
	// worker starts.
	backends := make([]client.Backend, cfg.Concurrency)
	for i := range backends {
		b, err := client.New(cfg.Target, client.Options{
			Worker:     i,
			Sizes:      cfg.Sizes,
			Queue:      q,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			Region:     cfg.Region,
			TLS:        cfg.TLS,
			Insecure:   cfg.Insecure,
			Bucket:     cfg.Bucket,
			Concurrent: cfg.Concurrency,
		})
		if err != nil {
			return err
		}
		backends[i] = b
	}

	var prober client.FillProber
	if p, ok := backends[0].(client.FillProber); ok {
		prober = p
	}
	if cfg.Cap.NeedsProber() && prober == nil {
		return fmt.Errorf("target %q cannot probe filesystem fill; use an absolute byte cap", cfg.Target)
	}

	var feed *vis.Feed
	if cfg.VisAddr != "" {
		f, err := vis.Serve(cfg.VisAddr)
		if err != nil {
			return fmt.Errorf("unable to start vis feed: %w", err)
		}
		feed = f
		defer feed.Close()
	}

	var oplog *OpLog
	if cfg.OpLogPath != "" {
		l, err := NewOpLog(cfg.OpLogPath, cfg.CmdLine)
		if err != nil {
			return fmt.Errorf("unable to create operation log: %w", err)
		}
		oplog = l
		defer func() {
			if err := oplog.Close(); err != nil {
				Logger.Errorf("closing operation log: %v", err)
			}
		}()
	}

	results := make(chan models.Record, 4096)

	// Every worker holds its own receiving end of the stop broadcast so the
	// collector (or an interrupt) can notify all of them without a
	// rendezvous.
	stops := make([]chan struct{}, cfg.Concurrency)
	for i := range stops {
		stops[i] = make(chan struct{})
	}
	var stopOnce sync.Once
	stopAll := func() {
		stopOnce.Do(func() {
			for _, ch := range stops {
				close(ch)
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			console.Infoln("Interrupted, stopping workers...")
			Logger.Warn("interrupt received, stopping workers")
			stopAll()
		}
	}()

	Logger.Infof("starting %d workers against %s (mode %s, queue cap %d)",
		cfg.Concurrency, cfg.Target, cfg.Mode, cfg.QueueCap)

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for i := 0; i < cfg.Concurrency; i++ {
		w := &Worker{
			ID:      i,
			Backend: backends[i],
			Results: results,
			Stop:    stops[i],
			Pause:   cfg.Pause,
			Ops:     cfg.Ops,
			Feed:    feed,
		}
		go w.Run(&wg)
	}

	collector := &Collector{
		Results:  results,
		Interval: cfg.Interval,
		Output:   cfg.Output,
		Cap:      cfg.Cap,
		Prober:   prober,
		OpLog:    oplog,
		StopAll:  stopAll,
	}
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		collector.Run()
	}()

	// Join order matters: workers first, then close the stream so the
	// collector's next drain sees the end and renders the final report.
	wg.Wait()
	close(results)
	<-collectorDone

	Logger.Info("run complete")
	return nil
}

// seedQueue loads object identifiers (one per line) into the queue, for
// read-heavy workloads against data that already exists on the target.
func seedQueue(q *queue.Queue, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var objs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			objs = append(objs, line)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	var bar *utils.ProgressBar
	if !config.GlobalQuiet && !config.GlobalJSON {
		bar = utils.NewProgressBar(int64(len(objs)), pb.U_NO)
		bar.SetCaption("Seeding: ")
	}
	for i, obj := range objs {
		q.Insert(queue.Item{Obj: obj})
		if bar != nil {
			bar.Set64(int64(i + 1))
			bar.Update()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	Logger.Infof("pre-seeded %d objects from %s", len(objs), path)
	return nil
}
