// Package fs is the local-filesystem backend. Mostly useful for smoke
// testing the generator itself, and the only backend that can probe
// filesystem fill for percentage data caps.
package fs

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/config"
	"github.com/TritonDataCenter/manta-chum/models"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/disk"
)

func init() {
	client.Register("fs", New)
}

type fsBackend struct {
	root   string
	worker int
	sizes  []uint64
	q      *queue.Queue
	rng    *rand.Rand
	buf    []byte
}

func New(address string, opts client.Options) (client.Backend, error) {
	root, err := filepath.Abs(address)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, config.ObjectDir), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create object dir under %s: %w", root, err)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(opts.Worker)))
	return &fsBackend{
		root:   root,
		worker: opts.Worker,
		sizes:  opts.Sizes,
		q:      opts.Queue,
		rng:    rng,
		buf:    client.RandomBuf(rng),
	}, nil
}

func (b *fsBackend) Write() (*models.Record, error) {
	size := b.sizes[b.rng.Intn(len(b.sizes))]
	obj := filepath.Join(config.ObjectDir, uuid.New().String())

	start := time.Now()
	f, err := os.Create(filepath.Join(b.root, obj))
	if err != nil {
		return nil, fmt.Errorf("writing %s failed: %w", obj, err)
	}
	_, err = io.Copy(f, client.Payload(b.buf, size))
	ttfb := time.Since(start)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(filepath.Join(b.root, obj))
		return nil, fmt.Errorf("writing %s failed: %w", obj, err)
	}

	b.q.Insert(queue.Item{Obj: obj})
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpWrite,
		Size:   size,
		TTFB:   ttfb,
		RTT:    time.Since(start),
	}, nil
}

func (b *fsBackend) Read() (*models.Record, error) {
	item, ok := b.q.Take()
	if !ok {
		// nothing written yet
		return nil, nil
	}

	start := time.Now()
	f, err := os.Open(filepath.Join(b.root, item.Obj))
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	var first [1]byte
	fn, err := f.Read(first[:])
	ttfb := time.Since(start)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	n, err := io.Copy(io.Discard, f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	n += int64(fn)

	// Still on the target, keep tracking it.
	b.q.Insert(item)
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpRead,
		Size:   uint64(n),
		TTFB:   ttfb,
		RTT:    time.Since(start),
	}, nil
}

func (b *fsBackend) Delete() (*models.Record, error) {
	item, ok := b.q.Take()
	if !ok {
		return nil, nil
	}

	start := time.Now()
	if err := os.Remove(filepath.Join(b.root, item.Obj)); err != nil {
		return nil, fmt.Errorf("deleting %s failed: %w", item.Obj, err)
	}
	rtt := time.Since(start)
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpDelete,
		Size:   0,
		TTFB:   rtt,
		RTT:    rtt,
	}, nil
}

// Fill reports how full the filesystem holding the target directory is.
func (b *fsBackend) Fill() (float64, error) {
	usage, err := disk.Usage(b.root)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}
