// Package webdav is the backend for plain HTTP file servers (nginx dav,
// Apache mod_dav and the like): PUT to write, GET to read, DELETE to delete.
package webdav

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/config"
	"github.com/TritonDataCenter/manta-chum/models"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"

	"github.com/google/uuid"
)

func init() {
	client.Register("webdav", New)
}

type webdavBackend struct {
	base   string // e.g. http://10.0.0.1:80
	hc     *http.Client
	worker int
	sizes  []uint64
	q      *queue.Queue
	rng    *rand.Rand
	buf    []byte
}

func New(address string, opts client.Options) (client.Backend, error) {
	scheme := "http"
	if opts.TLS {
		scheme = "https"
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(opts.Worker)))
	return &webdavBackend{
		base:   fmt.Sprintf("%s://%s", scheme, address),
		hc:     &http.Client{Transport: client.Transport(opts)},
		worker: opts.Worker,
		sizes:  opts.Sizes,
		q:      opts.Queue,
		rng:    rng,
		buf:    client.RandomBuf(rng),
	}, nil
}

func (b *webdavBackend) url(obj string) string {
	return b.base + "/" + obj
}

// do runs one request and reports round-trip plus time-to-first-byte of the
// response, with the body fully drained.
func (b *webdavBackend) do(req *http.Request) (status int, n int64, ttfb, rtt time.Duration, err error) {
	start := time.Now()
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() { ttfb = time.Since(start) },
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := b.hc.Do(req)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	n, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	rtt = time.Since(start)
	if ttfb == 0 {
		ttfb = rtt
	}
	return resp.StatusCode, n, ttfb, rtt, err
}

func (b *webdavBackend) Write() (*models.Record, error) {
	size := b.sizes[b.rng.Intn(len(b.sizes))]
	obj := config.ObjectDir + "/" + uuid.New().String()

	req, err := http.NewRequest(http.MethodPut, b.url(obj), client.Payload(b.buf, size))
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(size)

	status, _, ttfb, rtt, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("writing %s failed: %w", obj, err)
	}
	// 201 for a new file, 204 for an overwrite. Anything else is unexpected.
	if status != http.StatusCreated && status != http.StatusNoContent {
		return nil, fmt.Errorf("writing %s failed: %d", obj, status)
	}

	b.q.Insert(queue.Item{Obj: obj})
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpWrite,
		Size:   size,
		TTFB:   ttfb,
		RTT:    rtt,
	}, nil
}

func (b *webdavBackend) Read() (*models.Record, error) {
	item, ok := b.q.Take()
	if !ok {
		return nil, nil
	}

	req, err := http.NewRequest(http.MethodGet, b.url(item.Obj), nil)
	if err != nil {
		return nil, err
	}
	status, n, ttfb, rtt, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("reading %s failed: %d", item.Obj, status)
	}

	b.q.Insert(item)
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpRead,
		Size:   uint64(n),
		TTFB:   ttfb,
		RTT:    rtt,
	}, nil
}

func (b *webdavBackend) Delete() (*models.Record, error) {
	item, ok := b.q.Take()
	if !ok {
		return nil, nil
	}

	req, err := http.NewRequest(http.MethodDelete, b.url(item.Obj), nil)
	if err != nil {
		return nil, err
	}
	status, _, ttfb, rtt, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("deleting %s failed: %w", item.Obj, err)
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return nil, fmt.Errorf("deleting %s failed: %d", item.Obj, status)
	}

	return &models.Record{
		Worker: b.worker,
		Op:     models.OpDelete,
		Size:   0,
		TTFB:   ttfb,
		RTT:    rtt,
	}, nil
}
