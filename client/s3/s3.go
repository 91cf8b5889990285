// Package s3 is the S3-compatible backend, built on minio-go.
package s3

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/TritonDataCenter/manta-chum/client"
	"github.com/TritonDataCenter/manta-chum/config"
	"github.com/TritonDataCenter/manta-chum/models"
	"github.com/TritonDataCenter/manta-chum/pkg"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"

	"github.com/google/uuid"
	md5simd "github.com/minio/md5-simd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	client.Register("s3", New)
}

type s3Backend struct {
	cl     *minio.Client
	bucket string
	worker int
	sizes  []uint64
	q      *queue.Queue
	rng    *rand.Rand
	buf    []byte
}

func New(address string, opts client.Options) (client.Backend, error) {
	cl, err := minio.New(address, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       opts.TLS,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupAuto,
		CustomMD5:    md5simd.NewServer().NewHash,
		Transport:    client.Transport(opts),
	})
	if err != nil {
		return nil, err
	}
	cl.SetAppInfo(config.AppName, pkg.Version)

	b := &s3Backend{
		cl:     cl,
		bucket: opts.Bucket,
		worker: opts.Worker,
		sizes:  opts.Sizes,
		q:      opts.Queue,
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(opts.Worker)))
	b.rng = rng
	b.buf = client.RandomBuf(rng)

	if err := b.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return b, nil
}

// ensureBucket creates the bucket if missing. Another worker may win the
// race, so a creation failure is fine as long as the bucket exists after.
func (b *s3Backend) ensureBucket(ctx context.Context) error {
	x, err := b.cl.BucketExists(ctx, b.bucket)
	if err != nil {
		return err
	}
	if x {
		return nil
	}
	err = b.cl.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{})
	if err != nil {
		x, err2 := b.cl.BucketExists(ctx, b.bucket)
		if err2 != nil {
			return err2
		}
		if !x {
			return err
		}
	}
	return nil
}

func (b *s3Backend) Write() (*models.Record, error) {
	size := b.sizes[b.rng.Intn(len(b.sizes))]
	key := config.ObjectDir + "/" + uuid.New().String()

	start := time.Now()
	res, err := b.cl.PutObject(context.Background(), b.bucket, key,
		client.Payload(b.buf, size), int64(size), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
	rtt := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("writing %s failed: %w", key, err)
	}
	if res.Size != int64(size) {
		return nil, fmt.Errorf("short upload of %s: want %d, got %d", key, size, res.Size)
	}

	b.q.Insert(queue.Item{Obj: key})
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpWrite,
		Size:   size,
		// PutObject exposes no time-to-first-byte; report the round trip for both.
		TTFB: rtt,
		RTT:  rtt,
	}, nil
}

func (b *s3Backend) Read() (*models.Record, error) {
	item, ok := b.q.Take()
	if !ok {
		return nil, nil
	}

	start := time.Now()
	obj, err := b.cl.GetObject(context.Background(), b.bucket, item.Obj, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	var first [1]byte
	fn, err := obj.Read(first[:])
	ttfb := time.Since(start)
	if err != nil && err != io.EOF {
		obj.Close()
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	n, err := io.Copy(io.Discard, obj)
	obj.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", item.Obj, err)
	}
	n += int64(fn)

	b.q.Insert(item)
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpRead,
		Size:   uint64(n),
		TTFB:   ttfb,
		RTT:    time.Since(start),
	}, nil
}

func (b *s3Backend) Delete() (*models.Record, error) {
	item, ok := b.q.Take()
	if !ok {
		return nil, nil
	}

	start := time.Now()
	err := b.cl.RemoveObject(context.Background(), b.bucket, item.Obj, minio.RemoveObjectOptions{})
	rtt := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("deleting %s failed: %w", item.Obj, err)
	}
	return &models.Record{
		Worker: b.worker,
		Op:     models.OpDelete,
		Size:   0,
		TTFB:   rtt,
		RTT:    rtt,
	}, nil
}
