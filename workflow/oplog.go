package workflow

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/TritonDataCenter/manta-chum/models"
	. "github.com/TritonDataCenter/manta-chum/pkg/logger"

	"github.com/klauspost/compress/zstd"
)

// OpLog records every operation as a CSV row inside a zstd stream, for
// offline analysis. Only the collector writes to it, so no locking.
type OpLog struct {
	f   *os.File
	enc *zstd.Encoder
	w   *csv.Writer
	idx uint64
}

// NewOpLog creates path and writes the column header plus the reconstructed
// command line as a leading comment.
func NewOpLog(path, cmdline string) (*OpLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		f.Close()
		return nil, err
	}
	if cmdline != "" {
		fmt.Fprintf(enc, "# %s\n", cmdline)
	}

	l := &OpLog{f: f, enc: enc, w: csv.NewWriter(enc)}
	if err := l.w.Write([]string{"idx", "worker", "op", "bytes", "ttfb_ms", "rtt_ms", "ts"}); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func (l *OpLog) Add(r models.Record) {
	err := l.w.Write([]string{
		fmt.Sprint(l.idx),
		fmt.Sprint(r.Worker),
		r.Op.String(),
		fmt.Sprint(r.Size),
		fmt.Sprint(r.TTFB.Milliseconds()),
		fmt.Sprint(r.RTT.Milliseconds()),
		fmt.Sprint(time.Now().UnixMilli()),
	})
	if err != nil {
		Logger.Errorf("oplog write failed: %v", err)
	}
	l.idx++
}

func (l *OpLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		Logger.Errorf("oplog flush failed: %v", err)
	}
	if err := l.enc.Close(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
