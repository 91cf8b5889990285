package workflow

import (
	"fmt"

	"github.com/TritonDataCenter/manta-chum/client"
	. "github.com/TritonDataCenter/manta-chum/pkg/logger"
)

type capKind uint8

const (
	capNone capKind = iota
	capBytes
	capPercent
)

// DataCap limits a run: either an absolute byte budget for writes, or a
// fill percentage of the target filesystem. Evaluated once per reporting
// tick, so crossing is detected with at most one interval of delay.
type DataCap struct {
	kind  capKind
	bytes uint64
	pct   float64
}

// ByteCap stops the run once n total bytes have been written.
func ByteCap(n uint64) DataCap {
	return DataCap{kind: capBytes, bytes: n}
}

// FillCap stops the run once the target filesystem reaches pct% full.
func FillCap(pct float64) DataCap {
	return DataCap{kind: capPercent, pct: pct}
}

func (c DataCap) Active() bool {
	return c.kind != capNone
}

// NeedsProber reports whether the cap requires a filesystem fill probe.
func (c DataCap) NeedsProber() bool {
	return c.kind == capPercent
}

func (c DataCap) String() string {
	switch c.kind {
	case capBytes:
		return fmt.Sprintf("%d bytes written", c.bytes)
	case capPercent:
		return fmt.Sprintf("%.1f%% filesystem fill", c.pct)
	}
	return "none"
}

// Exceeded evaluates the cap against the cumulative bytes written so far
// and, for percentage caps, the prober. A probe failure is logged and
// treated as not-exceeded; it will be retried next tick.
func (c DataCap) Exceeded(written uint64, prober client.FillProber) bool {
	switch c.kind {
	case capBytes:
		return written >= c.bytes
	case capPercent:
		if prober == nil {
			return false
		}
		fill, err := prober.Fill()
		if err != nil {
			Logger.Errorf("fill probe failed: %v", err)
			return false
		}
		return fill >= c.pct
	}
	return false
}
